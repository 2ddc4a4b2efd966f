package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

type referenceService interface {
	SetFinalValue(ctx context.Context, req dto.SetFinalValueRequest) (*dto.SetFinalValueResponse, error)
	List(ctx context.Context) ([]models.ReferenceEntry, error)
}

// ReferenceHandler manages the reference values datasets are graded against.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(svc referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// SetFinalValue godoc
// @Summary Set reference value
// @Description Store the expected final value for every dataset sharing a name
// @Tags Dataset Master
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SetFinalValueRequest true "Reference"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dataset-master/set-final-value [post]
func (h *ReferenceHandler) SetFinalValue(c *gin.Context) {
	var req dto.SetFinalValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid reference payload"))
		return
	}
	res, err := h.service.SetFinalValue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List reference values
// @Tags Dataset Master
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dataset-master/all [get]
func (h *ReferenceHandler) List(c *gin.Context) {
	refs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refs, nil)
}
