package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/middleware"
	"github.com/noah-isme/datamatch-api/internal/models"
	"github.com/noah-isme/datamatch-api/internal/service"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

type analysisService interface {
	Analyze(ctx context.Context, principal models.Principal, req dto.AnalyzeRequest) (*service.AnalysisResult, error)
	History(ctx context.Context, principal models.Principal) ([]models.AnalysisRecord, error)
	ExportHistory(ctx context.Context, principal models.Principal, format string) (*service.HistoryExport, error)
}

// AnalysisHandler exposes dataset comparison and history.
type AnalysisHandler struct {
	service analysisService
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(svc analysisService) *AnalysisHandler {
	return &AnalysisHandler{service: svc}
}

// Analyze godoc
// @Summary Analyze dataset
// @Description Compare a user's latest dataset with the reference value for its name
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AnalyzeRequest true "Dataset selector"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid analyze payload"))
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetSideEffects(c, result.SideEffects)
	response.JSON(c, http.StatusOK, result.Response, nil, middleware.ExtractMeta(c))
}

// History godoc
// @Summary Analysis history
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *AnalysisHandler) History(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.History(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ExportHistory godoc
// @Summary Export analysis history
// @Tags Analysis
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv,pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /history/export [get]
func (h *AnalysisHandler) ExportHistory(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	doc, err := h.service.ExportHistory(c.Request.Context(), principal, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
