package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/middleware"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/response"
	"github.com/noah-isme/datamatch-api/pkg/storage"
)

type publicService interface {
	ListDatasets(ctx context.Context) ([]models.PublicDataset, bool, error)
}

// PublicHandler serves unauthenticated reads.
type PublicHandler struct {
	service publicService
	files   storage.FileStore
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(svc publicService, files storage.FileStore) *PublicHandler {
	return &PublicHandler{service: svc, files: files}
}

// Datasets godoc
// @Summary Public dataset listing
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public-datasets [get]
func (h *PublicHandler) Datasets(c *gin.Context) {
	datasets, cacheHit, err := h.service.ListDatasets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, datasets, nil, middleware.ExtractMeta(c))
}

// Upload streams a stored image.
func (h *PublicHandler) Upload(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	obj, err := h.files.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer obj.Reader.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Reader, nil)
}
