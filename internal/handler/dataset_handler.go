package handler

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/response"
)

// APIKeyHeader carries the key that lifts the free upload limit.
const APIKeyHeader = "x-api-key"

var uploadFields = []string{"file", "image"}

// textExtensions covers raw data files whose type the system mime table may not know.
var textExtensions = map[string]string{".txt": "text/plain", ".csv": "text/csv", ".tsv": "text/tab-separated-values"}

type datasetService interface {
	Upload(ctx context.Context, principal models.Principal, req dto.UploadDatasetRequest) (*models.Dataset, error)
	ListMine(ctx context.Context, principal models.Principal) ([]models.Dataset, error)
	ListAll(ctx context.Context) ([]models.DatasetWithOwner, error)
	SetColor(ctx context.Context, id int64, req dto.SetColorRequest) error
}

// DatasetHandler serves dataset uploads and listings.
type DatasetHandler struct {
	service     datasetService
	maxFileSize int64
}

// NewDatasetHandler constructs a DatasetHandler. Each multipart file is capped at maxFileSize bytes.
func NewDatasetHandler(svc datasetService, maxFileSize int64) *DatasetHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &DatasetHandler{service: svc, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload dataset
// @Description Upload raw values as a form field or text file with an optional image
// @Tags Datasets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param datasetName formData string true "Dataset name"
// @Param rawData formData string false "Raw values"
// @Param file formData file false "Text file with raw values"
// @Param image formData file false "Image"
// @Param x-api-key header string false "API key required past the free upload limit"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /data/upload-dataset [post]
func (h *DatasetHandler) Upload(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(len(uploadFields)+1)*h.maxFileSize)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(c, bindError(err, "invalid upload payload"))
		return
	}

	req := dto.UploadDatasetRequest{
		DatasetName: c.PostForm("datasetName"),
		RawData:     c.PostForm("rawData"),
		APIKey:      c.GetHeader(APIKeyHeader),
	}

	for _, field := range uploadFields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		if header.Size > h.maxFileSize {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, field+" exceeds the maximum upload size"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, bindError(err, "failed to read "+field))
			return
		}
		defer file.Close()
		req.Parts = append(req.Parts, dto.FilePart{
			Filename:    header.Filename,
			ContentType: partContentType(header),
			Size:        header.Size,
			Reader:      file,
		})
	}

	dataset, err := h.service.Upload(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dataset)
}

// partContentType trusts the declared type unless it is missing or generic.
func partContentType(header *multipart.FileHeader) string {
	declared := strings.TrimSpace(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if text, ok := textExtensions[ext]; ok {
		return text
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return declared
}

// Mine godoc
// @Summary List own datasets
// @Tags Datasets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /data/my [get]
func (h *DatasetHandler) Mine(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	datasets, err := h.service.ListMine(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, datasets, nil)
}

// All godoc
// @Summary List every dataset
// @Tags Datasets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /data/all [get]
func (h *DatasetHandler) All(c *gin.Context) {
	datasets, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, datasets, nil)
}

// SetColor godoc
// @Summary Set dataset color
// @Tags Datasets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dataset ID"
// @Param payload body dto.SetColorRequest true "Color"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /data/{id}/set-color [post]
func (h *DatasetHandler) SetColor(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid color payload"))
		return
	}
	if err := h.service.SetColor(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, gin.H{"id": id, "colorCode": strings.TrimSpace(req.ColorCode)}, "color updated")
}
