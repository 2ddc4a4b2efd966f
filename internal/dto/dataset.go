package dto

import (
	"io"

	"github.com/noah-isme/datamatch-api/internal/models"
)

// FilePart is an uploaded multipart file handed to the service layer.
type FilePart struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadDatasetRequest carries the parsed multipart upload.
type UploadDatasetRequest struct {
	DatasetName string
	RawData     string
	APIKey      string
	// Parts holds the "file" and "image" fields in that order when present.
	Parts []FilePart
}

// SetColorRequest changes the color tag of a dataset.
type SetColorRequest struct {
	ColorCode string `json:"colorCode" validate:"required"`
}

// SetFinalValueRequest defines the reference value for a dataset name.
type SetFinalValueRequest struct {
	DatasetName string `json:"datasetName" validate:"required"`
	FinalValue  string `json:"finalValue" validate:"required"`
}

// SetFinalValueResponse reports the stored reference and how many datasets share its name.
type SetFinalValueResponse struct {
	Reference     *models.ReferenceEntry `json:"reference"`
	AffectedUsers int                    `json:"affectedUsers"`
}
