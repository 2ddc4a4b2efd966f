package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AnalysisRecord is an immutable comparison result owned by the analyzing user.
type AnalysisRecord struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"userId"`
	DatasetName     string         `db:"dataset_name" json:"datasetName"`
	MatchPercentage float64        `db:"match_percentage" json:"matchPercentage"`
	Missing         types.JSONText `db:"missing" json:"missing"`
	Extra           types.JSONText `db:"extra" json:"extra"`
	Result          string         `db:"result" json:"result"`
	AnalyzedValue   string         `db:"analyzed_value" json:"analyzedValue"`
	ImageURL        *string        `db:"image_url" json:"imageUrl"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// SideEffect reports the outcome of a best-effort write that must not fail
// the surrounding request.
type SideEffect struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}
