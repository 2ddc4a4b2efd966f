package dto

// AnalyzeRequest selects the dataset to compare.
type AnalyzeRequest struct {
	UserID      int64  `json:"userId" validate:"required"`
	DatasetName string `json:"datasetName" validate:"required"`
}

// AnalysisSummary is the human readable outcome of an analysis.
type AnalysisSummary struct {
	Username      string  `json:"username"`
	DatasetName   string  `json:"datasetName"`
	UploadDate    string  `json:"uploadDate"`
	UploadTime    string  `json:"uploadTime"`
	AnalyzedValue string  `json:"analyzedValue"`
	Result        string  `json:"result"`
	ImageURL      *string `json:"imageUrl"`
}

// AnalysisDetails holds the raw comparison data.
type AnalysisDetails struct {
	Matched         []string       `json:"matched"`
	Missing         []string       `json:"missing"`
	Extra           []string       `json:"extra"`
	MatchPercentage string         `json:"matchPercentage"`
	Frequency       map[string]int `json:"frequency"`
}

// AnalyzeResponse is returned by the analyze endpoint.
type AnalyzeResponse struct {
	RecordID int64           `json:"recordId"`
	Summary  AnalysisSummary `json:"summary"`
	Details  AnalysisDetails `json:"details"`
}
