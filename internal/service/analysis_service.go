package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/compare"
	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/export"
)

// SideEffectReferenceSync names the best-effort copy of a reference onto the analyzed dataset.
const SideEffectReferenceSync = "dataset_reference_sync"

// SideEffectAnalysisRecord names the history entry written for every analysis.
const SideEffectAnalysisRecord = "analysis_record"

const noMatchPlaceholder = "—"

type analysisDatasetRepository interface {
	FindLatestByUserAndName(ctx context.Context, userID int64, name string) (*models.Dataset, error)
	CleanedDataByName(ctx context.Context, name string) ([]string, error)
	ApplyReference(ctx context.Context, id int64, finalValue string, combinedTotal *float64) error
}

type analysisRecordRepository interface {
	Create(ctx context.Context, rec *models.AnalysisRecord) error
	ListByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error)
}

type analysisUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type referenceLookup interface {
	FindByName(ctx context.Context, name string) (*models.ReferenceEntry, error)
}

// AnalysisResult is the analyze response plus the outcome of best-effort writes.
type AnalysisResult struct {
	Response    dto.AnalyzeResponse
	SideEffects []models.SideEffect
}

// HistoryExport is a rendered history document.
type HistoryExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AnalysisService compares uploads with references and keeps history.
type AnalysisService struct {
	datasets  analysisDatasetRepository
	records   analysisRecordRepository
	users     analysisUserRepository
	refs      referenceLookup
	renderers map[string]export.Renderer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalysisService constructs an AnalysisService with CSV and PDF exporters.
func NewAnalysisService(datasets analysisDatasetRepository, records analysisRecordRepository, users analysisUserRepository, refs referenceLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnalysisService{
		datasets: datasets,
		records:  records,
		users:    users,
		refs:     refs,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze compares the owner's latest dataset named req.DatasetName with its reference.
// Students may only analyze their own uploads.
func (s *AnalysisService) Analyze(ctx context.Context, principal models.Principal, req dto.AnalyzeRequest) (*AnalysisResult, error) {
	req.DatasetName = strings.TrimSpace(req.DatasetName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userId and datasetName are required")
	}
	if principal.PrincipalRole() == models.RoleStudent {
		if id, _ := principal.UserID(); id != req.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only analyze their own datasets")
		}
	}

	dataset, err := s.datasets.FindLatestByUserAndName(ctx, req.UserID, req.DatasetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user dataset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dataset")
	}

	reference, err := s.refs.FindByName(ctx, req.DatasetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reference dataset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference")
	}

	result := compare.Compare(compare.Tokenize(dataset.CleanedData), compare.Tokenize(reference.FinalValue))

	rows, err := s.datasets.CleanedDataByName(ctx, req.DatasetName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute frequency")
	}

	summary := dto.AnalysisSummary{
		Username:      s.username(ctx, dataset.UserID),
		DatasetName:   req.DatasetName,
		UploadDate:    dataset.CreatedAt.UTC().Format(time.DateOnly),
		UploadTime:    dataset.CreatedAt.UTC().Format(time.TimeOnly),
		AnalyzedValue: noMatchPlaceholder,
		Result:        result.MatchPercentage + "% match",
		ImageURL:      dataset.ImageURL,
	}
	if len(result.Matched) > 0 {
		summary.AnalyzedValue = strings.Join(result.Matched, ", ")
	}

	record := &models.AnalysisRecord{
		UserID:          req.UserID,
		DatasetName:     req.DatasetName,
		MatchPercentage: result.Percentage(),
		Missing:         jsonList(result.Missing),
		Extra:           jsonList(result.Extra),
		Result:          summary.Result,
		AnalyzedValue:   summary.AnalyzedValue,
		ImageURL:        dataset.ImageURL,
		CreatedAt:       s.now().UTC(),
	}
	recorded := models.SideEffect{Name: SideEffectAnalysisRecord, Applied: true}
	if err := s.records.Create(ctx, record); err != nil {
		recorded.Applied = false
		recorded.Error = "failed to save analysis history"
		s.logger.Warn("analysis record skipped", zap.Int64("user_id", req.UserID), zap.String("dataset", req.DatasetName), zap.Error(err))
	}

	synced := models.SideEffect{Name: SideEffectReferenceSync, Applied: true}
	if err := s.datasets.ApplyReference(ctx, dataset.ID, reference.FinalValue, reference.CombinedTotal); err != nil {
		synced.Applied = false
		synced.Error = "failed to copy reference onto dataset"
		s.logger.Warn("reference sync skipped", zap.Int64("dataset_id", dataset.ID), zap.Error(err))
	} else {
		_ = s.cache.Invalidate(ctx, cachePatternListings)
	}
	s.metrics.RecordSideEffect(recorded.Name, recorded.Applied)
	s.metrics.RecordSideEffect(synced.Name, synced.Applied)
	s.metrics.RecordAnalysis(record.MatchPercentage)

	return &AnalysisResult{
		Response: dto.AnalyzeResponse{
			RecordID: record.ID,
			Summary:  summary,
			Details: dto.AnalysisDetails{
				Matched:         result.Matched,
				Missing:         result.Missing,
				Extra:           result.Extra,
				MatchPercentage: result.MatchPercentage,
				Frequency:       compare.Frequency(rows),
			},
		},
		SideEffects: []models.SideEffect{recorded, synced},
	}, nil
}

// History returns the caller's analysis records, newest first.
func (s *AnalysisService) History(ctx context.Context, principal models.Principal) ([]models.AnalysisRecord, error) {
	userID, ok := principal.UserID()
	if !ok {
		return []models.AnalysisRecord{}, nil
	}
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return records, nil
}

// ExportHistory renders the caller's history as csv or pdf.
func (s *AnalysisService) ExportHistory(ctx context.Context, principal models.Principal, format string) (*HistoryExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	records, err := s.History(ctx, principal)
	if err != nil {
		return nil, err
	}

	table := export.Table{Headers: []string{"Date", "Dataset", "Match %", "Result", "Analyzed Value", "Missing", "Extra"}}
	for _, rec := range records {
		table.Rows = append(table.Rows, map[string]string{
			"Date":           rec.CreatedAt.UTC().Format(time.RFC3339),
			"Dataset":        rec.DatasetName,
			"Match %":        strconv.FormatFloat(rec.MatchPercentage, 'f', 2, 64),
			"Result":         rec.Result,
			"Analyzed Value": rec.AnalyzedValue,
			"Missing":        joinJSONList(rec.Missing),
			"Extra":          joinJSONList(rec.Extra),
		})
	}

	body, err := renderer.Render(table, "Analysis History")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &HistoryExport{
		Filename:    fmt.Sprintf("analysis-history-%s%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *AnalysisService) username(ctx context.Context, userID int64) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user.Username == "" {
		return "Unknown"
	}
	return user.Username
}

func jsonList(values []string) types.JSONText {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return types.JSONText(raw)
}

func joinJSONList(raw types.JSONText) string {
	var values []string
	if err := raw.Unmarshal(&values); err != nil {
		return ""
	}
	return strings.Join(values, ", ")
}
