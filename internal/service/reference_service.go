package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/compare"
	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type referenceRepository interface {
	Upsert(ctx context.Context, entry *models.ReferenceEntry) (*models.ReferenceEntry, error)
	FindByName(ctx context.Context, name string) (*models.ReferenceEntry, error)
	List(ctx context.Context) ([]models.ReferenceEntry, error)
}

type cleanedDataSource interface {
	CleanedDataByName(ctx context.Context, name string) ([]string, error)
}

// ReferenceService manages instructor final values.
type ReferenceService struct {
	refs      referenceRepository
	datasets  cleanedDataSource
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(refs referenceRepository, datasets cleanedDataSource, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReferenceService{refs: refs, datasets: datasets, validator: validate, logger: logger}
}

// SetFinalValue upserts the reference for a dataset name. The combined total is
// computed from the datasets present now and is not refreshed by later uploads.
func (s *ReferenceService) SetFinalValue(ctx context.Context, req dto.SetFinalValueRequest) (*dto.SetFinalValueResponse, error) {
	req.DatasetName = strings.TrimSpace(req.DatasetName)
	req.FinalValue = strings.TrimSpace(req.FinalValue)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "datasetName and finalValue are required")
	}

	rows, err := s.datasets.CleanedDataByName(ctx, req.DatasetName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load datasets")
	}

	entry, err := s.refs.Upsert(ctx, &models.ReferenceEntry{
		DatasetName:   req.DatasetName,
		FinalValue:    req.FinalValue,
		CombinedTotal: compare.CombinedTotal(req.FinalValue, rows),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save final value")
	}

	s.logger.Info("reference final value set", zap.String("dataset_name", entry.DatasetName), zap.Int("affected", len(rows)))
	return &dto.SetFinalValueResponse{Reference: entry, AffectedUsers: len(rows)}, nil
}

// Find returns the reference for name or a 404.
func (s *ReferenceService) Find(ctx context.Context, name string) (*models.ReferenceEntry, error) {
	entry, err := s.refs.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reference dataset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference")
	}
	return entry, nil
}

// List returns every reference, most recently updated first.
func (s *ReferenceService) List(ctx context.Context) ([]models.ReferenceEntry, error) {
	entries, err := s.refs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list references")
	}
	return entries, nil
}
