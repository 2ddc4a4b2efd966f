package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/compare"
	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
	"github.com/noah-isme/datamatch-api/pkg/storage"
)

// UploadsURLPrefix is the public path prefix stored in image URLs.
const UploadsURLPrefix = "uploads/"

type datasetRepository interface {
	Create(ctx context.Context, ds *models.Dataset) error
	CountByUser(ctx context.Context, userID int64) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Dataset, error)
	ListWithOwner(ctx context.Context) ([]models.DatasetWithOwner, error)
	UpdateColor(ctx context.Context, id int64, color string) error
}

type uploadKeyRepository interface {
	FindActive(ctx context.Context, key string, userID int64) (*models.APIKey, error)
}

// DatasetConfig bounds uploads.
type DatasetConfig struct {
	FreeUploadLimit int
	MaxTextBytes    int64
}

// DatasetService handles dataset uploads and listings.
type DatasetService struct {
	datasets  datasetRepository
	keys      uploadKeyRepository
	files     storage.FileStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    DatasetConfig
	now       func() time.Time
	color     func() (string, error)
}

// NewDatasetService constructs a DatasetService.
func NewDatasetService(datasets datasetRepository, keys uploadKeyRepository, files storage.FileStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config DatasetConfig) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.FreeUploadLimit <= 0 {
		config.FreeUploadLimit = 5
	}
	if config.MaxTextBytes <= 0 {
		config.MaxTextBytes = 10 << 20
	}
	return &DatasetService{
		datasets:  datasets,
		keys:      keys,
		files:     files,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
		color:     randomColor,
	}
}

// Upload validates quota and input, normalizes the raw text, stores an optional image and inserts the row.
func (s *DatasetService) Upload(ctx context.Context, principal models.Principal, req dto.UploadDatasetRequest) (*models.Dataset, error) {
	userID, err := requireUser(principal)
	if err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, userID, strings.TrimSpace(req.APIKey)); err != nil {
		if appErrors.FromError(err).Status < 500 {
			s.metrics.RecordUpload(UploadOutcomeLimited)
		}
		return nil, err
	}

	name := strings.TrimSpace(req.DatasetName)
	if name == "" {
		s.metrics.RecordUpload(UploadOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "dataset name is required")
	}

	raw, image, err := s.selectParts(req)
	if err != nil {
		s.metrics.RecordUpload(UploadOutcomeRejected)
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		s.metrics.RecordUpload(UploadOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "no data provided")
	}

	color, err := s.color()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pick color")
	}

	ds := &models.Dataset{
		UserID:      userID,
		DatasetName: name,
		RawData:     raw,
		CleanedData: compare.Normalize(raw),
		ColorCode:   color,
		CreatedAt:   s.now().UTC(),
	}

	var storedName string
	if image != nil {
		storedName = uuid.NewString() + safeExtension(image.Filename)
		if _, err := s.files.Save(ctx, storedName, image.Reader, image.Size, image.ContentType); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
		}
		url := UploadsURLPrefix + storedName
		ds.ImageURL = &url
	}

	if err := s.datasets.Create(ctx, ds); err != nil {
		if storedName != "" {
			if delErr := s.files.Delete(ctx, storedName); delErr != nil {
				s.logger.Warn("failed to remove orphaned upload", zap.String("name", storedName), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save dataset")
	}

	s.metrics.RecordUpload(UploadOutcomeStored)
	_ = s.cache.Invalidate(ctx, cachePatternListings)
	s.logger.Info("dataset uploaded", zap.Int64("dataset_id", ds.ID), zap.Int64("user_id", userID), zap.String("dataset_name", name))
	return ds, nil
}

// checkQuota enforces the free upload limit. Past it, a valid API key owned by
// the caller is required.
func (s *DatasetService) checkQuota(ctx context.Context, userID int64, apiKey string) error {
	count, err := s.datasets.CountByUser(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count uploads")
	}
	if count < s.config.FreeUploadLimit {
		return nil
	}
	if apiKey == "" {
		return appErrors.Clone(appErrors.ErrUploadLimit, fmt.Sprintf("upload limit reached (%d datasets), provide an API key or upgrade your plan", s.config.FreeUploadLimit))
	}

	key, err := s.keys.FindActive(ctx, apiKey, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrInvalidAPIKey
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check API key")
	}
	if key.Expired(s.now()) {
		return appErrors.ErrExpiredAPIKey
	}
	return nil
}

// selectParts picks the raw text and image. A text/* part wins over the rawData field.
func (s *DatasetService) selectParts(req dto.UploadDatasetRequest) (string, *dto.FilePart, error) {
	raw := req.RawData
	var (
		fromFile bool
		image    *dto.FilePart
	)
	for i := range req.Parts {
		part := &req.Parts[i]
		switch {
		case strings.HasPrefix(part.ContentType, "text/") && !fromFile:
			body, err := io.ReadAll(io.LimitReader(part.Reader, s.config.MaxTextBytes+1))
			if err != nil {
				return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read uploaded file")
			}
			if int64(len(body)) > s.config.MaxTextBytes {
				return "", nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is too large")
			}
			raw, fromFile = string(body), true
		case strings.HasPrefix(part.ContentType, "image/") && image == nil:
			image = part
		}
	}
	return raw, image, nil
}

// ListMine returns the caller's datasets, newest first.
func (s *DatasetService) ListMine(ctx context.Context, principal models.Principal) ([]models.Dataset, error) {
	userID, ok := principal.UserID()
	if !ok {
		return []models.Dataset{}, nil
	}
	datasets, err := s.datasets.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list datasets")
	}
	return datasets, nil
}

// ListAll returns every dataset with its uploader.
func (s *DatasetService) ListAll(ctx context.Context) ([]models.DatasetWithOwner, error) {
	datasets, err := s.datasets.ListWithOwner(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list datasets")
	}
	return datasets, nil
}

// SetColor updates the color tag of a dataset.
func (s *DatasetService) SetColor(ctx context.Context, id int64, req dto.SetColorRequest) error {
	req.ColorCode = strings.TrimSpace(req.ColorCode)
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid dataset id")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "colorCode is required")
	}
	if err := s.datasets.UpdateColor(ctx, id, req.ColorCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "dataset not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set color")
	}
	_ = s.cache.Invalidate(ctx, cachePatternListings)
	return nil
}

var extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

func safeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}

func randomColor() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02x%02x%02x", buf[0], buf[1], buf[2]), nil
}
