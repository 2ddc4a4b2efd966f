package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

// jsonCacheRepo mimics the Redis repository by round-tripping values through JSON.
type jsonCacheRepo struct {
	values map[string][]byte
}

func (j *jsonCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := j.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (j *jsonCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	j.values[key] = raw
	return nil
}

func (j *jsonCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range j.values {
		if strings.HasPrefix(k, prefix) {
			delete(j.values, k)
		}
	}
	return nil
}

type fakePublicRepo struct {
	calls int
	rows  []models.PublicDataset
}

func (f *fakePublicRepo) ListPublic(ctx context.Context) ([]models.PublicDataset, error) {
	f.calls++
	return f.rows, nil
}

func TestPublicListingCachedAndInvalidatedByUpload(t *testing.T) {
	cache := NewCacheService(&jsonCacheRepo{values: map[string][]byte{}}, nil, time.Minute, nil, true)
	repo := &fakePublicRepo{rows: []models.PublicDataset{{ID: 1, DatasetName: "Lab1", ColorCode: "#fff000"}}}
	public := NewPublicService(repo, cache, nil)
	ctx := context.Background()

	first, hit, err := public.ListDatasets(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = public.ListDatasets(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, "Lab1", first[0].DatasetName)

	uploads := NewDatasetService(&fakeDatasetRepo{}, &fakeKeyLookup{}, &memoryStore{}, cache, nil, nil, nil, DatasetConfig{})
	_, err = uploads.Upload(ctx, student, dtoUpload("Lab2", "A"))
	require.NoError(t, err)

	_, hit, err = public.ListDatasets(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}

func TestPublicListingEmptyIsArray(t *testing.T) {
	public := NewPublicService(&fakePublicRepo{}, nil, nil)
	rows, _, err := public.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
