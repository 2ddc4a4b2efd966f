package service

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
)

type fakeReferenceRepo struct {
	entries map[string]*models.ReferenceEntry
}

func newFakeReferenceRepo(entries ...models.ReferenceEntry) *fakeReferenceRepo {
	repo := &fakeReferenceRepo{entries: map[string]*models.ReferenceEntry{}}
	for i := range entries {
		e := entries[i]
		repo.entries[strings.ToLower(e.DatasetName)] = &e
	}
	return repo
}

func (f *fakeReferenceRepo) Upsert(ctx context.Context, entry *models.ReferenceEntry) (*models.ReferenceEntry, error) {
	stored := *entry
	stored.NameKey = strings.ToLower(entry.DatasetName)
	f.entries[stored.NameKey] = &stored
	return &stored, nil
}

func (f *fakeReferenceRepo) FindByName(ctx context.Context, name string) (*models.ReferenceEntry, error) {
	if e, ok := f.entries[strings.ToLower(name)]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReferenceRepo) List(ctx context.Context) ([]models.ReferenceEntry, error) {
	out := make([]models.ReferenceEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

type fakeCleanedData map[string][]string

func (f fakeCleanedData) CleanedDataByName(ctx context.Context, name string) ([]string, error) {
	return f[strings.ToLower(name)], nil
}

func TestSetFinalValueNumeric(t *testing.T) {
	refs := newFakeReferenceRepo()
	svc := NewReferenceService(refs, fakeCleanedData{"lab1": {"10,20", "5,x"}}, nil, nil)

	resp, err := svc.SetFinalValue(context.Background(), dto.SetFinalValueRequest{DatasetName: "Lab1", FinalValue: "42"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.AffectedUsers)
	require.NotNil(t, resp.Reference.CombinedTotal)
	assert.Equal(t, 35.0, *resp.Reference.CombinedTotal)
}

func TestSetFinalValueTextualReplacesCaseInsensitively(t *testing.T) {
	refs := newFakeReferenceRepo(models.ReferenceEntry{DatasetName: "lab1", FinalValue: "old"})
	svc := NewReferenceService(refs, fakeCleanedData{"lab1": {"A,B"}}, nil, nil)

	resp, err := svc.SetFinalValue(context.Background(), dto.SetFinalValueRequest{DatasetName: "LAB1", FinalValue: "A,B,C"})
	require.NoError(t, err)
	assert.Nil(t, resp.Reference.CombinedTotal)
	assert.Len(t, refs.entries, 1)
	assert.Equal(t, "A,B,C", refs.entries["lab1"].FinalValue)
}

func TestSetFinalValueValidation(t *testing.T) {
	svc := NewReferenceService(newFakeReferenceRepo(), fakeCleanedData{}, nil, nil)
	_, err := svc.SetFinalValue(context.Background(), dto.SetFinalValueRequest{DatasetName: "Lab1", FinalValue: "  "})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestFindReferenceNotFound(t *testing.T) {
	svc := NewReferenceService(newFakeReferenceRepo(), fakeCleanedData{}, nil, nil)
	_, err := svc.Find(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
