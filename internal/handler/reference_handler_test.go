package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type referenceServiceMock struct {
	got dto.SetFinalValueRequest
	err error
}

func (m *referenceServiceMock) SetFinalValue(ctx context.Context, req dto.SetFinalValueRequest) (*dto.SetFinalValueResponse, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SetFinalValueResponse{
		Reference:     &models.ReferenceEntry{ID: 1, DatasetName: req.DatasetName, FinalValue: req.FinalValue},
		AffectedUsers: 3,
	}, nil
}

func (m *referenceServiceMock) List(ctx context.Context) ([]models.ReferenceEntry, error) {
	return []models.ReferenceEntry{{ID: 1, DatasetName: "Lab1", FinalValue: "42"}}, nil
}

func TestReferenceHandlerSetFinalValue(t *testing.T) {
	mock := &referenceServiceMock{}
	h := NewReferenceHandler(mock)

	c, w := newContext(http.MethodPost, "/dataset-master/set-final-value",
		jsonBody(t, map[string]string{"datasetName": "Lab1", "finalValue": "42"}), studentPrincipal)
	c.Request.Header.Set("Content-Type", "application/json")
	h.SetFinalValue(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lab1", mock.got.DatasetName)
	assert.Contains(t, string(decode(t, w).Data), `"affectedUsers":3`)
}

func TestReferenceHandlerSetFinalValueErrors(t *testing.T) {
	h := NewReferenceHandler(&referenceServiceMock{})
	c, w := newContext(http.MethodPost, "/dataset-master/set-final-value", jsonBody(t, "nope"), studentPrincipal)
	c.Request.Header.Set("Content-Type", "application/json")
	h.SetFinalValue(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h = NewReferenceHandler(&referenceServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "final value required")})
	c, w = newContext(http.MethodPost, "/dataset-master/set-final-value",
		jsonBody(t, map[string]string{"datasetName": "Lab1"}), studentPrincipal)
	c.Request.Header.Set("Content-Type", "application/json")
	h.SetFinalValue(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "final value required", decode(t, w).Error.Message)
}

func TestReferenceHandlerList(t *testing.T) {
	h := NewReferenceHandler(&referenceServiceMock{})
	c, w := newContext(http.MethodGet, "/dataset-master/all", nil, studentPrincipal)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"datasetName":"Lab1"`)
}
