package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	"github.com/noah-isme/datamatch-api/pkg/storage"
)

type publicServiceMock struct{}

func (publicServiceMock) ListDatasets(ctx context.Context) ([]models.PublicDataset, bool, error) {
	return []models.PublicDataset{{ID: 1, DatasetName: "Lab1"}}, false, nil
}

type fileStoreMock struct {
	files map[string]string
}

func (f fileStoreMock) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	return name, nil
}

func (f fileStoreMock) Open(ctx context.Context, name string) (*storage.Object, error) {
	body, ok := f.files[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{Reader: io.NopCloser(strings.NewReader(body)), Size: int64(len(body)), ContentType: "image/png"}, nil
}

func (f fileStoreMock) Delete(ctx context.Context, name string) error {
	return nil
}

func TestPublicHandlerDatasets(t *testing.T) {
	h := NewPublicHandler(publicServiceMock{}, fileStoreMock{})
	c, w := newContext(http.MethodGet, "/public-datasets", nil, nil)

	h.Datasets(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Contains(t, string(env.Data), `"datasetName":"Lab1"`)
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestPublicHandlerUploadStreamsFile(t *testing.T) {
	h := NewPublicHandler(publicServiceMock{}, fileStoreMock{files: map[string]string{"a.png": "PNGDATA"}})

	c, w := newContext(http.MethodGet, "/uploads/a.png", nil, nil)
	c.Params = gin.Params{{Key: "name", Value: "/a.png"}}
	h.Upload(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PNGDATA", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	c, w = newContext(http.MethodGet, "/uploads/b.png", nil, nil)
	c.Params = gin.Params{{Key: "name", Value: "/b.png"}}
	h.Upload(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type paymentServiceMock struct{}

func (paymentServiceMock) Plans() []models.Plan {
	return []models.Plan{{Name: "Beginner"}, {Name: "Pro"}, {Name: "Premium"}}
}

func (paymentServiceMock) Simulate(ctx context.Context, principal models.Principal, req dto.SimulatePaymentRequest) (*dto.SimulatePaymentResponse, error) {
	return &dto.SimulatePaymentResponse{TransactionID: "TXN-00000000", Role: "student"}, nil
}

type keyServiceMock struct {
	plan string
}

func (k *keyServiceMock) Generate(ctx context.Context, principal models.Principal, req dto.GenerateKeyRequest) (*models.APIKey, error) {
	k.plan = req.Plan
	return &models.APIKey{ID: 1, Plan: req.Plan}, nil
}

func (k *keyServiceMock) ListMine(ctx context.Context, principal models.Principal) ([]models.APIKey, error) {
	return []models.APIKey{}, nil
}

func TestBillingHandler(t *testing.T) {
	keys := &keyServiceMock{}
	h := NewBillingHandler(paymentServiceMock{}, keys)

	c, w := newContext(http.MethodGet, "/payment/plans", nil, nil)
	h.Plans(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Premium")

	c, w = newContext(http.MethodPost, "/payment/simulate-payment", jsonBody(t, dto.SimulatePaymentRequest{PlanName: "Pro"}), studentPrincipal)
	h.SimulatePayment(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payment successful", decode(t, w).Meta["message"])

	c, w = newContext(http.MethodPost, "/keys/generate", nil, studentPrincipal)
	h.GenerateKey(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, keys.plan)
}
