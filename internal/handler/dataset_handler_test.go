package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/dto"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type capturedPart struct {
	field       string
	contentType string
	body        string
}

type datasetServiceMock struct {
	req      dto.UploadDatasetRequest
	parts    []capturedPart
	colorErr error
}

func (m *datasetServiceMock) Upload(ctx context.Context, principal models.Principal, req dto.UploadDatasetRequest) (*models.Dataset, error) {
	m.req = req
	for _, p := range req.Parts {
		body, _ := io.ReadAll(p.Reader)
		m.parts = append(m.parts, capturedPart{field: p.Filename, contentType: p.ContentType, body: string(body)})
	}
	id, _ := principal.UserID()
	return &models.Dataset{ID: 1, UserID: id, DatasetName: req.DatasetName}, nil
}

func (m *datasetServiceMock) ListMine(ctx context.Context, principal models.Principal) ([]models.Dataset, error) {
	return []models.Dataset{{ID: 1}}, nil
}

func (m *datasetServiceMock) ListAll(ctx context.Context) ([]models.DatasetWithOwner, error) {
	return []models.DatasetWithOwner{}, nil
}

func (m *datasetServiceMock) SetColor(ctx context.Context, id int64, req dto.SetColorRequest) error {
	return m.colorErr
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][3]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f[0]+`"`)
		if f[1] != "" {
			h.Set("Content-Type", f[1])
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f[2]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestDatasetHandlerUploadParsesMultipart(t *testing.T) {
	mock := &datasetServiceMock{}
	h := NewDatasetHandler(mock, 1<<20)
	body, contentType := multipartBody(t,
		map[string]string{"datasetName": "Lab1", "rawData": "ignored"},
		map[string][3]string{
			"file":  {"values.txt", "application/octet-stream", "[1, 2]"},
			"image": {"plot.png", "image/png", "PNG"},
		})
	c, w := newContext(http.MethodPost, "/data/upload-dataset", body, studentPrincipal)
	c.Request.Header.Set("Content-Type", contentType)
	c.Request.Header.Set(APIKeyHeader, "abc")

	h.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Lab1", mock.req.DatasetName)
	assert.Equal(t, "ignored", mock.req.RawData)
	assert.Equal(t, "abc", mock.req.APIKey)
	require.Len(t, mock.parts, 2)
	assert.Equal(t, "values.txt", mock.parts[0].field)
	assert.Contains(t, mock.parts[0].contentType, "text/plain")
	assert.Equal(t, "[1, 2]", mock.parts[0].body)
	assert.Equal(t, "image/png", mock.parts[1].contentType)
}

func TestDatasetHandlerUploadRejectsOversizedFile(t *testing.T) {
	h := NewDatasetHandler(&datasetServiceMock{}, 4)
	body, contentType := multipartBody(t,
		map[string]string{"datasetName": "Lab1"},
		map[string][3]string{"file": {"values.txt", "text/plain", "1,2,3,4,5"}})
	c, w := newContext(http.MethodPost, "/data/upload-dataset", body, studentPrincipal)
	c.Request.Header.Set("Content-Type", contentType)

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetHandlerUploadRequiresPrincipal(t *testing.T) {
	h := NewDatasetHandler(&datasetServiceMock{}, 0)
	c, w := newContext(http.MethodPost, "/data/upload-dataset", nil, nil)

	h.Upload(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDatasetHandlerSetColor(t *testing.T) {
	h := NewDatasetHandler(&datasetServiceMock{}, 0)
	c, w := newContext(http.MethodPost, "/data/x/set-color", jsonBody(t, dto.SetColorRequest{ColorCode: "#ffffff"}), nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	h.SetColor(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := NewDatasetHandler(&datasetServiceMock{colorErr: appErrors.Clone(appErrors.ErrNotFound, "dataset not found")}, 0)
	c, w = newContext(http.MethodPost, "/data/9/set-color", jsonBody(t, dto.SetColorRequest{ColorCode: "#ffffff"}), nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	missing.SetColor(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newContext(http.MethodPost, "/data/9/set-color", jsonBody(t, dto.SetColorRequest{ColorCode: "#ffffff"}), nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.SetColor(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
