package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (header, stored string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		stored = Value(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get(headerKey), stored
}

func TestMiddlewareGeneratesUUID(t *testing.T) {
	header, stored := serve(t, "")
	assert.Equal(t, header, stored)
	_, err := uuid.Parse(stored)
	require.NoError(t, err)
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	header, stored := serve(t, "edge-42")
	assert.Equal(t, "edge-42", header)
	assert.Equal(t, "edge-42", stored)
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	for _, incoming := range []string{"has space", strings.Repeat("a", maxIDLength+1)} {
		header, _ := serve(t, incoming)
		assert.NotEqual(t, incoming, header)
		_, err := uuid.Parse(header)
		assert.NoError(t, err)
	}
}

func TestValueWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, Value(c))
}
