package studio

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, svc *Service, userKey string) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userKey != "" {
			c.Set("user_key", userKey)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1/studio"))
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerTryOn(t *testing.T) {
	t.Run("success returns image and usage", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "alice@example.com")

		w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
		require.Equal(t, http.StatusOK, w.Code)

		var resp TryOnResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.TryOnImageDataURI, "data:image/png;base64,")
		require.NotNil(t, resp.Usage)
		assert.Equal(t, int64(1), resp.Usage.Used)
	})

	t.Run("missing identity is 401", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "")

		w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "alice@example.com")

		req := httptest.NewRequest("POST", "/api/v1/studio/try-on", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid image is 400", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "alice@example.com")

		w := postJSON(router, "/api/v1/studio/try-on", &TryOnRequest{
			UserPhotoDataURI:    "data:image/gif;base64,aGk=",
			OutfitImageDataURIs: []string{validDataURI("image/png")},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})

	t.Run("exhausted quota is 429", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "alice@example.com")

		for i := 0; i < 3; i++ {
			w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "QUOTA_EXCEEDED")
		assert.Contains(t, w.Body.String(), "resets tomorrow")
	})

	t.Run("store outage is 503", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{}, &stubRepo{}, &failingQuotaStore{})
		router := newTestRouter(t, svc, "alice@example.com")

		w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "STORE_UNAVAILABLE")
	})

	t.Run("provider failure is 502", func(t *testing.T) {
		svc := newTestService(t, &stubProvider{failErr: ErrProviderFailed}, &stubRepo{}, nil)
		router := newTestRouter(t, svc, "alice@example.com")

		w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "GENERATION_FAILED")
	})
}

func TestHandlerColorPalette(t *testing.T) {
	svc := newTestService(t, &stubProvider{}, &stubRepo{}, nil)
	router := newTestRouter(t, svc, "alice@example.com")

	w := postJSON(router, "/api/v1/studio/color-palette", &PaletteRequest{
		UserImageDataURI: validDataURI("image/jpeg"),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PaletteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Cool Winter", resp.Season)
	assert.NotEmpty(t, resp.Palette)
}

func TestHandlerHistory(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, &stubProvider{}, repo, nil)
	router := newTestRouter(t, svc, "alice@example.com")

	w := postJSON(router, "/api/v1/studio/try-on", tryOnRequest())
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest("GET", "/api/v1/studio/history?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, KindTryOn, resp.Records[0].Kind)
}
