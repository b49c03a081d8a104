package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ourscreen/internal/core/services"
	httphandlers "ourscreen/internal/handlers/http"
	"ourscreen/internal/infrastructure/middleware"
	"ourscreen/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tokenTestRouter(apiKey, apiSecret, url string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.LiveKit.APIKey = apiKey
	cfg.LiveKit.APISecret = apiSecret
	cfg.LiveKit.URL = url

	tokenService := services.NewTokenService(cfg, zap.NewNop().Sugar())
	handler := httphandlers.NewTokenHandler(tokenService, cfg, nil)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	handler.SetupRoutes(router)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestMint_RejectsIncompleteConfig(t *testing.T) {
	cases := []struct {
		name      string
		apiKey    string
		apiSecret string
		url       string
	}{
		{"no key", "", "secret", "wss://media.example.com"},
		{"no secret", "key", "", "wss://media.example.com"},
		{"no url", "key", "secret", ""},
		{"nothing", "", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := tokenTestRouter(tc.apiKey, tc.apiSecret, tc.url)

			// An unparseable body proves the endpoint fails closed before
			// reading the request
			w := postJSON(router, "/api/token", "this is not json")
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "CONFIG_MISSING", resp["error"])
		})
	}
}

func TestMint_RejectsIncompleteInput(t *testing.T) {
	router := tokenTestRouter("key-id", "super-secret-value-for-tests", "wss://media.example.com")

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing username", `{"room":"movie-night"}`},
		{"missing room", `{"username":"Sam"}`},
		{"whitespace room", `{"room":"   ","username":"Sam"}`},
		{"whitespace username", `{"roomName":"movie-night","participantName":"  "}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(router, "/api/token", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMint_AcceptsAliasFieldNames(t *testing.T) {
	router := tokenTestRouter("key-id", "super-secret-value-for-tests", "wss://media.example.com")

	bodies := []string{
		`{"room":"movie-night","username":"Sam"}`,
		`{"roomName":"movie-night","participantName":"Sam"}`,
		`{"room":"movie-night","participantName":"Sam"}`,
		`{"roomName":"movie-night","username":"Sam"}`,
	}

	for _, body := range bodies {
		w := postJSON(router, "/api/token", body)
		require.Equal(t, http.StatusOK, w.Code, "body: %s", body)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["token"])
		assert.Equal(t, "wss://media.example.com", resp["serviceUrl"])
	}
}

func TestMint_IsHostDoesNotChangeGrant(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LiveKit.APIKey = "key-id"
	cfg.LiveKit.APISecret = "super-secret-value-for-tests"
	cfg.LiveKit.URL = "wss://media.example.com"

	tokenService := services.NewTokenService(cfg, zap.NewNop().Sugar())
	handler := httphandlers.NewTokenHandler(tokenService, cfg, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	handler.SetupRoutes(router)

	for _, body := range []string{
		`{"room":"r","username":"Sam","isHost":true}`,
		`{"room":"r","username":"Sam","isHost":false}`,
	} {
		w := postJSON(router, "/api/token", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		claims, err := tokenService.Verify(resp["token"])
		require.NoError(t, err)
		assert.True(t, claims.Video.RoomJoin)
		assert.True(t, claims.Video.CanPublish)
		assert.True(t, claims.Video.CanSubscribe)
		assert.True(t, claims.Video.CanPublishData)
	}
}

func TestHealth_Idempotent(t *testing.T) {
	router := tokenTestRouter("key-id", "super-secret-value-for-tests", "wss://media.example.com")

	var previous map[string]interface{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["status"])
		assert.Equal(t, true, resp["hasConfig"])

		if previous != nil {
			assert.Equal(t, previous, resp)
		}
		previous = resp
	}
}

func TestHealth_ReportsMissingConfig(t *testing.T) {
	router := tokenTestRouter("", "", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["hasConfig"])
}

func TestConfigCheck_RedactsSecrets(t *testing.T) {
	router := tokenTestRouter("APIabcdef123", "longsecretvalue", "wss://media.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/token/config-check", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, true, resp["hasConfig"])
	assert.NotContains(t, w.Body.String(), "longsecretvalue")
	assert.Contains(t, resp["apiSecret"], "lon")
	assert.Contains(t, resp["apiSecret"], "lue")
	assert.Contains(t, resp["apiSecret"], "15 chars")
}

func TestMint_EndToEnd(t *testing.T) {
	router := tokenTestRouter("key-id", "super-secret-value-for-tests", "wss://media.example.com")

	w := postJSON(router, "/api/token", `{"room":"movie-night","username":"Sam"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "wss://media.example.com", resp["serviceUrl"])

	h := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	router.ServeHTTP(h, req)

	require.Equal(t, http.StatusOK, h.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(h.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["hasConfig"])
}
