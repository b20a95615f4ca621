package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dietcoach/auth"
	"dietcoach/models"
	"dietcoach/notify"
	"dietcoach/repository/memstore"
	"dietcoach/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, ping func(context.Context) error) *gin.Engine {
	t.Helper()
	store := memstore.New()
	tokens := auth.NewTokens([]byte("routes-secret"), time.Hour)
	return SetupRouter(Deps{
		Logger:      zap.NewNop(),
		CORSOrigins: []string{"https://app.example.com"},
		Auth:        &auth.Handler{Users: store, Sessions: store, Tokens: tokens},
		API: &services.API{
			Clients:        store,
			Measurements:   store,
			DietPlans:      store,
			Appointments:   store,
			Activities:     store,
			Notifier:       notify.Noop{},
			MaxUploadBytes: 1 << 20,
		},
		Tokens:   tokens,
		Sessions: store,
		Ping:     ping,
	})
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newRouter(t, func(context.Context) error { return nil }), http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())

	w = serve(newRouter(t, func(context.Context) error { return errors.New("no primary") }), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNoRoute(t *testing.T) {
	w := serve(newRouter(t, nil), http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/clients", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newRouter(t, nil)
	for _, path := range []string{"/clients", "/measurements", "/dietplans", "/appointments", "/activities", "/dashboard", "/auth/me"} {
		assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, path, "", "").Code, path)
	}
}

func TestCoachFlow(t *testing.T) {
	r := newRouter(t, nil)

	w := serve(r, http.MethodPost, "/auth/register", "", `{"name":"Coach","email":"coach@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = serve(r, http.MethodPost, "/clients", reg.Token, `{"name":"Ana","height":168}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var client models.Client
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &client))

	w = serve(r, http.MethodPost, "/measurements", reg.Token, `{"clientId":"`+client.ID.Hex()+`","weight":64}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(r, http.MethodGet, "/dashboard", reg.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var d services.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.EqualValues(t, 1, d.Stats.TotalClients)
	assert.Len(t, d.RecentActivities, 2)

	w = serve(r, http.MethodPost, "/upload", reg.Token, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/logout", reg.Token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/clients", reg.Token, "").Code)
}

func TestPanicRecovered(t *testing.T) {
	r := newRouter(t, func(context.Context) error { panic("boom") })
	w := serve(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
