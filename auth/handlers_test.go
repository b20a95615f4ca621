package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"dietcoach/models"
	"dietcoach/repository/memstore"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

type harness struct {
	store   *memstore.Store
	handler *Handler
	router  *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	h := &Handler{
		Users:       store,
		Sessions:    store,
		Tokens:      NewTokens([]byte("test-secret"), time.Hour),
		FrontendURL: "https://app.example.com/",
	}

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/google/login", h.GoogleLogin)
	r.GET("/auth/google/callback", h.GoogleCallback)
	protected := r.Group("/auth", AuthMiddleware(h.Tokens, store))
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
	protected.PUT("/me", h.UpdateMe)
	protected.PUT("/password", h.ChangePassword)

	return &harness{store: store, handler: h, router: r}
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (h *harness) register(t *testing.T, email, password string) string {
	t.Helper()
	w := h.do(http.MethodPost, "/auth/register", "", `{"name":"Coach","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeToken(t, w)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/register", "", `{"name":"Coach","email":"Coach@Example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), `"email":"coach@example.com"`)

	u, err := h.store.GetUserByEmail(context.Background(), "coach@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret1")))

	ok, err := h.store.SessionActive(context.Background(), decodeToken(t, w))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.register(t, "coach@example.com", "secret1")

	w := h.do(http.MethodPost, "/auth/register", "", `{"name":"Other","email":"COACH@example.com","password":"secret2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_ValidationFailure(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/register", "", `{"name":"C","email":"nope","password":"1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"email"`)
	assert.Contains(t, w.Body.String(), `"field":"password"`)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.register(t, "coach@example.com", "secret1")

	w := h.do(http.MethodPost, "/auth/login", "", `{"email":"coach@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decodeToken(t, w)

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"coach@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"nobody@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_GoogleOnlyAccount(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.CreateUser(context.Background(), &models.User{Email: "g@example.com", GoogleID: "sub-1"}))

	w := h.do(http.MethodPost, "/auth/login", "", `{"email":"g@example.com","password":"whatever"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Use Google login")
}

func TestAuthMiddleware(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "coach@example.com", "secret1")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddleware_SessionStoreFailure(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "coach@example.com", "secret1")
	h.store.Err = errors.New("mongo down")

	w := h.do(http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "coach@example.com", "secret1")

	w := h.do(http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Session expired")
}

func TestUpdateMe(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "coach@example.com", "secret1")

	w := h.do(http.MethodPut, "/auth/me", token, `{"name":"  Jane Coach ","bio":"Sports nutrition"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Jane Coach"`)
	assert.Contains(t, w.Body.String(), `"bio":"Sports nutrition"`)

	w = h.do(http.MethodPut, "/auth/me", token, `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/auth/me", token, `{"avatarUrl":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	token := h.register(t, "coach@example.com", "secret1")

	w := h.do(http.MethodPut, "/auth/password", token, `{"currentPassword":"nope","newPassword":"secret2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/auth/password", token, `{"currentPassword":"secret1","newPassword":"secret2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decodeToken(t, w)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/me", token, "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/auth/me", fresh, "").Code)

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":"coach@example.com","password":"secret2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGoogleLogin_Disabled(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/auth/google/login", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func newGoogleProvider(t *testing.T, profile string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (h *harness) enableGoogle(srv *httptest.Server) {
	h.handler.Google = &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
	}
	h.handler.UserInfoURL = srv.URL + "/userinfo"
}

func (h *harness) callback(state, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state="+url.QueryEscape(state), nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestGoogleLogin_RedirectsWithState(t *testing.T) {
	h := newHarness(t)
	h.enableGoogle(newGoogleProvider(t, `{}`))

	w := h.do(http.MethodGet, "/auth/google/login", "", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Contains(t, w.Header().Get("Set-Cookie"), stateCookie+"="+state)
}

func TestGoogleCallback_StateMismatch(t *testing.T) {
	h := newHarness(t)
	h.enableGoogle(newGoogleProvider(t, `{}`))

	w := h.callback("a", "b")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleCallback_CreatesUserAndRedirects(t *testing.T) {
	h := newHarness(t)
	h.enableGoogle(newGoogleProvider(t, `{"sub":"g-1","email":"g@example.com","name":"Gina","picture":"https://img.example.com/g.png"}`))

	w := h.callback("s1", "s1")
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	token := loc.Query().Get("token")
	require.NotEmpty(t, token)

	u, err := h.store.GetUserByEmail(context.Background(), "g@example.com")
	require.NoError(t, err)
	assert.Equal(t, "g-1", u.GoogleID)
	assert.Equal(t, "Gina", u.Name)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/auth/me", token, "").Code)
}

func TestGoogleCallback_PasswordAccountConflict(t *testing.T) {
	h := newHarness(t)
	h.register(t, "coach@example.com", "secret1")
	h.enableGoogle(newGoogleProvider(t, `{"sub":"g-2","email":"coach@example.com","name":"Coach"}`))

	w := h.callback("s1", "s1")
	assert.Equal(t, http.StatusConflict, w.Code)
}
