package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dietcoach/auth"
	"dietcoach/models"
	"dietcoach/repository"
	"dietcoach/repository/memstore"
	"dietcoach/storage"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

var testNow = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

type notice struct {
	clientID primitive.ObjectID
	text     string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (f *fakeNotifier) NotifyClient(_ context.Context, client *models.Client, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notice{clientID: client.ID, text: text})
	return nil
}

func (f *fakeNotifier) all() []notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notice(nil), f.sent...)
}

type fakeUploader struct {
	uploaded []*storage.Image
	deleted  []string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, img *storage.Image) (*storage.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploaded = append(f.uploaded, img)
	return &storage.Object{URL: "https://cdn.example.com/u/1" + img.Ext, Key: "u/1" + img.Ext}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type harness struct {
	store    *memstore.Store
	notifier *fakeNotifier
	uploader *fakeUploader
	api      *API
	router   *gin.Engine
	coach    primitive.ObjectID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    memstore.New(),
		notifier: &fakeNotifier{},
		uploader: &fakeUploader{},
		coach:    primitive.NewObjectID(),
	}
	h.api = &API{
		Clients:        h.store,
		Measurements:   h.store,
		DietPlans:      h.store,
		Appointments:   h.store,
		Activities:     h.store,
		Notifier:       h.notifier,
		Uploader:       h.uploader,
		MaxUploadBytes: 1 << 10,
		Now:            func() time.Time { return testNow },
	}

	r := gin.New()
	g := r.Group("/", func(c *gin.Context) {
		if id := c.GetHeader("X-Coach"); id != "" {
			c.Set(auth.ContextUserID, id)
		}
		c.Next()
	})
	g.GET("/clients", h.api.ListClients)
	g.POST("/clients", h.api.CreateClient)
	g.GET("/clients/:id", h.api.GetClient)
	g.PUT("/clients/:id", h.api.UpdateClient)
	g.DELETE("/clients/:id", h.api.DeleteClient)
	g.POST("/clients/:id/avatar", h.api.UploadClientAvatar)
	g.POST("/clients/:id/reference-code", h.api.RegenerateReferenceCode)
	g.DELETE("/clients/:id/telegram", h.api.UnlinkTelegram)
	g.GET("/clients/:id/progress", h.api.ClientProgress)
	g.GET("/measurements", h.api.ListMeasurements)
	g.POST("/measurements", h.api.CreateMeasurement)
	g.GET("/measurements/:id", h.api.GetMeasurement)
	g.PUT("/measurements/:id", h.api.UpdateMeasurement)
	g.DELETE("/measurements/:id", h.api.DeleteMeasurement)
	g.GET("/dietplans", h.api.ListDietPlans)
	g.POST("/dietplans", h.api.CreateDietPlan)
	g.GET("/dietplans/:id", h.api.GetDietPlan)
	g.PUT("/dietplans/:id", h.api.UpdateDietPlan)
	g.DELETE("/dietplans/:id", h.api.DeleteDietPlan)
	g.POST("/dietplans/:id/activate", h.api.ActivateDietPlan)
	g.GET("/appointments", h.api.ListAppointments)
	g.POST("/appointments", h.api.CreateAppointment)
	g.GET("/appointments/:id", h.api.GetAppointment)
	g.PUT("/appointments/:id", h.api.UpdateAppointment)
	g.DELETE("/appointments/:id", h.api.DeleteAppointment)
	g.POST("/appointments/:id/cancel", h.api.CancelAppointment)
	g.POST("/appointments/:id/complete", h.api.CompleteAppointment)
	g.GET("/activities", h.api.ListActivities)
	g.POST("/activities", h.api.CreateActivity)
	g.DELETE("/activities/:id", h.api.DeleteActivity)
	g.GET("/dashboard", h.api.Dashboard)
	g.POST("/upload", h.api.Upload)
	g.DELETE("/upload", h.api.DeleteUpload)
	h.router = r
	return h
}

func (h *harness) doAs(coach primitive.ObjectID, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Coach", coach.Hex())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	return h.doAs(h.coach, method, path, body)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (h *harness) createClient(t *testing.T, body string) models.Client {
	t.Helper()
	w := h.do(http.MethodPost, "/clients", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Client](t, w)
}

func (h *harness) activityTypes(t *testing.T) []string {
	t.Helper()
	acts, err := h.store.ListActivities(context.Background(), h.coach, repository.ActivityFilter{Limit: 100})
	require.NoError(t, err)
	types := make([]string, 0, len(acts))
	for _, a := range acts {
		types = append(types, a.Type)
	}
	return types
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(t *testing.T, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Coach", h.coach.Hex())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUnauthenticated(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateClient(t *testing.T) {
	h := newHarness(t)

	client := h.createClient(t, `{"name":"  Maria Lopez ","email":"Maria@Example.com","gender":"female","height":165}`)
	assert.Equal(t, "Maria Lopez", client.Name)
	assert.Equal(t, "maria@example.com", client.Email)
	assert.True(t, client.IsActive)
	assert.Equal(t, h.coach, client.UserID)
	require.Len(t, client.ReferenceCode, models.ReferenceCodeLength)
	for _, r := range client.ReferenceCode {
		assert.Contains(t, models.ReferenceCodeAlphabet, string(r))
	}
	assert.Equal(t, []string{models.ActivityClientCreated}, h.activityTypes(t))
}

func TestCreateClient_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{}`, "name"},
		{"blank name", `{"name":"   "}`, "name"},
		{"bad gender", `{"name":"A","gender":"robot"}`, "gender"},
		{"bad email", `{"name":"A","email":"nope"}`, "email"},
		{"negative height", `{"name":"A","height":-3}`, "height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/clients", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[struct {
				Error   string             `json:"error"`
				Details []validation.Issue `json:"details"`
			}](t, w)
			assert.Equal(t, "Validation failed", resp.Error)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)
		})
	}
}

func TestListClients_Filters(t *testing.T) {
	h := newHarness(t)
	h.createClient(t, `{"name":"Ana"}`)
	h.createClient(t, `{"name":"Bruno","isActive":false}`)
	h.createClient(t, `{"name":"Carla","email":"carla@gym.io"}`)
	h.doAs(primitive.NewObjectID(), http.MethodPost, "/clients", `{"name":"Not mine"}`)

	all := decode[[]models.Client](t, h.do(http.MethodGet, "/clients", ""))
	assert.Len(t, all, 3)

	inactive := decode[[]models.Client](t, h.do(http.MethodGet, "/clients?active=false", ""))
	require.Len(t, inactive, 1)
	assert.Equal(t, "Bruno", inactive[0].Name)

	found := decode[[]models.Client](t, h.do(http.MethodGet, "/clients?search=GYM", ""))
	require.Len(t, found, 1)
	assert.Equal(t, "Carla", found[0].Name)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/clients?active=maybe", "").Code)
}

func TestGetClient_Ownership(t *testing.T) {
	h := newHarness(t)
	client := h.createClient(t, `{"name":"Ana"}`)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/clients/"+client.ID.Hex(), "").Code)
	assert.Equal(t, http.StatusNotFound, h.doAs(primitive.NewObjectID(), http.MethodGet, "/clients/"+client.ID.Hex(), "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/clients/not-an-id", "").Code)
}

func TestUpdateClient(t *testing.T) {
	h := newHarness(t)
	client := h.createClient(t, `{"name":"Ana","goal":"lose fat"}`)

	w := h.do(http.MethodPut, "/clients/"+client.ID.Hex(), `{"targetWeight":62.5,"isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Client](t, w)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "lose fat", got.Goal)
	assert.Equal(t, 62.5, got.TargetWeight)
	assert.False(t, got.IsActive)
	assert.Equal(t, client.ReferenceCode, got.ReferenceCode)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/clients/"+client.ID.Hex(), `{"name":" "}`).Code)
}

func TestDeleteClient_Cascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.createClient(t, `{"name":"Ana","height":170}`)
	keep := h.createClient(t, `{"name":"Bea"}`)

	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/measurements", `{"clientId":"`+client.ID.Hex()+`","weight":70}`).Code)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/dietplans", `{"clientId":"`+client.ID.Hex()+`","title":"P","startDate":"2026-05-01T00:00:00Z"}`).Code)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/appointments", `{"clientId":"`+client.ID.Hex()+`","date":"2026-05-06T10:00:00Z"}`).Code)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/measurements", `{"clientId":"`+keep.ID.Hex()+`","weight":55}`).Code)

	w := h.do(http.MethodDelete, "/clients/"+client.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)

	_, err := h.store.GetClient(ctx, h.coach, client.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ms, _ := h.store.ListMeasurements(ctx, h.coach, repository.MeasurementFilter{})
	require.Len(t, ms, 1)
	assert.Equal(t, keep.ID, ms[0].ClientID)
	plans, _ := h.store.ListDietPlans(ctx, h.coach, repository.DietPlanFilter{})
	assert.Empty(t, plans)
	appts, _ := h.store.ListAppointments(ctx, h.coach, repository.AppointmentFilter{})
	assert.Empty(t, appts)

	acts, _ := h.store.ListActivities(ctx, h.coach, repository.ActivityFilter{ClientID: &client.ID})
	assert.Empty(t, acts)
	assert.Equal(t, models.ActivityClientDeleted, h.activityTypes(t)[0])

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/clients/"+client.ID.Hex(), "").Code)
}

func TestRegenerateReferenceCode_UnlinksTelegram(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.createClient(t, `{"name":"Ana"}`)
	require.NoError(t, h.store.SetTelegramChat(ctx, client.ID, 555))

	w := h.do(http.MethodPost, "/clients/"+client.ID.Hex()+"/reference-code", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Client](t, w)
	assert.NotEqual(t, client.ReferenceCode, got.ReferenceCode)
	assert.Zero(t, got.TelegramChatID)

	_, err := h.store.GetClientByChatID(ctx, 555)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = h.store.GetClientByReferenceCode(ctx, got.ReferenceCode)
	assert.NoError(t, err)
}

func TestUnlinkTelegram(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.createClient(t, `{"name":"Ana"}`)
	require.NoError(t, h.store.SetTelegramChat(ctx, client.ID, 555))

	w := h.do(http.MethodDelete, "/clients/"+client.ID.Hex()+"/telegram", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[models.Client](t, w).TelegramChatID)

	got, err := h.store.GetClient(ctx, h.coach, client.ID)
	require.NoError(t, err)
	assert.False(t, got.TelegramLinked())
	assert.Contains(t, h.activityTypes(t), models.ActivityTelegramUnlinked)
}

func TestClientAvatar(t *testing.T) {
	h := newHarness(t)
	client := h.createClient(t, `{"name":"Ana"}`)

	w := h.upload(t, "/clients/"+client.ID.Hex()+"/avatar", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://cdn.example.com/u/1.png", decode[models.Client](t, w).AvatarURL)
	require.Len(t, h.uploader.uploaded, 1)
	assert.Equal(t, "image/png", h.uploader.uploaded[0].ContentType)
}

func TestStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.Err = errors.New("mongo down")

	w := h.do(http.MethodGet, "/clients", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch clients"}`, w.Body.String())
}
