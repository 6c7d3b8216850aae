package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"clinic-booking/config"
	"clinic-booking/internal/testutil"
	"clinic-booking/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *apiClient) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.serve(req)
}

func (c *apiClient) serve(req *http.Request) (int, envelope) {
	c.t.Helper()

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func newTestApp(t *testing.T) *apiClient {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "test-secret", AccessExpiry: 15 * time.Minute},
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "admin-password",
		},
		Schedule: config.ScheduleConfig{
			WorkStart:        "09:00",
			WorkEnd:          "18:00",
			SlotMinutes:      30,
			WeekendDays:      []string{"saturday", "sunday"},
			DefaultRangeDays: 7,
		},
		Booking:   config.BookingConfig{LockTTL: 5 * time.Second},
		RateLimit: config.RateLimitConfig{LoginRPS: 100, LoginBurst: 100},
	}

	db := testutil.NewTestDB(t)
	_, redisClient := testutil.NewTestRedis(t)
	log := testutil.NewLogger()

	app := &App{Config: cfg, Log: log, DB: db, RedisClient: redisClient}
	require.NoError(t, EnsureAdmin(context.Background(), app))

	handler, err := NewHTTPHandler(cfg, db, redisClient, log, metrics.NewMetrics("clinic"))
	require.NoError(t, err)

	return &apiClient{t: t, handler: handler}
}

func (c *apiClient) login(username, password string) (int, envelope) {
	c.t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.serve(req)
}

func (c *apiClient) loginAdmin() {
	c.t.Helper()

	code, env := c.login("admin", "admin-password")
	require.Equal(c.t, http.StatusOK, code)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeData(c.t, env, &token)
	require.NotEmpty(c.t, token.AccessToken)
	assert.Equal(c.t, "bearer", token.TokenType)
	c.token = token.AccessToken
}

type availability struct {
	Total          int `json:"total"`
	AvailableCount int `json:"available_count"`
	Slots          []struct {
		Date      string `json:"date"`
		Time      string `json:"time"`
		Available bool   `json:"available"`
	} `json:"slots"`
}

func TestBookingFlow(t *testing.T) {
	client := newTestApp(t)

	// catalog is admin only for writes
	code, _ := client.do(http.MethodPost, "/api/doctors", map[string]string{"first_name": "Ana", "last_name": "Silva", "email": "ana@clinic.example"})
	require.Equal(t, http.StatusUnauthorized, code)

	client.loginAdmin()

	code, env := client.do(http.MethodPost, "/api/doctors", map[string]string{
		"first_name": "Ana", "last_name": "Silva", "specialization": "Orthodontics", "email": "ana@clinic.example",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var doctor struct {
		ID int `json:"id"`
	}
	decodeData(t, env, &doctor)

	code, env = client.do(http.MethodPost, "/api/services", map[string]interface{}{
		"name": "Cleaning", "duration_minutes": 30, "price": "80.00",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var svc struct {
		ID int `json:"id"`
	}
	decodeData(t, env, &svc)

	admin := client.token
	client.token = ""

	// public reads
	code, _ = client.do(http.MethodGet, "/api/doctors?specialization=ortho", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = client.do(http.MethodGet, fmt.Sprintf("/api/services/%d", svc.ID), nil)
	assert.Equal(t, http.StatusOK, code)

	availablePath := fmt.Sprintf("/api/appointments/available?doctor_id=%d&start_date=2025-06-02&end_date=2025-06-02", doctor.ID)
	code, env = client.do(http.MethodGet, availablePath, nil)
	require.Equal(t, http.StatusOK, code)
	var slots availability
	decodeData(t, env, &slots)
	assert.Equal(t, 18, slots.AvailableCount)
	assert.Equal(t, "09:00", slots.Slots[0].Time)

	booking := map[string]interface{}{
		"first_name":       "John",
		"last_name":        "Doe",
		"email":            "john@example.com",
		"phone":            "555-0100",
		"doctor_id":        doctor.ID,
		"service_id":       svc.ID,
		"appointment_date": "2025-06-02",
		"appointment_time": "10:00",
	}
	code, env = client.do(http.MethodPost, "/api/appointments", booking)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var appointment struct {
		ID              int    `json:"id"`
		Status          string `json:"status"`
		AppointmentTime string `json:"appointment_time"`
	}
	decodeData(t, env, &appointment)
	assert.Equal(t, "scheduled", appointment.Status)
	assert.Equal(t, "10:00", appointment.AppointmentTime)

	booking["email"] = "mary@example.com"
	code, env = client.do(http.MethodPost, "/api/appointments", booking)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `"slot_taken"`, string(env.Error))

	code, env = client.do(http.MethodGet, availablePath, nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &slots)
	assert.Equal(t, 17, slots.AvailableCount)

	code, env = client.do(http.MethodGet, "/api/appointments/email/john@example.com", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int `json:"total"`
	}
	decodeData(t, env, &list)
	assert.Equal(t, 1, list.Total)

	// admin only status changes
	approvePath := fmt.Sprintf("/api/appointments/%d/approve", appointment.ID)
	code, _ = client.do(http.MethodPut, approvePath, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	client.token = admin
	code, env = client.do(http.MethodPut, approvePath, nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &appointment)
	assert.Equal(t, "approved", appointment.Status)

	code, env = client.do(http.MethodGet, "/api/appointments?status=approved", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &list)
	assert.Equal(t, 1, list.Total)

	code, _ = client.do(http.MethodGet, "/api/appointments?status=done", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	client.token = ""

	// patients cancel without a token, freeing the slot
	code, env = client.do(http.MethodDelete, fmt.Sprintf("/api/appointments/%d", appointment.ID), nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &appointment)
	assert.Equal(t, "cancelled", appointment.Status)

	code, _ = client.do(http.MethodPost, "/api/appointments", booking)
	assert.Equal(t, http.StatusCreated, code)

	client.token = admin
	code, env = client.do(http.MethodGet, "/api/audit-logs?limit=50", nil)
	require.Equal(t, http.StatusOK, code)
	var logs struct {
		Total int `json:"total"`
	}
	decodeData(t, env, &logs)
	// login, doctor, service, two bookings, approve, cancel
	assert.Equal(t, 7, logs.Total)

	code, env = client.do(http.MethodGet, "/api/audit-logs?action=appointment", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &logs)
	assert.Equal(t, 4, logs.Total)

	code, _ = client.do(http.MethodGet, "/api/audit-logs?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = client.do(http.MethodGet, "/api/patients", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, env, &list)
	assert.Equal(t, 2, list.Total)
}

func TestRequestValidation(t *testing.T) {
	client := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader("{"))
	code, env := client.serve(req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", env.Message)

	code, env = client.do(http.MethodPost, "/api/appointments", map[string]interface{}{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", env.Message)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "doctor_id")

	code, _ = client.do(http.MethodPost, "/api/appointments", map[string]interface{}{
		"first_name": "John", "last_name": "Doe", "email": "john@example.com", "phone": "1",
		"doctor_id": 999, "service_id": 1, "appointment_date": "2025-06-02", "appointment_time": "10:00",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = client.do(http.MethodGet, "/api/appointments/available?doctor_id=1&start_date=2025-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = client.do(http.MethodGet, "/api/appointments/available?start_date=2025-06-02", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = client.do(http.MethodGet, "/api/appointments/9999", nil)
	assert.Equal(t, http.StatusNotFound, code)

	rec := httptest.NewRecorder()
	client.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEndpoints(t *testing.T) {
	client := newTestApp(t)

	code, _ := client.login("admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = client.do(http.MethodPost, "/api/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = client.do(http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "admin-password"})
	assert.Equal(t, http.StatusOK, code)

	client.loginAdmin()

	code, env := client.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Username string `json:"username"`
	}
	decodeData(t, env, &me)
	assert.Equal(t, "admin", me.Username)

	code, _ = client.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = client.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestServiceEndpoints(t *testing.T) {
	client := newTestApp(t)

	rec := httptest.NewRecorder()
	client.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	code, _ := client.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodOptions, "/api/appointments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	client.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	client.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clinic_http_request_duration_seconds")
}
