package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBadRequestCarriesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "", "slot_taken")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Bad request", body["message"])
	assert.Equal(t, "slot_taken", body["error"])
}

func TestErrorWithoutCodeOmitsField(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "Doctor not found")

	body := decode(t, rec)
	assert.Equal(t, "Doctor not found", body["message"])
	assert.NotContains(t, body, "error")
}

func TestTooManyRequestsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	TooManyRequests(rec, "", 1500*time.Millisecond)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	TooManyRequests(rec, "", 0)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Doctor created successfully", map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body["data"])
}
