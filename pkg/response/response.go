package response

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Response is the envelope of every API reply. Error holds field messages
// for validation failures or a machine readable code such as "slot_taken".
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	Success(w, http.StatusCreated, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   err,
	})
}

func ValidationError(w http.ResponseWriter, errors interface{}) {
	Error(w, http.StatusBadRequest, "Validation failed", errors)
}

// coded writes an error whose error field is code, or absent when code is empty.
func coded(w http.ResponseWriter, statusCode int, message, fallback, code string) {
	if message == "" {
		message = fallback
	}
	var errField interface{}
	if code != "" {
		errField = code
	}
	Error(w, statusCode, message, errField)
}

func BadRequest(w http.ResponseWriter, message string, code string) {
	coded(w, http.StatusBadRequest, message, "Bad request", code)
}

func Conflict(w http.ResponseWriter, message string, code string) {
	coded(w, http.StatusConflict, message, "Conflict", code)
}

func Unauthorized(w http.ResponseWriter, message string) {
	coded(w, http.StatusUnauthorized, message, "Unauthorized", "")
}

func Forbidden(w http.ResponseWriter, message string) {
	coded(w, http.StatusForbidden, message, "Forbidden", "")
}

func NotFound(w http.ResponseWriter, message string) {
	coded(w, http.StatusNotFound, message, "Resource not found", "")
}

// TooManyRequests sets Retry-After in whole seconds, at least one.
func TooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	coded(w, http.StatusTooManyRequests, message, "Too many requests", "")
}

func InternalServerError(w http.ResponseWriter, message string) {
	coded(w, http.StatusInternalServerError, message, "Internal server error", "")
}
