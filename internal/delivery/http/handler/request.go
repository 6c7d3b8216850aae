package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clinic-booking/pkg/response"

	"github.com/gorilla/mux"
)

// pathID parses a positive integer path variable, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+label, nil)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

// queryInt returns 0 for an absent parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
