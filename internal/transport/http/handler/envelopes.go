package handler

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

// errorEnvelope is the wire shape of any failed action. AttemptsLeft is
// only present on INVALID_CODE responses.
type errorEnvelope struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	AttemptsLeft *int   `json:"attemptsLeft,omitempty"`
}

type messageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// verifyEnvelope is the successful verifyAuthCode response.
type verifyEnvelope struct {
	Success      bool   `json:"success"`
	Name         string `json:"name"`
	Token        string `json:"token"`
	DashboardURL string `json:"dashboardUrl"`
}

// validateEnvelope is the validateSession response. It has no success
// field; clients key on valid.
type validateEnvelope struct {
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAction emits an action result. Action-level failures still ride on
// HTTP 200; the body's success/error fields carry the outcome, which is
// what the dashboard frontend and the edge cache key on.
func writeAction(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, v)
}

func writeActionError(w http.ResponseWriter, code string) {
	writeAction(w, errorEnvelope{Success: false, Error: code})
}
