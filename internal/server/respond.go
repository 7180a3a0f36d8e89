package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zombor/fuel-station/internal/auth"
	"github.com/zombor/fuel-station/internal/station"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// decodeJSON reads a JSON request body into v, answering 400 when it cannot
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request body", Error: err.Error()})
		return false
	}
	return true
}

func duplicateMessage(dup *station.DuplicateError) string {
	switch dup.Entity {
	case "machine":
		return "Machine with this ID already exists"
	case "employee":
		return "Employee with this ID already exists"
	case "user":
		return "User already exists with this email"
	}
	return dup.Error()
}

// writeError maps a service error to a response. entity names the record for not found and
// forbidden messages; action describes the request for the server error message.
func writeError(w http.ResponseWriter, r *http.Request, err error, entity, action string) {
	var verr *station.ValidationError
	var dup *station.DuplicateError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Details: verr.Fields})
	case errors.As(err, &dup):
		writeMessage(w, http.StatusBadRequest, duplicateMessage(dup))
	case errors.Is(err, station.ErrDuplicate):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, station.ErrNotFound):
		writeMessage(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, station.ErrForbidden):
		writeMessage(w, http.StatusUnauthorized, "User not authorized")
	case errors.Is(err, auth.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Token is not valid")
	default:
		logRequestError(r, "Request failed", err)
		writeMessage(w, http.StatusInternalServerError, "Server error while "+action)
	}
}

// period reads the period query parameter, answering 400 for unknown values
func period(w http.ResponseWriter, r *http.Request) (station.Period, bool) {
	p, err := station.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err, "", "reading period")
		return "", false
	}
	return p, true
}
