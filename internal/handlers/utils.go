package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/validation"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the error payload shared by every endpoint.
type ErrorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// MessageResponse carries a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: message})
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Forbidden", Message: message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		vErr = validation.NewError("body", err.Error())
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: vErr.Fields})
}

// writePolicyError reports a denied authorization decision with its reason.
func writePolicyError(w http.ResponseWriter, err error) {
	var policyErr *auth.PolicyError
	if errors.As(err, &policyErr) {
		writeForbidden(w, policyErr.Reason)
		return
	}
	writeForbidden(w, "Insufficient permissions")
}

// writeServiceError maps a service failure onto a response. Internal errors
// are logged and never echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		writeError(w, http.StatusNotFound, notFound)
	case services.KindConflict:
		writeError(w, http.StatusConflict, "Email already exists")
	case services.KindInvalidCredentials:
		writeUnauthorized(w, "Invalid email or password")
	default:
		logging.FromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body decodes as {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return validation.NewError("body", "request body too large")
		}
		return validation.NewError("body", "must be a valid JSON object")
	}
	return nil
}

func parseUserID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "userID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, validation.NewError("id", "ID must be a valid positive integer")
	}
	return id, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func lowerPtr(value *string) *string {
	if value == nil {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(*value))
	return &lowered
}
