package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/store"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

// maxBodyBytes caps request bodies. Decision payloads are small; anything
// past this is abuse.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]any{"error": message})
}

// respondViolations writes a 400 with the field-level detail array.
func respondViolations(w http.ResponseWriter, message string, violations []validate.Violation) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   message,
		"details": violations,
	})
}

// respondStoreError maps store failures onto the error taxonomy: missing
// records become 404s, everything else a generic 500 with the detail
// kept in the log.
func respondStoreError(w http.ResponseWriter, operation string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error(operation, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody reads and unmarshals a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// readBody returns the raw body so callers can unmarshal it twice: once
// into a map for schema checking and once into the typed struct.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read request body")
		return nil, false
	}
	if len(body) == 0 {
		respondError(w, http.StatusBadRequest, "empty request body")
		return nil, false
	}
	return body, true
}
