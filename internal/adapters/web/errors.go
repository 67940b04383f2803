package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger-core/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps core errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *core.ValidationError
		unbalanced *core.UnbalancedEntryError
		notFound   *core.AccountNotFoundError
		noPosting  *core.PostingNotAllowedError
		duplicate  *core.DuplicateEntryError
		dupCode    *core.DuplicateAccountCodeError
		relation   *core.RelationError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &unbalanced):
		writeError(w, r, err.Error(), "UNBALANCED_ENTRY", http.StatusUnprocessableEntity)
	case errors.As(err, &notFound):
		writeError(w, r, err.Error(), "ACCOUNT_NOT_FOUND", http.StatusUnprocessableEntity)
	case errors.As(err, &noPosting):
		writeError(w, r, err.Error(), "POSTING_NOT_ALLOWED", http.StatusUnprocessableEntity)
	case errors.As(err, &duplicate):
		writeError(w, r, err.Error(), "DUPLICATE_ENTRY", http.StatusConflict)
	case errors.As(err, &dupCode):
		writeError(w, r, err.Error(), "DUPLICATE_ACCOUNT_CODE", http.StatusConflict)
	case errors.As(err, &relation):
		writeError(w, r, err.Error(), "RELATION_ERROR", http.StatusConflict)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
