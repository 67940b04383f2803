package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ledger-core/internal/app"
	"ledger-core/internal/core"
)

// Handler serves the JSON API. All routes resolve the caller's tenant
// through the application service; the caller identifies itself with the
// X-User-ID header.
type Handler struct {
	svc      app.ApplicationService
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(svc app.ApplicationService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, validate: validator.New(), log: log}
}

// NewRouter assembles the chi router with the middleware stack.
func NewRouter(h *Handler, log *zap.Logger, allowedOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Get("/accounts", h.listAccounts)
		r.Post("/accounts", h.createAccount)
		r.Put("/accounts/{id}", h.updateAccount)
		r.Delete("/accounts/{id}", h.deleteAccount)
		r.Post("/accounts/seed", h.seedAccounts)
		r.Get("/accounts/{id}/balance", h.accountBalance)

		r.Get("/entries", h.listEntries)
		r.Post("/entries", h.postEntry)
		r.Post("/entries/{id}/reverse", h.reverseEntry)

		r.Get("/balances", h.balances)
		r.Get("/trial-balance", h.trialBalance)

		r.Post("/reports/trial-balance", h.reportTrialBalance)
		r.Post("/reports/balance-sheet", h.reportBalanceSheet)
		r.Post("/reports/income-statement", h.reportIncomeStatement)
		r.Post("/reports/cash-flow", h.reportCashFlow)
		r.Get("/reports", h.listStatements)

		r.Post("/outbox", h.enqueuePosting)
		r.Post("/outbox/flush", h.flushPostings)
		r.Post("/outbox/{id}/retry", h.retryPosting)
	})
	return r
}

// health reports service status. Public, no identity required.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID extracts the authenticated user id from the X-User-ID header.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "missing or invalid X-User-ID header", "UNAUTHENTICATED", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// dateQuery parses an optional YYYY-MM-DD query parameter, defaulting to
// fallback when absent.
func dateQuery(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}

// ── Accounts ──────────────────────────────────────────────────────────────────

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var input core.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), uid, input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "invalid account id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var input core.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	account, err := h.svc.UpdateAccount(r.Context(), uid, id, input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "invalid account id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), uid, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) seedAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	created, err := h.svc.SeedAccounts(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"accounts_created": created})
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "invalid account id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	asOf, err := dateQuery(r, "as_of", time.Now())
	if err != nil {
		writeError(w, r, "as_of must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetAccountBalance(r.Context(), uid, id, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ── Journal ───────────────────────────────────────────────────────────────────

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	result := h.svc.ListEntries(r.Context(), uid)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  result.Data,
		"degraded": result.Degraded,
	})
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req app.PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	entry, err := h.svc.PostEntry(r.Context(), uid, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "invalid entry id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	entry, err := h.svc.ReverseEntry(r.Context(), uid, id, body.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ── Balances & reports ────────────────────────────────────────────────────────

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	balances, err := h.svc.GetBalances(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	from, err := dateQuery(r, "from", time.Time{})
	if err != nil {
		writeError(w, r, "from must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	to, err := dateQuery(r, "to", time.Now())
	if err != nil {
		writeError(w, r, "to must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	tb, err := h.svc.GetTrialBalance(r.Context(), uid, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (h *Handler) reportTrialBalance(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	asOf, err := dateQuery(r, "as_of", time.Now())
	if err != nil {
		writeError(w, r, "as_of must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.GenerateTrialBalance(r.Context(), uid, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) reportBalanceSheet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	asOf, err := dateQuery(r, "as_of", time.Now())
	if err != nil {
		writeError(w, r, "as_of must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.GenerateBalanceSheet(r.Context(), uid, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// rangeQuery parses from/to with a default range of the current month.
func rangeQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, err := dateQuery(r, "from", monthStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := dateQuery(r, "to", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (h *Handler) reportIncomeStatement(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		writeError(w, r, "from/to must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.GenerateIncomeStatement(r.Context(), uid, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) reportCashFlow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		writeError(w, r, "from/to must be YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.GenerateCashFlowStatement(r.Context(), uid, from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) listStatements(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	statements, err := h.svc.ListStatements(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statements)
}

// ── Outbox ────────────────────────────────────────────────────────────────────

func (h *Handler) enqueuePosting(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var body struct {
		Source string               `json:"source" validate:"required"`
		Entry  app.PostEntryRequest `json:"entry" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	pending, err := h.svc.EnqueuePosting(r.Context(), uid, body.Source, body.Entry)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

func (h *Handler) flushPostings(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.FlushPostings(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) retryPosting(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, "invalid posting id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.RetryPosting(r.Context(), uid, id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
