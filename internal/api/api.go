// Package api exposes the ledger engine over a thin JSON HTTP surface.
// Authentication lives in the gateway in front of this service; the actor
// identity arrives in the X-User-ID header.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/queue"
	"github.com/splitsmart/backend/internal/service"
	"github.com/splitsmart/backend/internal/storage"
	"github.com/splitsmart/backend/internal/syncer"
)

// Server holds the handler dependencies.
type Server struct {
	expenses     *service.ExpenseService
	settlements  *service.SettlementService
	recurring    *service.RecurringService
	ledger       *ledger.Ledger
	orchestrator *syncer.Orchestrator
	queue        queue.Queue
}

// NewServer creates a Server.
func NewServer(expenses *service.ExpenseService, settlements *service.SettlementService, recurring *service.RecurringService, l *ledger.Ledger, o *syncer.Orchestrator, q queue.Queue) *Server {
	return &Server{
		expenses:     expenses,
		settlements:  settlements,
		recurring:    recurring,
		ledger:       l,
		orchestrator: o,
		queue:        q,
	}
}

// Routes registers all handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/groups/{id}/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/groups/{id}/balances", s.handleGroupBalances)
	mux.HandleFunc("GET /api/groups/{id}/net-balances", s.handleNetBalances)
	mux.HandleFunc("GET /api/groups/{id}/settlement-plan", s.handleSettlementPlan)
	mux.HandleFunc("GET /api/groups/{id}/settlements", s.handleListSettlements)
	mux.HandleFunc("POST /api/groups/{id}/recalculate", s.handleRecalculate)

	mux.HandleFunc("POST /api/payments", s.handleRecordPayment)

	mux.HandleFunc("POST /api/recurring-expenses", s.handleCreateRecurring)
	mux.HandleFunc("PUT /api/recurring-expenses/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/recurring-expenses/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /api/recurring-expenses/{id}/skip", s.handleSkipRecurring)
	mux.HandleFunc("POST /api/recurring-expenses/process", s.handleProcessRecurring)
	mux.HandleFunc("GET /api/groups/{id}/recurring-expenses", s.handleListRecurring)

	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("GET /api/sync/pending", s.handlePendingActions)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// actor extracts the authenticated user ID set by the gateway.
func actor(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrBalanceNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrOverSettlement):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvariantViolation):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
