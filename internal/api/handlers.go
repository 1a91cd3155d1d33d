package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/splitsmart/backend/internal/service"
	"github.com/splitsmart/backend/internal/syncer"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var params service.CreateExpenseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.expenses.CreateExpense(r.Context(), actor(r), params)
	if err != nil {
		slog.Error("CreateExpense failed", "group_id", params.GroupID, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Queued() {
		// Captured offline; it will reach the ledger on the next drain.
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var params service.UpdateExpenseParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	params.ExpenseID = r.PathValue("id")

	result, err := s.expenses.UpdateExpense(r.Context(), actor(r), params)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", params.ExpenseID, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Queued() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("id")

	result, err := s.expenses.DeleteExpense(r.Context(), actor(r), expenseID)
	if err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Queued() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.settlements.Expenses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.settlements.GroupBalances(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleNetBalances(w http.ResponseWriter, r *http.Request) {
	net, err := s.settlements.NetBalances(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, net)
}

func (s *Server) handleSettlementPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.settlements.Plan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.settlements.Settlements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if err := s.ledger.Recalculate(r.Context(), groupID); err != nil {
		slog.Error("Recalculate failed", "group_id", groupID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recalculated"})
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var params service.RecordPaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.expenses.RecordPayment(r.Context(), actor(r), params)
	if err != nil {
		slog.Error("RecordPayment failed", "group_id", params.GroupID, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Queued() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var params service.CreateRecurringParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	recurring, err := s.recurring.Create(r.Context(), actor(r), params)
	if err != nil {
		slog.Error("Create recurring expense failed", "group_id", params.GroupID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recurring)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var params service.UpdateRecurringParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	params.RecurringID = r.PathValue("id")

	recurring, err := s.recurring.Update(r.Context(), actor(r), params)
	if err != nil {
		slog.Error("Update recurring expense failed", "recurring_id", params.RecurringID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recurring)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	recurringID := r.PathValue("id")
	if err := s.recurring.Delete(r.Context(), actor(r), recurringID); err != nil {
		slog.Error("Delete recurring expense failed", "recurring_id", recurringID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSkipRecurring(w http.ResponseWriter, r *http.Request) {
	recurringID := r.PathValue("id")
	recurring, err := s.recurring.Skip(r.Context(), actor(r), recurringID)
	if err != nil {
		slog.Error("Skip occurrence failed", "recurring_id", recurringID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recurring)
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	report, err := s.recurring.ProcessDue(r.Context(), time.Now())
	if err != nil {
		slog.Error("Recurring pass failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	recurring, err := s.recurring.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recurring)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.orchestrator.Sync(r.Context())
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("Sync failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePendingActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.queue.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type pendingAction struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		CreatedAt  string `json:"created_at"`
		RetryCount int    `json:"retry_count"`
	}
	out := make([]pendingAction, len(actions))
	for i, a := range actions {
		out[i] = pendingAction{
			ID:         a.ID,
			Type:       string(a.Type),
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
			RetryCount: a.RetryCount,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
