package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/backend/internal/cache"
	"github.com/splitsmart/backend/internal/ledger"
	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/queue"
	"github.com/splitsmart/backend/internal/service"
	"github.com/splitsmart/backend/internal/storage/sqlite"
	"github.com/splitsmart/backend/internal/syncer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	q, err := queue.Open(filepath.Join(dir, "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	c := cache.New()
	l := ledger.New(store, c)
	probe := syncer.Always(true)
	expenses := service.NewExpenseService(store, l, q, c, probe)
	settlements := service.NewSettlementService(store, c)
	recurring := service.NewRecurringService(store, expenses)
	orchestrator := syncer.New(q, expenses, c, probe, 0)

	return NewServer(expenses, settlements, recurring, l, orchestrator, q)
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateExpenseEndpoint(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/expenses", "alice", service.CreateExpenseParams{
		GroupID:      "g1",
		Title:        "Dinner",
		Amount:       90,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result service.MutationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Expense)
	assert.NotEmpty(t, result.Expense.ID)

	// The write shows up in the group's balances.
	rec = doJSON(t, mux, http.MethodGet, "/api/groups/g1/balances", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balances []models.PairwiseBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balances))
	assert.Len(t, balances, 2)
}

func TestCreateExpenseEndpoint_Unauthenticated(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/expenses", "", service.CreateExpenseParams{
		GroupID:      "g1",
		Title:        "Dinner",
		Amount:       90,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettlementPlanEndpoint(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/expenses", "alice", service.CreateExpenseParams{
		GroupID:      "g1",
		Title:        "Hotel",
		Amount:       300,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/groups/g1/settlement-plan", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan models.SettlementPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "g1", plan.GroupID)
	assert.Len(t, plan.Transfers, 2)
	for _, tr := range plan.Transfers {
		assert.Equal(t, "alice", tr.To)
		assert.Equal(t, 100.0, tr.Amount)
	}
}

func TestRecordPaymentEndpoint_OverSettlement(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/expenses", "alice", service.CreateExpenseParams{
		GroupID:      "g1",
		Title:        "Lunch",
		Amount:       20,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/payments", "bob", service.RecordPaymentParams{
		GroupID:    "g1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     500,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRecordPaymentEndpoint_MissingBalance(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/payments", "bob", service.RecordPaymentParams{
		GroupID:    "g1",
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseEndpoints_MissingExpense(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPut, "/api/expenses/no-such-expense", "alice", service.UpdateExpenseParams{
		Title:        "Dinner",
		Amount:       30,
		SplitType:    models.SplitEqual,
		Participants: []string{"alice", "bob"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/expenses/no-such-expense", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurringExpenseEndpoints(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/recurring-expenses", "alice", service.CreateRecurringParams{
		GroupID:      "g1",
		Title:        "Rent",
		Amount:       1200,
		PaidBy:       "alice",
		SplitType:    models.SplitEqual,
		Frequency:    models.FrequencyMonthly,
		StartDate:    "2026-01-01",
		Participants: []string{"alice", "bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.RecurringExpense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "2026-01-01", created.NextOccurrence)

	rec = doJSON(t, mux, http.MethodGet, "/api/groups/g1/recurring-expenses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.RecurringExpense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Rent", listed[0].Title)

	// The start date is due, so a pass generates the first occurrence and
	// the group's ledger picks it up.
	rec = doJSON(t, mux, http.MethodPost, "/api/recurring-expenses/process", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report service.ProcessReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Generated)

	rec = doJSON(t, mux, http.MethodGet, "/api/groups/g1/balances", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balances []models.PairwiseBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balances))
	require.Len(t, balances, 1)
	assert.Equal(t, 600.0, balances[0].Amount)

	rec = doJSON(t, mux, http.MethodPost, "/api/recurring-expenses/"+created.ID+"/skip", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var skipped models.RecurringExpense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &skipped))
	assert.Equal(t, "2026-03-01", skipped.NextOccurrence)

	rec = doJSON(t, mux, http.MethodDelete, "/api/recurring-expenses/"+created.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/recurring-expenses/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncEndpoint_EmptyQueue(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/sync", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report syncer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, syncer.Report{}, report)
}

func TestPendingActionsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.Routes()

	_, err := srv.queue.Enqueue(context.Background(), models.DeleteExpensePayload{ExpenseID: "e1"})
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/api/sync/pending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		RetryCount int    `json:"retry_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, string(models.ActionDeleteExpense), pending[0].Type)
}

func TestRecalculateEndpoint(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodPost, "/api/groups/g1/recalculate", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	mux := newTestServer(t).Routes()

	rec := doJSON(t, mux, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
