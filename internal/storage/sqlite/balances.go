package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/backend/internal/models"
)

// ListBalances retrieves all pairwise balances for a group.
func (s *SQLiteStore) ListBalances(ctx context.Context, groupID string) ([]models.PairwiseBalance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_user, to_user, amount, updated_at
		 FROM balances WHERE group_id = ? ORDER BY from_user, to_user`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []models.PairwiseBalance
	for rows.Next() {
		var b models.PairwiseBalance
		if err := rows.Scan(&b.ID, &b.GroupID, &b.FromUser, &b.ToUser, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return balances, nil
}

// GetBalance retrieves the balance row for an ordered (from, to) pair.
// Returns (nil, nil) when the pair has no outstanding debt.
func (s *SQLiteStore) GetBalance(ctx context.Context, groupID, fromUser, toUser string) (*models.PairwiseBalance, error) {
	b := &models.PairwiseBalance{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, from_user, to_user, amount, updated_at
		 FROM balances WHERE group_id = ? AND from_user = ? AND to_user = ?`,
		groupID, fromUser, toUser,
	).Scan(&b.ID, &b.GroupID, &b.FromUser, &b.ToUser, &b.Amount, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return b, nil
}

// UpsertBalance inserts or replaces the balance row keyed by (group, from, to).
func (s *SQLiteStore) UpsertBalance(ctx context.Context, balance *models.PairwiseBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.New().String()
	}
	balance.UpdatedAt = time.Now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (id, group_id, from_user, to_user, amount, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, from_user, to_user)
		 DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		balance.ID, balance.GroupID, balance.FromUser, balance.ToUser, balance.Amount, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}

	return nil
}

// DeleteBalance removes the balance row for an ordered pair.
func (s *SQLiteStore) DeleteBalance(ctx context.Context, groupID, fromUser, toUser string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM balances WHERE group_id = ? AND from_user = ? AND to_user = ?",
		groupID, fromUser, toUser,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}

	return nil
}

// DeleteGroupBalances removes every balance row for a group.
func (s *SQLiteStore) DeleteGroupBalances(ctx context.Context, groupID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group balances: %w", err)
	}

	return nil
}
