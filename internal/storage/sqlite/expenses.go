package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitsmart/backend/internal/models"
	"github.com/splitsmart/backend/internal/storage"
)

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var description interface{} = nil
	if expense.Description != "" {
		description = expense.Description
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, title, description, amount, paid_by, split_type, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Title, description, expense.Amount,
		expense.PaidBy, string(expense.SplitType), expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for _, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, split.UserID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including all splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var description sql.NullString
	var splitType string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, description, amount, paid_by, split_type, created_by, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Title, &description, &expense.Amount,
		&expense.PaidBy, &splitType, &expense.CreatedBy, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if description.Valid {
		expense.Description = description.String
	}
	expense.SplitType = models.SplitType(splitType)

	splits, err := s.getSplits(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Splits = splits

	return expense, nil
}

// UpdateExpense replaces an existing expense and its splits.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var description interface{} = nil
	if expense.Description != "" {
		description = expense.Description
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, description = ?, amount = ?, paid_by = ?, split_type = ?
		 WHERE id = ?`,
		expense.Title, description, expense.Amount, expense.PaidBy, string(expense.SplitType), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expense.ID)
	}

	// Replace splits wholesale; the set of participants may have changed.
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	for _, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			expense.ID, split.UserID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteExpense removes an expense; splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}

	return nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, title, description, amount, paid_by, split_type, created_by, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var description sql.NullString
		var splitType string

		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Title, &description, &expense.Amount,
			&expense.PaidBy, &splitType, &expense.CreatedBy, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if description.Valid {
			expense.Description = description.String
		}
		expense.SplitType = models.SplitType(splitType)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		splits, err := s.getSplits(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		expense.Splits = splits
	}

	return expenses, nil
}

func (s *SQLiteStore) getSplits(ctx context.Context, expenseID string) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM expense_splits WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.UserID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}
