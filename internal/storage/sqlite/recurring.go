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

// CreateRecurringExpense persists a template and its split recipe in one
// transaction.
func (s *SQLiteStore) CreateRecurringExpense(ctx context.Context, recurring *models.RecurringExpense) error {
	if recurring.ID == "" {
		recurring.ID = uuid.New().String()
	}
	if recurring.CreatedAt == 0 {
		recurring.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var description interface{} = nil
	if recurring.Description != "" {
		description = recurring.Description
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recurring_expenses (id, group_id, title, description, amount, paid_by, split_type,
		  frequency, start_date, next_occurrence, last_generated_at, is_active, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recurring.ID, recurring.GroupID, recurring.Title, description, recurring.Amount,
		recurring.PaidBy, string(recurring.SplitType), string(recurring.Frequency),
		recurring.StartDate, recurring.NextOccurrence, recurring.LastGeneratedAt,
		recurring.IsActive, recurring.CreatedBy, recurring.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurring expense: %w", err)
	}

	for _, split := range recurring.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO recurring_expense_splits (recurring_expense_id, user_id, amount) VALUES (?, ?, ?)",
			recurring.ID, split.UserID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recurring split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRecurringExpense retrieves a template by ID, including its splits.
func (s *SQLiteStore) GetRecurringExpense(ctx context.Context, recurringID string) (*models.RecurringExpense, error) {
	recurring := &models.RecurringExpense{}
	var description sql.NullString
	var splitType, frequency string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, description, amount, paid_by, split_type,
		  frequency, start_date, next_occurrence, last_generated_at, is_active, created_by, created_at
		 FROM recurring_expenses WHERE id = ?`,
		recurringID,
	).Scan(&recurring.ID, &recurring.GroupID, &recurring.Title, &description, &recurring.Amount,
		&recurring.PaidBy, &splitType, &frequency, &recurring.StartDate, &recurring.NextOccurrence,
		&recurring.LastGeneratedAt, &recurring.IsActive, &recurring.CreatedBy, &recurring.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: recurring expense %s", storage.ErrNotFound, recurringID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring expense: %w", err)
	}

	if description.Valid {
		recurring.Description = description.String
	}
	recurring.SplitType = models.SplitType(splitType)
	recurring.Frequency = models.Frequency(frequency)

	splits, err := s.getRecurringSplits(ctx, recurringID)
	if err != nil {
		return nil, err
	}
	recurring.Splits = splits

	return recurring, nil
}

// UpdateRecurringExpense replaces a template and its splits.
func (s *SQLiteStore) UpdateRecurringExpense(ctx context.Context, recurring *models.RecurringExpense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var description interface{} = nil
	if recurring.Description != "" {
		description = recurring.Description
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_expenses SET title = ?, description = ?, amount = ?, paid_by = ?, split_type = ?,
		  frequency = ?, next_occurrence = ?, last_generated_at = ?, is_active = ?
		 WHERE id = ?`,
		recurring.Title, description, recurring.Amount, recurring.PaidBy, string(recurring.SplitType),
		string(recurring.Frequency), recurring.NextOccurrence, recurring.LastGeneratedAt,
		recurring.IsActive, recurring.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: recurring expense %s", storage.ErrNotFound, recurring.ID)
	}

	// Replace the split recipe wholesale; the participant set may have changed.
	if _, err := tx.ExecContext(ctx, "DELETE FROM recurring_expense_splits WHERE recurring_expense_id = ?", recurring.ID); err != nil {
		return fmt.Errorf("failed to clear recurring splits: %w", err)
	}
	for _, split := range recurring.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO recurring_expense_splits (recurring_expense_id, user_id, amount) VALUES (?, ?, ?)",
			recurring.ID, split.UserID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recurring split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteRecurringExpense removes a template; splits and skipped occurrences
// cascade.
func (s *SQLiteStore) DeleteRecurringExpense(ctx context.Context, recurringID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recurring_expenses WHERE id = ?", recurringID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: recurring expense %s", storage.ErrNotFound, recurringID)
	}

	return nil
}

// ListRecurringExpensesByGroup retrieves a group's templates, newest first.
func (s *SQLiteStore) ListRecurringExpensesByGroup(ctx context.Context, groupID string) ([]*models.RecurringExpense, error) {
	return s.listRecurring(ctx,
		"WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
}

// ListDueRecurringExpenses retrieves active templates due on or before asOf,
// oldest occurrence first.
func (s *SQLiteStore) ListDueRecurringExpenses(ctx context.Context, asOf string) ([]*models.RecurringExpense, error) {
	return s.listRecurring(ctx,
		"WHERE is_active = 1 AND next_occurrence <= ? ORDER BY next_occurrence, id",
		asOf,
	)
}

func (s *SQLiteStore) listRecurring(ctx context.Context, clause string, args ...interface{}) ([]*models.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, title, description, amount, paid_by, split_type,
		  frequency, start_date, next_occurrence, last_generated_at, is_active, created_by, created_at
		 FROM recurring_expenses `+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring expenses: %w", err)
	}
	defer rows.Close()

	var recurrings []*models.RecurringExpense
	for rows.Next() {
		recurring := &models.RecurringExpense{}
		var description sql.NullString
		var splitType, frequency string

		if err := rows.Scan(&recurring.ID, &recurring.GroupID, &recurring.Title, &description, &recurring.Amount,
			&recurring.PaidBy, &splitType, &frequency, &recurring.StartDate, &recurring.NextOccurrence,
			&recurring.LastGeneratedAt, &recurring.IsActive, &recurring.CreatedBy, &recurring.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recurring expense: %w", err)
		}
		if description.Valid {
			recurring.Description = description.String
		}
		recurring.SplitType = models.SplitType(splitType)
		recurring.Frequency = models.Frequency(frequency)
		recurrings = append(recurrings, recurring)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring expenses: %w", err)
	}

	for _, recurring := range recurrings {
		splits, err := s.getRecurringSplits(ctx, recurring.ID)
		if err != nil {
			return nil, err
		}
		recurring.Splits = splits
	}

	return recurrings, nil
}

// SkipOccurrence marks one occurrence date as skipped. Idempotent.
func (s *SQLiteStore) SkipOccurrence(ctx context.Context, recurringID, date string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skipped_occurrences (recurring_expense_id, skipped_date) VALUES (?, ?)
		 ON CONFLICT (recurring_expense_id, skipped_date) DO NOTHING`,
		recurringID, date,
	)
	if err != nil {
		return fmt.Errorf("failed to skip occurrence: %w", err)
	}
	return nil
}

// IsOccurrenceSkipped reports whether the occurrence date was skipped.
func (s *SQLiteStore) IsOccurrenceSkipped(ctx context.Context, recurringID, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM skipped_occurrences WHERE recurring_expense_id = ? AND skipped_date = ?",
		recurringID, date,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check skipped occurrence: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) getRecurringSplits(ctx context.Context, recurringID string) ([]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount FROM recurring_expense_splits WHERE recurring_expense_id = ? ORDER BY user_id",
		recurringID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.UserID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan recurring split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring splits: %w", err)
	}

	return splits, nil
}
