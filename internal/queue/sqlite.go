package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/splitsmart/backend/internal/models"
)

// The queue lives in its own database file, separate from the relational
// store: it is app-local state that must remain writable while the backend is
// unreachable. The autoincrement seq column gives a strict FIFO order even
// when two actions share a creation timestamp.
const queueSchema = `
CREATE TABLE IF NOT EXISTS offline_actions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    action_type TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0
);
`

// Ensure SQLiteQueue implements Queue
var _ Queue = (*SQLiteQueue)(nil)

// SQLiteQueue implements Queue on a dedicated SQLite database.
type SQLiteQueue struct {
	db *sql.DB
}

// Open creates a SQLiteQueue at the given path, creating parent directories
// and the schema as needed.
func Open(dbPath string) (*SQLiteQueue, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	if _, err := db.Exec(queueSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create queue schema: %w", err)
	}

	return &SQLiteQueue{db: db}, nil
}

// Close closes the queue database.
func (q *SQLiteQueue) Close() error {
	return q.db.Close()
}

// Enqueue appends an action with retry_count = 0 and returns its ID.
func (q *SQLiteQueue) Enqueue(ctx context.Context, payload models.ActionPayload) (string, error) {
	data, err := models.EncodePayload(payload)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	createdAt := time.Now().UnixNano()

	_, err = q.db.ExecContext(ctx,
		"INSERT INTO offline_actions (id, action_type, payload, created_at, retry_count) VALUES (?, ?, ?, ?, 0)",
		id, string(payload.ActionType()), string(data), createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue action: %w", err)
	}

	return id, nil
}

// Pending returns all queued actions in FIFO order.
func (q *SQLiteQueue) Pending(ctx context.Context) ([]models.OfflineAction, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, action_type, payload, created_at, retry_count FROM offline_actions ORDER BY seq",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue: %w", err)
	}
	defer rows.Close()

	var actions []models.OfflineAction
	for rows.Next() {
		var (
			action    models.OfflineAction
			typ       string
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&action.ID, &typ, &payload, &createdAt, &action.RetryCount); err != nil {
			return nil, fmt.Errorf("failed to scan queued action: %w", err)
		}
		action.Type = models.ActionType(typ)
		action.CreatedAt = time.Unix(0, createdAt)

		decoded, err := models.DecodePayload(action.Type, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("corrupt payload for action %s: %w", action.ID, err)
		}
		action.Payload = decoded

		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue: %w", err)
	}

	return actions, nil
}

// Remove deletes an action from the queue.
func (q *SQLiteQueue) Remove(ctx context.Context, actionID string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM offline_actions WHERE id = ?", actionID)
	if err != nil {
		return fmt.Errorf("failed to remove action: %w", err)
	}
	return nil
}

// IncrementRetry bumps an action's retry count.
func (q *SQLiteQueue) IncrementRetry(ctx context.Context, actionID string) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE offline_actions SET retry_count = retry_count + 1 WHERE id = ?",
		actionID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment retry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check retry update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("action not found: %s", actionID)
	}
	return nil
}

// Len reports the number of pending actions.
func (q *SQLiteQueue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offline_actions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}
