package persistence

import (
	"context"
	"database/sql"
	"time"
)

// PostgresIdempotencyChecker implements DB-based deduplication against the
// event log. Command IDs are globally unique, so the lookup ignores the
// command kind (a Deposit and a DirectTransfer both land as Deposit
// events).
type PostgresIdempotencyChecker struct {
	db *sql.DB
}

func NewPostgresIdempotencyChecker(db *sql.DB) *PostgresIdempotencyChecker {
	return &PostgresIdempotencyChecker{db: db}
}

// IsDuplicate checks if the command already produced an event log entry.
func (pic *PostgresIdempotencyChecker) IsDuplicate(commandKind, commandID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	query := `
        SELECT 1
        FROM vault_log.events
        WHERE command_id = $1
        LIMIT 1
    `

	var exists int
	err := pic.db.QueryRowContext(ctx, query, commandID).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// RecentCommandKeys returns command IDs for the most recent events, used
// to warm the in-memory LRU tier on restart.
func (pic *PostgresIdempotencyChecker) RecentCommandKeys(ctx context.Context, limit int) ([]string, error) {
	rows, err := pic.db.QueryContext(ctx, `
		SELECT command_id
		FROM vault_log.events
		ORDER BY sequence DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var commandID string
		if err := rows.Scan(&commandID); err != nil {
			return nil, err
		}
		keys = append(keys, commandID)
	}
	return keys, rows.Err()
}
