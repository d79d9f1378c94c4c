package persistence

import (
	"VaultLedger/internal/event"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// EventLogWriter writes envelopes and balance-projection updates to
// Postgres using multi-row INSERTs inside the worker's transaction.
type EventLogWriter struct {
	db *sql.DB
}

// EventRow represents a row in vault_log.events
type EventRow struct {
	Sequence  int64
	CommandID string
	EventType string
	Payload   []byte
	StateHash []byte
	PrevHash  []byte
	Timestamp time.Time
}

func NewEventLogWriter(db *sql.DB) *EventLogWriter {
	return &EventLogWriter{db: db}
}

// WriteEventBatch writes a batch of envelopes to vault_log.events.
// ON CONFLICT DO NOTHING keeps replays idempotent.
func (w *EventLogWriter) WriteEventBatch(ctx context.Context, tx *sql.Tx, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO vault_log.events
		(sequence, command_id, event_type, payload, state_hash, prev_hash, timestamp)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*7)

	for i, e := range events {
		base := i * 7
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			e.Sequence, e.CommandID, e.EventType,
			e.Payload, e.StateHash, e.PrevHash, e.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ApplyProjection folds one notification into the balance projection and
// the single-row vault state. Runs inside the worker's flush transaction
// so a partial flush is never observable.
func (w *EventLogWriter) ApplyProjection(ctx context.Context, tx *sql.Tx, env *event.Envelope, notif event.Notification) error {
	switch n := notif.(type) {
	case *event.Deposit:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.balances (user_id, balance)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
		`, n.User, int64(n.Amount)); err != nil {
			return fmt.Errorf("apply deposit projection: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.vault_state SET held_value = held_value + $1 WHERE id = 1
		`, int64(n.Amount)); err != nil {
			return fmt.Errorf("apply deposit held value: %w", err)
		}

	case *event.Withdraw:
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.balances SET balance = balance - $2 WHERE user_id = $1
		`, n.User, int64(n.Amount)); err != nil {
			return fmt.Errorf("apply withdraw projection: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.vault_state SET held_value = held_value - $1 WHERE id = 1
		`, int64(n.Amount)); err != nil {
			return fmt.Errorf("apply withdraw held value: %w", err)
		}

	case *event.DepositsEnabledChanged:
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.vault_state SET deposits_enabled = $1 WHERE id = 1
		`, n.Enabled); err != nil {
			return fmt.Errorf("apply deposit gate projection: %w", err)
		}

	case *event.OwnershipTransferred:
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.vault_state SET owner_id = $1 WHERE id = 1
		`, n.New); err != nil {
			return fmt.Errorf("apply ownership projection: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE projections.vault_state SET last_sequence = $1, state_hash = $2 WHERE id = 1
	`, env.Sequence, env.StateHash[:]); err != nil {
		return fmt.Errorf("apply watermark: %w", err)
	}

	return nil
}
