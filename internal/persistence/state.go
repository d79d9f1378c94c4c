package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// StoredState is the durable vault state rebuilt from the projections on
// warm restart.
type StoredState struct {
	Balances        map[uuid.UUID]uint64
	HeldValue       uint64
	DepositsEnabled bool
	Owner           uuid.UUID
	LastSequence    int64
	StateHash       [32]byte
}

// LoadState reads the balance projection and the single-row vault state.
// Returns (nil, nil) on a cold start with no recorded state.
func LoadState(ctx context.Context, db *sql.DB) (*StoredState, error) {
	state := &StoredState{
		Balances: make(map[uuid.UUID]uint64),
	}

	var owner sql.NullString
	var stateHash []byte
	var held int64
	err := db.QueryRowContext(ctx, `
		SELECT held_value, deposits_enabled, owner_id, last_sequence, state_hash
		FROM projections.vault_state
		WHERE id = 1
	`).Scan(&held, &state.DepositsEnabled, &owner, &state.LastSequence, &stateHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vault state: %w", err)
	}

	if state.LastSequence < 0 {
		// Initialized row with no events applied yet — still a cold start.
		return nil, nil
	}

	state.HeldValue = uint64(held)
	if owner.Valid {
		parsed, err := uuid.Parse(owner.String)
		if err != nil {
			return nil, fmt.Errorf("parse stored owner: %w", err)
		}
		state.Owner = parsed
	}
	copy(state.StateHash[:], stateHash)

	rows, err := db.QueryContext(ctx, `SELECT user_id, balance FROM projections.balances`)
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID uuid.UUID
		var balance int64
		if err := rows.Scan(&userID, &balance); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		state.Balances[userID] = uint64(balance)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return state, nil
}

// InitState seeds the single-row vault state for a fresh database.
func InitState(ctx context.Context, db *sql.DB, owner uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO projections.vault_state (id, held_value, deposits_enabled, owner_id, last_sequence)
		VALUES (1, 0, TRUE, $1, -1)
		ON CONFLICT (id) DO NOTHING
	`, owner)
	return err
}
