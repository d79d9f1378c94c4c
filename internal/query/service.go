package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service provides read-only access to the projection tables. Responses
// include as_of_sequence so callers can reason about freshness relative to
// the outbound event stream.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// BalanceResponse is a user's tracked balance at a given watermark.
type BalanceResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Balance      uint64    `json:"balance"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// VaultStateResponse is the vault-wide state at a given watermark.
type VaultStateResponse struct {
	HeldValue       uint64     `json:"held_value"`
	TrackedTotal    uint64     `json:"tracked_total"`
	DepositsEnabled bool       `json:"deposits_enabled"`
	Owner           *uuid.UUID `json:"owner,omitempty"`
	AsOfSequence    int64      `json:"as_of_sequence"`
}

// EventResponse is one row of the event log.
type EventResponse struct {
	Sequence  int64     `json:"sequence"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// GetBalance returns a user's tracked balance. Users never credited read
// as zero — entries are created implicitly and never destroyed.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var balance int64
	err = s.db.QueryRowContext(ctx, `
		SELECT balance FROM projections.balances WHERE user_id = $1
	`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		balance = 0
	} else if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}

	return &BalanceResponse{
		UserID:       userID,
		Balance:      uint64(balance),
		AsOfSequence: asOfSeq,
	}, nil
}

// GetVaultState returns held value, tracked total, the deposit gate, and
// the current owner.
func (s *Service) GetVaultState(ctx context.Context) (*VaultStateResponse, error) {
	var held int64
	var enabled bool
	var owner sql.NullString
	var asOfSeq int64

	err := s.db.QueryRowContext(ctx, `
		SELECT held_value, deposits_enabled, owner_id, last_sequence
		FROM projections.vault_state
		WHERE id = 1
	`).Scan(&held, &enabled, &owner, &asOfSeq)
	if err != nil {
		return nil, fmt.Errorf("query vault state: %w", err)
	}

	var tracked int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM projections.balances
	`).Scan(&tracked)
	if err != nil {
		return nil, fmt.Errorf("query tracked total: %w", err)
	}

	resp := &VaultStateResponse{
		HeldValue:       uint64(held),
		TrackedTotal:    uint64(tracked),
		DepositsEnabled: enabled,
		AsOfSequence:    asOfSeq,
	}

	if owner.Valid {
		parsed, err := uuid.Parse(owner.String)
		if err != nil {
			return nil, fmt.Errorf("parse owner: %w", err)
		}
		if parsed != uuid.Nil {
			resp.Owner = &parsed
		}
	}

	return resp, nil
}

// GetRecentEvents returns the newest event log entries, newest first.
func (s *Service) GetRecentEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, event_type, payload, timestamp
		FROM vault_log.events
		ORDER BY sequence DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []EventResponse
	for rows.Next() {
		var e EventResponse
		if err := rows.Scan(&e.Sequence, &e.EventType, &e.Payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Service) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT last_sequence FROM projections.vault_state WHERE id = 1
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	return seq, err
}
