package event

import "github.com/google/uuid"

// Deposit records a credit to a user's tracked balance.
// Emitted for both explicit deposits and attributable direct transfers.
type Deposit struct {
	User   uuid.UUID `json:"user"`
	Amount uint64    `json:"amount"`
}

func (d *Deposit) EventType() EventType {
	return EventTypeDeposit
}

// Withdraw records a successful outbound value transfer.
type Withdraw struct {
	User   uuid.UUID `json:"user"`
	Amount uint64    `json:"amount"`
}

func (w *Withdraw) EventType() EventType {
	return EventTypeWithdraw
}

// DepositsEnabledChanged records an admin toggle of the deposit gate.
type DepositsEnabledChanged struct {
	Enabled bool `json:"enabled"`
}

func (d *DepositsEnabledChanged) EventType() EventType {
	return EventTypeDepositsEnabledChanged
}

// OwnershipTransferred records an owner change. Previous is uuid.Nil on
// initial setup; New is uuid.Nil when ownership was renounced.
type OwnershipTransferred struct {
	Previous uuid.UUID `json:"previous"`
	New      uuid.UUID `json:"new"`
}

func (o *OwnershipTransferred) EventType() EventType {
	return EventTypeOwnershipTransferred
}
