package core

import (
	"VaultLedger/internal/event"
	"time"

	"github.com/google/uuid"
)

// Command is the interface all vault commands implement. Every command
// carries a stable uuid for idempotent replay and a versioned timestamp —
// the core never calls time.Now().
type Command interface {
	// CommandID returns the stable dedup key.
	CommandID() uuid.UUID

	// Kind returns the command name for dispatch, logging, and metrics.
	Kind() string

	// OccurredAt returns the versioned input timestamp.
	OccurredAt() time.Time
}

// DepositCommand credits the caller's balance.
type DepositCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	Amount    uint64
	Timestamp time.Time
}

func (c *DepositCommand) CommandID() uuid.UUID  { return c.ID }
func (c *DepositCommand) Kind() string          { return "Deposit" }
func (c *DepositCommand) OccurredAt() time.Time { return c.Timestamp }

// WithdrawCommand debits the caller and transfers value out.
type WithdrawCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	Amount    uint64
	Timestamp time.Time
}

func (c *WithdrawCommand) CommandID() uuid.UUID  { return c.ID }
func (c *WithdrawCommand) Kind() string          { return "Withdraw" }
func (c *WithdrawCommand) OccurredAt() time.Time { return c.Timestamp }

// DirectTransferCommand reports value that arrived without an explicit
// deposit call but with an attributable sender.
type DirectTransferCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	Amount    uint64
	Timestamp time.Time
}

func (c *DirectTransferCommand) CommandID() uuid.UUID  { return c.ID }
func (c *DirectTransferCommand) Kind() string          { return "DirectTransfer" }
func (c *DirectTransferCommand) OccurredAt() time.Time { return c.Timestamp }

// SetDepositsEnabledCommand toggles the deposit gate (owner only).
type SetDepositsEnabledCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	Enabled   bool
	Timestamp time.Time
}

func (c *SetDepositsEnabledCommand) CommandID() uuid.UUID  { return c.ID }
func (c *SetDepositsEnabledCommand) Kind() string          { return "SetDepositsEnabled" }
func (c *SetDepositsEnabledCommand) OccurredAt() time.Time { return c.Timestamp }

// TransferOwnershipCommand hands the admin slot to a new identity.
type TransferOwnershipCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	NewOwner  uuid.UUID
	Timestamp time.Time
}

func (c *TransferOwnershipCommand) CommandID() uuid.UUID  { return c.ID }
func (c *TransferOwnershipCommand) Kind() string          { return "TransferOwnership" }
func (c *TransferOwnershipCommand) OccurredAt() time.Time { return c.Timestamp }

// RenounceOwnershipCommand sets the owner to the null identity.
type RenounceOwnershipCommand struct {
	ID        uuid.UUID
	Caller    uuid.UUID
	Timestamp time.Time
}

func (c *RenounceOwnershipCommand) CommandID() uuid.UUID  { return c.ID }
func (c *RenounceOwnershipCommand) Kind() string          { return "RenounceOwnership" }
func (c *RenounceOwnershipCommand) OccurredAt() time.Time { return c.Timestamp }

// CoreOutput pairs an envelope with its notification for downstream
// persistence and publishing.
type CoreOutput struct {
	Envelope     *event.Envelope
	Notification event.Notification
}
