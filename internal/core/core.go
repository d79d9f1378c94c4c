package core

import (
	"VaultLedger/internal/event"
	"VaultLedger/internal/observability"
	"VaultLedger/internal/vault"
	"errors"
	"fmt"
	"time"
)

// VaultCore is the single-threaded command processor. Each command runs to
// completion (or failure) before the next begins; there is no parallelism
// within one vault instance. Reentrancy during the withdraw interaction is
// handled inside the vault itself.
type VaultCore struct {
	sequence    int64
	vault       *vault.Vault
	hasher      *event.StateHasher
	idempotency *IdempotencyChecker
	metrics     *observability.Metrics

	persistChan chan<- CoreOutput
	publishChan chan<- CoreOutput
}

func NewVaultCore(
	v *vault.Vault,
	startSequence int64,
	persistChan, publishChan chan<- CoreOutput,
	dbChecker DBIdempotencyChecker,
	lruCapacity int,
	metrics *observability.Metrics,
) *VaultCore {
	return &VaultCore{
		sequence:    startSequence,
		vault:       v,
		hasher:      event.NewStateHasher(),
		idempotency: NewIdempotencyChecker(lruCapacity, dbChecker),
		metrics:     metrics,
		persistChan: persistChan,
		publishChan: publishChan,
	}
}

// Apply is the main processing pipeline. A failed command changes nothing:
// the vault rejects it before any mutation (or restores the debit on a
// failed transfer), no envelope is assigned, and the sequence does not
// advance.
func (c *VaultCore) Apply(cmd Command) error {
	start := time.Now()
	kind := cmd.Kind()
	commandID := cmd.CommandID().String()

	// Step 1: idempotency check (two-tier)
	if c.idempotency.IsDuplicate(kind, commandID) {
		if c.metrics != nil {
			c.metrics.CommandsRejected.WithLabelValues(kind, "duplicate").Inc()
		}
		return nil
	}

	// Step 2: dispatch to the vault
	notif, err := c.dispatch(cmd)
	if err != nil {
		if c.metrics != nil {
			c.metrics.CommandsRejected.WithLabelValues(kind, rejectReason(err)).Inc()
		}
		return fmt.Errorf("%s %s: %w", kind, commandID, err)
	}

	// Step 3: post-check the held-funds invariant
	if err := c.vault.CheckInvariants(); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated after %s: %v", kind, err))
	}

	// Step 4: envelope with state hash chain
	payload, err := event.MarshalPayload(notif)
	if err != nil {
		panic(fmt.Sprintf("FATAL: marshal %s payload: %v", kind, err))
	}

	prevHash := c.hasher.GetPrevHash()
	stateHash := c.hasher.ComputeHash(c.sequence, c.vault.StateDigest())

	envelope := &event.Envelope{
		Sequence:  c.sequence,
		CommandID: cmd.CommandID(),
		EventType: notif.EventType(),
		Timestamp: cmd.OccurredAt(),
		Payload:   payload,
		StateHash: stateHash,
		PrevHash:  prevHash,
	}

	output := CoreOutput{Envelope: envelope, Notification: notif}

	// Step 5: emit. Persistence uses a BLOCKING send (backpressure — the
	// core stalls until the persistence worker drains, so no event is
	// lost). Publishing uses a NON-BLOCKING send with drop; consumers can
	// catch up from the event log.
	c.persistChan <- output

	select {
	case c.publishChan <- output:
	default:
		if c.metrics != nil {
			c.metrics.PublishDrops.Inc()
		}
	}

	// Step 6: mark as processed
	c.idempotency.MarkProcessed(kind, commandID)
	c.sequence++

	if c.metrics != nil {
		c.metrics.CommandsApplied.WithLabelValues(kind).Inc()
		c.metrics.CommandDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		c.metrics.CoreSequence.Set(float64(c.sequence))
		c.metrics.HeldValue.Set(float64(c.vault.TotalHeldValue()))
		c.metrics.TrackedValue.Set(float64(c.vault.SumTracked()))
	}

	return nil
}

func (c *VaultCore) dispatch(cmd Command) (event.Notification, error) {
	switch cm := cmd.(type) {
	case *DepositCommand:
		return c.vault.Deposit(cm.Caller, cm.Amount)
	case *WithdrawCommand:
		return c.vault.Withdraw(cm.Caller, cm.Amount)
	case *DirectTransferCommand:
		return c.vault.ReceiveUnsolicited(cm.Caller, cm.Amount)
	case *SetDepositsEnabledCommand:
		return c.vault.SetDepositsEnabled(cm.Caller, cm.Enabled)
	case *TransferOwnershipCommand:
		return c.vault.TransferOwnership(cm.Caller, cm.NewOwner)
	case *RenounceOwnershipCommand:
		return c.vault.RenounceOwnership(cm.Caller)
	default:
		return nil, fmt.Errorf("unknown command type: %T", cmd)
	}
}

// rejectReason maps vault errors to a stable metrics label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, vault.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, vault.ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, vault.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, vault.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, vault.ErrDepositsDisabled):
		return "deposits_disabled"
	case errors.Is(err, vault.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, vault.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, vault.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "other"
	}
}

// GetSequence returns the next sequence number to assign.
func (c *VaultCore) GetSequence() int64 {
	return c.sequence
}

// GetStateHash returns the current state hash (chain tip).
func (c *VaultCore) GetStateHash() [32]byte {
	return c.hasher.GetPrevHash()
}

// RestoreChainTip sets the hash chain tip on warm restart.
func (c *VaultCore) RestoreChainTip(hash [32]byte) {
	c.hasher.SetPrevHash(hash)
}

// WarmLRU loads recent idempotency keys into the LRU cache.
func (c *VaultCore) WarmLRU(keys []string) {
	c.idempotency.lru.WarmFromKeys(keys)
}
