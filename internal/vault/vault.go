package vault

import (
	"VaultLedger/internal/event"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Transferor performs the external value-transfer interaction of a
// withdrawal. The transfer is synchronous and atomic from the vault's
// perspective: it either fully succeeds or fully fails with no partial
// effect. There is no timeout or cancellation concept.
type Transferor interface {
	Transfer(to uuid.UUID, amount uint64) error
}

// Vault is the single-asset custodial ledger: a pool of value contributed
// by many users, a per-user table of withdrawable shares, and the protocol
// that keeps the two consistent. Amounts are in the smallest indivisible
// unit. The balance table and flags are exclusively owned by the Vault;
// all mutation goes through the operations below, each atomic with respect
// to its own state.
//
// Invariant: every balance >= 0 by construction (unsigned, checked
// arithmetic), and sum(balances) <= held. Equality is not required — value
// absorbed outside the deposit path is a benign surplus, never a deficit.
type Vault struct {
	balances        map[uuid.UUID]uint64
	depositsEnabled bool
	held            uint64

	access     *AccessControl
	guard      *ReentrancyGuard
	transferor Transferor
}

// New is the only constructor; it runs the one-time owner setup and
// enables deposits. Fails with ErrInvalidIdentity for a nil owner.
func New(owner uuid.UUID, transferor Transferor) (*Vault, *event.OwnershipTransferred, error) {
	access := NewAccessControl()

	notif, err := access.Initialize(owner)
	if err != nil {
		return nil, nil, err
	}

	v := &Vault{
		balances:        make(map[uuid.UUID]uint64),
		depositsEnabled: true,
		access:          access,
		guard:           NewReentrancyGuard(),
		transferor:      transferor,
	}

	return v, notif, nil
}

// Deposit credits the caller's balance and grows the held pool.
func (v *Vault) Deposit(caller uuid.UUID, amount uint64) (*event.Deposit, error) {
	if !v.depositsEnabled {
		return nil, ErrDepositsDisabled
	}
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	v.balances[caller] = checkedAdd(v.balances[caller], amount)
	v.held = checkedAdd(v.held, amount)

	return &event.Deposit{User: caller, Amount: amount}, nil
}

// ReceiveUnsolicited handles value arriving without an explicit deposit
// call but with an attributable sender. It behaves exactly as Deposit:
// every unit entering through a known path stays attributable to an
// account rather than silently becoming untracked surplus.
func (v *Vault) ReceiveUnsolicited(caller uuid.UUID, amount uint64) (*event.Deposit, error) {
	return v.Deposit(caller, amount)
}

// AbsorbSurplus records value that reached the pool bypassing every known
// path. No account is credited; the surplus only widens the gap between
// held value and tracked balances.
func (v *Vault) AbsorbSurplus(amount uint64) {
	v.held = checkedAdd(v.held, amount)
}

// Withdraw debits the caller and transfers value out. Protocol, in strict
// order: acquire the guard, apply effects (debit balance and held),
// perform the interaction (transfer), then release the guard. A nested
// call back into Withdraw during the transfer fails with ErrReentrantCall.
//
// On transfer failure the debit is restored before returning: the
// operation boundary provides the all-or-nothing semantics, so a failed
// withdrawal is indistinguishable from one that never ran.
func (v *Vault) Withdraw(caller uuid.UUID, amount uint64) (*event.Withdraw, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if v.balances[caller] < amount {
		return nil, fmt.Errorf("withdraw %d with balance %d: %w",
			amount, v.balances[caller], ErrInsufficientBalance)
	}

	if err := v.guard.Enter(); err != nil {
		return nil, err
	}
	defer v.guard.Exit()

	// Effects strictly before the interaction
	v.balances[caller] -= amount
	v.held -= amount

	if err := v.transferor.Transfer(caller, amount); err != nil {
		v.balances[caller] += amount
		v.held += amount
		return nil, fmt.Errorf("transfer %d to %s: %v: %w",
			amount, caller, err, ErrTransferFailed)
	}

	return &event.Withdraw{User: caller, Amount: amount}, nil
}

// SetDepositsEnabled toggles the deposit gate. Owner only. Withdrawals are
// never gated by this flag — users must always be able to exit.
func (v *Vault) SetDepositsEnabled(caller uuid.UUID, enabled bool) (*event.DepositsEnabledChanged, error) {
	if err := v.access.RequireOwner(caller); err != nil {
		return nil, err
	}

	v.depositsEnabled = enabled

	return &event.DepositsEnabledChanged{Enabled: enabled}, nil
}

// TransferOwnership hands the admin slot to a new non-null identity.
func (v *Vault) TransferOwnership(caller, newOwner uuid.UUID) (*event.OwnershipTransferred, error) {
	return v.access.TransferOwnership(caller, newOwner)
}

// RenounceOwnership permanently disables all admin-gated operations.
func (v *Vault) RenounceOwnership(caller uuid.UUID) (*event.OwnershipTransferred, error) {
	return v.access.RenounceOwnership(caller)
}

// === Read accessors ===

// BalanceOf returns the tracked balance for an identity (zero if never
// credited; entries are created implicitly and never destroyed).
func (v *Vault) BalanceOf(identity uuid.UUID) uint64 {
	return v.balances[identity]
}

// DepositsEnabled returns the deposit gate state.
func (v *Vault) DepositsEnabled() bool {
	return v.depositsEnabled
}

// TotalHeldValue returns actual held value, which may exceed the sum of
// tracked balances.
func (v *Vault) TotalHeldValue() uint64 {
	return v.held
}

// Owner returns the current admin identity (uuid.Nil after renounce).
func (v *Vault) Owner() uuid.UUID {
	return v.access.Owner()
}

// SumTracked returns the sum of all tracked balances.
func (v *Vault) SumTracked() uint64 {
	var sum uint64
	for _, b := range v.balances {
		sum = checkedAdd(sum, b)
	}
	return sum
}

// CheckInvariants verifies the held-funds invariant: the sum of tracked
// balances never exceeds the pooled value actually held.
func (v *Vault) CheckInvariants() error {
	if tracked := v.SumTracked(); tracked > v.held {
		return fmt.Errorf("tracked balances %d exceed held value %d", tracked, v.held)
	}
	return nil
}

// StateDigest produces canonical bytes over the full vault state for the
// hash chain: sorted (user, balance) pairs, held value, deposit gate,
// and owner.
func (v *Vault) StateDigest() []byte {
	users := make([]uuid.UUID, 0, len(v.balances))
	for u := range v.balances {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].String() < users[j].String()
	})

	digest := make([]byte, 0, len(users)*24+32)
	for _, u := range users {
		digest = append(digest, u[:]...)
		digest = appendUint64LE(digest, v.balances[u])
	}

	digest = appendUint64LE(digest, v.held)
	if v.depositsEnabled {
		digest = append(digest, 1)
	} else {
		digest = append(digest, 0)
	}
	owner := v.access.Owner()
	digest = append(digest, owner[:]...)

	return digest
}

func appendUint64LE(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// checkedAdd panics on uint64 overflow. Total supply is bounded by
// realistic value ranges, so overflow is a modeling assumption violation,
// not a recoverable error — silent wraparound would break the
// non-negative-balance invariant.
func checkedAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		panic(fmt.Sprintf("FATAL: arithmetic overflow: %d + %d", a, b))
	}
	return sum
}
