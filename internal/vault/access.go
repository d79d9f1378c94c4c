package vault

import (
	"VaultLedger/internal/event"
	"fmt"

	"github.com/google/uuid"
)

// AccessControl owns the single privileged-address slot. It is explicit
// per-vault state (never process-wide), so independent vaults can coexist
// in one process and in tests.
type AccessControl struct {
	owner       uuid.UUID
	initialized bool
}

func NewAccessControl() *AccessControl {
	return &AccessControl{}
}

// Initialize performs one-time owner setup. It fails after any prior
// initialization, including one whose owner has since been renounced.
func (ac *AccessControl) Initialize(owner uuid.UUID) (*event.OwnershipTransferred, error) {
	if ac.initialized {
		return nil, ErrAlreadyInitialized
	}
	if owner == uuid.Nil {
		return nil, fmt.Errorf("initialize owner: %w", ErrInvalidIdentity)
	}

	ac.owner = owner
	ac.initialized = true

	return &event.OwnershipTransferred{Previous: uuid.Nil, New: owner}, nil
}

// RequireOwner fails unless caller is the current owner. Pure guard, no
// mutation. After renounce the owner is uuid.Nil and no caller can match
// it (uuid.Nil is rejected as an identity everywhere).
func (ac *AccessControl) RequireOwner(caller uuid.UUID) error {
	if !ac.initialized || caller == uuid.Nil || caller != ac.owner {
		return ErrNotAuthorized
	}
	return nil
}

// TransferOwnership replaces the owner with a new non-null identity.
func (ac *AccessControl) TransferOwnership(caller, newOwner uuid.UUID) (*event.OwnershipTransferred, error) {
	if err := ac.RequireOwner(caller); err != nil {
		return nil, err
	}
	if newOwner == uuid.Nil {
		return nil, fmt.Errorf("transfer ownership: %w", ErrInvalidIdentity)
	}

	previous := ac.owner
	ac.owner = newOwner

	return &event.OwnershipTransferred{Previous: previous, New: newOwner}, nil
}

// RenounceOwnership sets the owner to the null identity. Irreversible:
// every admin-gated operation becomes permanently unreachable afterwards.
func (ac *AccessControl) RenounceOwnership(caller uuid.UUID) (*event.OwnershipTransferred, error) {
	if err := ac.RequireOwner(caller); err != nil {
		return nil, err
	}

	previous := ac.owner
	ac.owner = uuid.Nil

	return &event.OwnershipTransferred{Previous: previous, New: uuid.Nil}, nil
}

// Owner returns the current owner (uuid.Nil after renounce).
func (ac *AccessControl) Owner() uuid.UUID {
	return ac.owner
}
