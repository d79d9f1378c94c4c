package vault

import "github.com/google/uuid"

// RestoreState loads state captured by the balance projection on warm
// restart. Owner may be uuid.Nil if ownership was renounced before the
// restart; the initialized flag stays set so re-initialization still
// fails.
func (v *Vault) RestoreState(balances map[uuid.UUID]uint64, held uint64, depositsEnabled bool, owner uuid.UUID) {
	for user, balance := range balances {
		v.balances[user] = balance
	}
	v.held = held
	v.depositsEnabled = depositsEnabled
	v.access.restore(owner)
}

func (ac *AccessControl) restore(owner uuid.UUID) {
	ac.owner = owner
	ac.initialized = true
}
