package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType discriminator for notification payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeDeposit
	EventTypeWithdraw
	EventTypeDepositsEnabledChanged
	EventTypeOwnershipTransferred
)

// Envelope wraps every notification in the event log
type Envelope struct {
	// Global monotonic sequence assigned by the core
	Sequence int64

	// Command that produced this notification (stable dedup key)
	CommandID uuid.UUID

	// Notification type discriminator
	EventType EventType

	// Versioned input timestamp (NOT wall-clock)
	Timestamp time.Time

	// JSON-encoded notification payload
	Payload []byte

	// SHA-256 of vault state AFTER applying the command
	StateHash [32]byte

	// Previous envelope's state hash (chain integrity)
	PrevHash [32]byte
}

// Notification is the interface all emitted facts implement.
// Notifications are immutable once emitted; external observers and
// indexers consume them from the log or the outbound stream.
type Notification interface {
	EventType() EventType
}

func (et EventType) String() string {
	switch et {
	case EventTypeDeposit:
		return "Deposit"
	case EventTypeWithdraw:
		return "Withdraw"
	case EventTypeDepositsEnabledChanged:
		return "DepositsEnabledChanged"
	case EventTypeOwnershipTransferred:
		return "OwnershipTransferred"
	default:
		return "Unknown"
	}
}

// MarshalPayload serializes a notification to JSON for the envelope.
func MarshalPayload(n Notification) ([]byte, error) {
	return json.Marshal(n)
}
