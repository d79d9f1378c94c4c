package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// CustodyTransferor performs the outbound value transfer of a withdrawal
// by synchronous request/reply to the custody backend. The transfer either
// fully succeeds or fully fails; the vault treats a timeout as failure and
// restores the debit.
type CustodyTransferor struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

type custodyRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type custodyReply struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func NewCustodyTransferor(nc *nats.Conn, subject string, timeout time.Duration) *CustodyTransferor {
	return &CustodyTransferor{
		nc:      nc,
		subject: subject,
		timeout: timeout,
	}
}

// Transfer requests an outbound transfer and waits for confirmation.
func (ct *CustodyTransferor) Transfer(to uuid.UUID, amount uint64) error {
	data, err := json.Marshal(custodyRequest{To: to.String(), Amount: amount})
	if err != nil {
		return fmt.Errorf("marshal custody request: %w", err)
	}

	msg, err := ct.nc.Request(ct.subject, data, ct.timeout)
	if err != nil {
		return fmt.Errorf("custody request: %w", err)
	}

	var reply custodyReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("parse custody reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("custody rejected transfer: %s", reply.Reason)
	}

	return nil
}
