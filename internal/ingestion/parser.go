package ingestion

import (
	"VaultLedger/internal/core"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParseRawCommand converts a RawCommand (JSON bytes + command kind) into a
// typed core.Command. The ingestion shell validates and converts commands
// before sending them to the single-threaded core.
func ParseRawCommand(raw RawCommand) (core.Command, error) {
	switch raw.Kind {
	case "Deposit":
		return parseDeposit(raw.Data)
	case "Withdraw":
		return parseWithdraw(raw.Data)
	case "DirectTransfer":
		return parseDirectTransfer(raw.Data)
	case "SetDepositsEnabled":
		return parseSetDepositsEnabled(raw.Data)
	case "TransferOwnership":
		return parseTransferOwnership(raw.Data)
	case "RenounceOwnership":
		return parseRenounceOwnership(raw.Data)
	default:
		return nil, fmt.Errorf("unknown command kind: %s", raw.Kind)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers.

type amountCommandJSON struct {
	CommandID   string `json:"command_id"`
	Caller      string `json:"caller"`
	Amount      uint64 `json:"amount"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseAmountCommand(data []byte, kind string) (uuid.UUID, uuid.UUID, uint64, time.Time, error) {
	var j amountCommandJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return uuid.Nil, uuid.Nil, 0, time.Time{}, fmt.Errorf("parse %s: %w", kind, err)
	}

	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return uuid.Nil, uuid.Nil, 0, time.Time{}, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return uuid.Nil, uuid.Nil, 0, time.Time{}, fmt.Errorf("parse caller: %w", err)
	}

	return commandID, caller, j.Amount, time.UnixMicro(j.TimestampUs), nil
}

func parseDeposit(data []byte) (*core.DepositCommand, error) {
	id, caller, amount, ts, err := parseAmountCommand(data, "Deposit")
	if err != nil {
		return nil, err
	}
	return &core.DepositCommand{ID: id, Caller: caller, Amount: amount, Timestamp: ts}, nil
}

func parseWithdraw(data []byte) (*core.WithdrawCommand, error) {
	id, caller, amount, ts, err := parseAmountCommand(data, "Withdraw")
	if err != nil {
		return nil, err
	}
	return &core.WithdrawCommand{ID: id, Caller: caller, Amount: amount, Timestamp: ts}, nil
}

func parseDirectTransfer(data []byte) (*core.DirectTransferCommand, error) {
	id, caller, amount, ts, err := parseAmountCommand(data, "DirectTransfer")
	if err != nil {
		return nil, err
	}
	return &core.DirectTransferCommand{ID: id, Caller: caller, Amount: amount, Timestamp: ts}, nil
}

type setDepositsEnabledJSON struct {
	CommandID   string `json:"command_id"`
	Caller      string `json:"caller"`
	Enabled     bool   `json:"enabled"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseSetDepositsEnabled(data []byte) (*core.SetDepositsEnabledCommand, error) {
	var j setDepositsEnabledJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetDepositsEnabled: %w", err)
	}

	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}

	return &core.SetDepositsEnabledCommand{
		ID:        commandID,
		Caller:    caller,
		Enabled:   j.Enabled,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type transferOwnershipJSON struct {
	CommandID   string `json:"command_id"`
	Caller      string `json:"caller"`
	NewOwner    string `json:"new_owner"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseTransferOwnership(data []byte) (*core.TransferOwnershipCommand, error) {
	var j transferOwnershipJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse TransferOwnership: %w", err)
	}

	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	newOwner, err := uuid.Parse(j.NewOwner)
	if err != nil {
		return nil, fmt.Errorf("parse new_owner: %w", err)
	}

	return &core.TransferOwnershipCommand{
		ID:        commandID,
		Caller:    caller,
		NewOwner:  newOwner,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type renounceOwnershipJSON struct {
	CommandID   string `json:"command_id"`
	Caller      string `json:"caller"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseRenounceOwnership(data []byte) (*core.RenounceOwnershipCommand, error) {
	var j renounceOwnershipJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RenounceOwnership: %w", err)
	}

	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}

	return &core.RenounceOwnershipCommand{
		ID:        commandID,
		Caller:    caller,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}
