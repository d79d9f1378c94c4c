package ingestion_test

import (
	"VaultLedger/internal/core"
	"VaultLedger/internal/ingestion"
	"encoding/json"
	"testing"
	"time"
)

func rawFromJSON(t *testing.T, kind string, v interface{}) ingestion.RawCommand {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ingestion.RawCommand{
		Subject:  "test",
		Kind:     kind,
		Data:     data,
		Received: time.Now(),
		AckFunc:  func() {},
		NakFunc:  func() {},
	}
}

func TestParseDeposit(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"amount":       uint64(1_000_000),
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "Deposit", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	dc, ok := cmd.(*core.DepositCommand)
	if !ok {
		t.Fatalf("expected *core.DepositCommand, got %T", cmd)
	}

	if dc.ID.String() != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("command_id: got %s", dc.ID)
	}
	if dc.Caller.String() != "660e8400-e29b-41d4-a716-446655440001" {
		t.Errorf("caller: got %s", dc.Caller)
	}
	if dc.Amount != 1_000_000 {
		t.Errorf("amount: got %d, want 1_000_000", dc.Amount)
	}
	if dc.Timestamp != time.UnixMicro(1700000000000000) {
		t.Errorf("timestamp: got %v", dc.Timestamp)
	}
	if dc.Kind() != "Deposit" {
		t.Errorf("kind: got %s, want Deposit", dc.Kind())
	}
}

func TestParseWithdraw(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"amount":       uint64(400_000),
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "Withdraw", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	wc, ok := cmd.(*core.WithdrawCommand)
	if !ok {
		t.Fatalf("expected *core.WithdrawCommand, got %T", cmd)
	}
	if wc.Amount != 400_000 {
		t.Errorf("amount: got %d, want 400_000", wc.Amount)
	}
}

func TestParseDirectTransfer(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"amount":       uint64(250),
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "DirectTransfer", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if _, ok := cmd.(*core.DirectTransferCommand); !ok {
		t.Fatalf("expected *core.DirectTransferCommand, got %T", cmd)
	}
}

func TestParseSetDepositsEnabled(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"enabled":      false,
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "SetDepositsEnabled", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	sc, ok := cmd.(*core.SetDepositsEnabledCommand)
	if !ok {
		t.Fatalf("expected *core.SetDepositsEnabledCommand, got %T", cmd)
	}
	if sc.Enabled {
		t.Error("enabled: got true, want false")
	}
}

func TestParseTransferOwnership(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"new_owner":    "770e8400-e29b-41d4-a716-446655440002",
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "TransferOwnership", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tc, ok := cmd.(*core.TransferOwnershipCommand)
	if !ok {
		t.Fatalf("expected *core.TransferOwnershipCommand, got %T", cmd)
	}
	if tc.NewOwner.String() != "770e8400-e29b-41d4-a716-446655440002" {
		t.Errorf("new_owner: got %s", tc.NewOwner)
	}
}

func TestParseRenounceOwnership(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "550e8400-e29b-41d4-a716-446655440000",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "RenounceOwnership", payload)
	cmd, err := ingestion.ParseRawCommand(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if _, ok := cmd.(*core.RenounceOwnershipCommand); !ok {
		t.Fatalf("expected *core.RenounceOwnershipCommand, got %T", cmd)
	}
}

func TestParseUnknownKind(t *testing.T) {
	raw := rawFromJSON(t, "Liquidate", map[string]interface{}{})
	_, err := ingestion.ParseRawCommand(raw)
	if err == nil {
		t.Fatal("expected error for unknown command kind, got nil")
	}
}

func TestParseMalformedJSON(t *testing.T) {
	raw := ingestion.RawCommand{
		Subject:  "test",
		Kind:     "Deposit",
		Data:     []byte("{not json"),
		Received: time.Now(),
		AckFunc:  func() {},
		NakFunc:  func() {},
	}
	_, err := ingestion.ParseRawCommand(raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestParseBadUUID(t *testing.T) {
	payload := map[string]interface{}{
		"command_id":   "not-a-uuid",
		"caller":       "660e8400-e29b-41d4-a716-446655440001",
		"amount":       uint64(100),
		"timestamp_us": int64(1700000000000000),
	}

	raw := rawFromJSON(t, "Deposit", payload)
	_, err := ingestion.ParseRawCommand(raw)
	if err == nil {
		t.Fatal("expected error for invalid command_id, got nil")
	}
}
