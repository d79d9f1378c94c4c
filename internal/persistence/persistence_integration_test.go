package persistence_test

import (
	"VaultLedger/internal/core"
	"VaultLedger/internal/event"
	"VaultLedger/internal/persistence"
	"VaultLedger/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// These tests need the docker-compose.test Postgres on port 5433. They
// skip automatically when it is not reachable.

func outputFor(t *testing.T, seq int64, notif event.Notification, prev [32]byte) core.CoreOutput {
	t.Helper()

	payload, err := event.MarshalPayload(notif)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	hasher := event.NewStateHasher()
	hasher.SetPrevHash(prev)
	stateHash := hasher.ComputeHash(seq, []byte("digest"))

	return core.CoreOutput{
		Envelope: &event.Envelope{
			Sequence:  seq,
			CommandID: uuid.New(),
			EventType: notif.EventType(),
			Timestamp: time.UnixMicro(1700000000000000 + seq),
			Payload:   payload,
			StateHash: stateHash,
			PrevHash:  prev,
		},
		Notification: notif,
	}
}

func TestWriteAndProject_RoundTrip(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	owner := uuid.New()
	user := uuid.New()
	if err := persistence.InitState(ctx, db, owner); err != nil {
		t.Fatalf("init state: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)

	deposit := outputFor(t, 0, &event.Deposit{User: user, Amount: 1_000_000}, [32]byte{})
	withdraw := outputFor(t, 1, &event.Withdraw{User: user, Amount: 400_000}, deposit.Envelope.StateHash)

	for _, output := range []core.CoreOutput{deposit, withdraw} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin tx: %v", err)
		}

		env := output.Envelope
		rows := []persistence.EventRow{{
			Sequence:  env.Sequence,
			CommandID: env.CommandID.String(),
			EventType: env.EventType.String(),
			Payload:   env.Payload,
			StateHash: env.StateHash[:],
			PrevHash:  env.PrevHash[:],
			Timestamp: env.Timestamp,
		}}
		if err := writer.WriteEventBatch(ctx, tx, rows); err != nil {
			t.Fatalf("write batch: %v", err)
		}
		if err := writer.ApplyProjection(ctx, tx, env, output.Notification); err != nil {
			t.Fatalf("apply projection: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	state, err := persistence.LoadState(ctx, db)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state == nil {
		t.Fatal("expected restored state, got cold start")
	}

	if state.Balances[user] != 600_000 {
		t.Errorf("balance: got %d, want 600_000", state.Balances[user])
	}
	if state.HeldValue != 600_000 {
		t.Errorf("held value: got %d, want 600_000", state.HeldValue)
	}
	if state.LastSequence != 1 {
		t.Errorf("last sequence: got %d, want 1", state.LastSequence)
	}
	if state.Owner != owner {
		t.Errorf("owner: got %s, want %s", state.Owner, owner)
	}
	if state.StateHash != withdraw.Envelope.StateHash {
		t.Errorf("state hash: got %x, want %x", state.StateHash, withdraw.Envelope.StateHash)
	}
}

func TestWriteEventBatch_DuplicateSequenceIgnored(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)
	user := uuid.New()
	output := outputFor(t, 0, &event.Deposit{User: user, Amount: 500}, [32]byte{})

	env := output.Envelope
	row := persistence.EventRow{
		Sequence:  env.Sequence,
		CommandID: env.CommandID.String(),
		EventType: env.EventType.String(),
		Payload:   env.Payload,
		StateHash: env.StateHash[:],
		PrevHash:  env.PrevHash[:],
		Timestamp: env.Timestamp,
	}

	for i := 0; i < 2; i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin tx: %v", err)
		}
		if err := writer.WriteEventBatch(ctx, tx, []persistence.EventRow{row}); err != nil {
			t.Fatalf("write batch %d: %v", i, err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vault_log.events WHERE sequence = 0`).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 event row after replay, got %d", count)
	}
}

func TestIdempotencyChecker_FindsWrittenCommand(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := persistence.NewMigrator(db, "../../migrations").Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := persistence.NewEventLogWriter(db)
	user := uuid.New()
	output := outputFor(t, 0, &event.Deposit{User: user, Amount: 500}, [32]byte{})
	env := output.Envelope

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := writer.WriteEventBatch(ctx, tx, []persistence.EventRow{{
		Sequence:  env.Sequence,
		CommandID: env.CommandID.String(),
		EventType: env.EventType.String(),
		Payload:   env.Payload,
		StateHash: env.StateHash[:],
		PrevHash:  env.PrevHash[:],
		Timestamp: env.Timestamp,
	}}); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	checker := persistence.NewPostgresIdempotencyChecker(db)

	isDup, err := checker.IsDuplicate("Deposit", env.CommandID.String())
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !isDup {
		t.Error("expected written command to be a duplicate")
	}

	isDup, err = checker.IsDuplicate("Deposit", uuid.New().String())
	if err != nil {
		t.Fatalf("IsDuplicate unknown: %v", err)
	}
	if isDup {
		t.Error("unknown command should not be a duplicate")
	}

	keys, err := checker.RecentCommandKeys(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommandKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != env.CommandID.String() {
		t.Errorf("unexpected warm keys: %v", keys)
	}
}
