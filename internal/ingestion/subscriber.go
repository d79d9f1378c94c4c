package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSSubscriber subscribes to NATS JetStream command subjects and feeds
// raw commands into the core via commandChan. JetStream is the primary
// ingestion surface; each command kind has its own subject.
type NATSSubscriber struct {
	js          jetstream.JetStream
	commandChan chan<- RawCommand
	consumers   []jetstream.ConsumeContext
	log         zerolog.Logger
}

// RawCommand is the parsed-but-untyped command from NATS, ready for the
// shell to validate and convert into a typed core.Command.
type RawCommand struct {
	Subject  string
	Kind     string
	Data     []byte
	Received time.Time
	AckFunc  func() // ACK after successful processing
	NakFunc  func() // NAK on failure (redelivered)
}

// SubjectConfig maps NATS subjects to command kinds.
type SubjectConfig struct {
	Subject      string
	Kind         string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject configuration.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "vault.commands.deposit", Kind: "Deposit", ConsumerName: "vault-deposit", StreamName: "VAULT_COMMANDS"},
		{Subject: "vault.commands.withdraw", Kind: "Withdraw", ConsumerName: "vault-withdraw", StreamName: "VAULT_COMMANDS"},
		{Subject: "vault.commands.direct_transfer", Kind: "DirectTransfer", ConsumerName: "vault-direct", StreamName: "VAULT_COMMANDS"},
		{Subject: "vault.commands.set_deposits_enabled", Kind: "SetDepositsEnabled", ConsumerName: "vault-gate", StreamName: "VAULT_COMMANDS"},
		{Subject: "vault.commands.transfer_ownership", Kind: "TransferOwnership", ConsumerName: "vault-owner-transfer", StreamName: "VAULT_COMMANDS"},
		{Subject: "vault.commands.renounce_ownership", Kind: "RenounceOwnership", ConsumerName: "vault-owner-renounce", StreamName: "VAULT_COMMANDS"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, commandChan chan<- RawCommand, log zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		js:          js,
		commandChan: commandChan,
		log:         log,
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		kind := cfg.Kind
		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawCommand{
				Subject:  msg.Subject(),
				Kind:     kind,
				Data:     msg.Data(),
				Received: time.Now(),
				AckFunc:  func() { msg.Ack() },
				NakFunc:  func() { msg.Nak() },
			}

			select {
			case ns.commandChan <- raw:
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		ns.log.Info().Str("subject", cfg.Subject).Str("consumer", cfg.ConsumerName).Msg("subscribed")
	}

	return nil
}

// Stop drains all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, c := range ns.consumers {
		c.Stop()
	}
}

// EnsureCommandStream creates the inbound command stream.
func EnsureCommandStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "VAULT_COMMANDS",
		Subjects:  []string{"vault.commands.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create command stream: %w", err)
	}
	return nil
}
