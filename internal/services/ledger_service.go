package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yield/internal/amqp"
	"yield/internal/core"
	"yield/internal/ports"
)

// Store is the persistence the ledger service writes through.
type Store interface {
	AddBroker(ctx context.Context, b core.Broker) (core.Broker, error)
	ListBrokers(ctx context.Context) ([]core.Broker, error)
	InsertTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error)
	DeleteTotalValue(ctx context.Context, id string) (string, error)
	ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error)
	Close() error
}

// Publisher announces committed changes.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
	Close() error
}

var _ ports.Backend = (*LedgerService)(nil)

// LedgerService orchestrates broker and total value operations across
// SQLite and AMQP. Publishing is best effort: a committed write is never
// reported as failed because the broker was unreachable.
type LedgerService struct {
	store     Store
	publisher Publisher
}

// NewLedgerService wires the store with an optional publisher (nil disables events).
func NewLedgerService(store Store, publisher Publisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

func (s *LedgerService) AddBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	created, err := s.store.AddBroker(ctx, b)
	if err != nil {
		return core.Broker{}, fmt.Errorf("save broker: %w", err)
	}
	s.publish(ctx, amqp.EntityBroker, amqp.OpCreated, created.ID)
	return created, nil
}

func (s *LedgerService) ListBrokers(ctx context.Context) ([]core.Broker, error) {
	return s.store.ListBrokers(ctx)
}

func (s *LedgerService) AddTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	id, err := s.store.InsertTotalValue(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save total value: %w", err)
	}
	s.publish(ctx, amqp.EntityTotalValue, amqp.OpCreated, id)
	return ports.MsgTotalValueAdded, nil
}

func (s *LedgerService) DeleteTotalValue(ctx context.Context, id string) (string, error) {
	msg, err := s.store.DeleteTotalValue(ctx, id)
	if err != nil {
		return "", fmt.Errorf("delete total value: %w", err)
	}
	s.publish(ctx, amqp.EntityTotalValue, amqp.OpDeleted, id)
	return msg, nil
}

func (s *LedgerService) ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error) {
	return s.store.ListTotalValues(ctx)
}

func (s *LedgerService) publish(ctx context.Context, entity, op, id string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change message", "entity", entity, "op", op)
		return
	}
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeMessage(entity, op, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", entity, "op", op, "id", id, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
