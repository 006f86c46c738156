// Package worker mirrors SQLite changes into Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yield/internal/amqp"
	"yield/internal/core"
	applog "yield/internal/log"
)

// Source is the authoritative store changes are read back from.
type Source interface {
	GetBroker(ctx context.Context, id string) (core.Broker, error)
	GetTotalValue(ctx context.Context, id string) (core.TotalValueRecord, error)
	ListBrokers(ctx context.Context) ([]core.Broker, error)
	ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error)
}

// Mirror is the replica changes are copied to. Mirror* calls are
// idempotent and report whether anything was written.
type Mirror interface {
	MirrorBroker(ctx context.Context, b core.Broker) (bool, error)
	MirrorTotalValue(ctx context.Context, rec core.TotalValueRecord) (bool, error)
	DeleteTotalValue(ctx context.Context, id string) (string, error)
}

// MirrorWorker applies change messages to the mirror. Messages carry only
// ids; the current state is always read from the source, so replays and
// out-of-order deliveries converge.
type MirrorWorker struct {
	source Source
	mirror Mirror
	logger *slog.Logger
}

func NewMirrorWorker(source Source, mirror Mirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger.With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// HandleChange is an amqp.Handler. A returned error requeues the message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		"entity", msg.Entity,
		"op", msg.Op,
		"id", msg.ID,
		"timestamp", msg.Timestamp)

	switch {
	case msg.Entity == amqp.EntityBroker && msg.Op == amqp.OpCreated:
		return w.mirrorBroker(ctx, msg.ID)
	case msg.Entity == amqp.EntityTotalValue && msg.Op == amqp.OpCreated:
		return w.mirrorTotalValue(ctx, msg.ID)
	case msg.Entity == amqp.EntityTotalValue && msg.Op == amqp.OpDeleted:
		return w.deleteTotalValue(ctx, msg.ID)
	}

	w.logger.WarnContext(ctx, "Ignoring unsupported change", "entity", msg.Entity, "op", msg.Op, "id", msg.ID)
	return nil
}

func (w *MirrorWorker) mirrorBroker(ctx context.Context, id string) error {
	b, err := w.source.GetBroker(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Broker no longer in storage, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get broker from storage: %w", err)
	}

	written, err := w.mirror.MirrorBroker(ctx, b)
	if err != nil {
		return fmt.Errorf("mirror broker: %w", err)
	}
	w.logger.InfoContext(ctx, "Broker mirrored", "id", id, "broker", b.Name, "written", written)
	return nil
}

func (w *MirrorWorker) mirrorTotalValue(ctx context.Context, id string) error {
	rec, err := w.source.GetTotalValue(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before we got here; the delete message follows
		w.logger.WarnContext(ctx, "Total value no longer in storage, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get total value from storage: %w", err)
	}

	written, err := w.mirror.MirrorTotalValue(ctx, rec)
	if err != nil {
		return fmt.Errorf("mirror total value: %w", err)
	}
	w.logger.InfoContext(ctx, "Total value mirrored",
		"id", id,
		"broker", rec.Broker.Name,
		"date", rec.Date,
		"written", written)
	return nil
}

func (w *MirrorWorker) deleteTotalValue(ctx context.Context, id string) error {
	if _, err := w.mirror.DeleteTotalValue(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.InfoContext(ctx, "Total value already absent from mirror", "id", id)
			return nil
		}
		return fmt.Errorf("delete total value from mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Total value deleted from mirror", "id", id)
	return nil
}

// SyncStats summarizes a reconciliation pass.
type SyncStats struct {
	Written int
	Present int
	Errors  int
}

// StartupSync copies every stored broker and total value missing from the
// mirror. It recovers changes published while the worker was down.
// Per-item failures are counted and logged; listing failures abort.
func (w *MirrorWorker) StartupSync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	brokers, err := w.source.ListBrokers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list brokers for startup sync: %w", err)
	}
	for _, b := range brokers {
		written, err := w.mirror.MirrorBroker(ctx, b)
		stats.count(written, err)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror broker during startup", "id", b.ID, "error", err)
		}
	}

	records, err := w.source.ListTotalValues(ctx)
	if err != nil {
		return stats, fmt.Errorf("list total values for startup sync: %w", err)
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		written, err := w.mirror.MirrorTotalValue(ctx, rec)
		stats.count(written, err)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror total value during startup", "id", rec.ID, "error", err)
		}
	}

	w.logger.InfoContext(ctx, "Startup sync completed",
		"brokers", len(brokers),
		"total_values", len(records),
		"written", stats.Written,
		"present", stats.Present,
		"errors", stats.Errors)
	return stats, nil
}

func (s *SyncStats) count(written bool, err error) {
	switch {
	case err != nil:
		s.Errors++
	case written:
		s.Written++
	default:
		s.Present++
	}
}
