package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"yield/internal/core"
	"yield/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AddBroker implements ports.BrokerWriter
func (r *SQLiteRepository) AddBroker(ctx context.Context, b core.Broker) (core.Broker, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Currency = strings.TrimSpace(b.Currency)
	if err := b.Validate(); err != nil {
		return core.Broker{}, err
	}
	b.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO brokers (id, name, currency) VALUES (?, ?, ?)`,
		b.ID, b.Name, b.Currency)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Broker{}, fmt.Errorf("%w: %s", core.ErrDuplicateBroker, b.Name)
		}
		return core.Broker{}, fmt.Errorf("insert broker: %w", err)
	}

	slog.InfoContext(ctx, "Broker saved to SQLite", "id", b.ID, "broker", b.Name, "currency", b.Currency)
	return b, nil
}

// ListBrokers implements ports.BrokerLister
func (r *SQLiteRepository) ListBrokers(ctx context.Context) ([]core.Broker, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency FROM brokers ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	defer rows.Close()

	var out []core.Broker
	for rows.Next() {
		var b core.Broker
		if err := rows.Scan(&b.ID, &b.Name, &b.Currency); err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBroker returns the broker with the given id.
func (r *SQLiteRepository) GetBroker(ctx context.Context, id string) (core.Broker, error) {
	var b core.Broker
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency FROM brokers WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Broker{}, fmt.Errorf("broker %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Broker{}, fmt.Errorf("get broker: %w", err)
	}
	return b, nil
}

// InsertTotalValue stores the record and returns its new id.
func (r *SQLiteRepository) InsertTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	rec.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO total_values (id, date, currency, total_value_usd, total_value_brl, broker_name, broker_currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, strings.TrimSpace(rec.Date), rec.Currency,
		strings.TrimSpace(rec.TotalValueInUSD), strings.TrimSpace(rec.TotalValueInBRL),
		rec.Broker.Name, rec.Broker.Currency)
	if err != nil {
		return "", fmt.Errorf("insert total value: %w", err)
	}

	slog.InfoContext(ctx, "Total value saved to SQLite",
		"id", rec.ID,
		"broker", rec.Broker.Name,
		"date", rec.Date,
		"usd", rec.TotalValueInUSD,
		"brl", rec.TotalValueInBRL)
	return rec.ID, nil
}

// AddTotalValue implements ports.TotalValueWriter
func (r *SQLiteRepository) AddTotalValue(ctx context.Context, rec core.TotalValueRecord) (string, error) {
	if _, err := r.InsertTotalValue(ctx, rec); err != nil {
		return "", err
	}
	return ports.MsgTotalValueAdded, nil
}

// DeleteTotalValue implements ports.TotalValueDeleter
func (r *SQLiteRepository) DeleteTotalValue(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", core.ErrMissingID
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM total_values WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("delete total value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("delete total value: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("total value %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Total value deleted from SQLite", "id", id)
	return ports.MsgTotalValueDeleted, nil
}

// ListTotalValues implements ports.TotalValueLister
func (r *SQLiteRepository) ListTotalValues(ctx context.Context) ([]core.TotalValueRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, currency, total_value_usd, total_value_brl, broker_name, broker_currency
		 FROM total_values ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list total values: %w", err)
	}
	defer rows.Close()

	var out []core.TotalValueRecord
	for rows.Next() {
		rec, err := scanTotalValue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetTotalValue returns the record with the given id.
func (r *SQLiteRepository) GetTotalValue(ctx context.Context, id string) (core.TotalValueRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, currency, total_value_usd, total_value_brl, broker_name, broker_currency
		 FROM total_values WHERE id = ?`, id)
	rec, err := scanTotalValue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TotalValueRecord{}, fmt.Errorf("total value %s: %w", id, core.ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTotalValue(s scanner) (core.TotalValueRecord, error) {
	var rec core.TotalValueRecord
	err := s.Scan(&rec.ID, &rec.Date, &rec.Currency,
		&rec.TotalValueInUSD, &rec.TotalValueInBRL,
		&rec.Broker.Name, &rec.Broker.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan total value: %w", err)
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
