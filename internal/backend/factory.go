package backend

import (
	"context"
	"fmt"
	"log/slog"

	"yield/internal/amqp"
	"yield/internal/config"
	applog "yield/internal/log"
	"yield/internal/memory"
	"yield/internal/remote"
	"yield/internal/services"
	gsheet "yield/internal/sheets/google"
	"yield/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(applog.FieldComponent, applog.ComponentBackend)}
}

// CreateBackend builds the backend selected by DATA_BACKEND.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var (
		res *BackendResult
		err error
	)
	switch bt {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(cfg)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, cfg)
	case RemoteBackend:
		res, err = f.createRemoteBackend(cfg)
	default:
		res, err = f.createMemoryBackend(cfg)
	}
	if err != nil {
		return nil, err
	}
	res.Type = bt
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(cfg *config.Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; a nil *amqp.Client must not reach the service as a
	// non-nil interface.
	var publisher services.Publisher
	if cfg.HasAMQP() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			client.SetOrigin(cfg.InstanceID)
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(repo, publisher)
	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: &sqliteBackend{LedgerService: svc, repo: repo},
		Cleanup: svc.Close,
	}, nil
}

// sqliteBackend exposes the repository ping next to the ledger service.
type sqliteBackend struct {
	*services.LedgerService
	repo *storage.SQLiteRepository
}

func (b *sqliteBackend) Ping(ctx context.Context) error {
	return b.repo.Ping(ctx)
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error) {
	cli, err := gsheet.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createRemoteBackend(cfg *config.Config) (*BackendResult, error) {
	cli, err := remote.New(cfg.RemoteAPIURL, cfg.RemoteTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote client: %w", err)
	}
	f.logger.Info("Initialized remote backend", "url", cfg.RemoteAPIURL, "timeout", cfg.RemoteTimeout)
	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg *config.Config) (*BackendResult, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Backend: store}, nil
}
