package backend

import (
	"context"
	"fmt"

	"shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Backend
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteBackend(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
	case MemoryBackend:
		store = storage.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	books, err := services.OpenBooks(ctx, storage.NewRegistry(store), services.BooksConfig{
		Shops:         config.Shops,
		AllShopsLabel: config.AllShopsLabel,
		StrictDates:   config.StrictDates,
		Logger:        f.logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open books: %w", err)
	}

	f.logger.WithComponent(log.ComponentBackend).DebugContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		log.FieldDBPath, config.SQLiteDBPath,
		log.FieldCount, len(config.Shops))

	return &BackendResult{
		Books:   books,
		Cleanup: books.Close,
	}, nil
}
