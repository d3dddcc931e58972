// Package store is the image repository. It owns the schema and every SQL
// statement; the database itself is reached only through the engine.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/engine"
	"github.com/cesargomez89/photodex/internal/logger"
	"github.com/cesargomez89/photodex/internal/storage"
)

// Engine is the part of *engine.Engine the repository needs.
type Engine interface {
	engine.Executor
	Init(ctx context.Context) error
	Transaction(ctx context.Context, fn func(tx engine.Executor) error) error
	Export(ctx context.Context) ([]byte, error)
}

type Repository struct {
	eng    Engine
	logger *logger.Logger

	initMu      sync.Mutex
	initialized atomic.Bool

	// favMu makes the lazy creation of the favourites album happen once.
	favMu sync.Mutex
}

func New(eng Engine, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Default()
	}
	return &Repository{
		eng:    eng,
		logger: log.WithComponent("repository"),
	}
}

// Init opens the engine and applies pending migrations. Calling it again is
// a no-op.
func (r *Repository) Init(ctx context.Context) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	if r.initialized.Load() {
		return nil
	}

	if err := r.eng.Init(ctx); err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}
	if _, err := r.eng.Exec(ctx, migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []int
	if err := r.eng.Query(ctx, &applied, "SELECT version FROM "+constants.MigrationsTable); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range migrations {
		if done[m.version] {
			continue
		}
		err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO "+constants.MigrationsTable+" (version, description) VALUES (?, ?)", m.version, m.description)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.description, err)
		}
		r.logger.Info("Applied migration", "version", m.version, "description", m.description)
	}

	r.initialized.Store(true)
	return nil
}

func (r *Repository) ready() error {
	if !r.initialized.Load() {
		return domain.ErrNotInitialized
	}
	return nil
}

// ExportDatabase returns a serialised copy of the whole database.
func (r *Repository) ExportDatabase(ctx context.Context) ([]byte, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.eng.Export(ctx)
}

// EjectTo writes the exported database into dir and returns the file path.
func (r *Repository) EjectTo(ctx context.Context, dir string) (string, error) {
	data, err := r.ExportDatabase(ctx)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, constants.EjectFileName)
	if err := storage.WriteFile(target, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	r.logger.Info("Ejected database", "path", target, "bytes", len(data))
	return target, nil
}
