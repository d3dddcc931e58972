package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cesargomez89/photodex/internal/config"
	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/engine"
	"github.com/cesargomez89/photodex/internal/importer"
	"github.com/cesargomez89/photodex/internal/logger"
	"github.com/cesargomez89/photodex/internal/metadata"
	"github.com/cesargomez89/photodex/internal/storage"
	"github.com/cesargomez89/photodex/internal/store"
)

var ErrNoManagedRoot = errors.New("no managed root configured")

// Library bundles the open repository with the importer that feeds it.
type Library struct {
	Repo     *store.Repository
	Importer *importer.Pipeline
	Config   *config.Config
	Logger   *logger.Logger

	engine         *engine.Engine
	closeExtractor func() error
}

// Open creates the database file if needed, applies migrations and picks
// the extractor named in cfg.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Library, error) {
	if log == nil {
		log = logger.Default()
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	eng := engine.New(cfg.DBPath, log)
	repo := store.New(eng, log)
	if err := repo.Init(ctx); err != nil {
		eng.Terminate()
		return nil, err
	}

	extractor, closeExtractor, err := NewExtractor(cfg.Extractor)
	if err != nil {
		eng.Close(ctx)
		return nil, err
	}

	log.Info("Library opened", "db", cfg.DBPath, "extractor", cfg.Extractor)
	return &Library{
		Repo:           repo,
		Importer:       importer.New(repo, extractor, log),
		Config:         cfg,
		Logger:         log.WithComponent("library"),
		engine:         eng,
		closeExtractor: closeExtractor,
	}, nil
}

// NewExtractor returns the extractor for kind and a function releasing it.
func NewExtractor(kind string) (metadata.Extractor, func() error, error) {
	switch kind {
	case "", constants.ExtractorExif:
		return metadata.NewExifExtractor(), func() error { return nil }, nil
	case constants.ExtractorExiftool:
		x, err := metadata.NewExiftoolExtractor()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start exiftool: %w", err)
		}
		return x, x.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown extractor %q", kind)
	}
}

// Request builds an import request for root from the configured limits.
// With copy set, files are first copied into the managed root.
func (l *Library) Request(root string, copy bool) importer.Request {
	req := importer.Request{
		Root:              root,
		MaxDepth:          l.Config.MaxDepth,
		BatchSize:         l.Config.BatchSize,
		ParallelThreshold: l.Config.ParallelThreshold,
		MaxWorkers:        l.Config.MaxWorkers,
	}
	if copy {
		req.ManagedRoot = l.Config.ManagedRoot
	}
	return req
}

// Eject writes a copy of the database into the managed root.
func (l *Library) Eject(ctx context.Context) (string, error) {
	if l.Config.ManagedRoot == "" {
		return "", ErrNoManagedRoot
	}
	return l.Repo.EjectTo(ctx, l.Config.ManagedRoot)
}

// Close releases the extractor and the database.
func (l *Library) Close(ctx context.Context) error {
	var errs []error
	if l.closeExtractor != nil {
		errs = append(errs, l.closeExtractor())
	}
	errs = append(errs, l.engine.Close(ctx))
	return errors.Join(errs...)
}

var (
	sharedOnce sync.Once
	shared     *Library
	sharedErr  error
)

// Shared opens the process-wide library on first use. Concurrent callers
// wait for the same initialisation; its outcome, failure included, is kept
// for the life of the process.
func Shared(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Library, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = Open(ctx, cfg, log)
	})
	return shared, sharedErr
}
