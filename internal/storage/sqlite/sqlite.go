// Package sqlitestorage keeps calculations in an in-memory SQLite database
// and snapshots it to disk with VACUUM INTO.
package sqlitestorage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PearlCalc/extension/internal/database"
	gormstorage "github.com/PearlCalc/extension/internal/storage/gorm"
	"github.com/PearlCalc/extension/pkg/core"
)

type Config struct {
	DumpInterval time.Duration
	DumpPath     string // empty disables dumps
}

// Backend adds snapshotting to the gorm backend. The periodic snapshot is
// skipped while nothing was recorded since the last one.
type Backend struct {
	*gormstorage.Backend
	cfg Config
	log *slog.Logger

	writes atomic.Uint64
	dumped atomic.Uint64

	stop      context.CancelFunc
	loop      sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func New(cfg Config, logger *slog.Logger, extensionVersion string) (*Backend, error) {
	db, err := database.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:               db,
			Logger:           logger,
			ExtensionVersion: extensionVersion,
		}),
		cfg:  cfg,
		log:  logger,
		stop: func() {},
	}, nil
}

// Init creates the schema and starts the snapshot loop when configured.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" || b.cfg.DumpInterval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.stop = cancel
	b.loop.Add(1)
	go b.dumpLoop(ctx)
	return nil
}

func (b *Backend) RecordSolve(r *core.SolveRecord) error {
	if err := b.Backend.RecordSolve(r); err != nil {
		return err
	}
	b.writes.Add(1)
	return nil
}

func (b *Backend) RecordTrace(r *core.TraceRecord) error {
	if err := b.Backend.RecordTrace(r); err != nil {
		return err
	}
	b.writes.Add(1)
	return nil
}

// Close stops the loop, writes a final snapshot and closes the database.
// Later calls return the first result.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.stop()
		b.loop.Wait()

		var dumpErr error
		if b.cfg.DumpPath != "" {
			dumpErr = b.Dump()
		}
		closeErr := b.Backend.Close()
		if dumpErr != nil {
			b.closeErr = dumpErr
		} else {
			b.closeErr = closeErr
		}
	})
	return b.closeErr
}

// Dump writes a point-in-time snapshot to DumpPath.
func (b *Backend) Dump() error {
	n := b.writes.Load()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		return err
	}
	b.dumped.Store(n)
	return nil
}

func (b *Backend) dumpLoop(ctx context.Context) {
	defer b.loop.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.writes.Load() == b.dumped.Load() {
				continue
			}
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
				continue
			}
			b.log.Debug("Dumped to disk", "duration", time.Since(start), "records", b.dumped.Load())
		}
	}
}
