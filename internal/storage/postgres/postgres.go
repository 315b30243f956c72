// Package postgres implements the storage.Backend interface using GORM/PostgreSQL
// with internal queues and a background DB writer goroutine.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/internal/model/convert"
	"github.com/PearlCalc/extension/internal/queue"
	"github.com/PearlCalc/extension/pkg/core"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB               *gorm.DB
	Logger           *slog.Logger
	ExtensionVersion string
}

// Config tunes the background writer.
type Config struct {
	FlushInterval time.Duration
	BatchSize     int
}

// Backend implements storage.Backend with queue-based batch writes. IDs are
// reserved when a record is queued, so callers see them immediately.
type Backend struct {
	deps Dependencies
	cfg  Config

	calculations *queue.Queue[model.Calculation]
	traces       *queue.Queue[model.Trace]

	nextCalculationID atomic.Uint64
	nextTraceID       atomic.Uint64
	lastWrite         atomic.Int64

	stopChan chan struct{}
	done     sync.WaitGroup
}

// New creates a new Postgres storage backend.
func New(deps Dependencies, cfg Config) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Backend{
		deps:         deps,
		cfg:          cfg,
		calculations: queue.New[model.Calculation](),
		traces:       queue.New[model.Trace](),
	}
}

// DB returns the connection, which is nil before Init.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration, seeds the ID counters and starts the DB
// writer goroutine. If no DB was injected via Dependencies, it creates its
// own postgres connection.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	if err := database.Setup(b.deps.DB, b.deps.ExtensionVersion); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	if err := b.seedIDs(); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.done.Add(1)
	go b.writeLoop()
	return nil
}

func (b *Backend) seedIDs() error {
	var maxCalc, maxTrace uint64
	if err := b.deps.DB.Model(&model.Calculation{}).Select("COALESCE(MAX(id), 0)").Scan(&maxCalc).Error; err != nil {
		return fmt.Errorf("failed to read calculation ids: %w", err)
	}
	if err := b.deps.DB.Model(&model.Trace{}).Select("COALESCE(MAX(id), 0)").Scan(&maxTrace).Error; err != nil {
		return fmt.Errorf("failed to read trace ids: %w", err)
	}
	b.nextCalculationID.Store(maxCalc)
	b.nextTraceID.Store(maxTrace)
	return nil
}

// Close stops the writer and flushes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	b.done.Wait()
	b.stopChan = nil
	return b.Flush()
}

// RecordSolve converts a solve record and pushes it to the write queue.
func (b *Backend) RecordSolve(r *core.SolveRecord) error {
	r.ID = uint(b.nextCalculationID.Add(1))
	b.calculations.Push(convert.CoreToCalculation(*r))
	return nil
}

// RecordTrace converts a trace record and pushes it to the write queue.
func (b *Backend) RecordTrace(r *core.TraceRecord) error {
	r.ID = uint(b.nextTraceID.Add(1))
	b.traces.Push(convert.CoreToTrace(*r))
	return nil
}

// QueueLengths reports records waiting for the writer.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"calculations": b.calculations.Len(),
		"traces":       b.traces.Len(),
	}
}

// LastWriteDuration is how long the last flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWrite.Load())
}

// Flush writes both queues now.
func (b *Backend) Flush() error {
	start := time.Now()
	errCalc := writeQueue(b.deps.DB, b.calculations, b.cfg.BatchSize)
	errTrace := writeQueue(b.deps.DB, b.traces, b.cfg.BatchSize)
	b.lastWrite.Store(int64(time.Since(start)))
	return errors.Join(errCalc, errTrace)
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back on the queue for the next attempt.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batchSize int) error {
	if q.Empty() {
		return nil
	}

	items := q.Drain()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, batchSize).Error
	})
	if err != nil {
		q.PushFront(items...)
		return fmt.Errorf("failed to write %d %T: %w", len(items), items[0], err)
	}
	return nil
}

func (b *Backend) writeLoop() {
	defer b.done.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("DB writer failed", "error", err)
			}
		}
	}
}
