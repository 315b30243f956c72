// Package gormstorage implements storage.Backend on any gorm connection. Each
// record is written synchronously, a calculation together with its results
// in one statement batch.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/internal/model/convert"
	"github.com/PearlCalc/extension/pkg/core"
)

var ErrNoDB = errors.New("gorm backend has no database")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB               *gorm.DB
	Logger           *slog.Logger
	ExtensionVersion string
}

// Backend implements storage.Backend and storage.Reader.
type Backend struct {
	deps Dependencies
}

func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// DB exposes the connection for embedding backends.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Setup(b.deps.DB, b.deps.ExtensionVersion); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) RecordSolve(r *core.SolveRecord) error {
	calc := convert.CoreToCalculation(*r)
	if err := b.deps.DB.Create(&calc).Error; err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}
	r.ID = calc.ID
	return nil
}

func (b *Backend) RecordTrace(r *core.TraceRecord) error {
	tr := convert.CoreToTrace(*r)
	if err := b.deps.DB.Create(&tr).Error; err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}
	r.ID = tr.ID
	return nil
}

func (b *Backend) RecentSolves(limit int) ([]core.SolveRecord, error) {
	var calcs []model.Calculation
	q := b.deps.DB.
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("rank") }).
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&calcs).Error; err != nil {
		return nil, fmt.Errorf("failed to load calculations: %w", err)
	}

	out := make([]core.SolveRecord, len(calcs))
	for i, c := range calcs {
		rec, err := convert.CalculationToCore(c)
		if err != nil {
			return nil, fmt.Errorf("calculation %d: %w", c.ID, err)
		}
		out[i] = rec
	}
	return out, nil
}

func (b *Backend) RecentTraces(limit int) ([]core.TraceRecord, error) {
	var traces []model.Trace
	q := b.deps.DB.Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&traces).Error; err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}

	out := make([]core.TraceRecord, len(traces))
	for i, t := range traces {
		rec, err := convert.TraceToCore(t)
		if err != nil {
			return nil, fmt.Errorf("trace %d: %w", t.ID, err)
		}
		out[i] = rec
	}
	return out, nil
}
