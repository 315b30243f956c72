package database

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/PearlCalc/extension/internal/model"
)

// MigrateCounts reports how many rows were copied per table.
type MigrateCounts struct {
	Calculations int
	Traces       int
	Samples      int
}

// MigrateBackup copies every calculation, trace and performance sample of
// src into dst in one transaction. Rows get fresh IDs in dst.
func MigrateBackup(src, dst *gorm.DB) (MigrateCounts, error) {
	var counts MigrateCounts
	err := dst.Transaction(func(tx *gorm.DB) error {
		var err error
		counts.Calculations, err = migrateTable(src, tx, func(c *model.Calculation) {
			c.ID = 0
			for i := range c.Results {
				c.Results[i].ID = 0
				c.Results[i].CalculationID = 0
			}
		}, "Results")
		if err != nil {
			return fmt.Errorf("calculations: %w", err)
		}
		counts.Traces, err = migrateTable(src, tx, func(t *model.Trace) { t.ID = 0 })
		if err != nil {
			return fmt.Errorf("traces: %w", err)
		}
		counts.Samples, err = migrateTable(src, tx, func(s *model.PerformanceSample) { s.ID = 0 })
		if err != nil {
			return fmt.Errorf("performance samples: %w", err)
		}
		return nil
	})
	return counts, err
}

func migrateTable[M any](src, dst *gorm.DB, reset func(*M), preloads ...string) (int, error) {
	q := src
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var rows []M
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i := range rows {
		reset(&rows[i])
	}
	if err := dst.CreateInBatches(rows, 500).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

// MigrateBackupFiles moves every .db backup in dir into dst. Migrated files
// are renamed with a .migrated suffix so a second run skips them.
func MigrateBackupFiles(dir string, dst *gorm.DB) ([]string, error) {
	paths, err := GetBackupDBPaths(dir)
	if err != nil {
		return nil, fmt.Errorf("error getting backup database paths: %w", err)
	}

	var migrated []string
	for _, path := range paths {
		src, err := GetSqliteDB(path)
		if err != nil {
			return migrated, fmt.Errorf("open %s: %w", path, err)
		}
		_, migErr := MigrateBackup(src, dst)

		if sqlDB, err := src.DB(); err == nil {
			sqlDB.Close()
		}
		if migErr != nil {
			return migrated, fmt.Errorf("migrate %s: %w", path, migErr)
		}
		if err := os.Rename(path, path+".migrated"); err != nil {
			return migrated, fmt.Errorf("rename %s: %w", path, err)
		}
		migrated = append(migrated, path)
	}
	return migrated, nil
}
