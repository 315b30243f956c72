package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/PearlCalc/extension/internal/api"
	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/internal/database"
	"github.com/PearlCalc/extension/internal/monitor"
	"github.com/PearlCalc/extension/internal/storage"
	gormstorage "github.com/PearlCalc/extension/internal/storage/gorm"
	"github.com/PearlCalc/extension/internal/storage/memory"
	pgstorage "github.com/PearlCalc/extension/internal/storage/postgres"
	sqlitestorage "github.com/PearlCalc/extension/internal/storage/sqlite"
	wsstorage "github.com/PearlCalc/extension/internal/storage/websocket"
)

// initStorage creates the configured backend, attaches it to the worker
// manager and starts the status monitor.
func initStorage() error {
	Logger.Debug("Received :INIT:STORAGE: call")

	storageMu.Lock()
	defer storageMu.Unlock()
	if storageBackend != nil {
		return ErrStorageInitialized
	}

	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg, SlogManager.Component("storage"), ZLogger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err, "type", storageCfg.Type)
		return err
	}
	storageBackend = backend
	workerManager.SetBackend(backend)

	monitorService = monitor.NewService(monitor.Dependencies{
		Source:    workerManager,
		DB:        backendDB(backend),
		Logger:    SlogManager.Component("monitor"),
		OutputDir: AddonFolder,
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}

	Logger.Info("Storage ready", "type", storageCfg.Type)
	return nil
}

// closeStorage stops the monitor and closes the backend, if any.
func closeStorage() error {
	storageMu.Lock()
	defer storageMu.Unlock()

	if monitorService != nil {
		monitorService.Stop()
		monitorService = nil
	}
	if storageBackend == nil {
		return nil
	}
	workerManager.SetBackend(nil)
	err := storageBackend.Close()
	if mem, ok := storageBackend.(*memory.Backend); ok && err == nil && viper.GetBool("api.uploadExports") {
		err = uploadExport(mem)
	}
	storageBackend = nil
	return err
}

// uploadExport sends the file written by a closed memory backend to the
// results server.
func uploadExport(b *memory.Backend) error {
	path := b.ExportedFilePath()
	if path == "" {
		return nil
	}
	solves, _ := b.RecentSolves(0)
	traces, _ := b.RecentTraces(0)
	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	if err := client.UploadExport(context.Background(), path, api.ExportMetadata{
		ExtensionVersion: CurrentExtensionVersion,
		Calculations:     len(solves),
		Traces:           len(traces),
	}); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	Logger.Info("Uploaded export", "path", path)
	return nil
}

// checkServerStatus logs whether the results server answers.
func checkServerStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.New(viper.GetString("api.serverUrl"), "").Healthcheck(ctx); err != nil {
		Logger.Info("Results server is offline", "error", err)
	} else {
		Logger.Info("Results server is online")
	}
}

func createStorageBackend(storageCfg config.StorageConfig, logger *slog.Logger, zlog zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend selected")
		return pgstorage.New(pgstorage.Dependencies{
			Logger:           logger,
			ExtensionVersion: CurrentExtensionVersion,
		}, pgstorage.Config{
			FlushInterval: storageCfg.Postgres.FlushInterval,
			BatchSize:     storageCfg.Postgres.BatchSize,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     resolvePath(storageCfg.SQLite.OutputPath),
		}, logger, CurrentExtensionVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend selected")
		return backend, nil

	case "database":
		Logger.Info("Database storage backend selected, Postgres with SQLite fallback")
		return newFallbackBackend(zlog, logger, resolvePath(storageCfg.SQLite.OutputPath))

	case "websocket":
		wsURL := httpToWS(viper.GetString("api.serverUrl")) + wsstorage.StreamPath
		Logger.Info("WebSocket storage backend selected", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:              wsURL,
			APIKey:           viper.GetString("api.apiKey"),
			ExtensionVersion: CurrentExtensionVersion,
		}, logger), nil

	case "memory", "":
		Logger.Info("Memory storage backend selected")
		cfg := storageCfg.Memory
		cfg.OutputDir = resolvePath(cfg.OutputDir)
		return memory.New(cfg, CurrentExtensionVersion), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// fallbackBackend writes through gorm to Postgres, or to an in-memory
// SQLite database that is dumped to disk on close when Postgres is down.
type fallbackBackend struct {
	*gormstorage.Backend
	mgr *database.Manager
}

func newFallbackBackend(zlog zerolog.Logger, logger *slog.Logger, dumpPath string) (*fallbackBackend, error) {
	mgr := database.NewManager(zlog.With().Str("component", "database").Logger())
	mgr.SqliteFilePath = dumpPath
	if err := mgr.Connect(); err != nil {
		return nil, err
	}
	return &fallbackBackend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:               mgr.DB,
			Logger:           logger,
			ExtensionVersion: CurrentExtensionVersion,
		}),
		mgr: mgr,
	}, nil
}

func (b *fallbackBackend) Init() error {
	return b.mgr.Setup(CurrentExtensionVersion)
}

func (b *fallbackBackend) Close() error {
	var dumpErr error
	if b.mgr.ShouldSaveLocal {
		dumpErr = b.mgr.DumpMemoryToDisk()
	}
	return errors.Join(dumpErr, b.Backend.Close())
}

// backendDB returns the gorm connection of SQL backends so the monitor can
// persist samples next to the calculations.
func backendDB(b storage.Backend) *gorm.DB {
	if d, ok := b.(interface{ DB() *gorm.DB }); ok {
		return d.DB()
	}
	return nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
