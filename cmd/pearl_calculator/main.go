package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to import the C code

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/PearlCalc/extension/internal/bridge"
	"github.com/PearlCalc/extension/internal/cache"
	"github.com/PearlCalc/extension/internal/config"
	"github.com/PearlCalc/extension/internal/dispatcher"
	"github.com/PearlCalc/extension/internal/influx"
	"github.com/PearlCalc/extension/internal/logging"
	"github.com/PearlCalc/extension/internal/monitor"
	intOtel "github.com/PearlCalc/extension/internal/otel"
	"github.com/PearlCalc/extension/internal/storage"
	"github.com/PearlCalc/extension/internal/worker"
	"github.com/PearlCalc/extension/pkg/extension"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	Addon         string = "pearlcalc"
	ExtensionName string = logging.ExtensionName
)

// file paths
var (
	// ModulePath is the absolute path to this library file.
	ModulePath string

	// AddonFolder holds the config file, init.log and storage dumps. It is
	// the folder the library was loaded from, or @pearlcalc next to the
	// working directory when the host loads it from its own root.
	AddonFolder string

	InitLogFilePath string
	InitLogFile     *os.File
	LogFilePath     string
	LogFile         *os.File
)

// global variables
var (
	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	// ZLogger feeds the zerolog based components.
	ZLogger zerolog.Logger

	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// Services
	eventDispatcher *dispatcher.Dispatcher
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager

	// Storage backend, set by :INIT:STORAGE:
	storageMu      sync.Mutex
	storageBackend storage.Backend
)

var ErrStorageInitialized = errors.New("storage already initialized")

// init is run automatically when the module is loaded
func init() {
	var err error

	ModulePath = extension.GetModulePath()
	AddonFolder = resolveAddonFolder(ModulePath)

	if err := os.MkdirAll(AddonFolder, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create addon folder: %v\n", err)
	}

	InitLogFilePath = filepath.Join(AddonFolder, "init.log")
	InitLogFile, err = os.Create(InitLogFilePath)
	if err != nil {
		// Log to stderr since logging isn't set up yet
		fmt.Fprintf(os.Stderr, "Failed to create init log file: %v\n", err)
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(fileOrNil(InitLogFile), "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(AddonFolder); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	LogFilePath = logging.LogFilePath(resolvePath(viper.GetString("logsDir")), ExtensionName, SessionStartTime)
	LogFile, err = logging.OpenLogFile(LogFilePath)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)

	setupOTel()

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.SetContextProvider(func() []slog.Attr {
		if workerManager != nil {
			return workerManager.LogContext()
		}
		return nil
	})
	SlogManager.Setup(fileOrNil(LogFile), viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	var zw io.Writer = os.Stderr
	if LogFile != nil {
		zw = LogFile
	}
	ZLogger = zerolog.New(zw).With().Timestamp().Logger()

	// leave two cores to the host, minimum 1
	numCPUs := runtime.NumCPU()
	Logger.Debug("Number of CPUs", "numCPUs", numCPUs)
	runtime.GOMAXPROCS(int(math.Max(float64(numCPUs-2), 1)))

	Logger.Info("Setting up extension interface...")
	if err := setupExtension(); err != nil {
		Logger.Error("Failed to set up extension interface!", "error", err)
		panic(err)
	}
	Logger.Info("Set up extension interface")

	go func() {
		connectInflux()
		checkServerStatus()
	}()
}

// resolveAddonFolder falls back to @pearlcalc in the working directory when
// the library sits directly in it.
func resolveAddonFolder(modulePath string) string {
	folder := filepath.Dir(modulePath)
	if wd, err := os.Getwd(); err == nil && filepath.Clean(folder) == filepath.Clean(wd) {
		return filepath.Join(wd, "@"+Addon)
	}
	return folder
}

// resolvePath anchors relative config paths at the addon folder.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(AddonFolder, p)
}

// fileOrNil keeps a nil *os.File from becoming a non-nil io.Writer.
func fileOrNil(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

func setupOTel() {
	otelCfg := config.GetOTelConfig()
	if !otelCfg.Enabled {
		return
	}

	var w io.Writer
	if LogFile != nil {
		w = LogFile
	}
	p, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: CurrentExtensionVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		LogWriter:      w,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		return
	}
	OTelProvider = p
	if otelCfg.Endpoint != "" {
		Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
	} else {
		Logger.Info("OTel provider initialized", "file", LogFilePath)
	}
}

// setupExtension builds the dispatcher and every command that works without
// storage, so the game can call the library as soon as it loads.
func setupExtension() error {
	extension.SetVersion(CurrentExtensionVersion)

	d, err := dispatcher.New(logging.NewDispatcherLogger(
		ZLogger.With().Str("component", "dispatcher").Logger(),
	))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	solverCfg := config.GetSolverConfig()

	influxCfg := config.GetInfluxConfig()
	influxManager = influx.NewManager(
		ZLogger.With().Str("component", "influx").Logger(),
		influxCfg,
		filepath.Join(AddonFolder, fmt.Sprintf("%s_metrics_%s.lp.gz", ExtensionName, SessionStartTime.Format("20060102_150405"))),
	)

	deps := worker.Dependencies{
		Calculator: &bridge.Calculator{
			Workers:      solverCfg.Workers,
			SearchRadius: solverCfg.SearchRadius,
			TraceTicks:   solverCfg.TraceMaxTicks,
			MaxTicks:     solverCfg.MaxTicks,
			MaxDistance:  solverCfg.MaxDistance,
		},
		Cache:            cache.NewResultCache(solverCfg.CacheCapacity),
		Logger:           SlogManager.Component("worker"),
		ExtensionVersion: CurrentExtensionVersion,
	}
	if influxCfg.Enabled {
		deps.Influx = influxManager
	}
	if OTelProvider != nil {
		deps.Meter = OTelProvider.Meter("github.com/PearlCalc/extension/internal/worker")
	}
	workerManager, err = worker.NewManager(deps)
	if err != nil {
		return fmt.Errorf("failed to create worker manager: %w", err)
	}

	workerManager.RegisterHandlers(d, solverCfg.Timeout)
	registerLifecycleHandlers(d)

	eventDispatcher = d
	extension.SetDispatcher(d)
	Logger.Info("Dispatcher initialized", "commands", d.Commands())
	return nil
}

func connectInflux() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := influxManager.Connect(ctx)
	switch {
	case errors.Is(err, influx.ErrDisabled):
		Logger.Debug("InfluxDB disabled")
	case err != nil:
		Logger.Warn("InfluxDB unavailable", "error", err)
	default:
		Logger.Info("InfluxDB connected")
	}
}

// registerLifecycleHandlers registers system/lifecycle command handlers with the dispatcher
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":INIT:STORAGE:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		go func() {
			if err := initStorage(); err != nil {
				Logger.Error("Storage initialization failed", "error", err)
			}
		}()
		return nil, nil
	})

	d.Register(":GETDIR:MODULE:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		return ModulePath, nil
	})

	d.Register(":GETDIR:LOG:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	d.Register(":BUILD:", func(_ context.Context, _ dispatcher.Event) (any, error) {
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})

	d.Register(":SAVE:", func(ctx context.Context, _ dispatcher.Event) (any, error) {
		Logger.Info("Received :SAVE: command, flushing storage")
		return nil, flushAll(ctx)
	}, dispatcher.Logged())

	d.Register(":CLOSE:", func(ctx context.Context, _ dispatcher.Event) (any, error) {
		Logger.Info("Received :CLOSE: command, shutting down")
		return nil, shutdown(ctx)
	}, dispatcher.Logged())
}

// flushAll pushes pending records and telemetry out without closing anything.
func flushAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	storageMu.Lock()
	switch b := storageBackend.(type) {
	case interface{ Flush() error }:
		errs = append(errs, b.Flush())
	case interface{ Dump() error }:
		errs = append(errs, b.Dump())
	}
	storageMu.Unlock()

	if OTelProvider != nil {
		if err := OTelProvider.Flush(ctx); err != nil {
			Logger.Warn("Failed to flush OTel data", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	return errors.Join(errs...)
}

// shutdown stops the monitor, closes storage and the metric writers.
func shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	// queued solves still write to storage
	if err := eventDispatcher.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain dispatcher: %w", err))
	}
	if err := closeStorage(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close influx: %w", err))
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown otel: %w", err))
		}
	}
	return errors.Join(errs...)
}
