package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OCAP2/navalsim/internal/api"
	"github.com/OCAP2/navalsim/internal/config"
	"github.com/OCAP2/navalsim/internal/dispatcher"
	"github.com/OCAP2/navalsim/internal/influx"
	"github.com/OCAP2/navalsim/internal/interpret"
	"github.com/OCAP2/navalsim/internal/logging"
	"github.com/OCAP2/navalsim/internal/monitor"
	intOtel "github.com/OCAP2/navalsim/internal/otel"
	"github.com/OCAP2/navalsim/internal/recorder"
	"github.com/OCAP2/navalsim/internal/scenario"
	"github.com/OCAP2/navalsim/internal/storage"
	"github.com/OCAP2/navalsim/internal/world"
	"github.com/OCAP2/navalsim/pkg/core"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "navalsim"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLogger is the zerolog logger handed to the database, influx and dispatcher
	DBLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()
)

func main() {
	os.Exit(run())
}

func run() int {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	scenarioPath := flag.String("scenario", "", "scenario YAML file (overrides sim.scenario)")
	readOrders := flag.Bool("orders", false, "read orders from stdin as '<vessel> <role> <text>'")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("%s %s (%s)\n", AppName, CurrentVersion, BuildDate)
		return 0
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}

	closeLogs := setupLogging()
	defer closeLogs()

	simCfg := config.GetSimConfig()
	if *scenarioPath != "" {
		simCfg.Scenario = *scenarioPath
	}
	sc, err := scenario.Load(simCfg.Scenario)
	if err != nil {
		Logger.Error("Failed to load scenario", "path", simCfg.Scenario, "error", err)
		return 1
	}
	if simCfg.Scenario == "" {
		// the built-in scenario takes its clock and seed from config
		sc.TickDuration = simCfg.TickDuration
		sc.Seed = simCfg.Seed
	}
	Logger.Info("Scenario loaded", "name", sc.Name, "vessels", len(sc.Vessels), "orders", len(sc.Orders))

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return 1
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return 1
	}

	influxManager := connectInflux()

	deps := recorder.Dependencies{
		Backend:    backend,
		LogManager: SlogManager,
		BufferSize: storageCfg.BufferSize,
	}
	if influxManager != nil {
		deps.Metrics = influxManager
	}
	rec, err := recorder.New(deps)
	if err != nil {
		Logger.Error("Failed to create recorder", "error", err)
		return 1
	}

	opts := []dispatcher.Option{dispatcher.Capacity(simCfg.QueueCapacity)}
	if viper.GetString("logLevel") == "debug" {
		opts = append(opts, dispatcher.Logged())
	}
	disp, err := dispatcher.New(logging.NewDispatcherLogger(DBLogger), opts...)
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		return 1
	}

	interpretCfg := config.GetInterpretConfig()
	interpreter := newInterpreter(interpretCfg)
	interpRunner := interpret.NewRunner(interpret.RunnerConfig{
		Interpreter:   interpreter,
		Sink:          disp,
		MaxConcurrent: interpretCfg.MaxConcurrent,
		Timeout:       interpretCfg.Timeout,
		Logger:        Logger,
	})

	vessels, err := sc.Build(uuid.NewString)
	if err != nil {
		Logger.Error("Failed to build vessels", "error", err)
		return 1
	}

	var w *world.World
	SlogManager.SetContext(logging.ClockProvider(func() (uint64, float64) {
		if w == nil {
			return 0, 0
		}
		tick, gt := w.Clock()
		return tick, gt.Seconds()
	}))
	Logger = SlogManager.Logger()

	wcfg := sc.WorldConfig()
	wcfg.NewID = uuid.NewString
	wcfg.Logger = Logger
	wcfg.Sink = rec
	wcfg.Handler = interpRunner
	w, err = world.New(wcfg, vessels, disp)
	if err != nil {
		Logger.Error("Failed to create world", "error", err)
		return 1
	}

	battle := &core.Battle{
		Name:         sc.Name,
		StartedAt:    SessionStartTime.UTC(),
		TickDuration: sc.TickDuration,
		Seed:         sc.Seed,
		Environment:  sc.Environment,
		Vessels:      sc.Info(),
	}
	if err := rec.Start(battle); err != nil {
		Logger.Error("Failed to start battle record", "error", err)
		return 1
	}
	Logger.Info("Battle started", "battle", battle.Name, "id", battle.ID, "storage", storageCfg.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := world.NewRunner(w, world.RunnerConfig{
		Interval:        simCfg.TickInterval,
		MaxTicks:        simCfg.MaxTicks,
		Script:          sc.Orders,
		StopWhenDecided: simCfg.StopWhenDecided,
		Logger:          Logger,
	})
	if *readOrders {
		go readOrderLines(ctx, os.Stdin, runner)
	}

	monitorService := monitor.NewService(monitor.Dependencies{
		LogManager: SlogManager,
		Clock:      w,
		Actions:    disp,
		Recorder:   rec,
		Battle:     battle.Name,
		StatusPath: filepath.Join(viper.GetString("logsDir"), "status.json"),
		Interval:   viper.GetDuration("monitor.interval"),
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}

	runErr := runner.Run(ctx)
	monitorService.Stop()
	var invariant *world.InvariantError
	if errors.As(runErr, &invariant) {
		Logger.Error("Simulation halted", "error", runErr, "state", string(invariant.Dump))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := interpRunner.Close(shutdownCtx); err != nil {
		Logger.Warn("Interpretations still running at shutdown", "error", err)
	}

	winner := ""
	if side, decided := w.Decided(); decided {
		winner = side
	}
	if err := rec.Stop(winner); err != nil {
		Logger.Error("Failed to end battle record", "error", err)
	}
	Logger.Info("Battle ended",
		"tick", w.Tick(),
		"winner", winner,
		"recorded", rec.Recorded(),
		"dropped", rec.Dropped(),
		"failed", rec.Failed(),
	)
	if err := backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}

	if u, ok := backend.(storage.Uploadable); ok {
		uploadBattle(shutdownCtx, u)
	}

	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Warn("Failed to close influx", "error", err)
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(shutdownCtx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}

	if runErr != nil {
		return 1
	}
	return 0
}

// setupLogging opens the session log file and re-initialises every logger on
// top of it: slog (console, file, Graylog, OTel) and zerolog.
func setupLogging() func() {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	var fileWriter io.Writer
	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	} else {
		fileWriter = LogFile
	}

	level := viper.GetString("logLevel")

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && fileWriter != nil {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    fileWriter,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		h, _, err := logging.NewGraylogHandler(viper.GetString("graylog.address"), level)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			extra = append(extra, h)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(fileWriter, level, otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "build", BuildDate)

	zlvl, err := zerolog.ParseLevel(level)
	if err != nil {
		zlvl = zerolog.InfoLevel
	}
	var zw io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if fileWriter != nil {
		zw = zerolog.MultiLevelWriter(zw, fileWriter)
	}
	DBLogger = zerolog.New(zw).Level(zlvl).With().Timestamp().Str("app", AppName).Logger()

	return func() {
		_ = SlogManager.Flush(context.Background())
		if LogFile != nil {
			_ = LogFile.Close()
		}
	}
}

// connectInflux returns nil when influx is disabled.
func connectInflux() *influx.Manager {
	backup := filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s_influx_%s.lp.gz", AppName, SessionStartTime.Format("20060102_150405")))
	m := influx.NewManager(DBLogger, backup)
	err := m.Connect()
	if errors.Is(err, influx.ErrDisabled) {
		return nil
	}
	if err != nil {
		Logger.Warn("InfluxDB unavailable, writing metrics to backup file", "error", err, "path", backup)
	}
	return m
}

func newInterpreter(cfg config.InterpretConfig) interpret.Interpreter {
	if cfg.Endpoint == "" {
		Logger.Info("No interpretation service configured, orders must be structured actions")
		return interpret.Structured{}
	}
	client := interpret.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Healthcheck(ctx); err != nil {
		Logger.Warn("Interpretation service is offline", "endpoint", cfg.Endpoint, "error", err)
	} else {
		Logger.Info("Interpretation service is online", "endpoint", cfg.Endpoint)
	}
	return client
}

func uploadBattle(ctx context.Context, u storage.Uploadable) {
	serverURL := viper.GetString("api.serverUrl")
	if serverURL == "" || u.ExportedFilePath() == "" {
		return
	}
	client := api.New(serverURL, viper.GetString("api.apiKey"))
	if err := client.Healthcheck(ctx); err != nil {
		Logger.Info("Review server is offline, keeping local export", "path", u.ExportedFilePath(), "error", err)
		return
	}
	if err := client.UploadExport(ctx, u); err != nil {
		Logger.Error("Failed to upload battle", "path", u.ExportedFilePath(), "error", err)
		return
	}
	Logger.Info("Battle uploaded", "path", u.ExportedFilePath(), "server", serverURL)
}
