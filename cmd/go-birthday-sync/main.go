package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tartampluch/go-birthday-sync/internal/config"
	"github.com/tartampluch/go-birthday-sync/internal/dates"
	"github.com/tartampluch/go-birthday-sync/internal/engine"
	"github.com/tartampluch/go-birthday-sync/internal/format"
	"github.com/tartampluch/go-birthday-sync/internal/reconcile"
	"github.com/tartampluch/go-birthday-sync/internal/source"
	"github.com/tartampluch/go-birthday-sync/internal/store"
)

// main is the application entry point.
// It delegates execution to runMain so that deferred function calls run
// before the process terminates; os.Exit() does not run defers.
func main() {
	os.Exit(runMain())
}

// runMain manages one pipeline run, argument parsing, and exit codes.
// The process performs exactly one run and exits; periodic execution is
// the external scheduler's job.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	configPath := flag.String(config.FlagConfig, config.DefaultConfigFile, config.FlagDescConfig)
	storePath := flag.String(config.FlagStore, config.DefaultStoreDir, config.FlagDescStore)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	setupLogging(*debugMode)

	// Root context cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, *configPath, *storePath); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	return config.ExitCodeSuccess
}

// run wires the pipeline and executes it once: collect, aggregate,
// reconcile.
func run(ctx context.Context, configPath, storePath string) error {
	// Credentials may arrive via a local .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ResolvePasswords()

	st, err := store.Open(store.Config{
		Path:       storePath,
		SyncWrites: true,
		Logger:     slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	defer func() { _ = st.Close() }()

	clock := dates.RealClock{}
	fetcher := source.NewHTTPFetcher()

	aggregator := &engine.Aggregator{
		Clock: clock,
		Sources: []source.Source{
			&source.ManualSource{
				Entries: cfg.Birthdays,
				Clock:   clock,
			},
			&source.CalendarSource{
				Locator:            cfg.Calendar.Source,
				Username:           cfg.Calendar.Username,
				Password:           cfg.Calendar.Password,
				InsecureSkipVerify: cfg.Calendar.InsecureSkipVerify,
				Fetcher:            fetcher,
				Clock:              clock,
			},
			&source.DirectorySource{
				URL:                cfg.Directory.URL,
				Username:           cfg.Directory.Username,
				Password:           cfg.Directory.Password,
				InsecureSkipVerify: cfg.Directory.InsecureSkipVerify,
				Fetcher:            fetcher,
				Clock:              clock,
			},
		},
	}
	result := aggregator.Run(ctx)

	reconciler := &reconcile.Reconciler{
		Store: st,
		Text: format.Text{
			Template:  cfg.Text.Template,
			Separator: cfg.Text.Separator,
		},
	}
	stats, err := reconciler.Run(ctx, result)
	if err != nil {
		return err
	}

	slog.Info(config.MsgRunFinished,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyCount, len(result.All),
		config.LogKeyWrites, stats.Writes,
		config.LogKeyDeleted, stats.Deleted,
	)
	return nil
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. The log stream is the
// only user-visible surface of a run.
func setupLogging(debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}
