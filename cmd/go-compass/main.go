package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
	"github.com/tartampluch/go-compass/internal/i18n"
	"github.com/tartampluch/go-compass/internal/server"
	"github.com/tartampluch/go-compass/internal/source"
	"github.com/tartampluch/go-compass/internal/worker"
	"golang.org/x/sync/errgroup"
)

// main delegates to runMain so deferred calls (closing the log file) run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	configPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	storePassword := flag.Bool(config.FlagStorePassword, false, config.FlagDescStorePass)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Settings
	// -------------------------------------------------------------------------
	settings, err := config.Load(*configPath)
	if err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	if *storePassword {
		if err := savePassword(settings.SourceUser, os.Stdin, os.Stdout); err != nil {
			slog.Error(config.ErrAppFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			return config.ExitCodeError
		}
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 4. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 5. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, settings); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the record source, the refresh worker and the HTTP server, then blocks until ctx ends.
func run(ctx context.Context, settings config.Settings) error {
	translator, err := i18n.New(settings.Language)
	if err != nil {
		return err
	}

	src, err := source.New(source.Options{
		Mode:    settings.SourceMode,
		URL:     settings.SourceURL,
		Path:    settings.SourcePath,
		User:    settings.SourceUser,
		Pass:    config.SourcePassword(settings.SourceUser),
		Fetcher: source.NewHTTPFetcher(),
	})
	if err != nil {
		return err
	}

	clock := engine.RealClock{}
	gen := &engine.Generator{FormatSummary: translator.SummaryFormatter(settings.Language)}

	var refresher *worker.Refresher
	srv := server.New(server.Options{
		Addr:        settings.Addr(),
		Clock:       clock,
		Translator:  translator,
		Metrics:     server.NewMetrics(),
		WindowDays:  settings.WindowDays,
		RosterLimit: settings.RosterLimit,
		Refresh:     func() { refresher.Trigger() },
	})
	refresher = worker.NewRefresher(src, gen, srv, clock, settings.RefreshInterval, settings.ReminderTrigger)

	slog.Info(config.MsgSettingsLoaded,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyMode, settings.SourceMode,
		config.LogKeyAddr, settings.Addr(),
		config.LogKeyInterval, settings.RefreshInterval,
		config.LogKeyLang, settings.Language,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return refresher.Run(gctx) })
	return g.Wait()
}

// savePassword reads one line from in and stores it in the keyring for user.
func savePassword(user string, in io.Reader, out io.Writer) error {
	if user == "" {
		return errors.New(config.ErrUserRequired)
	}
	_, _ = fmt.Fprintf(out, config.MsgPasswordPrompt, user)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%s: %w", config.ErrPasswordRead, err)
	}

	if err := config.StorePassword(user, strings.TrimRight(scanner.Text(), "\r")); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, config.MsgPasswordStored)
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

// setupLogging installs a JSON slog logger writing to stdout and, when possible, a log file.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath returns the log file location inside the user cache directory.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
