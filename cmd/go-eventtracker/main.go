package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/tartampluch/go-eventtracker/internal/config"
)

// main delegates to runMain so that deferred calls (closing the log file)
// run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain parses the global flags, sets up logging and runs one subcommand.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	settingsPath := flag.String(config.FlagConfig, "", config.FlagDescConfig)
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), config.MsgUsage) }
	flag.Parse()

	if *showVersion {
		printVersion(os.Stdout)
		return config.ExitCodeSuccess
	}

	// Subcommands print their results on stdout, so logs only go there in debug mode.
	var console io.Writer
	if *debugMode {
		console = os.Stdout
	}
	logger, logFile := newLogger(console, *debugMode)
	slog.SetDefault(logger)
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	args := flag.Args()
	log := invocationLogger(args, *settingsPath)
	log.Info(config.MsgAppStarting)

	if err := run(ctx, *settingsPath, args, os.Stdin, os.Stdout); err != nil {
		log.Error(config.ErrAppFailed, config.LogKeyError, err)
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeError
	}

	log.Info(config.MsgAppStop)
	return config.ExitCodeSuccess
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, config.MsgVersionOutput, config.AppName, config.Version, config.Commit, config.Date, runtime.GOOS, runtime.GOARCH)
}

// invocationLogger tags every record of this run with the subcommand and
// the settings file it operates on.
func invocationLogger(args []string, settingsPath string) *slog.Logger {
	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	return slog.With(
		config.LogKeyComponent, config.CompMain,
		config.LogKeyCommand, command,
		config.LogKeyPath, settingsPath,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyGoVer, runtime.Version()),
			slog.String(config.LogKeyOS, runtime.GOOS+"/"+runtime.GOARCH),
		),
	)
}

// newLogger writes JSON records to the log file in the user cache dir and,
// when console is set, to console as well. The file is truncated on each run.
func newLogger(console io.Writer, debug bool) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}

	var logFile *os.File
	if path, err := logFilePath(); err == nil {
		f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			logFile = f
			writers = append(writers, f)
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, path, err)
		}
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level, AddSource: debug})

	if logFile == nil {
		return slog.New(handler), nil
	}
	return slog.New(handler), logFile
}

func logFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}
	dir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return filepath.Join(dir, config.LogFileName), nil
}
