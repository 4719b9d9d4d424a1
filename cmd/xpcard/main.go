// Command xpcard renders level/experience cards, serves them over HTTP and
// manages the local asset directory.
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
	"runtime/debug"
	"sort"
	"time"

	rootpkg "tools.zach/dev/xpcard"
	"tools.zach/dev/xpcard/internal/assets"
	"tools.zach/dev/xpcard/internal/atomicfile"
	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/config"
	"tools.zach/dev/xpcard/internal/fonts"
	"tools.zach/dev/xpcard/internal/logger"
	"tools.zach/dev/xpcard/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via -ldflags "-X main.version=...". Without
// it, resolveVersion derives "dev+<hash>" from the embedded VCS info.
var version = "dev"

func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Exit Codes
// ///////////////////////////////////////////////

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// usageError marks errors caused by bad arguments or input; they exit with
// exitUsage instead of exitFatal.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// ///////////////////////////////////////////////
// Commands
// ///////////////////////////////////////////////

// app carries what every subcommand needs once setup has run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	dirs   paths.DataDir
	cfg    *config.Config
	log    *slog.Logger

	closeLog io.Closer
}

type command struct {
	summary string
	// setup loads config and logging before run.
	setup bool
	run   func(a *app, args []string) error
}

var commands = map[string]command{
	"render":     {"render a card to a PNG file", true, runRender},
	"serve":      {"serve cards over HTTP", true, runServe},
	"assets":     {"check the asset directory", true, runAssets},
	"gen-assets": {"write placeholder assets", true, runGenAssets},
	"logs":       {"print the end of the log file", true, runLogs},
	"version":    {"print the version", false, runVersion},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses the global flags, dispatches to a subcommand and maps its
// error to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	global.SetOutput(stderr)
	dataDir := global.String("data-dir", paths.Default().Root, "data directory for config, logs, fonts and assets")
	global.Usage = func() { printUsage(stderr, global) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr, global)
		return exitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr, global)
		return exitUsage
	}

	a := &app{stdout: stdout, stderr: stderr, dirs: paths.DataDir{Root: *dataDir}}
	if cmd.setup {
		if err := a.setup(); err != nil {
			fmt.Fprintf(stderr, "fatal: %v\n", err)
			return exitFatal
		}
		defer a.closeLog.Close()
	}

	err := cmd.run(a, rest[1:])
	var uerr usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	default:
		if a.log != nil {
			logger.Fail(a.log, "command failed", "command", rest[0], "error", err)
		}
		fmt.Fprintf(stderr, "fatal: %v\n", err)
		return exitFatal
	}
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintf(w, "usage: %s [-data-dir DIR] <command> [flags]\n", paths.BinaryName)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "global flags:")
	global.SetOutput(w)
	global.PrintDefaults()
}

// newFlagSet returns a subcommand flag set that reports errors instead of
// exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(paths.BinaryName+" "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseFlags parses args and wraps parse failures as usage errors.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %v", fs.Args())
	}
	return nil
}

// ///////////////////////////////////////////////
// Setup
// ///////////////////////////////////////////////

// setup creates the data directory, seeds config.toml on first run, loads
// the config and installs the logger as the slog default.
func (a *app) setup() error {
	if err := os.MkdirAll(a.dirs.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(a.dirs.Config()); errors.Is(err, os.ErrNotExist) {
		if err := atomicfile.Write(a.dirs.Config(), rootpkg.DefaultConfigTOML, 0o644); err != nil {
			fmt.Fprintf(a.stderr, "warning: failed to write default config: %v\n", err)
		}
	}

	cfg, err := config.Load(a.dirs.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, closer, err := logger.NewLogger(cfg.LogPath(a.dirs.Root), logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	a.cfg = cfg
	a.log = log
	a.closeLog = closer
	return nil
}

// assetOptions maps the config onto the asset source options.
func (a *app) assetOptions() assets.Options {
	c := a.cfg
	return assets.Options{
		Dir:         a.dirs.Assets(c.Assets.Dir),
		Background:  c.Assets.Background,
		Shadow:      c.Assets.Shadow,
		RolePattern: c.Assets.RolePattern,
		Avatar: assets.AvatarPolicy{
			Timeout:     time.Duration(c.Avatar.TimeoutSeconds) * time.Second,
			RetryMax:    c.Avatar.RetryMax,
			MaxBytes:    c.Avatar.MaxBytes,
			HostAllowed: c.HostAllowed,
		},
		Logger: a.log,
	}
}

func (a *app) font() *fonts.Font {
	return fonts.Resolve(fonts.Spec{
		Path:     a.cfg.Font.Path,
		Fallback: a.cfg.Font.Fallback,
		CacheDir: a.dirs.FontsCache(),
	})
}

func (a *app) renderer() *card.Renderer {
	return card.NewRenderer(
		assets.New(a.assetOptions()),
		a.font(),
		card.WithLogger(a.log),
		card.WithLocale(a.cfg.Locale()),
	)
}

// signalContext is canceled on the first shutdown signal.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals...)
}

// ///////////////////////////////////////////////
// Small Commands
// ///////////////////////////////////////////////

func runVersion(a *app, args []string) error {
	if err := parseFlags(a.newFlagSet("version"), args); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s\n", paths.BinaryName, resolveVersion())
	return nil
}

func runLogs(a *app, args []string) error {
	fs := a.newFlagSet("logs")
	n := fs.Int("n", 50, "number of lines to print")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	path := a.cfg.LogPath(a.dirs.Root)
	if path == "" {
		return errors.New("logging to stderr; there is no log file")
	}
	tail, err := logger.ReadTail(path, *n)
	if errors.Is(err, os.ErrNotExist) {
		// The log file is created on the first write.
		fmt.Fprintln(a.stdout, "no log entries yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	fmt.Fprint(a.stdout, tail)
	return nil
}
