package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/xpcard/internal/atomicfile"
	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/watch"
)

// ///////////////////////////////////////////////
// Request Input
// ///////////////////////////////////////////////

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// requestFlags are the per-field overrides of a request file.
type requestFlags struct {
	file     string
	username string
	avatar   string
	level    int
	xp       int64
	xpNeeded int64
	rank     int
	badges   stringList
}

func (f *requestFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "request", "", "request file (.toml or .json)")
	fs.StringVar(&f.username, "username", "", "username")
	fs.StringVar(&f.avatar, "avatar", "", "avatar URL, data: URI or path")
	fs.IntVar(&f.level, "level", 0, "level")
	fs.Int64Var(&f.xp, "xp", 0, "experience toward the next level")
	fs.Int64Var(&f.xpNeeded, "xp-needed", 0, "experience needed for the next level")
	fs.IntVar(&f.rank, "rank", 0, "leaderboard rank")
	fs.Var(&f.badges, "badge", "badge id (repeatable)")
}

// build loads the request file, if any, then applies the flags that were
// set explicitly on the command line.
func (f *requestFlags) build(fs *flag.FlagSet) (card.CardRequest, error) {
	var req card.CardRequest
	if f.file != "" {
		var err error
		if req, err = loadRequest(f.file); err != nil {
			return req, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "username":
			req.Username = f.username
		case "avatar":
			req.AvatarURL = f.avatar
		case "level":
			req.Level = f.level
		case "xp":
			req.XP = f.xp
		case "xp-needed":
			req.XPNeeded = f.xpNeeded
		case "rank":
			req.Rank = f.rank
		case "badge":
			req.Badges = f.badges
		}
	})
	return req, nil
}

// loadRequest decodes a card request from a TOML or JSON file. Unknown keys
// are rejected so typos do not silently render defaults.
func loadRequest(path string) (card.CardRequest, error) {
	var req card.CardRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &req)
		if err != nil {
			return req, usagef("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return req, usagef("parse %s: unknown keys %v", path, undecoded)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, usagef("parse %s: %w", path, err)
		}
	default:
		return req, usagef("request file %s: want a .toml or .json extension", path)
	}
	return req, nil
}

// ///////////////////////////////////////////////
// render
// ///////////////////////////////////////////////

func runRender(a *app, args []string) error {
	fs := a.newFlagSet("render")
	var rf requestFlags
	rf.register(fs)
	out := fs.String("o", "card.png", `output file ("-" for stdout)`)
	watchMode := fs.Bool("watch", false, "re-render when the request file or assets change")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	var targets []string
	if *watchMode {
		if *out == "-" {
			return usagef("-watch needs a file output")
		}
		targets = a.watchTargets(rf)
		if t, ok := watchedBy(*out, targets); ok {
			return usagef("-o %s is inside watched path %s", *out, t)
		}
	}

	r := a.renderer()
	renderOnce := func(ctx context.Context) error {
		req, err := rf.build(fs)
		if err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return usageError{err}
		}
		png, err := r.Render(ctx, req)
		if err != nil {
			return err
		}
		if *out == "-" {
			_, err = a.stdout.Write(png)
			return err
		}
		if err := atomicfile.Write(*out, png, 0o644); err != nil {
			return fmt.Errorf("write card: %w", err)
		}
		a.log.Info("card written", "path", *out, "bytes", len(png), "level", req.Level)
		return nil
	}

	if !*watchMode {
		return renderOnce(context.Background())
	}

	ctx, stop := signalContext()
	defer stop()
	return a.watchRender(ctx, targets, renderOnce)
}

// watchTargets lists the paths -watch observes: the asset directory, the
// request file and the configured font file.
func (a *app) watchTargets(rf requestFlags) []string {
	targets := []string{a.dirs.Assets(a.cfg.Assets.Dir)}
	if rf.file != "" {
		targets = append(targets, rf.file)
	}
	if a.cfg.Font.Path != "" {
		targets = append(targets, a.cfg.Font.Path)
	}
	return targets
}

// watchedBy returns the first target that is out itself or a directory
// containing it. Writing there would trigger another render.
func watchedBy(out string, targets []string) (string, bool) {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return "", false
	}
	for _, t := range targets {
		absT, err := filepath.Abs(t)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absT, absOut)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return t, true
		}
	}
	return "", false
}

// watchRender renders once, then again after every change to the request
// file, asset directory or font file until ctx is done. Render failures in
// the loop are logged and do not stop it.
func (a *app) watchRender(ctx context.Context, targets []string, render func(context.Context) error) error {
	w, err := watch.New(targets...)
	if err != nil {
		return err
	}
	defer w.Close()
	if w.Polling() {
		a.log.Info("using polling mode for file watching")
	}

	if err := render(ctx); err != nil {
		a.log.Warn("render failed", "error", err)
		fmt.Fprintf(a.stderr, "render failed: %v\n", err)
	}
	fmt.Fprintf(a.stderr, "watching %s (Ctrl+C to stop)\n", strings.Join(targets, ", "))

	for {
		select {
		case <-ctx.Done():
			a.log.Info("received shutdown signal")
			return nil
		case <-w.Events():
			if err := render(ctx); err != nil {
				a.log.Warn("render failed", "error", err)
				fmt.Fprintf(a.stderr, "render failed: %v\n", err)
			}
		}
	}
}
