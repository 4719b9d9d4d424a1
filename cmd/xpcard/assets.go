package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tools.zach/dev/xpcard/internal/assetgen"
	"tools.zach/dev/xpcard/internal/assets"
	"tools.zach/dev/xpcard/internal/card"
)

// errAssetsIncomplete is returned by `assets` when a required file is missing.
var errAssetsIncomplete = errors.New("asset directory incomplete")

func runAssets(a *app, args []string) error {
	opts := a.assetOptions()
	fs := a.newFlagSet("assets")
	fs.StringVar(&opts.Dir, "dir", opts.Dir, "asset directory to check")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rep, err := assets.CheckDir(opts)
	if err != nil {
		return err
	}
	printReport(a, rep)
	if !rep.OK() {
		fmt.Fprintln(a.stdout, "run `xpcard gen-assets` to write placeholders for missing files")
		return errAssetsIncomplete
	}
	return nil
}

func printReport(a *app, rep assets.Report) {
	w := a.stdout
	fmt.Fprintf(w, "assets: %s\n", rep.Dir)
	if len(rep.Missing) > 0 {
		fmt.Fprintf(w, "  missing:        %s\n", strings.Join(rep.Missing, ", "))
	}
	fmt.Fprintf(w, "  role icons:     %d/%d %s\n", len(rep.RoleTiers), len(card.RoleTiers()), joinInts(rep.RoleTiers))
	if len(rep.MissingRoles) > 0 {
		fmt.Fprintf(w, "  missing roles:  %s\n", joinInts(rep.MissingRoles))
	}
	if len(rep.Extra) > 0 {
		fmt.Fprintf(w, "  unrecognized:   %s\n", strings.Join(rep.Extra, ", "))
	}
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, " ")
}

func runGenAssets(a *app, args []string) error {
	opts := a.assetOptions()
	fs := a.newFlagSet("gen-assets")
	out := fs.String("out", opts.Dir, "output directory")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	res, err := assetgen.Generate(assetgen.Options{
		Dir:         *out,
		Background:  opts.Background,
		Shadow:      opts.Shadow,
		RolePattern: opts.RolePattern,
		Font:        a.font(),
		Overwrite:   *force,
		Logger:      a.log,
	})
	for _, name := range res.Written {
		fmt.Fprintf(a.stdout, "  wrote %s\n", name)
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(a.stdout, "  kept %d existing file(s); use -force to replace\n", len(res.Skipped))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Done. Generated %d assets in %s.\n", len(res.Written), *out)
	return nil
}
