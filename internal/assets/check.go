package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/paths"
)

// Report describes the contents of an asset directory.
type Report struct {
	// Dir is the checked directory.
	Dir string
	// Missing lists required files that do not exist.
	Missing []string
	// RoleTiers lists tiers with a role icon, ascending.
	RoleTiers []int
	// MissingRoles lists tiers in [card.RoleTiers] without an icon.
	MissingRoles []int
	// Extra lists role-pattern matches that are not a known tier.
	Extra []string
}

// OK reports whether every required asset exists. Missing role icons are
// optional and do not affect it.
func (r Report) OK() bool { return len(r.Missing) == 0 }

// CheckDir inspects the directory in opts without decoding any image.
func CheckDir(opts Options) (Report, error) {
	rep := Report{Dir: opts.Dir}
	if opts.Background == "" {
		opts.Background = paths.BackgroundFile
	}
	if opts.Shadow == "" {
		opts.Shadow = paths.ShadowFile
	}
	if opts.RolePattern == "" {
		opts.RolePattern = paths.RolePattern
	}

	info, err := os.Stat(opts.Dir)
	if err != nil {
		return rep, fmt.Errorf("asset dir: %w", err)
	}
	if !info.IsDir() {
		return rep, fmt.Errorf("asset dir %s is not a directory", opts.Dir)
	}
	fsys := os.DirFS(opts.Dir)

	for _, name := range []string{opts.Background, opts.Shadow} {
		if _, err := os.Stat(filepath.Join(opts.Dir, name)); err != nil {
			rep.Missing = append(rep.Missing, name)
		}
	}

	matches, err := doublestar.Glob(fsys, paths.RoleGlob(opts.RolePattern))
	if err != nil {
		return rep, fmt.Errorf("glob role icons: %w", err)
	}
	known := card.RoleTiers()
	for _, m := range matches {
		tier, ok := tierFromName(opts.RolePattern, m)
		if !ok || !slices.Contains(known, tier) {
			rep.Extra = append(rep.Extra, m)
			continue
		}
		rep.RoleTiers = append(rep.RoleTiers, tier)
	}
	slices.Sort(rep.RoleTiers)
	for _, t := range known {
		if !slices.Contains(rep.RoleTiers, t) {
			rep.MissingRoles = append(rep.MissingRoles, t)
		}
	}
	return rep, nil
}

// tierFromName recovers the tier from a file name produced by pattern.
func tierFromName(pattern, name string) (int, bool) {
	prefix, suffix, ok := strings.Cut(pattern, "{tier}")
	if !ok || len(name) <= len(prefix)+len(suffix) ||
		!strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	digits := name[len(prefix) : len(name)-len(suffix)]
	tier, err := strconv.Atoi(digits)
	if err != nil || strconv.Itoa(tier) != digits {
		return 0, false
	}
	return tier, true
}
