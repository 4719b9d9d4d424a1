// Package assets loads the images a card is composed of: the background,
// the panel shadow and role icons from a local directory, and avatars from
// http(s) URLs, file:// URLs, data: URIs or local paths.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
	_ "golang.org/x/image/webp" // avatars are often served as WebP

	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/logger"
	"tools.zach/dev/xpcard/internal/paths"
)

// ///////////////////////////////////////////////
// Options
// ///////////////////////////////////////////////

// Options configures a [Source].
type Options struct {
	// Dir holds the background, shadow and role icon files.
	Dir string
	// Background and Shadow are file names inside Dir.
	Background string
	Shadow     string
	// RolePattern names role icons; "{tier}" is replaced with the tier.
	RolePattern string
	// Avatar is the remote avatar policy.
	Avatar AvatarPolicy
	// Logger receives trace output. Defaults to slog.Default().
	Logger *slog.Logger
}

// AvatarPolicy bounds avatar fetching.
type AvatarPolicy struct {
	// Timeout bounds one HTTP attempt. Zero means 10 seconds.
	Timeout time.Duration
	// RetryMax is the number of retries after a failed attempt.
	RetryMax int
	// MaxBytes caps the response body. Zero means 8 MiB.
	MaxBytes int64
	// HostAllowed gates http(s) hosts. Nil allows every host.
	HostAllowed func(host string) bool
}

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 8 << 20
)

// ///////////////////////////////////////////////
// Source
// ///////////////////////////////////////////////

// Source implements [card.AssetSource]. It holds no per-render state and is
// safe for concurrent use.
type Source struct {
	opts   Options
	client *retryablehttp.Client
	log    *slog.Logger
}

var _ card.AssetSource = (*Source)(nil)

// New returns a Source for opts, filling unset file names with the defaults
// from [paths].
func New(opts Options) *Source {
	if opts.Background == "" {
		opts.Background = paths.BackgroundFile
	}
	if opts.Shadow == "" {
		opts.Shadow = paths.ShadowFile
	}
	if opts.RolePattern == "" {
		opts.RolePattern = paths.RolePattern
	}
	if opts.Avatar.Timeout <= 0 {
		opts.Avatar.Timeout = defaultTimeout
	}
	if opts.Avatar.MaxBytes <= 0 {
		opts.Avatar.MaxBytes = defaultMaxBytes
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.Avatar.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = opts.Avatar.Timeout
	client.Logger = nil

	return &Source{opts: opts, client: client, log: log}
}

// Background loads the background image.
func (s *Source) Background() (image.Image, error) {
	return s.loadRequired("background", s.opts.Background)
}

// Shadow loads the panel shadow image.
func (s *Source) Shadow() (image.Image, error) {
	return s.loadRequired("shadow", s.opts.Shadow)
}

// RoleIcon loads the icon for tier. A missing file returns an error wrapping
// [card.ErrOptionalAssetMissing].
func (s *Source) RoleIcon(tier int) (image.Image, error) {
	path := filepath.Join(s.opts.Dir, paths.RoleFile(s.opts.RolePattern, tier))
	img, err := decodeFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("role icon %s: %w", path, card.ErrOptionalAssetMissing)
	}
	if err != nil {
		return nil, &card.AssetLoadError{Asset: "role icon", Source: path, Err: err}
	}
	logger.Trace(s.log, "asset loaded", "asset", "role icon", "tier", tier, "path", path)
	return img, nil
}

func (s *Source) loadRequired(asset, name string) (image.Image, error) {
	path := filepath.Join(s.opts.Dir, name)
	img, err := decodeFile(path)
	if err != nil {
		return nil, &card.AssetLoadError{Asset: asset, Source: path, Err: err}
	}
	logger.Trace(s.log, "asset loaded", "asset", asset, "path", path)
	return img, nil
}

// decodeFile reads and decodes an image, honoring EXIF orientation.
func decodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
