// Package assetgen renders placeholder card assets: a dark background, the
// panel shadow ramp and one role icon per tier. The output lets a fresh
// install render cards before real artwork is dropped into the asset
// directory.
package assetgen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fogleman/gg"
	xfont "golang.org/x/image/font"

	"tools.zach/dev/xpcard/internal/atomicfile"
	"tools.zach/dev/xpcard/internal/card"
	"tools.zach/dev/xpcard/internal/fonts"
	"tools.zach/dev/xpcard/internal/paths"
)

// Placeholder geometry in pixels.
const (
	ShadowWidth  = 32
	ShadowHeight = card.ContentHeight
	IconSize     = 64
	iconFontSize = 30
	shadowAlpha  = 170
)

var (
	backgroundTop    = color.NRGBA{0x2b, 0x2d, 0x3a, 0xff}
	backgroundBottom = color.NRGBA{0x0e, 0x0f, 0x14, 0xff}
	iconText         = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// ///////////////////////////////////////////////
// Images
// ///////////////////////////////////////////////

// Background returns a card-sized diagonal dark gradient.
func Background() image.Image {
	dc := gg.NewContext(card.CanvasWidth, card.CanvasHeight)
	g := gg.NewLinearGradient(0, 0, card.CanvasWidth*0.25, card.CanvasHeight)
	g.AddColorStop(0, backgroundTop)
	g.AddColorStop(1, backgroundBottom)
	dc.SetFillStyle(g)
	dc.DrawRectangle(0, 0, card.CanvasWidth, card.CanvasHeight)
	dc.Fill()
	return dc.Image()
}

// Shadow returns a black strip fading from shadowAlpha on the left to fully
// transparent on the right.
func Shadow() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, ShadowWidth, ShadowHeight))
	for x := range ShadowWidth {
		a := uint8(shadowAlpha * (ShadowWidth - 1 - x) / (ShadowWidth - 1))
		for y := range ShadowHeight {
			img.SetNRGBA(x, y, color.NRGBA{A: a})
		}
	}
	return img
}

// RoleIcon returns a circle filled with the tier's gradient and the tier
// number centred on it.
func RoleIcon(f *fonts.Font, tier int) (image.Image, error) {
	grad := card.GradientForLevel(tier)
	left, err := card.ParseHexColor(grad.Left)
	if err != nil {
		return nil, fmt.Errorf("tier %d left color: %w", tier, err)
	}
	right, err := card.ParseHexColor(grad.Right)
	if err != nil {
		return nil, fmt.Errorf("tier %d right color: %w", tier, err)
	}

	face, err := f.Face(iconFontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	dc := gg.NewContext(IconSize, IconSize)
	g := gg.NewLinearGradient(0, 0, IconSize, IconSize)
	g.AddColorStop(0, left)
	g.AddColorStop(1, right)
	dc.SetFillStyle(g)
	dc.DrawCircle(IconSize/2, IconSize/2, IconSize/2)
	dc.Fill()

	// BoundString gives the inked box, so the digits sit visually centred
	// regardless of the face's ascent and descent.
	label := strconv.Itoa(tier)
	bounds, _ := xfont.BoundString(face, label)
	glyphW := (bounds.Max.X - bounds.Min.X).Ceil()
	glyphH := (bounds.Max.Y - bounds.Min.Y).Ceil()
	originX := (IconSize-glyphW)/2 - bounds.Min.X.Floor()
	originY := (IconSize-glyphH)/2 - bounds.Min.Y.Floor()

	dc.SetFontFace(face)
	dc.SetColor(iconText)
	dc.DrawString(label, float64(originX), float64(originY))
	return dc.Image(), nil
}

// ///////////////////////////////////////////////
// Generation
// ///////////////////////////////////////////////

// Options configures [Generate].
type Options struct {
	// Dir receives the files. It is created if missing.
	Dir string
	// Background, Shadow and RolePattern name the files; empty values use
	// the defaults from [paths].
	Background  string
	Shadow      string
	RolePattern string
	// Font draws the role icon digits. Nil uses [fonts.Default].
	Font *fonts.Font
	// Overwrite replaces existing files. Otherwise they are kept.
	Overwrite bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result lists what Generate did, by file name relative to Dir.
type Result struct {
	Written []string
	Skipped []string
}

// Generate writes the background, the shadow and every role icon into
// opts.Dir.
func Generate(opts Options) (Result, error) {
	var res Result
	if opts.Background == "" {
		opts.Background = paths.BackgroundFile
	}
	if opts.Shadow == "" {
		opts.Shadow = paths.ShadowFile
	}
	if opts.RolePattern == "" {
		opts.RolePattern = paths.RolePattern
	}
	if opts.Font == nil {
		opts.Font = fonts.Default()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create asset dir: %w", err)
	}

	type job struct {
		name   string
		render func() (image.Image, error)
	}
	jobs := []job{
		{opts.Background, func() (image.Image, error) { return Background(), nil }},
		{opts.Shadow, func() (image.Image, error) { return Shadow(), nil }},
	}
	for _, tier := range card.RoleTiers() {
		jobs = append(jobs, job{
			name:   paths.RoleFile(opts.RolePattern, tier),
			render: func() (image.Image, error) { return RoleIcon(opts.Font, tier) },
		})
	}

	for _, j := range jobs {
		path := filepath.Join(opts.Dir, j.name)
		if !opts.Overwrite {
			if _, err := os.Stat(path); err == nil {
				log.Debug("asset exists, skipping", "path", path)
				res.Skipped = append(res.Skipped, j.name)
				continue
			}
		}
		img, err := j.render()
		if err != nil {
			return res, fmt.Errorf("render %s: %w", j.name, err)
		}
		if err := writePNG(path, img); err != nil {
			return res, err
		}
		log.Info("asset written", "path", path)
		res.Written = append(res.Written, j.name)
	}
	return res, nil
}

func writePNG(path string, img image.Image) error {
	err := atomicfile.WriteFrom(path, 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
