// Package fonts resolves the typeface used for card text.
//
// Resolution order:
//  1. A local TTF, OTF or WOFF2 file
//  2. A Google Fonts spec ("google:FAMILY:WEIGHT"), cached on disk
//  3. The embedded Go Bold face
package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Font is a parsed typeface. It is safe for concurrent use; the faces it
// returns are not.
type Font struct {
	// Name describes where the font came from, for logging.
	Name string
	otf  *opentype.Font
}

// Parse parses SFNT or WOFF2 font data.
func Parse(name string, data []byte) (*Font, error) {
	data, err := toSFNT(name, data)
	if err != nil {
		return nil, err
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &Font{Name: name, otf: otf}, nil
}

// Face returns a new face at size pixels (72 DPI, so points equal pixels).
func (f *Font) Face(size float64) (xfont.Face, error) {
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s face at %.0fpx: %w", f.Name, size, err)
	}
	return face, nil
}

var (
	defaultFont     *Font
	defaultFontOnce sync.Once
)

// Default returns the embedded Go Bold font.
func Default() *Font {
	defaultFontOnce.Do(func() {
		f, err := Parse("gobold", gobold.TTF)
		if err != nil {
			panic(fmt.Sprintf("fonts: embedded gobold: %v", err))
		}
		defaultFont = f
	})
	return defaultFont
}

// ///////////////////////////////////////////////
// Resolution
// ///////////////////////////////////////////////

// Spec selects a font.
type Spec struct {
	// Path is a local font file. Empty skips the local step.
	Path string
	// Fallback is a Google Fonts spec like "google:Inter:800". Empty skips it.
	Fallback string
	// CacheDir holds downloaded Google Fonts.
	CacheDir string
}

// Resolve walks the resolution chain and never fails: every step that
// cannot produce a font is logged and the embedded font is returned last.
func Resolve(spec Spec) *Font {
	if spec.Path != "" {
		data, err := os.ReadFile(spec.Path)
		if err == nil {
			f, perr := Parse(spec.Path, data)
			if perr == nil {
				slog.Debug("font resolved", "source", "local", "path", spec.Path)
				return f
			}
			err = perr
		}
		slog.Warn("local font unavailable", "path", spec.Path, "error", err)
	}

	if spec.Fallback != "" {
		data, err := FetchGoogleFont(spec.Fallback, spec.CacheDir)
		if err == nil {
			f, perr := Parse(spec.Fallback, data)
			if perr == nil {
				slog.Debug("font resolved", "source", "google", "spec", spec.Fallback)
				return f
			}
			err = perr
		}
		slog.Warn("google font unavailable", "spec", spec.Fallback, "error", err)
	}

	return Default()
}

// toSFNT converts WOFF2 data to SFNT and passes other data through.
func toSFNT(name string, data []byte) ([]byte, error) {
	if !isWOFF2(name, data) {
		return data, nil
	}
	sfnt, err := font.ToSFNT(data)
	if err != nil {
		return nil, fmt.Errorf("convert woff2 %s to sfnt: %w", name, err)
	}
	return sfnt, nil
}

// isWOFF2 checks the ".woff2" extension or the "wOF2" magic bytes.
func isWOFF2(name string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(name), ".woff2") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "wOF2"
}
