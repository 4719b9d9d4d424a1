package card

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"golang.org/x/image/font"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// keycapMark is COMBINING ENCLOSING KEYCAP.
const keycapMark = '\u20E3'

// Measurer reports the rendered size of a string in the current font.
// *gg.Context satisfies it.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// pictographicExtra covers Emoji_Presentation and Extended_Pictographic
// code points that gomoji only knows inside sequences: the skin-tone
// modifiers and the reserved pictographic block.
var pictographicExtra = &unicode.RangeTable{
	R32: []unicode.Range32{
		{Lo: 0x1F3FB, Hi: 0x1F3FF, Stride: 1},
		{Lo: 0x1FC00, Hi: 0x1FFFD, Stride: 1},
	},
}

// SanitizeUsername removes emoji and pictographic sequences from name,
// together with the variation selectors and joiners left behind by them.
// Keycap sequences keep their base character, so "1️⃣" becomes "1".
func SanitizeUsername(name string) string {
	stripped := gomoji.ReplaceEmojisWithFunc(name, func(e gomoji.Emoji) string {
		if e.SubGroup == "keycap" {
			r, _ := utf8.DecodeRuneInString(e.Character)
			return string(r)
		}
		return ""
	})
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Variation_Selector, r), unicode.Is(unicode.Join_Control, r):
			return -1
		case r == keycapMark, unicode.Is(pictographicExtra, r):
			return -1
		}
		return r
	}, stripped)
}

// FaceMeasurer is a [Measurer] whose font face can be replaced.
// *gg.Context satisfies it.
type FaceMeasurer interface {
	Measurer
	SetFontFace(face font.Face)
}

// TruncateTextWithEllipsis opens a fontSize face from src, sets it on m and
// truncates text to maxWidth as [TruncateMeasured] does. The face stays set
// on m so the result can be drawn directly; the caller closes it.
func TruncateTextWithEllipsis(m FaceMeasurer, src FaceSource, text string, maxWidth, fontSize float64) (string, font.Face, error) {
	face, err := src.Face(fontSize)
	if err != nil {
		return "", nil, err
	}
	m.SetFontFace(face)
	return TruncateMeasured(m, text, maxWidth), face, nil
}

// TruncateMeasured returns text unchanged when it measures within maxWidth
// in m's current font. Otherwise it returns the longest rune prefix that fits
// alongside [Ellipsis], followed by the ellipsis. If no prefix fits the
// result is the ellipsis alone.
func TruncateMeasured(m Measurer, text string, maxWidth float64) string {
	if w, _ := m.MeasureString(text); w <= maxWidth {
		return text
	}
	ew, _ := m.MeasureString(Ellipsis)
	avail := maxWidth - ew

	runes := []rune(text)
	lo, hi := 0, len(runes)
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if w, _ := m.MeasureString(string(runes[:mid])); w <= avail {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:best]) + Ellipsis
}

// FormatXP formats the XP bar label with locale digit grouping,
// e.g. "1,500 / 2,000 XP" for en-US.
func FormatXP(tag language.Tag, xp, xpNeeded int64) string {
	return message.NewPrinter(tag).Sprintf("%d / %d XP", xp, xpNeeded)
}
