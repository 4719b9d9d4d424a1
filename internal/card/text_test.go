package card

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/forPelevin/gomoji"
	"golang.org/x/image/font"
	"golang.org/x/text/language"

	"tools.zach/dev/xpcard/internal/fonts"
)

// monoMeasurer measures every rune as 10px wide.
type monoMeasurer struct{ calls int }

func (m *monoMeasurer) MeasureString(s string) (float64, float64) {
	m.calls++
	return float64(utf8.RuneCountInString(s) * 10), 10
}

// ///////////////////////////////////////////////
// Truncation Tests
// ///////////////////////////////////////////////

func TestTruncateMeasured(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     string
	}{
		{"fits", "Alice", 50, "Alice"},
		{"fits loosely", "Alice", 500, "Alice"},
		{"truncated", "Bartholomew", 80, "Barth..."},
		{"one rune room", "Bartholomew", 45, "B..."},
		{"only ellipsis", "Bartholomew", 30, "..."},
		{"narrower than ellipsis", "Bartholomew", 5, "..."},
		{"multibyte runes", "ÄÖÜäöüß", 60, "ÄÖÜ..."},
		{"empty", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateMeasured(&monoMeasurer{}, tt.text, tt.maxWidth)
			if got != tt.want {
				t.Errorf("TruncateMeasured(%q, %v) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncateMeasuredMaximal(t *testing.T) {
	m := &monoMeasurer{}
	text := strings.Repeat("x", 200)
	for maxWidth := 30.0; maxWidth < 500; maxWidth += 7 {
		got := TruncateMeasured(m, text, maxWidth)
		w, _ := m.MeasureString(got)
		if w > maxWidth {
			t.Fatalf("maxWidth %v: result %q measures %v", maxWidth, got, w)
		}
		// Adding one more rune before the ellipsis must overflow.
		prefix := strings.TrimSuffix(got, Ellipsis)
		longer, _ := m.MeasureString(prefix + "x" + Ellipsis)
		if longer <= maxWidth {
			t.Fatalf("maxWidth %v: result %q is not the longest fitting prefix", maxWidth, got)
		}
	}
}

func TestTruncateMeasuredLogMeasures(t *testing.T) {
	m := &monoMeasurer{}
	TruncateMeasured(m, strings.Repeat("y", 1024), 100)
	if m.calls > 16 {
		t.Errorf("MeasureString called %d times for 1024 runes, want a binary search", m.calls)
	}
}

// ///////////////////////////////////////////////
// Sanitize Tests
// ///////////////////////////////////////////////

type brokenFaces struct{}

func (brokenFaces) Face(float64) (font.Face, error) { return nil, errors.New("no face") }

func TestTruncateTextWithEllipsis(t *testing.T) {
	const text, maxWidth = "Bartholomew the Magnificent", 300.0
	dc := gg.NewContext(400, 100)

	small, face, err := TruncateTextWithEllipsis(dc, fonts.Default(), text, maxWidth, 12)
	if err != nil {
		t.Fatalf("TruncateTextWithEllipsis(12px): %v", err)
	}
	face.Close()
	if small != text {
		t.Errorf("12px result = %q, want %q unchanged", small, text)
	}

	large, face, err := TruncateTextWithEllipsis(dc, fonts.Default(), text, maxWidth, 36)
	if err != nil {
		t.Fatalf("TruncateTextWithEllipsis(36px): %v", err)
	}
	defer face.Close()
	if !strings.HasSuffix(large, Ellipsis) || len(large) >= len(text) {
		t.Errorf("36px result = %q, want a truncated name", large)
	}
	// The 36px face is left on the context.
	if w, _ := dc.MeasureString(large); w > maxWidth {
		t.Errorf("MeasureString(%q) = %v, want <= %v", large, w, maxWidth)
	}

	if _, _, err := TruncateTextWithEllipsis(dc, brokenFaces{}, text, maxWidth, 36); err == nil {
		t.Error("TruncateTextWithEllipsis with a failing face source = nil error")
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "Alice"},
		{"Al🔥ice😀", "Alice"},
		{"Team🚀Rocket", "TeamRocket"},
		{"Player 42", "Player 42"},
		{"❤️Heart", "Heart"},
		{"Zoë", "Zoë"},
		{"\U0001F3FBtone", "tone"},
		{"1\uFE0F\u20E3One", "1One"},
		{"#\u20E3tag", "#tag"},
		{"👋🏽wave", "wave"},
		{"", ""},
	}
	for _, tt := range tests {
		got := SanitizeUsername(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if gomoji.ContainsEmoji(got) {
			t.Errorf("SanitizeUsername(%q) = %q still contains emoji", tt.in, got)
		}
	}
}

// ///////////////////////////////////////////////
// Format Tests
// ///////////////////////////////////////////////

func TestFormatXP(t *testing.T) {
	tests := []struct {
		tag      language.Tag
		xp, need int64
		want     string
	}{
		{language.AmericanEnglish, 1500, 2000, "1,500 / 2,000 XP"},
		{language.AmericanEnglish, 0, 100, "0 / 100 XP"},
		{language.AmericanEnglish, 1234567, 2000000, "1,234,567 / 2,000,000 XP"},
		{language.German, 1500, 2000, "1.500 / 2.000 XP"},
	}
	for _, tt := range tests {
		if got := FormatXP(tt.tag, tt.xp, tt.need); got != tt.want {
			t.Errorf("FormatXP(%v, %d, %d) = %q, want %q", tt.tag, tt.xp, tt.need, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// Shape Tests
// ///////////////////////////////////////////////

type pathOp struct {
	op  string
	pts []float64
}

type recordingPath struct{ ops []pathOp }

func (p *recordingPath) MoveTo(x, y float64) { p.ops = append(p.ops, pathOp{"M", []float64{x, y}}) }
func (p *recordingPath) LineTo(x, y float64) { p.ops = append(p.ops, pathOp{"L", []float64{x, y}}) }
func (p *recordingPath) QuadraticTo(x1, y1, x2, y2 float64) {
	p.ops = append(p.ops, pathOp{"Q", []float64{x1, y1, x2, y2}})
}
func (p *recordingPath) ClosePath() { p.ops = append(p.ops, pathOp{"Z", nil}) }

func TestRoundedRectPath(t *testing.T) {
	p := &recordingPath{}
	RoundedRectPath(p, 10, 20, 100, 50, 5)

	want := []pathOp{
		{"M", []float64{15, 20}},
		{"L", []float64{105, 20}},
		{"Q", []float64{110, 20, 110, 25}},
		{"L", []float64{110, 65}},
		{"Q", []float64{110, 70, 105, 70}},
		{"L", []float64{15, 70}},
		{"Q", []float64{10, 70, 10, 65}},
		{"L", []float64{10, 25}},
		{"Q", []float64{10, 20, 15, 20}},
		{"Z", nil},
	}
	if len(p.ops) != len(want) {
		t.Fatalf("RoundedRectPath emitted %d ops, want %d", len(p.ops), len(want))
	}
	for i, op := range p.ops {
		if op.op != want[i].op || len(op.pts) != len(want[i].pts) {
			t.Fatalf("op[%d] = %v, want %v", i, op, want[i])
		}
		for j := range op.pts {
			if op.pts[j] != want[i].pts[j] {
				t.Errorf("op[%d] = %v, want %v", i, op, want[i])
				break
			}
		}
	}
}
