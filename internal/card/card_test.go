package card

import (
	"errors"
	"image/color"
	"testing"
)

// ///////////////////////////////////////////////
// Gradient Tier Tests
// ///////////////////////////////////////////////

func TestGradientForLevel(t *testing.T) {
	tests := []struct {
		level int
		left  string
		right string
	}{
		{0, "#8f8f8f", "#636363"},
		{4, "#8f8f8f", "#636363"},
		{5, "#cb6eee", "#843efe"},
		{9, "#cb6eee", "#843efe"},
		{10, "#fa5a75", "#f73f76"},
		{27, "#f0e87d", "#f4ea2b"},
		{49, "#85f4fe", "#0feafe"},
		{50, "#7c9df8", "#1858fe"},
		{999, "#7c9df8", "#1858fe"},
		{-3, "#8f8f8f", "#636363"},
	}
	for _, tt := range tests {
		got := GradientForLevel(tt.level)
		if got.Left != tt.left || got.Right != tt.right {
			t.Errorf("GradientForLevel(%d) = (%s, %s), want (%s, %s)", tt.level, got.Left, got.Right, tt.left, tt.right)
		}
	}
}

func TestTiersOrderedDescending(t *testing.T) {
	for i := 1; i < len(Tiers); i++ {
		if Tiers[i].MinLevel >= Tiers[i-1].MinLevel {
			t.Fatalf("Tiers[%d].MinLevel = %d, not below Tiers[%d].MinLevel = %d",
				i, Tiers[i].MinLevel, i-1, Tiers[i-1].MinLevel)
		}
	}
	for _, tier := range append(Tiers, DefaultGradient) {
		if _, err := ParseHexColor(tier.Left); err != nil {
			t.Errorf("tier %d left: %v", tier.MinLevel, err)
		}
		if _, err := ParseHexColor(tier.Right); err != nil {
			t.Errorf("tier %d right: %v", tier.MinLevel, err)
		}
	}
}

func TestRoleTier(t *testing.T) {
	tests := []struct {
		level  int
		tier   int
		wantOK bool
	}{
		{0, 0, false},
		{4, 0, false},
		{5, 5, true},
		{27, 25, true},
		{50, 50, true},
		{54, 50, true},
		{55, 55, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		tier, ok := RoleTier(tt.level)
		if tier != tt.tier || ok != tt.wantOK {
			t.Errorf("RoleTier(%d) = (%d, %v), want (%d, %v)", tt.level, tier, ok, tt.tier, tt.wantOK)
		}
	}
}

func TestRoleTiers(t *testing.T) {
	got := RoleTiers()
	if len(got) != 10 {
		t.Fatalf("RoleTiers() returned %d tiers, want 10: %v", len(got), got)
	}
	if got[0] != 5 || got[9] != 50 {
		t.Errorf("RoleTiers() = %v, want 5..50", got)
	}
}

// ///////////////////////////////////////////////
// Color Tests
// ///////////////////////////////////////////////

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#121317", color.NRGBA{0x12, 0x13, 0x17, 0xff}, false},
		{"ffffff20", color.NRGBA{0xff, 0xff, 0xff, 0x20}, false},
		{"#23272A", color.NRGBA{0x23, 0x27, 0x2a, 0xff}, false},
		{"#fff", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// Layout Tests
// ///////////////////////////////////////////////

func TestBadgeAreaWidth(t *testing.T) {
	tests := []struct {
		badges int
		want   int
	}{
		{0, 0},
		{-2, 0},
		{1, 110},
		{4, 110},
		{5, 200},
		{8, 200},
		{9, 290},
	}
	for _, tt := range tests {
		if got := BadgeAreaWidth(tt.badges); got != tt.want {
			t.Errorf("BadgeAreaWidth(%d) = %d, want %d", tt.badges, got, tt.want)
		}
	}
}

func TestNewLayout(t *testing.T) {
	lay := NewLayout(0)
	if lay.PanelWidth != 1240 {
		t.Errorf("PanelWidth = %v, want 1240", lay.PanelWidth)
	}
	if lay.NameMaxWidth != 795 {
		t.Errorf("NameMaxWidth = %v, want 795", lay.NameMaxWidth)
	}
	if lay.BarWidth != 620 {
		t.Errorf("BarWidth = %v, want 620", lay.BarWidth)
	}

	lay = NewLayout(5)
	if lay.BadgeWidth != 200 || lay.PanelWidth != 1040 {
		t.Errorf("NewLayout(5) = %+v, want BadgeWidth 200, PanelWidth 1040", lay)
	}
}

func TestCanvasSize(t *testing.T) {
	if CanvasWidth != 1240 || CanvasHeight != 340 {
		t.Errorf("canvas = %dx%d, want 1240x340", CanvasWidth, CanvasHeight)
	}
}

// ///////////////////////////////////////////////
// Progress Tests
// ///////////////////////////////////////////////

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		xp, need int64
		want     float64
	}{
		{"zero xp clamps to minimum", 0, 2000, 0.02},
		{"tiny xp clamps to minimum", 1, 2000, 0.02},
		{"three quarters", 1500, 2000, 0.75},
		{"equal", 2000, 2000, 1},
		{"overflow", 5000, 2000, 1},
		{"zero needed with xp", 10, 0, 1},
		{"zero needed without xp", 0, 0, 0.02},
		{"negative needed", 10, -5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.xp, tt.need); got != tt.want {
				t.Errorf("Progress(%d, %d) = %v, want %v", tt.xp, tt.need, got, tt.want)
			}
		})
	}
}

func TestXPTextPlacement(t *testing.T) {
	tests := []struct {
		p        float64
		dark     bool
		leftSide bool
	}{
		{0.02, false, false},
		{0.3, false, false},
		{0.35, true, false},
		{0.4, true, false},
		{0.75, true, true},
	}
	for _, tt := range tests {
		if got := xpTextDark(tt.p); got != tt.dark {
			t.Errorf("xpTextDark(%v) = %v, want %v", tt.p, got, tt.dark)
		}
		if got := xpTextLeft(tt.p); got != tt.leftSide {
			t.Errorf("xpTextLeft(%v) = %v, want %v", tt.p, got, tt.leftSide)
		}
	}
}

// ///////////////////////////////////////////////
// Request Tests
// ///////////////////////////////////////////////

func validRequest() CardRequest {
	return CardRequest{
		Username:  "Alice",
		AvatarURL: "https://example.com/a.png",
		Level:     27,
		XP:        1500,
		XPNeeded:  2000,
		Rank:      3,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CardRequest)
		wantErr bool
	}{
		{"valid", func(*CardRequest) {}, false},
		{"empty username allowed", func(r *CardRequest) { r.Username = "" }, false},
		{"missing avatar", func(r *CardRequest) { r.AvatarURL = "" }, true},
		{"negative level", func(r *CardRequest) { r.Level = -1 }, true},
		{"negative xp", func(r *CardRequest) { r.XP = -1 }, true},
		{"zero xp needed", func(r *CardRequest) { r.XPNeeded = 0 }, true},
		{"zero rank", func(r *CardRequest) { r.Rank = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestAssetLoadError(t *testing.T) {
	cause := errors.New("boom")
	err := &AssetLoadError{Asset: "avatar", Source: "https://x/a.png", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("AssetLoadError does not unwrap to its cause")
	}
	want := "load avatar https://x/a.png: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	noSrc := &AssetLoadError{Asset: "shadow", Err: cause}
	if noSrc.Error() != "load shadow: boom" {
		t.Errorf("Error() = %q, want %q", noSrc.Error(), "load shadow: boom")
	}
}
