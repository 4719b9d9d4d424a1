package card

import "math"

// ///////////////////////////////////////////////
// Geometry
// ///////////////////////////////////////////////

// Canvas geometry in pixels.
const (
	Padding       = 20
	ContentWidth  = 1200
	ContentHeight = 300
	CanvasWidth   = ContentWidth + Padding*2
	CanvasHeight  = ContentHeight + Padding*2
)

// Badge column layout.
const (
	MaxBadgesPerColumn = 4
	BadgeSize          = 80
	BadgeSpacing       = 10
	BadgeColumnWidth   = BadgeSize + BadgeSpacing
	badgeAreaMargin    = 20
)

// Info panel and element placement, relative to the translated panel origin.
const (
	panelHeight  = ContentHeight
	panelRadius  = 30
	borderWidth  = 6
	shadowInset  = 28
	shadowWidth  = 32
	avatarX      = 40
	avatarY      = 25
	avatarSize   = 250
	avatarRing   = 10
	textX        = 325
	nameY        = 100
	nameRightGap = 120
	nameFontSize = 36
	levelOffsetX = 2
	levelOffsetY = 55
	levelSize    = 44
	roleIconSize = 64
	roleIconGap  = 5
	roleIconY    = 55
	barX         = 325
	barY         = 180
	barHeight    = 45
	barRadius    = 20
	barMinFill   = 40
	barTextSize  = 24
	barTextInset = 15
)

// BadgeAreaWidth returns the width reserved for badge columns of at most
// MaxBadgesPerColumn badges each. Zero badges reserve nothing.
func BadgeAreaWidth(badges int) int {
	if badges <= 0 {
		return 0
	}
	columns := (badges + MaxBadgesPerColumn - 1) / MaxBadgesPerColumn
	return columns*BadgeColumnWidth + badgeAreaMargin
}

// Layout holds the per-request geometry derived from a [CardRequest].
type Layout struct {
	// PanelWidth is the info panel width after the badge reservation.
	PanelWidth float64
	// BadgeWidth is the reserved badge-area width.
	BadgeWidth float64
	// NameMaxWidth is the pixel budget for the username.
	NameMaxWidth float64
	// BarWidth is the full XP bar track width.
	BarWidth float64
}

// NewLayout computes the geometry for a request with the given badge count.
func NewLayout(badges int) Layout {
	bw := float64(BadgeAreaWidth(badges))
	pw := float64(CanvasWidth) - bw
	return Layout{
		PanelWidth:   pw,
		BadgeWidth:   bw,
		NameMaxWidth: pw - textX - nameRightGap,
		BarWidth:     pw / 2,
	}
}

// ///////////////////////////////////////////////
// Progress
// ///////////////////////////////////////////////

// Progress bounds for the XP bar fill.
const (
	MinProgress = 0.02
	MaxProgress = 1.0
)

// Progress returns xp/xpNeeded clamped to [MinProgress, MaxProgress].
// A non-positive xpNeeded yields MaxProgress when xp > 0 and MinProgress
// otherwise.
func Progress(xp, xpNeeded int64) float64 {
	if xpNeeded <= 0 {
		if xp > 0 {
			return MaxProgress
		}
		return MinProgress
	}
	p := float64(xp) / float64(xpNeeded)
	return math.Max(MinProgress, math.Min(p, MaxProgress))
}

// xpTextDark reports whether XP bar text is drawn black instead of white.
func xpTextDark(progress float64) bool { return progress > 0.3 }

// xpTextLeft reports whether XP bar text is anchored to the bar's left edge.
func xpTextLeft(progress float64) bool { return progress > 0.4 }
