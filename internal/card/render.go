package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/text/language"
)

// ///////////////////////////////////////////////
// Collaborators
// ///////////////////////////////////////////////

// AssetSource loads the images a card is composed of.
// RoleIcon returns an error wrapping [ErrOptionalAssetMissing] when the icon
// for a tier does not exist.
type AssetSource interface {
	Background() (image.Image, error)
	Shadow() (image.Image, error)
	Avatar(ctx context.Context, uri string) (image.Image, error)
	RoleIcon(tier int) (image.Image, error)
}

// FaceSource creates font faces. Each call must return a new face; faces
// are not safe for concurrent use.
type FaceSource interface {
	Face(size float64) (font.Face, error)
}

// ///////////////////////////////////////////////
// Palette
// ///////////////////////////////////////////////

var (
	panelFill  = mustHex("#121317")
	ringColor  = mustHex("#2d2e2e")
	rankColor  = mustHex("#c3d4d0")
	barTrack   = mustHex("#23272A")
	barBorder  = mustHex("#ffffff20")
	nameColor  = color.White
	darkLabel  = color.Black
	lightLabel = color.White
)

// ///////////////////////////////////////////////
// Renderer
// ///////////////////////////////////////////////

// Renderer draws cards. It holds no per-render state and is safe for
// concurrent use when its AssetSource and FaceSource are.
type Renderer struct {
	assets AssetSource
	fonts  FaceSource
	locale language.Tag
	log    *slog.Logger
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger used for skipped optional assets.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithLocale sets the locale used for XP digit grouping.
func WithLocale(tag language.Tag) Option {
	return func(r *Renderer) { r.locale = tag }
}

// NewRenderer returns a Renderer that loads images from assets and text
// faces from fonts. The default locale is American English.
func NewRenderer(assets AssetSource, fonts FaceSource, opts ...Option) *Renderer {
	r := &Renderer{
		assets: assets,
		fonts:  fonts,
		locale: language.AmericanEnglish,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render draws the card for req and returns it PNG-encoded.
// Background, shadow and avatar failures return an [*AssetLoadError].
// A missing or unreadable role icon is logged and omitted.
func (r *Renderer) Render(ctx context.Context, req CardRequest) ([]byte, error) {
	dc, err := r.draw(ctx, req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// draw builds the canvas for req. Assets are loaded in the order
// background, shadow, avatar, role icon.
func (r *Renderer) draw(ctx context.Context, req CardRequest) (*gg.Context, error) {
	name := SanitizeUsername(req.Username)
	lay := NewLayout(len(req.Badges))
	tier := GradientForLevel(req.Level)
	left, right := mustHex(tier.Left), mustHex(tier.Right)

	faces, err := r.openFaces()
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	dc := gg.NewContext(CanvasWidth, CanvasHeight)

	bg, err := r.assets.Background()
	if err != nil {
		return nil, assetError("background", err)
	}
	dc.DrawImage(imaging.Resize(bg, CanvasWidth, CanvasHeight, imaging.Lanczos), 0, 0)

	dc.Translate(0, Padding)

	shadow, err := r.assets.Shadow()
	if err != nil {
		return nil, assetError("shadow", err)
	}
	dc.DrawImage(imaging.Resize(shadow, shadowWidth, panelHeight, imaging.Lanczos), int(lay.PanelWidth)-shadowInset, 0)
	drawPanel(dc, lay, left, right)

	avatar, err := r.assets.Avatar(ctx, req.AvatarURL)
	if err != nil {
		return nil, assetError("avatar", err)
	}
	drawAvatar(dc, avatar)

	shown, nameFace, err := TruncateTextWithEllipsis(dc, r.fonts, name, lay.NameMaxWidth, nameFontSize)
	if err != nil {
		return nil, fmt.Errorf("username face: %w", err)
	}
	defer nameFace.Close()
	dc.SetColor(nameColor)
	dc.DrawString(shown, textX, nameY)
	nameWidth, _ := dc.MeasureString(shown)

	r.drawRoleIcon(dc, req.Level, nameWidth)
	drawLevel(dc, faces.level, req, right)

	progress := Progress(req.XP, req.XPNeeded)
	if req.XPNeeded <= 0 {
		r.log.Warn("xp_needed is not positive, using fallback progress",
			"xp", req.XP, "xp_needed", req.XPNeeded, "progress", progress)
	}
	drawXPBar(dc, faces.xp, lay, progress, FormatXP(r.locale, req.XP, req.XPNeeded), left, right)

	r.log.Debug("card rendered",
		"level", req.Level,
		"tier", tier.MinLevel,
		"progress", progress,
		"badges", len(req.Badges),
	)
	return dc, nil
}

// assetError wraps err as an [*AssetLoadError] unless it already is one.
func assetError(asset string, err error) error {
	var ae *AssetLoadError
	if errors.As(err, &ae) {
		return err
	}
	return &AssetLoadError{Asset: asset, Err: err}
}

// ///////////////////////////////////////////////
// Faces
// ///////////////////////////////////////////////

// faceSet holds the faces for one render call.
type faceSet struct {
	level font.Face
	xp    font.Face
}

func (r *Renderer) openFaces() (*faceSet, error) {
	fs := &faceSet{}
	var err error
	if fs.level, err = r.fonts.Face(levelSize); err != nil {
		return nil, fmt.Errorf("level face: %w", err)
	}
	if fs.xp, err = r.fonts.Face(barTextSize); err != nil {
		fs.Close()
		return nil, fmt.Errorf("xp face: %w", err)
	}
	return fs, nil
}

// Close releases every opened face.
func (fs *faceSet) Close() {
	for _, f := range []font.Face{fs.level, fs.xp} {
		if f != nil {
			f.Close()
		}
	}
}

// ///////////////////////////////////////////////
// Drawing Steps
// ///////////////////////////////////////////////

// deviceGradient builds a two-stop linear gradient between two points given
// in the current user space. gg evaluates patterns in device pixels, so the
// endpoints are mapped through the current transform.
func deviceGradient(dc *gg.Context, x0, y0, x1, y1 float64, left, right color.Color) gg.Gradient {
	dx0, dy0 := dc.TransformPoint(x0, y0)
	dx1, dy1 := dc.TransformPoint(x1, y1)
	g := gg.NewLinearGradient(dx0, dy0, dx1, dy1)
	g.AddColorStop(0, left)
	g.AddColorStop(1, right)
	return g
}

// drawPanel fills the info panel and strokes its gradient border.
func drawPanel(dc *gg.Context, lay Layout, left, right color.Color) {
	RoundedRectPath(dc, 0, 0, lay.PanelWidth, panelHeight, panelRadius)
	dc.SetColor(panelFill)
	dc.Fill()

	half := borderWidth / 2.0
	dc.SetLineWidth(borderWidth)
	dc.SetStrokeStyle(deviceGradient(dc, 0, 0, lay.PanelWidth, panelHeight, left, right))
	RoundedRectPath(dc, half, half, lay.PanelWidth-borderWidth, panelHeight-borderWidth, panelRadius-5)
	dc.Stroke()
}

// drawAvatar draws the avatar clipped to a circle, then an unclipped ring
// around it.
func drawAvatar(dc *gg.Context, avatar image.Image) {
	const r = avatarSize / 2.0
	cx, cy := avatarX+r, avatarY+r

	dc.Push()
	dc.DrawCircle(cx, cy, r)
	dc.Clip()
	dc.DrawImage(imaging.Fill(avatar, avatarSize, avatarSize, imaging.Center, imaging.Lanczos), avatarX, avatarY)
	dc.Pop()
	// Pop keeps the current mask in gg, so drop the clip explicitly.
	dc.ResetClip()

	dc.DrawCircle(cx, cy, r+3)
	dc.SetColor(ringColor)
	dc.SetLineWidth(avatarRing)
	dc.Stroke()
}

// drawRoleIcon draws the tier's role icon right of the username.
func (r *Renderer) drawRoleIcon(dc *gg.Context, level int, nameWidth float64) {
	tier, ok := RoleTier(level)
	if !ok {
		return
	}
	icon, err := r.assets.RoleIcon(tier)
	if err != nil {
		if errors.Is(err, ErrOptionalAssetMissing) {
			r.log.Warn("role icon not found, skipping", "tier", tier)
		} else {
			r.log.Warn("role icon unreadable, skipping", "tier", tier, "error", err)
		}
		return
	}
	x := textX + nameWidth + roleIconGap
	dc.DrawImage(imaging.Resize(icon, roleIconSize, roleIconSize, imaging.Lanczos), int(math.Round(x)), roleIconY)
}

// drawLevel draws "Level: N" in the tier color followed by " | #rank".
func drawLevel(dc *gg.Context, face font.Face, req CardRequest, accent color.Color) {
	const x, y = textX + levelOffsetX, nameY + levelOffsetY
	level := fmt.Sprintf("Level: %d", req.Level)

	dc.SetFontFace(face)
	dc.SetColor(accent)
	dc.DrawString(level, x, y)
	w, _ := dc.MeasureString(level)

	dc.SetColor(rankColor)
	dc.DrawString(fmt.Sprintf(" | #%d", req.Rank), x+w, y)
}

// drawXPBar draws the track, the clipped gradient fill, the track border
// and the XP label.
func drawXPBar(dc *gg.Context, face font.Face, lay Layout, progress float64, label string, left, right color.Color) {
	bw := lay.BarWidth

	RoundedRectPath(dc, barX, barY, bw, barHeight, barRadius)
	dc.SetColor(barTrack)
	dc.Fill()

	fill := math.Max(barMinFill, bw*progress)
	dc.Push()
	RoundedRectPath(dc, barX, barY, fill, barHeight, barRadius)
	dc.Clip()
	dc.DrawRectangle(barX, barY, fill, barHeight)
	dc.SetFillStyle(deviceGradient(dc, barX, 0, barX+bw, 0, left, right))
	dc.Fill()
	dc.Pop()
	dc.ResetClip()

	dc.SetColor(barBorder)
	dc.SetLineWidth(2)
	RoundedRectPath(dc, barX, barY, bw, barHeight, barRadius)
	dc.Stroke()

	dc.SetFontFace(face)
	lw, _ := dc.MeasureString(label)
	x := float64(barX + barTextInset)
	if !xpTextLeft(progress) {
		x = barX + bw - lw - barTextInset
	}
	if xpTextDark(progress) {
		dc.SetColor(darkLabel)
	} else {
		dc.SetColor(lightLabel)
	}
	dc.DrawString(label, x, barY+barHeight/2.0+8)
}
