// Package card renders level/experience cards as PNG images.
//
// A card is a fixed 1240x340 canvas: a stretched background, a rounded info
// panel with a tier-colored gradient border, a circular avatar, the username,
// an optional role icon, "Level: N | #rank" text and an XP progress bar.
//
// Rendering is stateless. Each [Renderer.Render] call builds its own canvas
// and font faces; the only blocking work is asset loading through the
// [AssetSource], in the fixed order background, shadow, avatar, role icon.
//
// Badges are accepted and reserve horizontal space (narrowing the info
// panel) but are not drawn.
package card

import (
	"errors"
	"fmt"
)

// ///////////////////////////////////////////////
// Request
// ///////////////////////////////////////////////

// CardRequest holds the inputs for one card.
type CardRequest struct {
	// Username is drawn after emoji are stripped and truncated to fit.
	Username string `json:"username" toml:"username"`
	// AvatarURL is an http(s) URL, file:// URL, data: URI or local path.
	AvatarURL string `json:"avatar_url" toml:"avatar_url"`
	// Level selects the gradient tier and role icon.
	Level int `json:"level" toml:"level"`
	// XP is the experience earned toward the next level.
	XP int64 `json:"xp" toml:"xp"`
	// XPNeeded is the experience required for the next level.
	XPNeeded int64 `json:"xp_needed" toml:"xp_needed"`
	// Rank is the leaderboard position, shown as "#rank".
	Rank int `json:"rank" toml:"rank"`
	// Badges are badge identifiers. They only reserve layout width.
	Badges []string `json:"badges,omitempty" toml:"badges,omitempty"`
}

// ErrInvalidRequest is wrapped by every [CardRequest.Validate] failure.
var ErrInvalidRequest = errors.New("invalid card request")

// Validate checks the numeric ranges of the request. [Renderer.Render] does
// not call it; a request with XPNeeded <= 0 still renders with the
// [Progress] fallback.
func (r CardRequest) Validate() error {
	switch {
	case r.AvatarURL == "":
		return fmt.Errorf("%w: avatar_url is required", ErrInvalidRequest)
	case r.Level < 0:
		return fmt.Errorf("%w: level must be >= 0, got %d", ErrInvalidRequest, r.Level)
	case r.XP < 0:
		return fmt.Errorf("%w: xp must be >= 0, got %d", ErrInvalidRequest, r.XP)
	case r.XPNeeded <= 0:
		return fmt.Errorf("%w: xp_needed must be > 0, got %d", ErrInvalidRequest, r.XPNeeded)
	case r.Rank < 1:
		return fmt.Errorf("%w: rank must be >= 1, got %d", ErrInvalidRequest, r.Rank)
	}
	return nil
}

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

// ErrOptionalAssetMissing reports that an optional asset (a role icon) does
// not exist. The renderer logs it and continues.
var ErrOptionalAssetMissing = errors.New("optional asset missing")

// AssetLoadError reports a required asset that could not be read or decoded.
// It aborts the render.
type AssetLoadError struct {
	// Asset names the asset: "background", "shadow" or "avatar".
	Asset string
	// Source is the path or URI that was loaded, when known.
	Source string
	// Err is the underlying cause.
	Err error
}

func (e *AssetLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load %s: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("load %s %s: %v", e.Asset, e.Source, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }
