package card

// ///////////////////////////////////////////////
// Gradient Tiers
// ///////////////////////////////////////////////

// GradientTier selects the card's accent gradient for levels >= MinLevel.
type GradientTier struct {
	// MinLevel is the lowest level this tier applies to.
	MinLevel int
	// Left is the gradient's start color ("#RRGGBB").
	Left string
	// Right is the gradient's end color, also used for the level text.
	Right string
}

// Tiers is ordered highest MinLevel first so the first match wins.
var Tiers = []GradientTier{
	{MinLevel: 50, Left: "#7c9df8", Right: "#1858fe"},
	{MinLevel: 45, Left: "#85f4fe", Right: "#0feafe"},
	{MinLevel: 40, Left: "#0bfea5", Right: "#4fdaa4"},
	{MinLevel: 35, Left: "#91f071", Right: "#55e421"},
	{MinLevel: 30, Left: "#d3fd3f", Right: "#bdfe3d"},
	{MinLevel: 25, Left: "#f0e87d", Right: "#f4ea2b"},
	{MinLevel: 20, Left: "#f7c126", Right: "#fbb81a"},
	{MinLevel: 15, Left: "#f08b5b", Right: "#ff7f19"},
	{MinLevel: 10, Left: "#fa5a75", Right: "#f73f76"},
	{MinLevel: 5, Left: "#cb6eee", Right: "#843efe"},
}

// DefaultGradient applies below the lowest tier.
var DefaultGradient = GradientTier{MinLevel: 0, Left: "#8f8f8f", Right: "#636363"}

// GradientForLevel returns the first tier whose MinLevel <= level, or
// DefaultGradient when none matches.
func GradientForLevel(level int) GradientTier {
	for _, t := range Tiers {
		if level >= t.MinLevel {
			return t
		}
	}
	return DefaultGradient
}

// Role icons exist for every multiple of RoleStep in [MinRoleTier, MaxRoleTier].
const (
	RoleStep    = 5
	MinRoleTier = 5
	MaxRoleTier = 50
)

// RoleTier returns the nearest lower multiple of RoleStep and whether a role
// icon exists for it.
func RoleTier(level int) (tier int, ok bool) {
	if level < 0 {
		return 0, false
	}
	tier = level / RoleStep * RoleStep
	return tier, tier >= MinRoleTier && tier <= MaxRoleTier
}

// RoleTiers lists every tier that has a role icon, ascending.
func RoleTiers() []int {
	out := make([]int, 0, (MaxRoleTier-MinRoleTier)/RoleStep+1)
	for t := MinRoleTier; t <= MaxRoleTier; t += RoleStep {
		out = append(out, t)
	}
	return out
}
