package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "avatar.max_bytes")
// to their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// ── Assets ───────────────────────────────────────────────────
	"assets": {
		Comment: "Local card images",
	},
	"assets.dir": {
		Comment: "Asset directory. Relative paths are resolved against the data directory.\nRun `xpcard gen-assets -out <dir>` to create placeholder images.",
		Alternatives: []string{
			`dir = "/srv/xpcard/img"`,
		},
	},
	"assets.background": {
		Comment: "Background image, stretched to the full 1240x340 canvas",
	},
	"assets.shadow": {
		Comment: "Shadow strip drawn along the right edge of the info panel",
	},
	"assets.role_pattern": {
		Comment: "Role icon file names. {tier} is replaced with 5, 10, ... 50.\nA missing role icon is skipped with a warning.",
		Alternatives: []string{
			`role_pattern = "roles/{tier}.png"`,
		},
	},

	// ── Font ─────────────────────────────────────────────────────
	"font": {
		Comment: "Card typeface. Resolution order: path, fallback, embedded Go Bold.",
	},
	"font.path": {
		Comment: "Local TTF, OTF or WOFF2 file.",
		Alternatives: []string{
			`path = "/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf"`,
		},
	},
	"font.fallback": {
		Comment: "Google Fonts spec used when path is unset or unreadable.\nDownloads are cached in the data directory's fonts/ folder.",
		Alternatives: []string{
			`fallback = "google:Roboto:700"`,
		},
	},

	// ── Avatar ───────────────────────────────────────────────────
	"avatar": {
		Comment: "Avatar fetching. Avatars may be http(s) URLs, file:// URLs, data: URIs or local paths.",
	},
	"avatar.timeout_seconds": {
		Comment: "Timeout for a single avatar download (seconds)",
	},
	"avatar.retry_max": {
		Comment: "Retries for failed downloads. 0 = fail on the first error.",
	},
	"avatar.max_bytes": {
		Comment: "Largest accepted avatar response body (bytes)",
	},
	"avatar.allowed_hosts": {
		Comment: "Glob patterns for avatar hosts. Empty allows any host.",
		Alternatives: []string{
			`allowed_hosts = ["cdn.discordapp.com", "*.githubusercontent.com"]`,
		},
	},

	// ── Display ──────────────────────────────────────────────────
	"display.locale": {
		Comment: "Locale for XP digit grouping (BCP 47). en-US renders \"1,500 / 2,000 XP\".",
		Alternatives: []string{
			`locale = "de-DE"`,
		},
	},

	// ── Server ───────────────────────────────────────────────────
	"server": {
		Comment: "HTTP render service (`xpcard serve`).\nXPCARD_ADDR and XPCARD_ALLOWED_ORIGINS override these, also from <data-dir>/.env.",
	},
	"server.addr": {
		Comment: "Listen address",
		Alternatives: []string{
			`addr = ":8080"`,
		},
	},
	"server.allowed_origins": {
		Comment: "CORS origins. \"*\" allows any origin.",
	},
	"server.max_badges": {
		Comment: "Reject requests with more badges than this. 0 = no limit.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
	"log.file": {
		Comment: "Log file path. Defaults to xpcard.log in the data directory; \"-\" logs to stderr.",
		Alternatives: []string{
			`file = "-"`,
		},
	},
}
