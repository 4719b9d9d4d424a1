package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/xpcard/internal/config"
)

// ///////////////////////////////////////////////
// parseSectionPath Tests
// ///////////////////////////////////////////////

func TestParseSectionPath(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []string
	}{
		{"single segment", "avatar", []string{"avatar"}},
		{"two segments", "server.tls", []string{"server", "tls"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSectionPath(tt.section)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSectionPath(%q) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// sectionName Tests
// ///////////////////////////////////////////////

func TestSectionName(t *testing.T) {
	tests := []struct {
		section string
		want    string
	}{
		{"avatar", "Avatar"},
		{"server.tls", "Tls"},
		{"Log", "Log"},
		{"a", "A"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sectionName(tt.section); got != tt.want {
			t.Errorf("sectionName(%q) = %q, want %q", tt.section, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// generate Tests
// ///////////////////////////////////////////////

func TestGenerateDecodesToExample(t *testing.T) {
	out, err := generate(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	got := config.DefaultConfig()
	if _, err := toml.Decode(out, got); err != nil {
		t.Fatalf("generated TOML does not parse: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(got, config.ExampleConfig()) {
		t.Errorf("generated TOML decodes to %+v, want %+v", got, config.ExampleConfig())
	}
}

func TestGenerateAnnotates(t *testing.T) {
	out, err := generate(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}
	for _, want := range []string{
		"# ///// Avatar /////",
		"# Timeout for a single avatar download (seconds)",
		"# level = \"debug\"",
		// font.path is omitempty and must still be documented.
		"# Local TTF, OTF or WOFF2 file.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated config missing %q", want)
		}
	}
}

func TestFlushOmittedNoSection(t *testing.T) {
	a := &annotator{docs: config.ConfigDocs, emitted: map[string]bool{}}
	a.flushOmitted()
	if len(a.out) != 0 {
		t.Errorf("flushOmitted with no section produced %d lines, want 0", len(a.out))
	}
}
