// Tests for font parsing, face creation, the resolution chain and the
// Google Fonts downloader (against a local httptest server).

package fonts

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ///////////////////////////////////////////////
// Parse and Face
// ///////////////////////////////////////////////

func TestDefaultFace(t *testing.T) {
	f := Default()
	if f == nil {
		t.Fatal("Default() returned nil")
	}
	face, err := f.Face(36)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	defer face.Close()

	w := xfont.MeasureString(face, "Alice")
	if w <= 0 {
		t.Errorf("MeasureString = %v, want > 0", w)
	}
}

func TestFaceSizeScalesWidth(t *testing.T) {
	small, err := Default().Face(24)
	if err != nil {
		t.Fatalf("Face(24): %v", err)
	}
	defer small.Close()
	large, err := Default().Face(44)
	if err != nil {
		t.Fatalf("Face(44): %v", err)
	}
	defer large.Close()

	if xfont.MeasureString(large, "Level: 27") <= xfont.MeasureString(small, "Level: 27") {
		t.Error("44px text should measure wider than 24px text")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("junk.ttf", []byte("not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestIsWOFF2(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want bool
	}{
		{"extension", "Inter.woff2", nil, true},
		{"upper extension", "INTER.WOFF2", nil, true},
		{"magic bytes", "font", []byte("wOF2rest"), true},
		{"ttf", "font.ttf", gobold.TTF[:8], false},
		{"short data", "font", []byte("wO"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWOFF2(tt.file, tt.data); got != tt.want {
				t.Errorf("isWOFF2(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Resolve
// ///////////////////////////////////////////////

func TestResolve_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f := Resolve(Spec{Path: path})
	if f.Name != path {
		t.Errorf("Name = %q, want %q", f.Name, path)
	}
}

func TestResolve_MissingFallsBackToDefault(t *testing.T) {
	f := Resolve(Spec{
		Path:     filepath.Join(t.TempDir(), "missing.ttf"),
		Fallback: "not-a-google-spec",
	})
	if f != Default() {
		t.Errorf("Resolve returned %q, want embedded default", f.Name)
	}
}

// ///////////////////////////////////////////////
// Google Fonts
// ///////////////////////////////////////////////

func TestParseGoogleFontSpec(t *testing.T) {
	tests := []struct {
		spec       string
		family     string
		weight     string
		wantParsed bool
	}{
		{"google:Inter:800", "Inter", "800", true},
		{"google:Open Sans:700", "Open Sans", "700", true},
		{"google:Inter", "", "", false},
		{"local:Inter:800", "", "", false},
		{"google::800", "", "", false},
	}
	for _, tt := range tests {
		family, weight, ok := ParseGoogleFontSpec(tt.spec)
		if ok != tt.wantParsed || family != tt.family || weight != tt.weight {
			t.Errorf("ParseGoogleFontSpec(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.spec, family, weight, ok, tt.family, tt.weight, tt.wantParsed)
		}
	}
}

func TestFetchGoogleFont_DownloadsAndCaches(t *testing.T) {
	var fontHits int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/css2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@font-face { src: url(" + srv.URL + "/font.ttf) format('truetype'); }"))
	})
	mux.HandleFunc("/font.ttf", func(w http.ResponseWriter, r *http.Request) {
		fontHits++
		w.Write(goregular.TTF)
	})

	old := googleCSSBase
	googleCSSBase = srv.URL + "/css2"
	defer func() { googleCSSBase = old }()

	cacheDir := t.TempDir()
	data, err := FetchGoogleFont("google:Go:400", cacheDir)
	if err != nil {
		t.Fatalf("FetchGoogleFont: %v", err)
	}
	if len(data) != len(goregular.TTF) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(goregular.TTF))
	}

	// Second call must be served from cache.
	if _, err := FetchGoogleFont("google:Go:400", cacheDir); err != nil {
		t.Fatalf("cached FetchGoogleFont: %v", err)
	}
	if fontHits != 1 {
		t.Errorf("font downloaded %d times, want 1", fontHits)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "Go-400.ttf")); err != nil {
		t.Errorf("cache file missing: %v", err)
	}
}

func TestFetchGoogleFont_NoURLInCSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("/* nothing here */"))
	}))
	defer srv.Close()

	old := googleCSSBase
	googleCSSBase = srv.URL
	defer func() { googleCSSBase = old }()

	if _, err := FetchGoogleFont("google:Go:400", ""); err == nil {
		t.Error("expected error when css has no font url")
	}
}
