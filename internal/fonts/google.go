// google.go downloads font files through the Google Fonts CSS API.
//
// Specs use the format "google:FAMILY:WEIGHT" (e.g. "google:Inter:800").
// Downloads are converted to SFNT and cached so later runs stay offline.

package fonts

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// googleCSSBase is the CSS API endpoint. Tests point it at a local server.
var googleCSSBase = "https://fonts.googleapis.com/css2"

// fontURLRe extracts the font file URL from a CSS @font-face rule.
var fontURLRe = regexp.MustCompile(`url\((https?://[^)]+)\)`)

var (
	httpClient     *retryablehttp.Client
	httpClientOnce sync.Once
)

func getHTTPClient() *retryablehttp.Client {
	httpClientOnce.Do(func() {
		httpClient = retryablehttp.NewClient()
		httpClient.RetryMax = 2
		httpClient.HTTPClient.Timeout = 15 * time.Second
		httpClient.Logger = nil
	})
	return httpClient
}

// ParseGoogleFontSpec splits "google:Family:Weight" into family and weight.
func ParseGoogleFontSpec(spec string) (family, weight string, ok bool) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || parts[0] != "google" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// FetchGoogleFont returns SFNT bytes for spec, reading cacheDir first and
// writing the converted download back to it.
func FetchGoogleFont(spec, cacheDir string) ([]byte, error) {
	family, weight, ok := ParseGoogleFontSpec(spec)
	if !ok {
		return nil, fmt.Errorf("invalid google font spec %q: expected google:FAMILY:WEIGHT", spec)
	}

	cacheFile := filepath.Join(cacheDir, fmt.Sprintf("%s-%s.ttf", strings.ReplaceAll(family, " ", "_"), weight))
	if cacheDir != "" {
		if data, err := os.ReadFile(cacheFile); err == nil {
			return data, nil
		}
	}

	cssURL := fmt.Sprintf("%s?family=%s:wght@%s", googleCSSBase, url.QueryEscape(family), weight)
	req, err := retryablehttp.NewRequest(http.MethodGet, cssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	// A modern User-Agent gets WOFF2 URLs, which toSFNT converts.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	css, err := get(req, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("fetching css for %s wght@%s: %w", family, weight, err)
	}
	m := fontURLRe.FindSubmatch(css)
	if m == nil {
		return nil, fmt.Errorf("no font url in css for %s wght@%s", family, weight)
	}
	fontURL := string(m[1])

	fontReq, err := retryablehttp.NewRequest(http.MethodGet, fontURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	data, err := get(fontReq, 10<<20)
	if err != nil {
		return nil, fmt.Errorf("downloading font file: %w", err)
	}
	if data, err = toSFNT(fontURL, data); err != nil {
		return nil, err
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			slog.Warn("failed to create font cache dir", "dir", cacheDir, "error", err)
		} else if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
			slog.Warn("failed to cache font", "path", cacheFile, "error", err)
		}
	}
	return data, nil
}

// get performs req and returns at most limit bytes of a 200 response body.
func get(req *retryablehttp.Request, limit int64) ([]byte, error) {
	resp, err := getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", req.URL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
