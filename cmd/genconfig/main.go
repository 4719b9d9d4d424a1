// Package main implements the genconfig tool that writes config.default.toml
// from config.ExampleConfig(), annotated with config.ConfigDocs.
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/xpcard/internal/config"
)

// outPath is relative to internal/config/, where go generate runs. The repo
// root holds configdata.go, which embeds the file.
const outPath = "../../config.default.toml"

func main() {
	result, err := generate(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "genconfig: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote config.default.toml\n")
}

// ///////////////////////////////////////////////
// Generation
// ///////////////////////////////////////////////

// annotator rewrites encoder output line by line, injecting docs.
type annotator struct {
	docs    map[string]config.FieldDoc
	out     []string
	section []string
	emitted map[string]bool
}

// generate encodes cfg as TOML and annotates every section and key that has
// an entry in docs. Keys missing from the encoder output (omitempty zero
// values) are emitted as commented-out documentation.
func generate(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	a := &annotator{docs: docs, emitted: map[string]bool{}}
	a.out = append(a.out,
		"# ///////////////////////////////////////////////",
		"# xpcard Configuration",
		"# ///////////////////////////////////////////////",
		"",
	)
	for _, line := range strings.Split(raw.String(), "\n") {
		a.line(strings.TrimSpace(line))
	}
	a.flushOmitted()

	return strings.TrimRight(strings.Join(a.out, "\n"), "\n") + "\n", nil
}

func (a *annotator) line(trimmed string) {
	switch {
	case trimmed == "":
		// Spacing is managed here, not by the encoder.
	case strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[["):
		a.flushOmitted()
		name := strings.Trim(trimmed, "[] ")
		a.section = parseSectionPath(name)
		a.out = append(a.out, "", fmt.Sprintf("# ///// %s /////", sectionName(name)), "")
		a.comment(a.docs[name].Comment)
		a.out = append(a.out, trimmed)
	case !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#"):
		a.out = append(a.out, trimmed)
	default:
		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		path := a.path(key)
		a.emitted[path] = true
		doc := a.docs[path]
		a.comment(doc.Comment)
		a.out = append(a.out, trimmed)
		for _, alt := range doc.Alternatives {
			a.out = append(a.out, "# "+alt)
		}
	}
}

func (a *annotator) path(key string) string {
	if len(a.section) == 0 {
		return key
	}
	return strings.Join(a.section, ".") + "." + key
}

func (a *annotator) comment(text string) {
	if text == "" {
		return
	}
	for _, cl := range strings.Split(text, "\n") {
		a.out = append(a.out, "# "+cl)
	}
}

// flushOmitted appends commented-out entries for documented keys of the
// current section that the encoder did not emit. Keys are sorted for
// deterministic output.
func (a *annotator) flushOmitted() {
	if len(a.section) == 0 {
		return
	}
	prefix := strings.Join(a.section, ".") + "."

	var omitted []string
	for path := range a.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, ".") || a.emitted[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := a.docs[path]
		a.out = append(a.out, "")
		a.comment(doc.Comment)
		for _, alt := range doc.Alternatives {
			a.out = append(a.out, "# "+alt)
		}
		a.emitted[path] = true
	}
}

// parseSectionPath splits a dotted TOML section header (e.g. "server.tls")
// into its path segments.
func parseSectionPath(section string) []string {
	return strings.Split(section, ".")
}

// sectionName returns the last dotted segment of section with its first
// letter capitalized. For example, "server.tls" yields "Tls".
func sectionName(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
