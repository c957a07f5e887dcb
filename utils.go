package mapfile

import (
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// defaultFileExists reports whether a regular file exists at path, matching
// the original's PathBuf::exists() checks used to classify decomp state.
func defaultFileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// noloadSectionTypes are the section types that occupy VRAM but carry no
// file bytes (BSS-like sections); such sections, and the symbols within
// them, never receive a VROM.
var noloadSectionTypes = map[string]bool{
	".bss":     true,
	".sbss":    true,
	"COMMON":   true,
	".scommon": true,
}

// isNoloadSection reports whether sectionType names a noload section.
func isNoloadSection(sectionType string) bool {
	return noloadSectionTypes[sectionType]
}

// bannedSymbolNames are dropped on sight by every dialect's parser.
var bannedSymbolNames = map[string]bool{
	"gcc2_compiled.": true,
}

// parseHex parses a hexadecimal literal, tolerating an optional "0x" prefix.
func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing hex literal %q", s)
	}
	return v, nil
}

// mustParseHex is parseHex for contexts where the value is already known to
// be a valid hex literal because it was captured by an anchoring regex; a
// malformed capture at that point is a parser bug, not user input.
func mustParseHex(s string) uint64 {
	v, err := parseHex(s)
	if err != nil {
		panic(err)
	}
	return v
}

// pathComponents splits a slash-separated object path into its components,
// mirroring Rust's Path::components() used throughout the original source.
func pathComponents(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	out := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// skipComponents drops the first n path components and rejoins the rest.
func skipComponents(p string, n int) string {
	parts := pathComponents(p)
	if n >= len(parts) {
		return ""
	}
	return path.Join(parts[n:]...)
}

// withoutExtension strips every trailing extension from a path (e.g.
// "asm/foo.c.o" -> "asm/foo"), matching the original's loop:
// `while extensionless_file_path.extension().is_some() { set_extension("") }`.
func withoutExtension(p string) string {
	dir, base := path.Split(p)
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return dir + base
}
