package tui

import (
	"os"
	"strings"
	"sync"
)

// Some fonts render box and arrow glyphs poorly, so the board can fall back to
// plain ASCII affordances.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference uses the configured set, then TASKBOARD_TUI_GLYPHS.
func applyGlyphPreference(configured string) {
	v := strings.ToLower(strings.TrimSpace(configured))
	if v == "" {
		v = strings.ToLower(strings.TrimSpace(os.Getenv("TASKBOARD_TUI_GLYPHS")))
	}
	switch v {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func pick(unicode, ascii string) string {
	if glyphs() == glyphSetASCII {
		return ascii
	}
	return unicode
}

func glyphEllipsis() string { return pick("…", "...") }
func glyphPrev() string     { return pick("‹", "<") }
func glyphNext() string     { return pick("›", ">") }
func glyphArrow() string    { return pick("→", "->") }
func glyphHandle() string   { return pick("⠿", "::") }
func glyphWarning() string  { return pick("⚠", "!") }
