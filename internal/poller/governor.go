package poller

// Governor glyphs, code points from the panel's icon font.
const (
	GlyphPowersave    = "\uf06c"
	GlyphPerformance  = "\uf197"
	GlyphOndemand     = "\uf0e7"
	GlyphConservative = "\ue976"
	GlyphSchedutil    = "\ue953"
	GlyphUserspace    = "\uf007"
)

var governorGlyphs = map[string]string{
	"powersave":    GlyphPowersave,
	"performance":  GlyphPerformance,
	"ondemand":     GlyphOndemand,
	"conservative": GlyphConservative,
	"schedutil":    GlyphSchedutil,
	"userspace":    GlyphUserspace,
}

// GovernorGlyph maps a raw governor name to its glyph. Unknown names get the
// ondemand glyph; an empty name reports false so callers keep what they had.
func GovernorGlyph(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if glyph, ok := governorGlyphs[raw]; ok {
		return glyph, true
	}
	return GlyphOndemand, true
}
