package parser

import (
	"regexp"
	"strings"
)

var (
	bulletGlyphs    = regexp.MustCompile(`[•●○◦⚫⬤]`)
	leadingBrackets = regexp.MustCompile(`^[\[\(]+\s*`)
	trailingBracket = regexp.MustCompile(`\s*\]+$`)
	bracketBeforeLv = regexp.MustCompile(`\s*\[Lv`)
)

// CleanText removes the OCR artifacts that tooltip text commonly picks up.
//
// Bullet glyphs are dropped, a fullwidth percent sign becomes '%', a leading
// run of '[' or '(' and a trailing run of ']' are stripped, a '[' glued in
// front of "Lv" becomes a space, and whitespace runs collapse to one space.
//
// The transform is applied until the text stops changing, so
// CleanText(CleanText(s)) == CleanText(s) holds even for inputs such as
// "( [x" where stripping one artifact exposes another.
func CleanText(raw string) string {
	text := raw
	for {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = bulletGlyphs.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "％", "%")
	text = leadingBrackets.ReplaceAllString(text, "")
	text = trailingBracket.ReplaceAllString(text, "")
	text = bracketBeforeLv.ReplaceAllString(text, " Lv")
	return strings.Join(strings.Fields(text), " ")
}
