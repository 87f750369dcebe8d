package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugPlaceholder = "producto"

var (
	// letters with no canonical decomposition to a base letter
	letterFolder = strings.NewReplacer(
		"ø", "o", "ł", "l", "đ", "d", "ð", "d", "ħ", "h", "ı", "i",
		"ß", "ss", "æ", "ae", "œ", "oe", "þ", "th",
	)
	slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace = regexp.MustCompile(`\s+`)
	slugDash  = regexp.MustCompile(`-{2,}`)
)

// foldAccents drops combining marks after canonical decomposition, so "ó"
// becomes "o". A transformer is stateful, so each call builds its own chain.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, letterFolder.Replace(s))
	if err != nil {
		return s
	}
	return out
}

func Slugify(name string) string {
	s := foldAccents(strings.ToLower(strings.TrimSpace(name)))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return slugPlaceholder
	}
	return s
}
