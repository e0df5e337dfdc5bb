package main

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The matching substrate for joining park records across sources is a
// normalized name key. The pipeline below is order-sensitive: role
// vocabulary has to go before punctuation stripping so multi-word
// phrases match before being fragmented.
var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	leadNucleoRe = regexp.MustCompile(`^nucleo\s+`)
	leadPNRe     = regexp.MustCompile(`^pn\s+`)
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
	roleWordsRe  = regexp.MustCompile(`\b(parque nacional marino|parque nacional|reserva nacional|area protegida|sector|nucleo|provincia)\b`)
	separatorRe  = regexp.MustCompile(`[/|]`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a raw place label into a comparable key:
// lowercase, HTML and parenthesized role tags dropped, administrative
// vocabulary removed, diacritics folded, punctuation collapsed.
// Pure and idempotent; empty input yields an empty key.
func NormalizeName(raw string) string {
	s := strings.ToLower(raw)
	s = htmlTagRe.ReplaceAllString(s, " ")

	// Diacritics are folded up front so accented variants of the role
	// vocabulary ("núcleo", "área protegida") match the same rules.
	s = foldDiacritics(s)

	s = leadNucleoRe.ReplaceAllString(s, "")
	s = leadPNRe.ReplaceAllString(s, "")
	s = parenRe.ReplaceAllString(s, "")
	s = roleWordsRe.ReplaceAllString(s, " ")
	s = separatorRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// foldDiacritics decomposes the string and strips combining marks,
// so "Baritú" and "baritu" compare equal after normalization.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
