package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// StripDiacritics turns "Código de Artículo" into "Codigo de Articulo".
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases, strips accents and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
}

// NormalizeKey collapses a JSON key down to its bare identifier: lowercase,
// no accents, no whitespace or separator runes. "Código de Artículo",
// "codigo_de_articulo" and "CodigoDeArticulo" all map to the same string.
func NormalizeKey(s string) string {
	s = Normalize(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '.', '-', '_', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeID produces the canonical comparison form of an article id.
// Numeric ids keep only their digits so "000142" equals "142"; ids with no
// digits at all fall back to accent/case-insensitive comparison.
func NormalizeID(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return Normalize(s)
	}
	d := strings.TrimLeft(digits.String(), "0")
	if d == "" {
		return "0"
	}
	return d
}

// ContainsFold reports whether needle occurs in s, ignoring case and accents.
func ContainsFold(s, needle string) bool {
	return strings.Contains(Normalize(s), Normalize(needle))
}
