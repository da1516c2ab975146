package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify transforme un nom en slug: "Pelles sur chenilles" -> "pelles-sur-chenilles"
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = strings.ToLower(plain)
	plain = nonSlugChars.ReplaceAllString(plain, "-")
	return strings.Trim(plain, "-")
}

// NormalizeSlug nettoie un slug fourni, ou le dérive du nom s'il est vide
func NormalizeSlug(slug, nom string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return Slugify(nom)
	}
	return slug
}
