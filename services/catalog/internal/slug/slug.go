// Package slug derives URL-safe game keys from display names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make converts a name to a key: "Game A" -> "game-a", "Café Über" -> "cafe-uber".
func Make(name string) string {
	s := norm.NFKD.String(name)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// ForLegacy is the key given to a game copied from a legacy product. The id
// suffix keeps it distinct from keys derived from the same name.
func ForLegacy(name string, productID int64) string {
	base := Make(name)
	id := strconv.FormatInt(productID, 10)
	if base == "" {
		return "product-" + id
	}
	return base + "-" + id
}
