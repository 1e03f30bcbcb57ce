package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// accents folds the Latin letters that show up in artwork and collection
// titles to ASCII.
var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ş", "s", "ğ", "g",
	"&", " and ",
)

// Generate creates a URL-friendly slug from a title.
//
//	"Maré Alta"           → "mare-alta"
//	"Sun & Salt (2024)"   → "sun-and-salt-2024"
func Generate(title string) string {
	s := accents.Replace(strings.ToLower(strings.TrimSpace(title)))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
