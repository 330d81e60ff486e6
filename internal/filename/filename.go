// Package filename turns client-supplied upload names into names that are
// safe to use as a single storage key.
package filename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength matches the width of documents.filename.
const MaxLength = 255

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sanitize folds name to ASCII, turns path separators and whitespace into
// underscores, drops every character outside [A-Za-z0-9_.-] and trims leading
// and trailing dots and underscores. The result never contains a separator
// and is never "." or "..". It may be empty.
func Sanitize(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return ' '
		case r > unicode.MaxASCII:
			return -1
		}
		return r
	}, folded)

	s := strings.Join(strings.Fields(folded), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// HasPDFExtension reports whether name ends in ".pdf", ignoring case.
func HasPDFExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// IsSafe reports whether name is already in sanitized form and usable as a
// storage key.
func IsSafe(name string) bool {
	return name != "" && len(name) <= MaxLength && Sanitize(name) == name
}
