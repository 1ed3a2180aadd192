package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a free-text name for lookup purposes: NFC
// unicode normalization, whitespace collapsed to single spaces, trimmed,
// lowercased. Two names that normalize equal resolve to the same entity.
func NormalizeName(name string) string {
	name = norm.NFC.String(name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.ToLower(name)
}
