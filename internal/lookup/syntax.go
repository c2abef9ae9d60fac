package lookup

import (
	"regexp"
	"strings"
)

// emailPattern is the accepted address grammar: a permissive local part and
// a hostname of dot-separated labels, each 1-63 chars of letters, digits and
// hyphens that neither start nor end with a hyphen.
var emailPattern = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@" +
		"[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		"(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$",
)

// ValidSyntax reports whether the address matches the accepted grammar.
// It does not trim; surrounding whitespace makes the address invalid.
func ValidSyntax(email string) bool {
	return emailPattern.MatchString(email)
}

// SplitAddress splits at the last '@'. Only call it on addresses that
// passed ValidSyntax.
func SplitAddress(email string) (local, domain string) {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return email, ""
	}
	return email[:i], email[i+1:]
}
