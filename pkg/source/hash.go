package source

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

var uriPattern = regexp.MustCompile(`^\w+://`)

// NormalizeURI lower-cases the scheme and host of a URI-shaped repository
// locator. Userinfo, port, path, query and fragment are kept byte for byte.
// Locators that are not URI-shaped, such as filesystem paths or scp-style
// git@host:path addresses, are returned unchanged.
func NormalizeURI(locator string) string {
	if !uriPattern.MatchString(locator) {
		return locator
	}

	i := strings.Index(locator, "://")
	scheme, rest := locator[:i], locator[i+len("://"):]

	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}
	authority, tail := rest[:end], rest[end:]

	var userinfo string
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		userinfo, authority = authority[:at+1], authority[at+1:]
	}

	return strings.ToLower(scheme) + "://" + userinfo + strings.ToLower(authority) + tail
}

// URIHash returns the hex SHA-1 of the normalized locator. It keys the
// repository's mirror cache directory.
func URIHash(locator string) string {
	sum := sha1.Sum([]byte(NormalizeURI(locator)))
	return hex.EncodeToString(sum[:])
}
