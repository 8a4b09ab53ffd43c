package miner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"samlib/internal/fetch"
)

var (
	ErrInvalidURL     = errors.New("invalid author URL")
	ErrAuthorNotFound = errors.New("author page not found")
)

// Author pages live under /<letter>/<name>/ where the letter repeats the
// name's first character. Users may paste the full form with or without a
// scheme and domain, or just the meaningful tail.
var (
	reFullAuthorURL = regexp.MustCompile(
		`(?i)^(?:http://(?:samlib\.ru|zhurnal\.lib\.ru))?(/?([a-z])/([a-z])[a-z0-9_-]+/?).*$`)
	reBareAuthorURL = regexp.MustCompile(`(?i)^([a-z0-9_-]+/?)$`)
)

// CanonicalAuthorURL normalises a user-supplied author URL to the full
// http://<domain>/<letter>/<name>[/] form. The site-relative part for
// storage is obtained by stripping the domain off the result.
func CanonicalAuthorURL(protocol, domain, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}
	if m := reFullAuthorURL.FindStringSubmatch(url); m != nil && strings.EqualFold(m[2], m[3]) {
		return fetch.ToURL(protocol, domain, m[1]), nil
	}
	if m := reBareAuthorURL.FindStringSubmatch(url); m != nil {
		return fetch.ToURL(protocol, domain, m[1][:1], m[1]), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
}
