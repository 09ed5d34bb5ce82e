// Package urlcheck validates user-submitted post URLs before any
// subprocess is spawned for them.
package urlcheck

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrNotAPostURL = errors.New("not an X/Twitter post URL")

// statusPath matches /<handle>/status/<id> with an optional trailing
// segment such as /video/1.
var statusPath = regexp.MustCompile(`^/[A-Za-z0-9_]{1,15}/status(?:es)?/\d+(?:/.*)?$`)

var allowedHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
}

// Normalize validates that raw points at a single post and returns it
// stripped of query string and fragment, so tracking parameters never
// reach the downloader.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrNotAPostURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrNotAPostURL
	}
	if !allowedHosts[strings.ToLower(u.Host)] {
		return "", ErrNotAPostURL
	}
	if !statusPath.MatchString(u.Path) {
		return "", ErrNotAPostURL
	}

	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

// IsPostURL reports whether raw looks like a single post.
func IsPostURL(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
