// Package classify decides whether raw address-bar input is a network
// address or a knowledge query.
package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the classification of an input
type Kind int

const (
	Query   Kind = iota // Knowledge-graph query
	Address             // Navigable network address
)

func (k Kind) String() string {
	if k == Address {
		return "address"
	}
	return "query"
}

var (
	schemePattern = regexp.MustCompile(`(?i)^https?://`)
	wwwPattern    = regexp.MustCompile(`(?i)^www\.`)
	tldPattern    = regexp.MustCompile(`(?i)\.[a-z]{2,}(/.*)?$`)
)

const faviconService = "https://www.google.com/s2/favicons?domain=%s&sz=64"

// Classify returns Address for scheme-prefixed, www-prefixed or TLD-suffixed
// input and Query otherwise
func Classify(input string) Kind {
	s := strings.TrimSpace(input)
	if s == "" {
		return Query
	}
	if schemePattern.MatchString(s) || wwwPattern.MatchString(s) || tldPattern.MatchString(s) {
		return Address
	}
	return Query
}

// Target is a navigable address derived from input
type Target struct {
	URL     string `json:"url"`  // Always carries a scheme
	Host    string `json:"host"` // Hostname, or the raw URL when it could not be parsed
	Favicon string `json:"favicon"`
}

// Normalize prepends https:// when the input has no scheme and extracts the
// host label. It never fails: an unparseable address uses the URL itself as
// the host label.
func Normalize(input string) Target {
	s := strings.TrimSpace(input)
	if !schemePattern.MatchString(s) {
		s = "https://" + s
	}

	host := s
	if u, err := url.Parse(s); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	return Target{
		URL:     s,
		Host:    host,
		Favicon: strings.Replace(faviconService, "%s", url.QueryEscape(host), 1),
	}
}
