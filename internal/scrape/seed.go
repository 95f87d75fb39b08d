package scrape

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BaseURL is the search host all relative locators resolve against.
const BaseURL = "https://www.simplyhired.com"

// remoteSentinel is the location value the site uses for remote-only search.
const remoteSentinel = "Remote"

// SeedURLs builds the initial listing locators for a query. Explicit seed
// URLs take precedence; otherwise the keywords, location (or the remote
// sentinel) and freshness filter are encoded against the search path.
// Returns ErrNoSeeds when neither seeds nor keywords are usable.
func SeedURLs(query SearchQuery) ([]string, error) {
	if len(query.SeedURLs) > 0 {
		seeds := make([]string, 0, len(query.SeedURLs))
		for _, raw := range query.SeedURLs {
			normalized, err := NormalizeURL(raw)
			if err != nil {
				return nil, fmt.Errorf("seed url %q: %w", raw, err)
			}
			seeds = append(seeds, normalized)
		}
		return seeds, nil
	}

	keywords := strings.TrimSpace(query.Keywords)
	if keywords == "" {
		return nil, ErrNoSeeds
	}

	values := url.Values{}
	values.Set("q", keywords)
	switch {
	case query.Remote:
		values.Set("l", remoteSentinel)
	case strings.TrimSpace(query.Location) != "":
		values.Set("l", strings.TrimSpace(query.Location))
	}
	if query.FreshnessDays > 0 {
		values.Set("t", strconv.Itoa(query.FreshnessDays))
	}

	return []string{BaseURL + "/search?" + values.Encode()}, nil
}

// NormalizeURL standardizes a URL to avoid duplicate visits. It lowercases
// the scheme and host, removes default ports and fragments, and sorts query
// parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// ResolveURL turns a possibly relative href into an absolute URL against base.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return base.ResolveReference(ref).String()
}
