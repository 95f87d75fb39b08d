// Package paginate resolves the successor listing locator from whatever
// pagination signal the current page exposed: an opaque cursor, a concrete
// next-page URL, or nothing.
package paginate

import (
	"net/url"
	"sync"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/extract"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// cursorParam carries the pagination cursor on search requests.
const cursorParam = "cursor"

// Resolver composes successor listing URLs. Once a build token has been
// observed in embedded page state, cursor-based successors switch to the
// versioned JSON endpoint, which is cheaper to fetch and parse than the
// rendered page.
type Resolver struct {
	mu         sync.Mutex
	buildToken string
}

// NewResolver returns a Resolver with no build token observed yet.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ObserveBuildToken records the latest non-empty build token. Tokens rotate
// when the site redeploys, so later observations win.
func (r *Resolver) ObserveBuildToken(token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	r.buildToken = token
	r.mu.Unlock()
}

// BuildToken returns the most recently observed build token, if any.
func (r *Resolver) BuildToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildToken
}

// ResolveNext returns the successor listing URL for the page that produced
// out, or ok=false when the page exposed no successor. Signal precedence:
// cursor first, then a concrete next-page URL.
func (r *Resolver) ResolveNext(out extract.ListingOutput, currentURL string) (string, bool) {
	r.ObserveBuildToken(out.BuildToken)

	if out.NextCursor != "" {
		return r.cursorURL(currentURL, out.NextCursor), true
	}
	if out.NextURL != "" {
		if normalized, err := scrape.NormalizeURL(out.NextURL); err == nil {
			return normalized, true
		}
		return out.NextURL, true
	}
	return "", false
}

// cursorURL carries the current search parameters forward and swaps in the
// new cursor. With a known build token the successor targets the versioned
// JSON endpoint; without one it stays on the rendered search path.
func (r *Resolver) cursorURL(currentURL, cursor string) string {
	values := url.Values{}
	if current, err := url.Parse(currentURL); err == nil {
		values = current.Query()
	}
	values.Set(cursorParam, cursor)

	if token := r.BuildToken(); token != "" {
		return scrape.BaseURL + "/_next/data/" + token + "/search.json?" + values.Encode()
	}
	return scrape.BaseURL + "/search?" + values.Encode()
}
