// Package identity maintains the pool of reusable simulated-client profiles.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/metrics"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// Profile is a fixed browser header fingerprint an identity presents.
type Profile struct {
	UserAgent      string
	AcceptLanguage string
	SecChUA        string
	SecChUAMobile  string
	SecChUAPlat    string
}

// Identity is one checked-out client: a profile plus its cookie store and
// rotation counters. Owned exclusively by the Pool; never shared across two
// concurrent requests.
type Identity struct {
	ID      string
	Profile Profile
	Jar     http.CookieJar

	created    time.Time
	usage      int
	errorScore int
	retired    bool
}

// Headers builds the outbound header set for this identity.
func (id *Identity) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", id.Profile.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", id.Profile.AcceptLanguage)
	// Accept-Encoding is left to the transport so gzip bodies are decoded
	// transparently.
	h.Set("Cache-Control", "no-cache")
	if id.Profile.SecChUA != "" {
		h.Set("Sec-Ch-Ua", id.Profile.SecChUA)
		h.Set("Sec-Ch-Ua-Mobile", id.Profile.SecChUAMobile)
		h.Set("Sec-Ch-Ua-Platform", id.Profile.SecChUAPlat)
	}
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// Config sets the pool capacity and retirement thresholds.
type Config struct {
	Capacity      int
	MaxUsage      int
	MaxErrorScore int
	MaxAge        time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 8
	}
	if c.MaxUsage <= 0 {
		c.MaxUsage = 30
	}
	if c.MaxErrorScore <= 0 {
		c.MaxErrorScore = 3
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 20 * time.Minute
	}
	return c
}

// ErrExhausted is returned by Acquire when every live identity is checked
// out and the pool is at capacity.
var ErrExhausted = errors.New("identity pool at capacity")

// Pool hands identities out per outstanding request (checkout/checkin) and
// retires them once usage, error score or age exceeds the thresholds.
// Retirement never blocks acquisition; a retired identity is simply not
// returned to the idle set and is replaced lazily, capacity permitting.
type Pool struct {
	mu     sync.Mutex
	cfg    Config
	clock  scrape.Clock
	logger *zap.Logger
	idle   []*Identity
	// live counts identities in circulation: idle plus checked out.
	live   int
	minted int
}

// NewPool constructs a Pool.
func NewPool(cfg Config, clock scrape.Clock, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:    cfg.withDefaults(),
		clock:  clock,
		logger: logger,
	}
}

// Acquire checks out a non-retired identity, minting a fresh one when the
// idle set is empty. Aged-out idle identities are discarded on the way.
func (p *Pool) Acquire() (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	for len(p.idle) > 0 {
		id := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if now.Sub(id.created) >= p.cfg.MaxAge {
			p.retireLocked(id, "age")
			continue
		}
		return id, nil
	}
	return p.mintLocked(now)
}

// CheckIn returns an identity after a request, updating its counters from
// the fetch classification. A blocked or empty classification retires the
// identity on the spot, so the next Acquire (notably the fallback attempt's)
// can never hand back the fingerprint and cookie jar the site just rejected.
// Other outcomes retire on the usage, error-score and age thresholds.
func (p *Pool) CheckIn(id *Identity, status scrape.FetchStatus) {
	if id == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	id.usage++
	switch status {
	case scrape.FetchBlocked:
		id.errorScore += 2
		p.retireLocked(id, "blocked")
		return
	case scrape.FetchEmpty:
		id.errorScore++
		p.retireLocked(id, "empty")
		return
	case scrape.FetchNetworkError:
		id.errorScore++
	case scrape.FetchOK:
	}

	switch {
	case id.usage >= p.cfg.MaxUsage:
		p.retireLocked(id, "usage")
	case id.errorScore >= p.cfg.MaxErrorScore:
		p.retireLocked(id, "errors")
	case p.clock.Now().Sub(id.created) >= p.cfg.MaxAge:
		p.retireLocked(id, "age")
	default:
		p.idle = append(p.idle, id)
	}
}

// Size returns the number of idle identities (primarily for tests).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *Pool) retireLocked(id *Identity, reason string) {
	if id.retired {
		return
	}
	id.retired = true
	p.live--
	metrics.ObserveIdentityRetired(reason)
	p.logger.Debug("identity retired",
		zap.String("identity_id", id.ID),
		zap.String("reason", reason),
		zap.Int("usage", id.usage),
		zap.Int("error_score", id.errorScore),
	)
}

// mintLocked creates a fresh identity, only while the pool is below capacity.
func (p *Pool) mintLocked(now time.Time) (*Identity, error) {
	if p.live >= p.cfg.Capacity {
		return nil, ErrExhausted
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	profile := defaultProfiles[p.minted%len(defaultProfiles)]
	p.minted++
	p.live++
	id := &Identity{
		ID:      fmt.Sprintf("identity-%d", p.minted),
		Profile: profile,
		Jar:     jar,
		created: now,
	}
	p.logger.Debug("identity minted", zap.String("identity_id", id.ID), zap.String("user_agent", profile.UserAgent))
	return id, nil
}

// defaultProfiles are the rotation candidates. Kept to current desktop
// browsers so the client-hint headers stay consistent with the user-agent.
var defaultProfiles = []Profile{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		SecChUA:        `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		SecChUAMobile:  "?0",
		SecChUAPlat:    `"Windows"`,
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.8",
		SecChUA:        `"Chromium";v="125", "Google Chrome";v="125", "Not.A/Brand";v="24"`,
		SecChUAMobile:  "?0",
		SecChUAPlat:    `"macOS"`,
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		SecChUA:        `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUAMobile:  "?0",
		SecChUAPlat:    `"Linux"`,
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
		AcceptLanguage: "en-US,en;q=0.5",
		SecChUA:        "",
		SecChUAMobile:  "",
		SecChUAPlat:    "",
	},
}
