// Package extract implements the adaptive extraction cascade: an ordered set
// of stage-specific strategies evaluated until one produces records.
package extract

import (
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/metrics"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// ListingOutput is what a winning listing-stage strategy hands back.
type ListingOutput struct {
	Listings []scrape.ListingRecord
	// NextCursor is an opaque token carried by embedded/API payloads.
	NextCursor string
	// NextURL is an absolute successor URL found by the HTML heuristics.
	NextURL string
	// BuildToken is the versioned-endpoint token observed in embedded data.
	BuildToken string
	Source     scrape.LocatorSource
	Strategy   string
}

// ListingStrategy extracts partial records from a listing payload.
type ListingStrategy interface {
	Name() string
	Extract(body []byte, base *url.URL) (ListingOutput, error)
}

// DetailStrategy extracts the full field set from a detail payload.
type DetailStrategy interface {
	Name() string
	Extract(body []byte, base *url.URL) (scrape.DetailRecord, error)
}

// Cascade evaluates strategies in a fixed priority order per stage; the
// first strategy returning at least one record wins and no merging happens
// across strategies within one page.
type Cascade struct {
	listing []ListingStrategy
	detail  []DetailStrategy
	logger  *zap.Logger
}

// NewCascade builds the default cascade: embedded page-state JSON, then the
// internal data API payload, then HTML heuristics for listings; structured
// JobPosting markup, then attribute HTML containers for details.
func NewCascade(logger *zap.Logger) *Cascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cascade{
		listing: []ListingStrategy{
			&nextDataStrategy{},
			&dataAPIStrategy{},
			&listingHTMLStrategy{},
		},
		detail: []DetailStrategy{
			&jsonLDStrategy{},
			&detailHTMLStrategy{},
		},
		logger: logger,
	}
}

// ExtractListing runs the listing cascade. A zero-value output means no
// strategy produced records; callers treat that as "no data", not an error.
func (c *Cascade) ExtractListing(body []byte, base *url.URL) ListingOutput {
	for _, strategy := range c.listing {
		out, err := strategy.Extract(body, base)
		if err != nil {
			c.logMalformed(strategy.Name(), err)
			continue
		}
		if len(out.Listings) == 0 {
			continue
		}
		out.Strategy = strategy.Name()
		metrics.ObserveStrategyWin(string(scrape.StageListing), strategy.Name())
		return out
	}
	return ListingOutput{}
}

// ExtractDetail runs the detail cascade. Returns nil when no strategy
// produced any field; the assembler then falls back to listing metadata.
func (c *Cascade) ExtractDetail(body []byte, base *url.URL) *scrape.DetailRecord {
	for _, strategy := range c.detail {
		record, err := strategy.Extract(body, base)
		if err != nil {
			c.logMalformed(strategy.Name(), err)
			continue
		}
		if record.Empty() {
			continue
		}
		metrics.ObserveStrategyWin(string(scrape.StageDetail), strategy.Name())
		return &record
	}
	return nil
}

func (c *Cascade) logMalformed(strategy string, err error) {
	var malformed *scrape.MalformedDataError
	if errors.As(err, &malformed) {
		c.logger.Debug("strategy fell through", zap.String("strategy", strategy), zap.Error(err))
		return
	}
	c.logger.Debug("strategy failed", zap.String("strategy", strategy), zap.Error(err))
}
