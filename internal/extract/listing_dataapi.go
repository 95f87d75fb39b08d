package extract

import (
	"bytes"
	"encoding/json"
	"net/url"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// dataAPIStrategy parses the bare JSON payload served by the versioned data
// endpoint. The endpoint itself only becomes reachable once a build token
// has been observed by the embedded-state strategy on an earlier page.
type dataAPIStrategy struct{}

func (s *dataAPIStrategy) Name() string { return "data-api" }

type dataAPIPayload struct {
	PageProps pageProps `json:"pageProps"`
}

func (s *dataAPIStrategy) Extract(body []byte, base *url.URL) (ListingOutput, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Not a JSON document; let the HTML heuristics have it.
		return ListingOutput{}, nil
	}

	var payload dataAPIPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return ListingOutput{}, &scrape.MalformedDataError{Strategy: s.Name(), Err: err}
	}

	return ListingOutput{
		Listings:   stateJobsToRecords(payload.PageProps.SearchResults.Jobs, base),
		NextCursor: payload.PageProps.SearchResults.PageInfo.NextPageToken,
		Source:     scrape.LocatorAPI,
	}, nil
}
