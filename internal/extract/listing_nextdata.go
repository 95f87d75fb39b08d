package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// nextDataScriptID is the script tag carrying the embedded page state.
const nextDataScriptID = "#__NEXT_DATA__"

// pageState mirrors the subset of the embedded JSON blob the cascade needs.
type pageState struct {
	BuildID string `json:"buildId"`
	Props   struct {
		PageProps pageProps `json:"pageProps"`
	} `json:"props"`
}

type pageProps struct {
	SearchResults searchResults `json:"searchResults"`
}

type searchResults struct {
	Jobs     []stateJob `json:"jobs"`
	PageInfo struct {
		NextPageToken string `json:"nextPageToken"`
	} `json:"pageInfo"`
}

type stateJob struct {
	JobKey     string `json:"jobKey"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	Location   string `json:"location"`
	SalaryInfo string `json:"salaryInfo"`
	Snippet    string `json:"snippet"`
}

// nextDataStrategy pulls records out of the page-state JSON blob embedded in
// server-rendered listing pages. It is also the only source of the build
// token that unlocks the versioned data endpoint.
type nextDataStrategy struct{}

func (s *nextDataStrategy) Name() string { return "embedded-state" }

func (s *nextDataStrategy) Extract(body []byte, base *url.URL) (ListingOutput, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ListingOutput{}, fmt.Errorf("parse document: %w", err)
	}
	raw := strings.TrimSpace(doc.Find(nextDataScriptID).Text())
	if raw == "" {
		return ListingOutput{}, nil
	}

	var state pageState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ListingOutput{}, &scrape.MalformedDataError{Strategy: s.Name(), Err: err}
	}

	out := ListingOutput{
		Listings:   stateJobsToRecords(state.Props.PageProps.SearchResults.Jobs, base),
		NextCursor: state.Props.PageProps.SearchResults.PageInfo.NextPageToken,
		BuildToken: state.BuildID,
		Source:     scrape.LocatorEmbedded,
	}
	return out, nil
}

// stateJobsToRecords converts embedded job entries to partial records,
// dropping entries without a key to resolve a detail page from.
func stateJobsToRecords(jobs []stateJob, base *url.URL) []scrape.ListingRecord {
	records := make([]scrape.ListingRecord, 0, len(jobs))
	for _, job := range jobs {
		if strings.TrimSpace(job.JobKey) == "" {
			continue
		}
		records = append(records, scrape.ListingRecord{
			Title:     scrape.CleanText(job.Title),
			Company:   scrape.CleanText(job.Company),
			Location:  scrape.CleanText(job.Location),
			Salary:    scrape.CleanText(job.SalaryInfo),
			Summary:   scrape.CleanText(job.Snippet),
			DetailURL: scrape.ResolveURL(base, "/job/"+job.JobKey),
		})
	}
	return records
}
