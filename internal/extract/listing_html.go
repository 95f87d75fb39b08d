package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// listingHTMLStrategy is the last-resort listing extractor: structural
// heuristics over the server-rendered markup, with several selector
// generations tried in sequence until one yields a non-empty card set.
type listingHTMLStrategy struct{}

func (s *listingHTMLStrategy) Name() string { return "html-heuristic" }

// cardSelectors are tried in order; the site has shipped all of these at
// some point.
var cardSelectors = []string{
	`[data-testid="searchSerpJob"]`,
	`article[class*="SerpJob"]`,
	`li.job-listing`,
	`div.card[data-jobkey]`,
}

var listingFieldChains = map[string][]string{
	"title":    {`[data-testid="searchSerpJobTitle"]`, `h2 a`, `h3 a`, `a.card-link`},
	"company":  {`[data-testid="companyName"]`, `span[class*="companyName"]`, `span.company`},
	"location": {`[data-testid="searchSerpJobLocation"]`, `span[class*="location"]`, `span.jobposting-location`},
	"salary":   {`[data-testid="searchSerpJobSalaryEst"]`, `[data-testid="searchSerpJobSalaryConfirmed"]`, `p[class*="salary"]`},
	"summary":  {`[data-testid="searchSerpJobSnippet"]`, `p[class*="Snippet"]`, `p.jobposting-snippet`},
}

var detailLinkChains = []string{
	`[data-testid="searchSerpJobTitle"] a`,
	`h2 a[href]`,
	`h3 a[href]`,
	`a[href*="/job/"]`,
}

// nextPageSelectors identify the successor-page affordance.
var nextPageSelectors = []string{
	`a[data-testid="pageNumberBlockNext"]`,
	`a[rel="next"]`,
	`a[aria-label="Next page"]`,
	`a[aria-label="Next"]`,
}

func (s *listingHTMLStrategy) Extract(body []byte, base *url.URL) (ListingOutput, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ListingOutput{}, fmt.Errorf("parse document: %w", err)
	}

	cards := findFirst(doc.Selection, cardSelectors)
	if cards == nil || cards.Length() == 0 {
		return ListingOutput{}, nil
	}

	var records []scrape.ListingRecord
	cards.Each(func(_ int, card *goquery.Selection) {
		record := scrape.ListingRecord{
			Title:     textFromChain(card, listingFieldChains["title"]),
			Company:   textFromChain(card, listingFieldChains["company"]),
			Location:  textFromChain(card, listingFieldChains["location"]),
			Salary:    textFromChain(card, listingFieldChains["salary"]),
			Summary:   textFromChain(card, listingFieldChains["summary"]),
			DetailURL: detailLink(card, base),
		}
		if record.DetailURL == "" || record.Title == "" {
			return
		}
		records = append(records, record)
	})

	return ListingOutput{
		Listings: records,
		NextURL:  nextPageURL(doc, base),
		Source:   scrape.LocatorHTML,
	}, nil
}

// findFirst returns the matches of the first selector yielding any nodes.
func findFirst(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// textFromChain resolves one field through its selector fallback chain.
func textFromChain(scope *goquery.Selection, chain []string) string {
	for _, sel := range chain {
		if found := scope.Find(sel); found.Length() > 0 {
			if text := scrape.CleanText(found.First().Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func detailLink(card *goquery.Selection, base *url.URL) string {
	for _, sel := range detailLinkChains {
		anchor := card.Find(sel).First()
		if href, ok := anchor.Attr("href"); ok {
			if resolved := scrape.ResolveURL(base, href); resolved != "" {
				return resolved
			}
		}
	}
	// The card itself sometimes carries the key.
	if key, ok := card.Attr("data-jobkey"); ok && strings.TrimSpace(key) != "" {
		return scrape.ResolveURL(base, "/job/"+strings.TrimSpace(key))
	}
	return ""
}

// nextPageURL scans for a next-page affordance: an anchor whose rel,
// accessible label or visible text marks it as the successor.
func nextPageURL(doc *goquery.Document, base *url.URL) string {
	for _, sel := range nextPageSelectors {
		anchor := doc.Find(sel).First()
		if href, ok := anchor.Attr("href"); ok {
			if resolved := scrape.ResolveURL(base, href); resolved != "" {
				return resolved
			}
		}
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToLower(scrape.CleanText(a.Text()))
		if label == "next" || strings.HasPrefix(label, "next ") {
			if href, ok := a.Attr("href"); ok {
				found = scrape.ResolveURL(base, href)
				return false
			}
		}
		return true
	})
	return found
}
