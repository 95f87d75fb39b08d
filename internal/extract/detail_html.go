package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// detailHTMLStrategy resolves each field independently from attribute-based
// containers, every field with its own fallback chain.
type detailHTMLStrategy struct{}

func (s *detailHTMLStrategy) Name() string { return "html-containers" }

var detailFieldChains = map[string][]string{
	"title": {
		`[data-testid="viewJobTitle"]`,
		`h1[class*="ViewJob"]`,
		`h1`,
	},
	"company": {
		`[data-testid="viewJobCompanyName"]`,
		`[data-testid="detailText"] span[class*="company"]`,
		`span[class*="companyName"]`,
	},
	"location": {
		`[data-testid="viewJobCompanyLocation"]`,
		`span[class*="viewJobLocation"]`,
		`span[class*="location"]`,
	},
	"salary": {
		`[data-testid="viewJobBodyJobCompensation"]`,
		`span[class*="salary"]`,
	},
	"employment_type": {
		`[data-testid="viewJobBodyJobEmploymentType"]`,
		`span[class*="jobType"]`,
	},
}

var datePostedChains = []string{
	`[data-testid="viewJobBodyJobPostingTimestamp"]`,
	`time[datetime]`,
	`span[class*="posted"]`,
}

var descriptionChains = []string{
	`[data-testid="viewJobBodyJobFullDescriptionContent"]`,
	`div[class*="viewjob-jobDescription"]`,
	`div[class*="JobDescription"]`,
	`#jobDescriptionText`,
}

func (s *detailHTMLStrategy) Extract(body []byte, _ *url.URL) (scrape.DetailRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrape.DetailRecord{}, fmt.Errorf("parse document: %w", err)
	}

	record := scrape.DetailRecord{
		Title:          textFromChain(doc.Selection, detailFieldChains["title"]),
		Company:        textFromChain(doc.Selection, detailFieldChains["company"]),
		Location:       textFromChain(doc.Selection, detailFieldChains["location"]),
		Salary:         textFromChain(doc.Selection, detailFieldChains["salary"]),
		EmploymentType: textFromChain(doc.Selection, detailFieldChains["employment_type"]),
		DatePosted:     datePosted(doc),
	}

	if desc := findFirst(doc.Selection, descriptionChains); desc != nil {
		markup, err := desc.First().Html()
		if err == nil && strings.TrimSpace(markup) != "" {
			record.DescriptionHTML = strings.TrimSpace(markup)
			record.DescriptionText = scrape.CleanText(markup)
		}
	}

	return record, nil
}

// datePosted prefers the machine-readable datetime attribute over the
// human-facing relative text ("3 days ago").
func datePosted(doc *goquery.Document) string {
	for _, sel := range datePostedChains {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if dt, ok := node.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if text := scrape.CleanText(node.Text()); text != "" {
			return text
		}
	}
	return ""
}
