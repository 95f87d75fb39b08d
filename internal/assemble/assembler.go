// Package assemble merges listing and detail extractions into the persisted
// record shape.
package assemble

import (
	"strings"
	"time"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// Assembler builds JobRecords. The clock stamps scraped_at; assembly itself
// is pure field merging.
type Assembler struct {
	clock scrape.Clock
}

// New returns an Assembler stamping records with clock.
func New(clock scrape.Clock) *Assembler {
	return &Assembler{clock: clock}
}

// Assemble merges a listing record with an optional detail record. Detail
// fields win where present; listing fields back-fill; anything still empty
// carries the not-available sentinel so every field in the output is defined.
func (a *Assembler) Assemble(listing scrape.ListingRecord, detail *scrape.DetailRecord) scrape.JobRecord {
	if detail == nil {
		detail = &scrape.DetailRecord{}
	}

	record := scrape.JobRecord{
		Title:           firstNonEmpty(detail.Title, listing.Title),
		Company:         firstNonEmpty(detail.Company, listing.Company),
		Location:        firstNonEmpty(detail.Location, listing.Location),
		Salary:          firstNonEmpty(detail.Salary, listing.Salary),
		EmploymentType:  firstNonEmpty(detail.EmploymentType),
		DatePosted:      firstNonEmpty(detail.DatePosted),
		DescriptionText: firstNonEmpty(detail.DescriptionText, listing.Summary),
		DescriptionHTML: firstNonEmpty(detail.DescriptionHTML),
		URL:             firstNonEmpty(listing.DetailURL),
		Source:          scrape.Source,
		ScrapedAt:       a.clock.Now().UTC().Format(time.RFC3339),
	}

	return record
}

// firstNonEmpty returns the first candidate with content, or the
// not-available sentinel when none has any.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return scrape.NotAvailable
}
