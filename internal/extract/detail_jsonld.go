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

// jsonLDStrategy reads the standards-based JobPosting markup embedded in
// detail pages. Highest-fidelity source, so it runs first.
type jsonLDStrategy struct{}

func (s *jsonLDStrategy) Name() string { return "jsonld-jobposting" }

type jsonLDDocument struct {
	Type         any             `json:"@type"`
	Graph        []jsonLDPosting `json:"@graph"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	DatePosted   string          `json:"datePosted"`
	Employment   any             `json:"employmentType"`
	Organization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	Location   jsonLDLocations `json:"jobLocation"`
	BaseSalary struct {
		Currency string `json:"currency"`
		Value    struct {
			MinValue json.Number `json:"minValue"`
			MaxValue json.Number `json:"maxValue"`
			Value    json.Number `json:"value"`
			UnitText string      `json:"unitText"`
		} `json:"value"`
	} `json:"baseSalary"`
}

type jsonLDPosting = jsonLDDocument

// jsonLDLocations tolerates both a single place object and an array.
type jsonLDLocations []jsonLDPlace

type jsonLDPlace struct {
	Address struct {
		Locality string `json:"addressLocality"`
		Region   string `json:"addressRegion"`
		Country  string `json:"addressCountry"`
	} `json:"address"`
}

func (l *jsonLDLocations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '[' {
		type alias jsonLDLocations
		var arr alias
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*l = jsonLDLocations(arr)
		return nil
	}
	var single jsonLDPlace
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = jsonLDLocations{single}
	return nil
}

func (s *jsonLDStrategy) Extract(body []byte, _ *url.URL) (scrape.DetailRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrape.DetailRecord{}, fmt.Errorf("parse document: %w", err)
	}

	var (
		record   scrape.DetailRecord
		parseErr error
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		raw := strings.TrimSpace(script.Text())
		if raw == "" {
			return true
		}
		var ld jsonLDDocument
		if err := json.Unmarshal([]byte(raw), &ld); err != nil {
			parseErr = &scrape.MalformedDataError{Strategy: s.Name(), Err: err}
			return true
		}
		if posting, ok := findJobPosting(ld); ok {
			record = postingToRecord(posting)
			parseErr = nil
			return false
		}
		return true
	})

	if record.Empty() && parseErr != nil {
		return scrape.DetailRecord{}, parseErr
	}
	return record, nil
}

// findJobPosting locates a JobPosting node either at the document root or
// inside an @graph array.
func findJobPosting(ld jsonLDDocument) (jsonLDPosting, bool) {
	if isJobPostingType(ld.Type) {
		return ld, true
	}
	for _, node := range ld.Graph {
		if isJobPostingType(node.Type) {
			return node, true
		}
	}
	return jsonLDPosting{}, false
}

// isJobPostingType handles both a bare string and an array of types.
func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func postingToRecord(p jsonLDPosting) scrape.DetailRecord {
	record := scrape.DetailRecord{
		Title:          scrape.CleanText(p.Title),
		Company:        scrape.CleanText(p.Organization.Name),
		Location:       jsonLDLocationString(p.Location),
		Salary:         jsonLDSalaryString(p),
		EmploymentType: employmentTypeString(p.Employment),
		DatePosted:     strings.TrimSpace(p.DatePosted),
	}
	if strings.TrimSpace(p.Description) != "" {
		record.DescriptionHTML = strings.TrimSpace(p.Description)
		record.DescriptionText = scrape.CleanText(p.Description)
	}
	return record
}

func jsonLDLocationString(locations jsonLDLocations) string {
	for _, place := range locations {
		parts := make([]string, 0, 3)
		for _, part := range []string{place.Address.Locality, place.Address.Region, place.Address.Country} {
			if strings.TrimSpace(part) != "" {
				parts = append(parts, strings.TrimSpace(part))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	return ""
}

func jsonLDSalaryString(p jsonLDPosting) string {
	value := p.BaseSalary.Value
	unit := strings.ToLower(strings.TrimSpace(value.UnitText))
	currency := strings.TrimSpace(p.BaseSalary.Currency)
	format := func(n json.Number) string {
		s := n.String()
		if s == "" {
			return ""
		}
		if currency != "" {
			return currency + " " + s
		}
		return s
	}
	switch {
	case value.MinValue.String() != "" && value.MaxValue.String() != "":
		s := format(value.MinValue) + " - " + value.MaxValue.String()
		if unit != "" {
			s += " per " + unit
		}
		return s
	case value.Value.String() != "":
		s := format(value.Value)
		if unit != "" {
			s += " per " + unit
		}
		return s
	default:
		return ""
	}
}

func employmentTypeString(v any) string {
	switch t := v.(type) {
	case string:
		return scrape.CleanText(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, scrape.CleanText(s))
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
