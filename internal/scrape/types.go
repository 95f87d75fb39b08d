package scrape

import "time"

// Stage identifies which crawl phase a fetch or extraction belongs to.
type Stage string

// Crawl stages.
const (
	StageListing Stage = "listing"
	StageDetail  Stage = "detail"
)

// FetchStatus classifies the outcome of a single fetch.
type FetchStatus string

// Fetch classifications consumed by the retry loop.
const (
	FetchOK           FetchStatus = "ok"
	FetchBlocked      FetchStatus = "blocked"
	FetchEmpty        FetchStatus = "empty"
	FetchNetworkError FetchStatus = "network_error"
)

// SearchQuery describes one harvest run. Immutable once the run starts.
type SearchQuery struct {
	Keywords      string   `json:"keywords" mapstructure:"keywords"`
	Location      string   `json:"location" mapstructure:"location"`
	Remote        bool     `json:"remote" mapstructure:"remote"`
	FreshnessDays int      `json:"freshness_days" mapstructure:"freshness_days"`
	SeedURLs      []string `json:"seed_urls" mapstructure:"seed_urls"`
}

// FetchResult is produced per request and consumed immediately by extraction.
type FetchResult struct {
	Status       FetchStatus
	StatusCode   int
	Body         []byte
	FinalURL     string
	Duration     time.Duration
	UsedFallback bool
}

// OK reports whether the fetch produced a usable payload.
func (r FetchResult) OK() bool {
	return r.Status == FetchOK
}

// ListingRecord is the partial record extracted from a search results page.
type ListingRecord struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Salary    string `json:"salary"`
	Summary   string `json:"summary"`
	DetailURL string `json:"detail_url"`
}

// DetailRecord is the full field set extracted from a job detail page.
type DetailRecord struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Salary          string `json:"salary"`
	EmploymentType  string `json:"employment_type"`
	DatePosted      string `json:"date_posted"`
	DescriptionText string `json:"description_text"`
	DescriptionHTML string `json:"description_html"`
}

// Empty reports whether no field carries a value.
func (d DetailRecord) Empty() bool {
	return d == DetailRecord{}
}

// NotAvailable is the sentinel written for fields no strategy could fill.
const NotAvailable = "not available"

// Source is the value written into every persisted record's source field.
const Source = "simplyhired"

// JobRecord is the persisted record shape. Every field is a string and is
// never left empty; missing values carry the NotAvailable sentinel.
type JobRecord struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Salary          string `json:"salary"`
	EmploymentType  string `json:"employment_type"`
	DatePosted      string `json:"date_posted"`
	DescriptionText string `json:"description_text"`
	DescriptionHTML string `json:"description_html"`
	URL             string `json:"url"`
	Source          string `json:"source"`
	ScrapedAt       string `json:"scraped_at"`
}

// TaskKind distinguishes listing-page tasks from detail-page tasks.
type TaskKind string

// Task kinds processed by the worker pool.
const (
	TaskListing TaskKind = "listing"
	TaskDetail  TaskKind = "detail"
)

// Task is one unit of work on the shared queue. Listing tasks carry a page
// index; detail tasks carry the partial listing record they were admitted for.
type Task struct {
	ID        string
	Kind      TaskKind
	URL       string
	PageIndex int
	Attempt   int
	Listing   *ListingRecord
}

// LocatorSource records which extraction path produced a next-page locator.
type LocatorSource string

// Locator sources.
const (
	LocatorEmbedded LocatorSource = "embedded"
	LocatorAPI      LocatorSource = "api"
	LocatorHTML     LocatorSource = "html"
)

// PaginationState tracks the listing chain for a single query.
type PaginationState struct {
	PageIndex int
	Next      string
	Source    LocatorSource
}
