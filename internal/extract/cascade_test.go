package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://www.simplyhired.com/search?q=data+scientist&l=Remote")
	require.NoError(t, err)
	return base
}

const embeddedListingPage = `<!DOCTYPE html>
<html><head>
<script id="__NEXT_DATA__" type="application/json">
{
  "buildId": "b41d-20260815",
  "props": {"pageProps": {"searchResults": {
    "jobs": [
      {"jobKey": "k1", "title": "Data Scientist", "company": "Acme Corp", "location": "Remote", "salaryInfo": "$120k - $150k", "snippet": "Build &amp; ship models"},
      {"jobKey": "k2", "title": "ML Engineer", "company": "Globex", "location": "Austin, TX", "salaryInfo": "", "snippet": "Pipelines"},
      {"jobKey": "", "title": "Ghost entry without key", "company": "", "location": "", "salaryInfo": "", "snippet": ""}
    ],
    "pageInfo": {"nextPageToken": "cursor-p2"}
  }}}
}
</script>
</head><body>
<article class="SerpJob">
  <h2><a href="/job/html-only">HTML Card That Must Lose</a></h2>
</article>
</body></html>`

func TestCascade_EmbeddedStateWinsOverHTML(t *testing.T) {
	t.Parallel()
	cascade := NewCascade(zap.NewNop())

	out := cascade.ExtractListing([]byte(embeddedListingPage), mustBase(t))
	require.Len(t, out.Listings, 2)
	assert.Equal(t, "embedded-state", out.Strategy)
	assert.Equal(t, scrape.LocatorEmbedded, out.Source)
	assert.Equal(t, "cursor-p2", out.NextCursor)
	assert.Equal(t, "b41d-20260815", out.BuildToken)

	first := out.Listings[0]
	assert.Equal(t, "Data Scientist", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Build & ship models", first.Summary)
	assert.Equal(t, "https://www.simplyhired.com/job/k1", first.DetailURL)
}

func TestCascade_Idempotent(t *testing.T) {
	t.Parallel()
	cascade := NewCascade(zap.NewNop())
	base := mustBase(t)

	first := cascade.ExtractListing([]byte(embeddedListingPage), base)
	second := cascade.ExtractListing([]byte(embeddedListingPage), base)
	assert.Equal(t, first, second)
}

func TestCascade_MalformedEmbeddedFallsThroughToHTML(t *testing.T) {
	t.Parallel()
	cascade := NewCascade(zap.NewNop())

	page := `<html><head>
<script id="__NEXT_DATA__" type="application/json">{not valid json</script>
</head><body>
<article class="SerpJob">
  <h2><a href="/job/abc123">Backend Engineer</a></h2>
  <span class="companyName">Initech</span>
  <span class="location">Chicago, IL</span>
</article>
<a rel="next" href="/search?q=x&amp;pn=2">Next</a>
</body></html>`

	out := cascade.ExtractListing([]byte(page), mustBase(t))
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "html-heuristic", out.Strategy)
	assert.Equal(t, scrape.LocatorHTML, out.Source)
	assert.Equal(t, "Backend Engineer", out.Listings[0].Title)
	assert.Equal(t, "https://www.simplyhired.com/job/abc123", out.Listings[0].DetailURL)
	assert.Equal(t, "https://www.simplyhired.com/search?q=x&pn=2", out.NextURL)
}

func TestCascade_DataAPIPayload(t *testing.T) {
	t.Parallel()
	cascade := NewCascade(zap.NewNop())

	payload := `{"pageProps": {"searchResults": {
      "jobs": [{"jobKey": "api-1", "title": "Analyst", "company": "Hooli", "location": "Remote", "salaryInfo": "$90k", "snippet": "SQL"}],
      "pageInfo": {"nextPageToken": "cursor-p3"}
    }}}`

	out := cascade.ExtractListing([]byte(payload), mustBase(t))
	require.Len(t, out.Listings, 1)
	assert.Equal(t, "data-api", out.Strategy)
	assert.Equal(t, scrape.LocatorAPI, out.Source)
	assert.Equal(t, "cursor-p3", out.NextCursor)
	assert.Equal(t, "https://www.simplyhired.com/job/api-1", out.Listings[0].DetailURL)
}

func TestCascade_NoDataIsZeroOutput(t *testing.T) {
	t.Parallel()
	cascade := NewCascade(zap.NewNop())

	out := cascade.ExtractListing([]byte("<html><body><p>nothing here</p></body></html>"), mustBase(t))
	assert.Empty(t, out.Listings)
	assert.Empty(t, out.NextCursor)
	assert.Empty(t, out.NextURL)
}
