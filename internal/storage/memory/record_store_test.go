package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func TestRecordStoreDeduplicatesByURL(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	ctx := context.Background()

	first := scrape.JobRecord{URL: "https://www.simplyhired.com/job/k1", Title: "v1"}
	second := scrape.JobRecord{URL: "https://www.simplyhired.com/job/k1", Title: "v2"}
	other := scrape.JobRecord{URL: "https://www.simplyhired.com/job/k2", Title: "other"}

	require.NoError(t, store.Persist(ctx, first))
	require.NoError(t, store.Persist(ctx, other))
	require.NoError(t, store.Persist(ctx, second))

	records := store.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "v2", records[0].Title)
	assert.Equal(t, "other", records[1].Title)
	assert.Equal(t, 2, store.Len())
}
