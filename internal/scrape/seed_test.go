package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedURLs_Keywords(t *testing.T) {
	t.Parallel()

	seeds, err := SeedURLs(SearchQuery{Keywords: "data scientist", Location: "Austin, TX", FreshnessDays: 7})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "https://www.simplyhired.com/search?l=Austin%2C+TX&q=data+scientist&t=7", seeds[0])
}

func TestSeedURLs_RemoteOverridesLocation(t *testing.T) {
	t.Parallel()

	seeds, err := SeedURLs(SearchQuery{Keywords: "golang", Location: "Berlin", Remote: true})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Contains(t, seeds[0], "l=Remote")
	assert.NotContains(t, seeds[0], "Berlin")
}

func TestSeedURLs_ExplicitSeedsWin(t *testing.T) {
	t.Parallel()

	seeds, err := SeedURLs(SearchQuery{
		Keywords: "ignored",
		SeedURLs: []string{"https://www.simplyhired.com/search?q=nurse#results"},
	})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, "https://www.simplyhired.com/search?q=nurse", seeds[0])
}

func TestSeedURLs_NoUsableQuery(t *testing.T) {
	t.Parallel()

	_, err := SeedURLs(SearchQuery{Location: "Remote only, no keywords"})
	require.ErrorIs(t, err, ErrNoSeeds)
}

func TestSeedURLs_RejectsRelativeSeed(t *testing.T) {
	t.Parallel()

	_, err := SeedURLs(SearchQuery{SeedURLs: []string{"/search?q=nurse"}})
	require.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://WWW.SimplyHired.com/Search", "https://www.simplyhired.com/Search"},
		{"drops default port", "https://www.simplyhired.com:443/search", "https://www.simplyhired.com/search"},
		{"drops fragment", "https://www.simplyhired.com/search?q=a#top", "https://www.simplyhired.com/search?q=a"},
		{"sorts query", "https://www.simplyhired.com/search?t=1&q=a&l=b", "https://www.simplyhired.com/search?l=b&q=a&t=1"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
