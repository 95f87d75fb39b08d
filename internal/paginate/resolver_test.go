package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/extract"
)

func TestResolveNext_CursorWithoutToken(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()

	next, ok := resolver.ResolveNext(
		extract.ListingOutput{NextCursor: "cursor-p2"},
		"https://www.simplyhired.com/search?l=Remote&q=data+scientist",
	)
	require.True(t, ok)
	assert.Equal(t, "https://www.simplyhired.com/search?cursor=cursor-p2&l=Remote&q=data+scientist", next)
}

func TestResolveNext_CursorWithTokenUsesDataEndpoint(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()

	next, ok := resolver.ResolveNext(
		extract.ListingOutput{NextCursor: "cursor-p2", BuildToken: "b41d-20260815"},
		"https://www.simplyhired.com/search?q=golang",
	)
	require.True(t, ok)
	assert.Equal(t, "https://www.simplyhired.com/_next/data/b41d-20260815/search.json?cursor=cursor-p2&q=golang", next)
	assert.Equal(t, "b41d-20260815", resolver.BuildToken())
}

func TestResolveNext_CursorReplacedOnDataURL(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()
	resolver.ObserveBuildToken("b41d-20260815")

	next, ok := resolver.ResolveNext(
		extract.ListingOutput{NextCursor: "cursor-p3"},
		"https://www.simplyhired.com/_next/data/b41d-20260815/search.json?cursor=cursor-p2&q=golang",
	)
	require.True(t, ok)
	assert.Equal(t, "https://www.simplyhired.com/_next/data/b41d-20260815/search.json?cursor=cursor-p3&q=golang", next)
}

func TestResolveNext_LaterTokenWins(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()
	resolver.ObserveBuildToken("stale")
	resolver.ObserveBuildToken("fresh")
	resolver.ObserveBuildToken("")

	assert.Equal(t, "fresh", resolver.BuildToken())
}

func TestResolveNext_FallsBackToNextURL(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()

	next, ok := resolver.ResolveNext(
		extract.ListingOutput{NextURL: "https://www.simplyhired.com/search?pn=2&q=x#results"},
		"https://www.simplyhired.com/search?q=x",
	)
	require.True(t, ok)
	assert.Equal(t, "https://www.simplyhired.com/search?pn=2&q=x", next)
}

func TestResolveNext_Terminal(t *testing.T) {
	t.Parallel()
	resolver := NewResolver()

	next, ok := resolver.ResolveNext(extract.ListingOutput{}, "https://www.simplyhired.com/search?q=x")
	assert.False(t, ok)
	assert.Empty(t, next)
}
