package musicbrainz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdes/aldex/internal/musicbrainz"
	"github.com/qdes/aldex/internal/platform/constants"
)

// memoryCache is a map-backed musicbrainz.Cache.
type memoryCache struct {
	data map[string]string
	sets int
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryCache) Set(_ context.Context, key, value string) {
	c.sets++
	c.data[key] = value
}

const searchPayload = `{
	"release-groups": [
		{"id": "single-high", "title": "Creep", "primary-type": "Single", "score": 100, "count": 4},
		{"id": "album-high", "title": "OK Computer", "primary-type": "Album", "score": 100, "count": 12},
		{"id": "ep-high", "title": "Airbag EP", "primary-type": "EP", "score": 100, "count": 2},
		{"id": "album-low", "title": "Amnesiac", "primary-type": "Album", "score": 80, "count": 9,
		 "artist-credit": [{"name": "Radiohead"}]},
		{"id": "album-high-fewer", "title": "OK Computer OKNOTOK", "primary-type": "Album", "score": 100, "count": 3}
	]
}`

func searchServer(t *testing.T) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchPayload))
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

/*
TestSearchReleaseGroups_Ordering verifies the picker sort: score first,
then Album over EP over Single, then the release count as a tiebreaker.
*/
func TestSearchReleaseGroups_Ordering(t *testing.T) {
	server, _ := searchServer(t)
	client := musicbrainz.NewClient(server.URL, "https://coverartarchive.org", server.Client(), nil)

	groups, err := client.SearchReleaseGroups(context.Background(), "radiohead", 10)
	require.NoError(t, err)
	require.Len(t, groups, 5)

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"album-high", "album-high-fewer", "ep-high", "single-high", "album-low"}, ids)
}

/*
TestSearchReleaseGroups_RequestShape verifies the polite-client contract:
the mandatory User-Agent and JSON format parameters.
*/
func TestSearchReleaseGroups_RequestShape(t *testing.T) {
	server, captured := searchServer(t)
	client := musicbrainz.NewClient(server.URL, "https://coverartarchive.org", server.Client(), nil)

	_, err := client.SearchReleaseGroups(context.Background(), "ok computer", 5)
	require.NoError(t, err)

	assert.Equal(t, constants.MBZUserAgent, captured.Header.Get("User-Agent"))
	assert.Equal(t, "json", captured.URL.Query().Get("fmt"))
	assert.Equal(t, "ok computer", captured.URL.Query().Get("query"))
	assert.Equal(t, "5", captured.URL.Query().Get("limit"))
}

/*
TestSearchReleaseGroups_Cache verifies the read-through behavior: a second
identical search is served from the cache without touching the API.
*/
func TestSearchReleaseGroups_Cache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(searchPayload))
	}))
	t.Cleanup(server.Close)

	cache := &memoryCache{data: map[string]string{}}
	client := musicbrainz.NewClient(server.URL, "https://coverartarchive.org", server.Client(), cache)

	first, err := client.SearchReleaseGroups(context.Background(), "radiohead", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Equal(t, 1, cache.sets)

	second, err := client.SearchReleaseGroups(context.Background(), "radiohead", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "second search must be served from cache")
	assert.Equal(t, first, second)
}

func TestSearchReleaseGroups_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := musicbrainz.NewClient(server.URL, "https://coverartarchive.org", server.Client(), nil)
	_, err := client.SearchReleaseGroups(context.Background(), "radiohead", 10)
	assert.Error(t, err)
}

func TestCoverArtURL(t *testing.T) {
	client := musicbrainz.NewClient("https://musicbrainz.org/ws/2", "https://coverartarchive.org", nil, nil)

	url := client.CoverArtURL("b1392450-e666-3926-a536-22c65f834433")
	assert.Equal(t, "https://coverartarchive.org/release-group/b1392450-e666-3926-a536-22c65f834433/front", url)
}

func TestReleaseGroup_Artist(t *testing.T) {
	rg := musicbrainz.ReleaseGroup{}
	assert.Empty(t, rg.Artist())

	rg.ArtistCredit = []musicbrainz.ArtistCredit{{Name: "Radiohead"}, {Name: "Thom Yorke"}}
	assert.Equal(t, "Radiohead", rg.Artist())
}
