/*
Package musicbrainz implements the client for the MusicBrainz release-group
search API and the Cover Art Archive URL scheme.

# Etiquette

MusicBrainz grants anonymous clients roughly one request per second and
requires a meaningful User-Agent. The client enforces both itself with a
local [rate.Limiter], so no caller can accidentally get the deployment
blocked. A Redis read-through cache in front of the limiter absorbs repeat
searches entirely.
*/
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"golang.org/x/time/rate"

	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/constants"
)

// ArtistCredit is one credited artist on a release group.
type ArtistCredit struct {
	Name string `json:"name"`
}

// ReleaseGroup is a MusicBrainz release group as returned by the search API.
type ReleaseGroup struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary-type"`
	FirstReleaseDate string         `json:"first-release-date"`
	ArtistCredit     []ArtistCredit `json:"artist-credit"`
	Score            int            `json:"score"`
	ReleaseCount     int            `json:"count"`
}

// Artist returns the first credited artist name, or the empty string.
func (rg ReleaseGroup) Artist() string {
	if len(rg.ArtistCredit) == 0 {
		return ""
	}
	return rg.ArtistCredit[0].Name
}

// searchResponse mirrors the JSON envelope of /ws/2/release-group.
type searchResponse struct {
	ReleaseGroups []ReleaseGroup `json:"release-groups"`
}

// Cache is the read-through cache in front of the MusicBrainz API.
// Implemented by [RedisCache]; a nil-safe no-op is used in tests.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

// Client talks to the MusicBrainz search API.
type Client struct {
	baseURL         string
	coverArtBaseURL string
	httpClient      *http.Client
	limiter         *rate.Limiter
	cache           Cache
}

// NewClient constructs a [Client]. cache may be nil to disable caching.
func NewClient(baseURL, coverArtBaseURL string, httpClient *http.Client, cache Cache) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:         baseURL,
		coverArtBaseURL: coverArtBaseURL,
		httpClient:      httpClient,
		limiter:         rate.NewLimiter(rate.Limit(constants.MBZRequestsPerSecond), 1),
		cache:           cache,
	}
}

/*
SearchReleaseGroups queries the release-group search endpoint.

Results come back ordered for the "add album" picker: best match first,
full albums before EPs before singles, and among equals the most widely
released edition wins.

Parameters:
  - query: Free-text search (matched against title and artist)
  - limit: Maximum number of results to return

Returns:
  - []ReleaseGroup: Sorted search results
  - error: apperr wrapping any transport or upstream failure
*/
func (client *Client) SearchReleaseGroups(ctx context.Context, query string, limit int) ([]ReleaseGroup, error) {
	cacheKey := fmt.Sprintf("%s%d:%s", constants.RedisPrefixMBZSearch, limit, query)

	if client.cache != nil {
		if cached, ok := client.cache.Get(ctx, cacheKey); ok {
			var groups []ReleaseGroup
			if err := json.Unmarshal([]byte(cached), &groups); err == nil {
				return groups, nil
			}
			// Corrupt cache entry: fall through to a live request.
		}
	}

	if err := client.limiter.Wait(ctx); err != nil {
		return nil, apperr.Internal(err)
	}

	endpoint := fmt.Sprintf("%s/release-group?query=%s&fmt=json&limit=%d",
		client.baseURL, url.QueryEscape(query), limit,
	)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	request.Header.Set("User-Agent", constants.MBZUserAgent)
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("musicbrainz search: %w", err))
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperr.Internal(fmt.Errorf("musicbrainz search: unexpected status %d", response.StatusCode))
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, apperr.Internal(fmt.Errorf("musicbrainz search: decode: %w", err))
	}

	groups := payload.ReleaseGroups
	sortReleaseGroups(groups)

	if client.cache != nil {
		if encoded, err := json.Marshal(groups); err == nil {
			client.cache.Set(ctx, cacheKey, string(encoded))
		}
	}

	return groups, nil
}

// CoverArtURL returns the Cover Art Archive front-image URL for a release group.
func (client *Client) CoverArtURL(mbid string) string {
	return fmt.Sprintf("%s/release-group/%s/front", client.coverArtBaseURL, mbid)
}

// typePriority ranks primary types for the picker. Unknown types sort last.
func typePriority(primaryType string) int {
	switch primaryType {
	case "Album":
		return 3
	case "EP":
		return 2
	case "Single":
		return 1
	default:
		return 0
	}
}

// sortReleaseGroups orders results by search score, then primary type
// (Album > EP > Single), then release count. The sort is stable so the
// upstream ordering breaks any remaining ties.
func sortReleaseGroups(groups []ReleaseGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score > groups[j].Score
		}
		if pi, pj := typePriority(groups[i].PrimaryType), typePriority(groups[j].PrimaryType); pi != pj {
			return pi > pj
		}
		return groups[i].ReleaseCount > groups[j].ReleaseCount
	})
}
