package musicbrainz

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/respond"
	"github.com/qdes/aldex/pkg/convert"
	"github.com/qdes/aldex/pkg/slice"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 25
)

// Handler exposes album search over HTTP.
type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Routes returns a [chi.Router] for the search endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/albums", handler.searchAlbums)
	return router
}

// SearchResult is the trimmed view of a release group returned to clients.
type SearchResult struct {
	MusicBrainzID    string `json:"musicbrainz_id"`
	Title            string `json:"title"`
	Artist           string `json:"artist"`
	PrimaryType      string `json:"primary_type,omitempty"`
	FirstReleaseDate string `json:"first_release_date,omitempty"`
	CoverArtURL      string `json:"cover_art_url"`
}

/*
GET /api/v1/search/albums.

Description: Searches MusicBrainz release groups for the "add album" picker.

Request:
  - q: string (Free-text search, required)
  - limit: int (Max results, clamped to 25)

Response:
  - 200: []SearchResult
  - 400: Missing query
*/
func (handler *Handler) searchAlbums(writer http.ResponseWriter, request *http.Request) {
	query := strings.TrimSpace(request.URL.Query().Get("q"))
	if query == "" {
		respond.Error(writer, request, apperr.ValidationError("Search query is required"))
		return
	}

	limit := convert.ToIntD(request.URL.Query().Get("limit"), defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	groups, err := handler.client.SearchReleaseGroups(request.Context(), query, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	results := slice.Map(groups, func(group ReleaseGroup) SearchResult {
		return SearchResult{
			MusicBrainzID:    group.ID,
			Title:            group.Title,
			Artist:           group.Artist(),
			PrimaryType:      group.PrimaryType,
			FirstReleaseDate: group.FirstReleaseDate,
			CoverArtURL:      handler.client.CoverArtURL(group.ID),
		}
	})
	if results == nil {
		// Empty matches still serialize as a JSON array.
		results = []SearchResult{}
	}

	respond.OK(writer, results)
}
