/*
Package catalog maintains the shared, deduplicated album catalog.

Every real-world album is represented by exactly one [Album] record, shared
across all users. Per-user state (ownership, rating, notes) lives in the
library package; this package only knows about the albums themselves and
how to resolve an incoming submission onto an existing record.

# Mutation Policy

Albums are created by the resolver and never edited afterwards, with one
exception: the cover fields, which the cover backfill pipeline sets at most
once via [Repository.SetCover]. No other code path may mutate an album.
*/
package catalog

import "time"

// Album is one shared catalog entry for a real-world album.
type Album struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	ReleaseYear   *int      `json:"release_year,omitempty"`
	MusicBrainzID *string   `json:"musicbrainz_id,omitempty"`
	CoverImageRef *string   `json:"cover_image_ref,omitempty"`
	CoverURL      *string   `json:"cover_url,omitempty"`
	Genres        []string  `json:"genres,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCover reports whether a cover has been attached or claimed.
//
// A non-nil CoverURL counts even without a blob ref: it means a backfill
// already ran (or a cover was attached manually) and the album must not be
// fetched again.
func (a *Album) HasCover() bool {
	return a.CoverImageRef != nil || a.CoverURL != nil
}

// Filter holds the parameters for a paginated catalog search.
type Filter struct {
	Query string // Substring match against title and artist
}

// Field names for validation messages, shared with the library service so
// both report album fields under the same wire names.
const (
	FieldTitle         = "title"
	FieldArtist        = "artist"
	FieldReleaseYear   = "release_year"
	FieldMusicBrainzID = "musicbrainz_id"
	FieldCoverURL      = "cover_url"
)
