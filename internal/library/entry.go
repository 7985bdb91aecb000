/*
Package library manages per-user album collections.

Each user owns a set of entries that point into the shared catalogue. The
entry carries everything personal (wishlist/owned state, listening progress,
rating, notes); everything shared (title, artist, cover) lives on the
catalogue record and is joined in on the read path.
*/
package library

import "time"

// Acquisition is the ownership state of a library entry.
type Acquisition string

const (
	// AcquisitionWishlist marks an album the user wants but does not own.
	AcquisitionWishlist Acquisition = "wishlist"
	// AcquisitionLibrary marks an album in the user's collection.
	AcquisitionLibrary Acquisition = "library"
)

// Valid reports whether the value is a known acquisition state.
func (a Acquisition) Valid() bool {
	return a == AcquisitionWishlist || a == AcquisitionLibrary
}

// Progress is the listening state of an owned album. It is only meaningful
// while acquisition is "library"; wishlist entries may carry a stale value.
type Progress string

const (
	ProgressBacklog   Progress = "backlog"
	ProgressActive    Progress = "active"
	ProgressCompleted Progress = "completed"
)

// Valid reports whether the value is a known progress state.
func (p Progress) Valid() bool {
	return p == ProgressBacklog || p == ProgressActive || p == ProgressCompleted
}

// Entry is one user's link to a catalogue album.
type Entry struct {
	ID           string      `json:"id"`
	UserID       string      `json:"-"`
	AlbumID      string      `json:"album_id"`
	Acquisition  Acquisition `json:"acquisition"`
	Progress     *Progress   `json:"progress,omitempty"`
	IsArchived   bool        `json:"is_archived"`
	Rating       *int        `json:"rating,omitempty"`
	PersonalLink *string     `json:"personal_link,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	AddedAt      time.Time   `json:"added_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// View is the read-path shape: an entry joined with its catalogue album.
// The ID is the entry's own ID, which is the handle clients use for every
// update and delete.
type View struct {
	ID            string      `json:"id"`
	AlbumID       string      `json:"album_id"`
	Title         string      `json:"title"`
	Artist        string      `json:"artist"`
	ReleaseYear   *int        `json:"release_year,omitempty"`
	MusicBrainzID *string     `json:"musicbrainz_id,omitempty"`
	CoverImageRef *string     `json:"-"`
	CoverURL      *string     `json:"cover_url,omitempty"`
	Genres        []string    `json:"genres,omitempty"`
	Acquisition   Acquisition `json:"acquisition"`
	Progress      *Progress   `json:"progress,omitempty"`
	IsArchived    bool        `json:"is_archived"`
	Rating        *int        `json:"rating,omitempty"`
	PersonalLink  *string     `json:"personal_link,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	AddedAt       time.Time   `json:"added_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// Filter narrows a library listing.
type Filter struct {
	Acquisition     *Acquisition
	Progress        *Progress
	IncludeArchived bool
}
