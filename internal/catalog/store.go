package catalog

import "context"

// Repository defines the persistence contract for the shared album catalog.
//
// # Index Expectations
//
// Implementations must back FindByMusicBrainzID, ListByArtist and
// ListByTitle with exact-match indexes: the resolver calls them on every
// album submission.
type Repository interface {
	// FindByID returns the album with the given ID.
	//
	// Returns [apperr.NotFound] if the album does not exist.
	FindByID(ctx context.Context, id string) (*Album, error)

	// FindByMusicBrainzID returns the album with the given external ID.
	//
	// Returns [apperr.NotFound] if no album carries this identifier.
	FindByMusicBrainzID(ctx context.Context, mbid string) (*Album, error)

	// ListByArtist returns all albums whose artist equals the given string exactly.
	ListByArtist(ctx context.Context, artist string) ([]*Album, error)

	// ListByTitle returns all albums whose title equals the given string exactly.
	ListByTitle(ctx context.Context, title string) ([]*Album, error)

	// List returns a page of the catalog matching the filter, plus the total count.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Album, int, error)

	// Insert persists a brand-new album record.
	//
	// Returns a wrapped error if the partial unique index on the
	// MusicBrainz ID fails.
	Insert(ctx context.Context, album *Album) error

	// SetCover attaches cover fields to an album, but only if both are
	// still unset. It reports whether the claim succeeded; false means a
	// concurrent backfill (or a manual edit) got there first.
	SetCover(ctx context.Context, albumID, coverImageRef, coverURL string) (bool, error)
}
