package library

import "context"

// BatchPatch is the field set applied by a bulk update. Nil fields are
// left untouched on every entry in the batch.
type BatchPatch struct {
	Acquisition *Acquisition
	Progress    *Progress
	IsArchived  *bool
}

// Repository defines the persistence contract for library entries.
type Repository interface {
	// Insert persists a new entry. AddedAt is assigned by the database.
	Insert(ctx context.Context, entry *Entry) error

	// FindByID returns an entry regardless of owner. Ownership is the
	// service layer's concern.
	//
	// Returns [apperr.NotFound] if the entry does not exist.
	FindByID(ctx context.Context, id string) (*Entry, error)

	// FindByUserAndAlbum returns the user's entry for a given album.
	//
	// Returns [apperr.NotFound] if the user has no entry for it.
	FindByUserAndAlbum(ctx context.Context, userID, albumID string) (*Entry, error)

	// FindViewByID returns one entry joined with its catalogue album.
	FindViewByID(ctx context.Context, id string) (*View, error)

	// ListViews returns a page of the user's entries joined with their
	// albums, newest first, plus the total count for the filter.
	ListViews(ctx context.Context, userID string, f Filter, limit, offset int) ([]*View, int, error)

	// Update overwrites all mutable fields of an entry.
	Update(ctx context.Context, entry *Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, id string) error

	// FindByIDs returns every entry whose ID is in ids, in no particular
	// order. Missing IDs are simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]*Entry, error)

	// UpdateBatch applies the patch to every entry in ids atomically.
	UpdateBatch(ctx context.Context, ids []string, patch BatchPatch) error

	// DeleteBatch removes every entry in ids atomically.
	DeleteBatch(ctx context.Context, ids []string) error

	// AlbumIDForEntry resolves an entry ID to the album it references.
	// Used by the cover backfill pipeline to normalize task targets.
	//
	// Returns [apperr.NotFound] if id is not an entry ID.
	AlbumIDForEntry(ctx context.Context, id string) (string, error)
}
