/*
Package blob provides the content blob store used for cover images.

It exposes a deliberately narrow contract — store bytes, fetch bytes,
resolve a reference to a servable URL — so the cover pipeline never cares
where the bytes actually live. The canonical implementation keeps them in
PostgreSQL; swapping in object storage later only touches this package.
*/
package blob

import (
	"context"
	"time"
)

// Blob is one stored binary object.
type Blob struct {
	ID          string    `json:"id"`
	Content     []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	ByteSize    int       `json:"byte_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the persistence contract for binary content.
type Store interface {
	// Store persists content and returns an opaque reference to it.
	Store(ctx context.Context, content []byte, contentType string) (string, error)

	// Fetch loads a stored blob, content included.
	//
	// Returns [apperr.NotFound] if the reference is unresolvable.
	Fetch(ctx context.Context, ref string) (*Blob, error)

	// URL resolves a reference to a URL the read path can render.
	// It returns the empty string when the reference is unresolvable;
	// that is a valid steady state, not an error.
	URL(ctx context.Context, ref string) (string, error)
}
