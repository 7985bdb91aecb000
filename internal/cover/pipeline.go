/*
Package cover implements the asynchronous cover art backfill pipeline.

When an album first enters the catalogue without a stored cover, a backfill
task is scheduled to download the image, persist it in the blob store, and
attach the reference to the album. The pipeline is strictly best-effort:
every failure mode ends in a logged abort, never in an error surfaced to the
user who triggered it, and an album that already has a cover is never
touched again.
*/
package cover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/qdes/aldex/internal/catalog"
	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/constants"
)

// Task is one scheduled backfill. TargetID may be either a global album ID
// or a user library entry ID; the pipeline normalizes it before acting.
// CoverURL and MusicBrainzID are both optional; a task carrying neither is
// a no-op unless the album itself knows its MusicBrainz ID.
type Task struct {
	TargetID      string
	CoverURL      string
	MusicBrainzID string
}

// AlbumStore is the slice of the catalogue repository the pipeline needs.
type AlbumStore interface {
	FindByID(ctx context.Context, id string) (*catalog.Album, error)
	SetCover(ctx context.Context, albumID, coverImageRef, coverURL string) (bool, error)
}

// LinkStore resolves user library entry IDs to the albums they reference.
type LinkStore interface {
	// AlbumIDForEntry returns the album ID referenced by a library entry,
	// or apperr.NotFound when id is not a library entry ID.
	AlbumIDForEntry(ctx context.Context, id string) (string, error)
}

// BlobStore persists downloaded image bytes.
type BlobStore interface {
	Store(ctx context.Context, content []byte, contentType string) (string, error)
}

// Pipeline downloads and attaches cover art.
type Pipeline struct {
	albums     AlbumStore
	links      LinkStore
	blobs      BlobStore
	httpClient *http.Client
	coverArt   CoverArtResolver
	logger     *slog.Logger
}

// CoverArtResolver derives a cover image URL from a MusicBrainz ID.
// Satisfied by [musicbrainz.Client].
type CoverArtResolver interface {
	CoverArtURL(mbid string) string
}

func NewPipeline(
	albums AlbumStore,
	links LinkStore,
	blobs BlobStore,
	httpClient *http.Client,
	coverArt CoverArtResolver,
	logger *slog.Logger,
) *Pipeline {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Pipeline{
		albums:     albums,
		links:      links,
		blobs:      blobs,
		httpClient: httpClient,
		coverArt:   coverArt,
		logger:     logger,
	}
}

// Backfill runs one task to completion. It never returns an error: the
// pipeline's contract with its callers is fire-and-forget, so every abort
// path ends here with a structured log line and nothing else.
func (pipeline *Pipeline) Backfill(ctx context.Context, task Task) {
	if err := pipeline.run(ctx, task); err != nil {
		pipeline.logger.WarnContext(ctx, "cover_backfill_aborted",
			slog.String("target_id", task.TargetID),
			slog.String("error", err.Error()),
		)
	}
}

func (pipeline *Pipeline) run(ctx context.Context, task Task) error {
	// ── 1. Normalize the target to a global album ID ──
	albumID := pipeline.resolveTarget(ctx, task.TargetID)

	album, err := pipeline.albums.FindByID(ctx, albumID)
	if err != nil {
		return fmt.Errorf("load album %s: %w", albumID, err)
	}

	// ── 2. Idempotency gate: one stored cover per album, ever ──
	if album.HasCover() {
		pipeline.logger.DebugContext(ctx, "cover_backfill_skipped",
			slog.String("album_id", albumID),
		)
		return nil
	}

	// ── 3. Pick the image source ──
	sourceURL := task.CoverURL
	if sourceURL == "" {
		mbid := task.MusicBrainzID
		if mbid == "" && album.MusicBrainzID != nil {
			mbid = *album.MusicBrainzID
		}
		if mbid == "" {
			return fmt.Errorf("album %s: no cover source available", albumID)
		}
		sourceURL = pipeline.coverArt.CoverArtURL(mbid)
	}

	// ── 4. Download ──
	content, contentType, err := pipeline.fetch(ctx, sourceURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sourceURL, err)
	}

	// ── 5. Persist the bytes ──
	ref, err := pipeline.blobs.Store(ctx, content, contentType)
	if err != nil {
		return fmt.Errorf("store blob: %w", err)
	}

	// ── 6. Attach, losing gracefully to any concurrent attach ──
	claimed, err := pipeline.albums.SetCover(ctx, albumID, ref, sourceURL)
	if err != nil {
		return fmt.Errorf("set cover on %s: %w", albumID, err)
	}
	if !claimed {
		pipeline.logger.DebugContext(ctx, "cover_backfill_lost_race",
			slog.String("album_id", albumID),
			slog.String("orphaned_ref", ref),
		)
		return nil
	}

	pipeline.logger.InfoContext(ctx, "cover_backfill_completed",
		slog.String("album_id", albumID),
		slog.String("cover_ref", ref),
	)
	return nil
}

// resolveTarget maps a task target to a global album ID. Library entry IDs
// take precedence; anything that is not a known entry is passed through
// unchanged and treated as an album ID.
func (pipeline *Pipeline) resolveTarget(ctx context.Context, targetID string) string {
	albumID, err := pipeline.links.AlbumIDForEntry(ctx, targetID)
	if err != nil {
		if ae := apperr.As(err); ae == nil || ae.Code != "NOT_FOUND" {
			pipeline.logger.WarnContext(ctx, "cover_target_lookup_failed",
				slog.String("target_id", targetID),
				slog.String("error", err.Error()),
			)
		}
		return targetID
	}
	return albumID
}

// fetch downloads the image with a hard deadline and size cap.
func (pipeline *Pipeline) fetch(ctx context.Context, sourceURL string) ([]byte, string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, constants.CoverFetchTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	request.Header.Set("User-Agent", constants.MBZUserAgent)

	response, err := pipeline.httpClient.Do(request)
	if err != nil {
		return nil, "", err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(response.Body, constants.CoverMaxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(content) > constants.CoverMaxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", constants.CoverMaxBytes)
	}
	if len(content) == 0 {
		return nil, "", fmt.Errorf("empty response body")
	}

	contentType := response.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return content, contentType, nil
}
