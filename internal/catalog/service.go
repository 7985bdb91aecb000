package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/validate"
	"github.com/qdes/aldex/pkg/fold"
	"github.com/qdes/aldex/pkg/uuidv7"
)

// Service resolves album submissions onto the shared catalog.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ResolveInput carries the album-identifying fields of a user submission.
// Personal fields (rating, notes, acquisition) never reach this package.
type ResolveInput struct {
	Title         string
	Artist        string
	ReleaseYear   *int
	MusicBrainzID *string
	CoverImageRef *string // pre-uploaded blob reference, stored as-is
	Genres        []string
}

// Resolution is the outcome of [Service.ResolveOrCreate].
type Resolution struct {
	Album *Album
	// Created is true when no existing record matched and a new one was
	// inserted. Callers use it to decide whether a cover backfill may run:
	// a pre-existing album's cover state is authoritative.
	Created bool
}

// ResolveOrCreate maps a submission to exactly one shared album record.
//
// # Resolution Order (first match wins)
//
//  1. Exact MusicBrainz ID match, when supplied — the strongest dedup key.
//  2. Albums with this exact artist, title compared case-insensitively.
//  3. Albums with this exact title, artist compared case-insensitively.
//  4. No match: insert a new record.
//
// Step 2 runs before step 3 because artist names vary less in casing across
// metadata sources than titles do; the asymmetry is deliberate.
func (service *Service) ResolveOrCreate(ctx context.Context, input ResolveInput) (*Resolution, error) {
	cleanTitle := strings.TrimSpace(input.Title)
	cleanArtist := strings.TrimSpace(input.Artist)

	v := &validate.Validator{}
	v.Required(FieldTitle, cleanTitle)
	v.Required(FieldArtist, cleanArtist)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// ── 1. MusicBrainz ID ─────────────────────────────────────────────────
	if input.MusicBrainzID != nil && *input.MusicBrainzID != "" {
		album, err := service.repo.FindByMusicBrainzID(ctx, *input.MusicBrainzID)
		if err == nil {
			return &Resolution{Album: album}, nil
		}
		if ae := apperr.As(err); ae == nil || ae.Code != "NOT_FOUND" {
			return nil, err
		}
	}

	// ── 2. Exact artist, folded title ─────────────────────────────────────
	artistAlbums, err := service.repo.ListByArtist(ctx, cleanArtist)
	if err != nil {
		return nil, err
	}
	for _, album := range artistAlbums {
		if fold.Equal(album.Title, cleanTitle) {
			return &Resolution{Album: album}, nil
		}
	}

	// ── 3. Exact title, folded artist ─────────────────────────────────────
	titleAlbums, err := service.repo.ListByTitle(ctx, cleanTitle)
	if err != nil {
		return nil, err
	}
	for _, album := range titleAlbums {
		if fold.Equal(album.Artist, cleanArtist) {
			return &Resolution{Album: album}, nil
		}
	}

	// ── 4. Create ─────────────────────────────────────────────────────────
	album := &Album{
		ID:            uuidv7.New(),
		Title:         cleanTitle,
		Artist:        cleanArtist,
		ReleaseYear:   input.ReleaseYear,
		MusicBrainzID: normalizeOptional(input.MusicBrainzID),
		CoverImageRef: normalizeOptional(input.CoverImageRef),
		Genres:        input.Genres,
	}

	if err := service.repo.Insert(ctx, album); err != nil {
		return nil, err
	}

	service.logger.Info("album_created",
		slog.String("album_id", album.ID),
		slog.String("artist", album.Artist),
		slog.String("title", album.Title),
	)

	return &Resolution{Album: album, Created: true}, nil
}

// Get returns a single catalog record.
func (service *Service) Get(ctx context.Context, id string) (*Album, error) {
	return service.repo.FindByID(ctx, id)
}

// List pages through the shared catalog (admin surface).
func (service *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*Album, int, error) {
	return service.repo.List(ctx, filter, limit, offset)
}

// normalizeOptional maps pointers to empty strings onto nil.
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
