package library

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/qdes/aldex/internal/catalog"
	"github.com/qdes/aldex/internal/cover"
	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/validate"
	"github.com/qdes/aldex/pkg/nullable"
	"github.com/qdes/aldex/pkg/pointer"
	"github.com/qdes/aldex/pkg/uuidv7"
)

const (
	maxTitleLen      = 500
	maxNotesLen      = 10000
	maxExternalIDLen = 64
	minYear          = 1900
)

// CoverScheduler schedules asynchronous cover backfills. Satisfied by
// [cover.Scheduler].
type CoverScheduler interface {
	Enqueue(task cover.Task) bool
}

// BlobURLResolver maps stored cover references to servable URLs.
// Satisfied by [blob.Store].
type BlobURLResolver interface {
	URL(ctx context.Context, ref string) (string, error)
}

// Service implements the library domain logic.
type Service struct {
	repo     Repository
	resolver *catalog.Service
	covers   CoverScheduler
	blobs    BlobURLResolver
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	resolver *catalog.Service,
	covers CoverScheduler,
	blobs BlobURLResolver,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		covers:   covers,
		blobs:    blobs,
		logger:   logger,
	}
}

// CreateInput is a full "add album" submission: the identifying fields that
// feed catalogue resolution plus the personal fields stored on the entry.
type CreateInput struct {
	Title         string      `json:"title"`
	Artist        string      `json:"artist"`
	ReleaseYear   *int        `json:"release_year"`
	MusicBrainzID *string     `json:"musicbrainz_id"`
	CoverURL      *string     `json:"cover_url"`
	CoverImageRef *string     `json:"cover_image_ref"`
	Genres        []string    `json:"genres"`
	Acquisition   Acquisition `json:"acquisition"`
	Progress      *Progress   `json:"progress"`
	IsArchived    bool        `json:"is_archived"`
	Rating        *int        `json:"rating"`
	PersonalLink  *string     `json:"personal_link"`
	Notes         *string     `json:"notes"`
}

/*
Create adds an album to the user's library.

Description: Resolves the submission against the shared catalogue (reusing
an existing album record when one matches), guards against the user linking
the same album twice, persists the entry, and schedules a cover backfill
when a brand-new album arrived with a cover URL but no pre-uploaded image.

Returns:
  - *View: The created entry joined with its album
  - error: apperr.ValidationError, apperr.Conflict on a duplicate link,
    apperr.Unauthorized without a user
*/
func (service *Service) Create(ctx context.Context, userID string, input CreateInput) (*View, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	// ── 1. Validation ──
	if err := service.validateCreate(&input); err != nil {
		return nil, err
	}

	// ── 2. Catalogue resolution ──
	resolution, err := service.resolver.ResolveOrCreate(ctx, catalog.ResolveInput{
		Title:         input.Title,
		Artist:        input.Artist,
		ReleaseYear:   input.ReleaseYear,
		MusicBrainzID: input.MusicBrainzID,
		CoverImageRef: input.CoverImageRef,
		Genres:        input.Genres,
	})
	if err != nil {
		return nil, err
	}
	album := resolution.Album

	// ── 3. Duplicate link guard ──
	if _, err := service.repo.FindByUserAndAlbum(ctx, userID, album.ID); err == nil {
		return nil, apperr.Conflict("Album already exists in your library")
	} else if ae := apperr.As(err); ae == nil || ae.Code != "NOT_FOUND" {
		return nil, err
	}

	// ── 4. Persist the entry ──
	entry := &Entry{
		ID:           uuidv7.New(),
		UserID:       userID,
		AlbumID:      album.ID,
		Acquisition:  input.Acquisition,
		Progress:     input.Progress,
		IsArchived:   input.IsArchived,
		Rating:       input.Rating,
		PersonalLink: normalizeOptional(input.PersonalLink),
		Notes:        normalizeOptional(input.Notes),
	}
	if entry.Acquisition == AcquisitionLibrary && entry.Progress == nil {
		entry.Progress = pointer.To(ProgressBacklog)
	}
	if entry.Progress != nil && *entry.Progress == ProgressCompleted {
		entry.CompletedAt = pointer.To(time.Now().UTC())
	}

	if err := service.repo.Insert(ctx, entry); err != nil {
		// The (userid, albumid) unique index closes the race the guard
		// above cannot: two concurrent creates of the same album.
		if ae := apperr.As(err); ae != nil && ae.Code == "CONFLICT" {
			return nil, apperr.Conflict("Album already exists in your library")
		}
		return nil, err
	}

	// ── 5. Cover backfill, fire-and-forget ──
	if resolution.Created && input.CoverURL != nil && input.CoverImageRef == nil {
		task := cover.Task{TargetID: album.ID, CoverURL: *input.CoverURL}
		if input.MusicBrainzID != nil {
			task.MusicBrainzID = *input.MusicBrainzID
		}
		service.covers.Enqueue(task)
	}

	service.logger.InfoContext(ctx, "library_entry_created",
		slog.String("entry_id", entry.ID),
		slog.String("album_id", album.ID),
		slog.Bool("album_created", resolution.Created),
	)

	return service.loadView(ctx, entry.ID)
}

// List returns a page of the user's library. An empty userID yields an
// empty page rather than an error, so unauthenticated reads render an
// empty shelf.
func (service *Service) List(ctx context.Context, userID string, f Filter, limit, offset int) ([]*View, int, error) {
	if userID == "" {
		return []*View{}, 0, nil
	}

	views, total, err := service.repo.ListViews(ctx, userID, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	for _, view := range views {
		service.resolveCover(ctx, view)
	}
	return views, total, nil
}

// Get returns one of the user's entries.
func (service *Service) Get(ctx context.Context, userID, entryID string) (*View, error) {
	if _, err := service.requireOwned(ctx, userID, entryID); err != nil {
		return nil, err
	}
	return service.loadView(ctx, entryID)
}

// UpdateInput is a partial update. Pointer fields distinguish absent from
// set; nullable fields additionally distinguish an explicit clear.
type UpdateInput struct {
	Acquisition  *Acquisition             `json:"acquisition"`
	Progress     nullable.Value[Progress] `json:"progress"`
	IsArchived   *bool                    `json:"is_archived"`
	Rating       nullable.Value[int]      `json:"rating"`
	PersonalLink nullable.Value[string]   `json:"personal_link"`
	Notes        nullable.Value[string]   `json:"notes"`
}

/*
Update applies a partial update to one of the user's entries.

Description: Fields absent from the payload are untouched. Rating, progress,
personal link, and notes accept an explicit null to clear the stored value.
The completion timestamp is derived, not client-controlled: it is stamped
when progress transitions to completed and cleared when it leaves it.

Returns:
  - *View: The updated entry joined with its album
  - error: apperr.NotFound when the entry is missing or owned by another user
*/
func (service *Service) Update(ctx context.Context, userID, entryID string, input UpdateInput) (*View, error) {
	entry, err := service.requireOwned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if err := service.validateUpdate(&input); err != nil {
		return nil, err
	}

	if input.Acquisition != nil {
		entry.Acquisition = *input.Acquisition
	}
	if input.Progress.Present {
		entry.Progress = input.Progress.Ptr()
	}
	if input.IsArchived != nil {
		entry.IsArchived = *input.IsArchived
	}
	if input.Rating.Present {
		entry.Rating = input.Rating.Ptr()
	}
	if input.PersonalLink.Present {
		entry.PersonalLink = normalizeOptional(input.PersonalLink.Ptr())
	}
	if input.Notes.Present {
		entry.Notes = normalizeOptional(input.Notes.Ptr())
	}

	completed := entry.Progress != nil && *entry.Progress == ProgressCompleted
	switch {
	case completed && entry.CompletedAt == nil:
		entry.CompletedAt = pointer.To(time.Now().UTC())
	case !completed:
		entry.CompletedAt = nil
	}

	if err := service.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	return service.loadView(ctx, entryID)
}

// Delete removes one of the user's entries.
func (service *Service) Delete(ctx context.Context, userID, entryID string) error {
	if _, err := service.requireOwned(ctx, userID, entryID); err != nil {
		return err
	}
	return service.repo.Delete(ctx, entryID)
}

// BatchInput names the entries a bulk operation targets, plus the patch a
// bulk update applies.
type BatchInput struct {
	IDs         []string     `json:"ids"`
	Acquisition *Acquisition `json:"acquisition"`
	Progress    *Progress    `json:"progress"`
	IsArchived  *bool        `json:"is_archived"`
}

// UpdateBatch applies the patch to all named entries, or to none: a single
// missing or foreign entry fails the whole request before anything is
// written.
func (service *Service) UpdateBatch(ctx context.Context, userID string, input BatchInput) error {
	if err := service.requireOwnedBatch(ctx, userID, input.IDs); err != nil {
		return err
	}

	v := &validate.Validator{}
	if input.Acquisition != nil {
		v.OneOf("acquisition", string(*input.Acquisition), string(AcquisitionWishlist), string(AcquisitionLibrary))
	}
	if input.Progress != nil {
		v.OneOf("progress", string(*input.Progress), string(ProgressBacklog), string(ProgressActive), string(ProgressCompleted))
	}
	if err := v.Err(); err != nil {
		return err
	}

	return service.repo.UpdateBatch(ctx, input.IDs, BatchPatch{
		Acquisition: input.Acquisition,
		Progress:    input.Progress,
		IsArchived:  input.IsArchived,
	})
}

// DeleteBatch removes all named entries, or none.
func (service *Service) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	if err := service.requireOwnedBatch(ctx, userID, ids); err != nil {
		return err
	}
	return service.repo.DeleteBatch(ctx, ids)
}

// # Internal Helpers

// requireOwned loads an entry and enforces ownership. A missing entry and a
// foreign entry are indistinguishable to the caller: both come back as
// NotFound, so the API never confirms that someone else's entry ID exists.
func (service *Service) requireOwned(ctx context.Context, userID, entryID string) (*Entry, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}

	entry, err := service.repo.FindByID(ctx, entryID)
	if err != nil {
		if ae := apperr.As(err); ae != nil && ae.Code == "NOT_FOUND" {
			return nil, apperr.NotFound("Album")
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, apperr.NotFound("Album")
	}
	return entry, nil
}

// requireOwnedBatch enforces ownership over a whole ID set before any bulk
// write runs.
func (service *Service) requireOwnedBatch(ctx context.Context, userID string, ids []string) error {
	if userID == "" {
		return apperr.Unauthorized("Authentication required")
	}
	if len(ids) == 0 {
		return apperr.ValidationError("At least one entry ID is required")
	}

	entries, err := service.repo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}

	owned := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.UserID == userID {
			owned[entry.ID] = true
		}
	}
	for _, id := range ids {
		if !owned[id] {
			return apperr.NotFound("Album")
		}
	}
	return nil
}

// loadView fetches the joined view and resolves its display cover.
func (service *Service) loadView(ctx context.Context, entryID string) (*View, error) {
	view, err := service.repo.FindViewByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	service.resolveCover(ctx, view)
	return view, nil
}

// resolveCover prefers the stored blob over the remembered external URL.
// A dangling blob reference degrades to the external URL, never to an error.
func (service *Service) resolveCover(ctx context.Context, view *View) {
	if view.CoverImageRef == nil {
		return
	}

	url, err := service.blobs.URL(ctx, *view.CoverImageRef)
	if err != nil {
		service.logger.WarnContext(ctx, "cover_url_resolve_failed",
			slog.String("entry_id", view.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if url != "" {
		view.CoverURL = &url
	}
}

func (service *Service) validateCreate(input *CreateInput) error {
	v := &validate.Validator{}
	v.Required(catalog.FieldTitle, input.Title).MaxLen(catalog.FieldTitle, input.Title, maxTitleLen)
	v.Required(catalog.FieldArtist, input.Artist).MaxLen(catalog.FieldArtist, input.Artist, maxTitleLen)
	v.OneOf("acquisition", string(input.Acquisition), string(AcquisitionWishlist), string(AcquisitionLibrary))

	if input.Progress != nil {
		v.OneOf("progress", string(*input.Progress), string(ProgressBacklog), string(ProgressActive), string(ProgressCompleted))
	}
	if input.ReleaseYear != nil {
		v.Range(catalog.FieldReleaseYear, *input.ReleaseYear, minYear, time.Now().Year()+1)
	}
	if input.Rating != nil {
		v.Range("rating", *input.Rating, 1, 10)
	}
	if input.MusicBrainzID != nil && *input.MusicBrainzID != "" {
		v.MaxLen(catalog.FieldMusicBrainzID, *input.MusicBrainzID, maxExternalIDLen)
	}
	if input.CoverURL != nil && *input.CoverURL != "" {
		v.URL(catalog.FieldCoverURL, *input.CoverURL)
	}
	if input.PersonalLink != nil && *input.PersonalLink != "" {
		v.URL("personal_link", *input.PersonalLink)
	}
	if input.Notes != nil {
		v.MaxLen("notes", *input.Notes, maxNotesLen)
	}

	return v.Err()
}

func (service *Service) validateUpdate(input *UpdateInput) error {
	v := &validate.Validator{}

	if input.Acquisition != nil {
		v.OneOf("acquisition", string(*input.Acquisition), string(AcquisitionWishlist), string(AcquisitionLibrary))
	}
	if input.Progress.Valid {
		v.OneOf("progress", string(input.Progress.Data), string(ProgressBacklog), string(ProgressActive), string(ProgressCompleted))
	}
	if input.Rating.Valid {
		v.Range("rating", input.Rating.Data, 1, 10)
	}
	if input.PersonalLink.Valid && input.PersonalLink.Data != "" {
		v.URL("personal_link", input.PersonalLink.Data)
	}
	if input.Notes.Valid {
		v.MaxLen("notes", input.Notes.Data, maxNotesLen)
	}

	return v.Err()
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
