package library_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdes/aldex/internal/catalog"
	"github.com/qdes/aldex/internal/cover"
	"github.com/qdes/aldex/internal/library"
	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/pkg/nullable"
)

// # Test Fakes

// memoryCatalog backs a real catalog.Service in resolver mode.
type memoryCatalog struct {
	albums []*catalog.Album
}

func (r *memoryCatalog) FindByID(_ context.Context, id string) (*catalog.Album, error) {
	for _, a := range r.albums {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperr.NotFound("Album")
}

func (r *memoryCatalog) FindByMusicBrainzID(_ context.Context, mbid string) (*catalog.Album, error) {
	for _, a := range r.albums {
		if a.MusicBrainzID != nil && *a.MusicBrainzID == mbid {
			return a, nil
		}
	}
	return nil, apperr.NotFound("Album")
}

func (r *memoryCatalog) ListByArtist(_ context.Context, artist string) ([]*catalog.Album, error) {
	var out []*catalog.Album
	for _, a := range r.albums {
		if a.Artist == artist {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryCatalog) ListByTitle(_ context.Context, title string) ([]*catalog.Album, error) {
	var out []*catalog.Album
	for _, a := range r.albums {
		if a.Title == title {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryCatalog) List(_ context.Context, _ catalog.Filter, _ int, _ int) ([]*catalog.Album, int, error) {
	return r.albums, len(r.albums), nil
}

func (r *memoryCatalog) Insert(_ context.Context, album *catalog.Album) error {
	r.albums = append(r.albums, album)
	return nil
}

func (r *memoryCatalog) SetCover(_ context.Context, albumID, ref, url string) (bool, error) {
	for _, a := range r.albums {
		if a.ID == albumID && !a.HasCover() {
			a.CoverImageRef, a.CoverURL = &ref, &url
			return true, nil
		}
	}
	return false, nil
}

// memoryLibrary is an in-memory library.Repository joined against a
// memoryCatalog for views.
type memoryLibrary struct {
	catalog *memoryCatalog
	entries []*library.Entry
}

func (r *memoryLibrary) Insert(_ context.Context, entry *library.Entry) error {
	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.AlbumID == entry.AlbumID {
			return apperr.Conflict("Resource already exists")
		}
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryLibrary) FindByID(_ context.Context, id string) (*library.Entry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperr.NotFound("Entry")
}

func (r *memoryLibrary) FindByUserAndAlbum(_ context.Context, userID, albumID string) (*library.Entry, error) {
	for _, e := range r.entries {
		if e.UserID == userID && e.AlbumID == albumID {
			return e, nil
		}
	}
	return nil, apperr.NotFound("Entry")
}

func (r *memoryLibrary) view(entry *library.Entry) *View {
	for _, a := range r.catalog.albums {
		if a.ID == entry.AlbumID {
			return &View{
				ID: entry.ID, AlbumID: entry.AlbumID,
				Title: a.Title, Artist: a.Artist,
				CoverImageRef: a.CoverImageRef, CoverURL: a.CoverURL,
				Acquisition: entry.Acquisition, Progress: entry.Progress,
				IsArchived: entry.IsArchived, Rating: entry.Rating,
				PersonalLink: entry.PersonalLink, Notes: entry.Notes,
				AddedAt: entry.AddedAt, CompletedAt: entry.CompletedAt,
			}
		}
	}
	return nil
}

func (r *memoryLibrary) FindViewByID(ctx context.Context, id string) (*View, error) {
	entry, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := r.view(entry); v != nil {
		return v, nil
	}
	return nil, apperr.NotFound("Entry")
}

func (r *memoryLibrary) ListViews(_ context.Context, userID string, f library.Filter, _ int, _ int) ([]*View, int, error) {
	var views []*View
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if f.Acquisition != nil && e.Acquisition != *f.Acquisition {
			continue
		}
		if f.Progress != nil && (e.Progress == nil || *e.Progress != *f.Progress) {
			continue
		}
		if !f.IncludeArchived && e.IsArchived {
			continue
		}
		views = append(views, r.view(e))
	}
	return views, len(views), nil
}

func (r *memoryLibrary) Update(_ context.Context, entry *library.Entry) error {
	for i, e := range r.entries {
		if e.ID == entry.ID {
			r.entries[i] = entry
			return nil
		}
	}
	return apperr.NotFound("Entry")
}

func (r *memoryLibrary) Delete(_ context.Context, id string) error {
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("Entry")
}

func (r *memoryLibrary) FindByIDs(_ context.Context, ids []string) ([]*library.Entry, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*library.Entry
	for _, e := range r.entries {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryLibrary) UpdateBatch(_ context.Context, ids []string, patch library.BatchPatch) error {
	for _, id := range ids {
		for _, e := range r.entries {
			if e.ID != id {
				continue
			}
			if patch.Acquisition != nil {
				e.Acquisition = *patch.Acquisition
			}
			if patch.Progress != nil {
				p := *patch.Progress
				e.Progress = &p
			}
			if patch.IsArchived != nil {
				e.IsArchived = *patch.IsArchived
			}
		}
	}
	return nil
}

func (r *memoryLibrary) DeleteBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryLibrary) AlbumIDForEntry(_ context.Context, id string) (string, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e.AlbumID, nil
		}
	}
	return "", apperr.NotFound("Entry")
}

// View aliases keep the fake readable.
type View = library.View

// schedulerRecorder captures enqueued backfill tasks.
type schedulerRecorder struct {
	tasks []cover.Task
}

func (s *schedulerRecorder) Enqueue(task cover.Task) bool {
	s.tasks = append(s.tasks, task)
	return true
}

// noBlobs resolves nothing; views keep their external cover URL.
type noBlobs struct{}

func (noBlobs) URL(context.Context, string) (string, error) { return "", nil }

func newFixture() (*library.Service, *memoryLibrary, *schedulerRecorder) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	albums := &memoryCatalog{}
	entries := &memoryLibrary{catalog: albums}
	scheduler := &schedulerRecorder{}
	resolver := catalog.NewService(albums, logger)
	service := library.NewService(entries, resolver, scheduler, noBlobs{}, logger)
	return service, entries, scheduler
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// # Create

/*
TestCreate_SharedCatalogReuse walks the two-user scenario: user A adds an
album with a MusicBrainz ID, user B adds the same release without one but
with a differently-cased title. Both entries must point at one album
record, and each user still owns an independent entry.
*/
func TestCreate_SharedCatalogReuse(t *testing.T) {
	service, entries, _ := newFixture()
	ctx := context.Background()

	viewA, err := service.Create(ctx, "user-a", library.CreateInput{
		Title:         "Vespertine",
		Artist:        "Björk",
		MusicBrainzID: strPtr("mbid-vespertine"),
		Acquisition:   library.AcquisitionLibrary,
	})
	require.NoError(t, err)

	viewB, err := service.Create(ctx, "user-b", library.CreateInput{
		Title:       "VESPERTINE",
		Artist:      "Björk",
		Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)

	assert.Equal(t, viewA.AlbumID, viewB.AlbumID, "both entries should share the album record")
	assert.NotEqual(t, viewA.ID, viewB.ID)
	assert.Len(t, entries.catalog.albums, 1)
}

/*
TestCreate_DuplicateLink verifies a user cannot link the same album twice
and gets the dedicated conflict message.
*/
func TestCreate_DuplicateLink(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	input := library.CreateInput{
		Title:       "Homogenic",
		Artist:      "Björk",
		Acquisition: library.AcquisitionLibrary,
	}

	_, err := service.Create(ctx, "user-a", input)
	require.NoError(t, err)

	_, err = service.Create(ctx, "user-a", input)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
	assert.Equal(t, "Album already exists in your library", ae.Message)

	// A different user is not blocked.
	_, err = service.Create(ctx, "user-b", input)
	assert.NoError(t, err)
}

/*
TestCreate_BackfillScheduling verifies the exact conditions under which a
cover backfill task is enqueued.
*/
func TestCreate_BackfillScheduling(t *testing.T) {
	tests := []struct {
		name          string
		coverURL      *string
		coverImageRef *string
		wantTask      bool
	}{
		{"cover_url_only", strPtr("https://img.example/front.jpg"), nil, true},
		{"no_cover_url", nil, nil, false},
		{"preuploaded_ref_wins", strPtr("https://img.example/front.jpg"), strPtr("0192aa11-0000-7000-8000-000000000001"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, scheduler := newFixture()

			view, err := service.Create(context.Background(), "user-a", library.CreateInput{
				Title:         "Debut",
				Artist:        "Björk",
				CoverURL:      tt.coverURL,
				CoverImageRef: tt.coverImageRef,
				Acquisition:   library.AcquisitionLibrary,
			})
			require.NoError(t, err)

			if tt.wantTask {
				require.Len(t, scheduler.tasks, 1)
				assert.Equal(t, view.AlbumID, scheduler.tasks[0].TargetID)
				assert.Equal(t, *tt.coverURL, scheduler.tasks[0].CoverURL)
			} else {
				assert.Empty(t, scheduler.tasks)
			}
		})
	}
}

/*
TestCreate_NoBackfillForExistingAlbum verifies that resolving onto an
existing album never schedules a second backfill, whatever cover URL the
second submission carries.
*/
func TestCreate_NoBackfillForExistingAlbum(t *testing.T) {
	service, _, scheduler := newFixture()
	ctx := context.Background()

	_, err := service.Create(ctx, "user-a", library.CreateInput{
		Title:       "Post",
		Artist:      "Björk",
		CoverURL:    strPtr("https://img.example/a.jpg"),
		Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)
	require.Len(t, scheduler.tasks, 1)

	_, err = service.Create(ctx, "user-b", library.CreateInput{
		Title:       "post",
		Artist:      "Björk",
		CoverURL:    strPtr("https://img.example/b.jpg"),
		Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)
	assert.Len(t, scheduler.tasks, 1, "existing album must not get a second backfill")
}

/*
TestCreate_Validation exercises the field rules on the create path.
*/
func TestCreate_Validation(t *testing.T) {
	service, _, _ := newFixture()

	tests := []struct {
		name  string
		input library.CreateInput
	}{
		{"missing_title", library.CreateInput{Artist: "Björk", Acquisition: library.AcquisitionLibrary}},
		{"missing_artist", library.CreateInput{Title: "Debut", Acquisition: library.AcquisitionLibrary}},
		{"bad_acquisition", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: "owned"}},
		{"rating_too_high", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary, Rating: intPtr(11)}},
		{"rating_too_low", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary, Rating: intPtr(0)}},
		{"ancient_year", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary, ReleaseYear: intPtr(1812)}},
		{"bad_link", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary, PersonalLink: strPtr("not a url")}},
		{"oversized_mbid", library.CreateInput{Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary, MusicBrainzID: strPtr(strings.Repeat("a", 65))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), "user-a", tt.input)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		})
	}
}

func TestCreate_Unauthenticated(t *testing.T) {
	service, _, _ := newFixture()

	_, err := service.Create(context.Background(), "", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestCreate_ArchivedFlag verifies that the archived flag on the submission
is persisted: an entry can be born archived, and the default listing skips
it until archived entries are requested.
*/
func TestCreate_ArchivedFlag(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	archived, err := service.Create(ctx, "user-a", library.CreateInput{
		Title:       "Homogenic",
		Artist:      "Björk",
		Acquisition: library.AcquisitionLibrary,
		IsArchived:  true,
	})
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	plain, err := service.Create(ctx, "user-a", library.CreateInput{
		Title:       "Debut",
		Artist:      "Björk",
		Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)
	assert.False(t, plain.IsArchived)

	views, total, err := service.List(ctx, "user-a", library.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, plain.ID, views[0].ID)

	views, total, err = service.List(ctx, "user-a", library.Filter{IncludeArchived: true}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, views, 2)
}

// # Reads

/*
TestList_UnauthenticatedEmpty verifies that a missing user yields an empty
page, not an error.
*/
func TestList_UnauthenticatedEmpty(t *testing.T) {
	service, _, _ := newFixture()

	views, total, err := service.List(context.Background(), "", library.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Zero(t, total)
}

/*
TestGet_OwnershipCollapse verifies that a foreign entry and a missing entry
are indistinguishable: both surface as NotFound.
*/
func TestGet_OwnershipCollapse(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	view, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  string
		entryID string
	}{
		{"foreign_entry", "user-b", view.ID},
		{"missing_entry", "user-a", "0192aa11-dead-7000-8000-000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Get(context.Background(), tt.userID, tt.entryID)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "NOT_FOUND", ae.Code)
		})
	}
}

// # Updates

/*
TestUpdate_RatingLifecycle drives a rating through set, change, and
explicit clear via JSON null semantics.
*/
func TestUpdate_RatingLifecycle(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	view, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)

	updated, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Rating: nullable.Of(9),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 9, *updated.Rating)

	cleared, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Rating: nullable.Null[int](),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Rating)

	// An absent rating field leaves the stored value alone.
	reRated, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Rating: nullable.Of(7),
	})
	require.NoError(t, err)
	untouched, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Notes: nullable.Of("still great"),
	})
	require.NoError(t, err)
	assert.Equal(t, *reRated.Rating, *untouched.Rating)
}

func TestUpdate_RatingValidation(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	view, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)

	_, err = service.Update(ctx, "user-a", view.ID, library.UpdateInput{Rating: nullable.Of(12)})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

/*
TestUpdate_CompletionTimestamp verifies that completedAt follows progress
transitions rather than client input.
*/
func TestUpdate_CompletionTimestamp(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	view, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)
	assert.Nil(t, view.CompletedAt)

	done, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Progress: nullable.Of(library.ProgressCompleted),
	})
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)

	reopened, err := service.Update(ctx, "user-a", view.ID, library.UpdateInput{
		Progress: nullable.Of(library.ProgressActive),
	})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
}

func TestUpdate_ForeignEntry(t *testing.T) {
	service, _, _ := newFixture()
	ctx := context.Background()

	view, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionLibrary,
	})
	require.NoError(t, err)

	_, err = service.Update(ctx, "user-b", view.ID, library.UpdateInput{Rating: nullable.Of(1)})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
}

// # Batch Operations

/*
TestBatch_AllOrNothing verifies that one foreign ID in a batch fails the
whole request and leaves every entry untouched.
*/
func TestBatch_AllOrNothing(t *testing.T) {
	service, entries, _ := newFixture()
	ctx := context.Background()

	mine, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)

	theirs, err := service.Create(ctx, "user-b", library.CreateInput{
		Title: "Post", Artist: "Björk", Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)

	acquisition := library.AcquisitionLibrary
	err = service.UpdateBatch(ctx, "user-a", library.BatchInput{
		IDs:         []string{mine.ID, theirs.ID},
		Acquisition: &acquisition,
	})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)

	// Nothing moved.
	for _, e := range entries.entries {
		assert.Equal(t, library.AcquisitionWishlist, e.Acquisition)
	}

	err = service.DeleteBatch(ctx, "user-a", []string{mine.ID, theirs.ID})
	require.NotNil(t, apperr.As(err))
	assert.Len(t, entries.entries, 2)
}

func TestBatch_Update(t *testing.T) {
	service, entries, _ := newFixture()
	ctx := context.Background()

	first, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Debut", Artist: "Björk", Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)
	second, err := service.Create(ctx, "user-a", library.CreateInput{
		Title: "Post", Artist: "Björk", Acquisition: library.AcquisitionWishlist,
	})
	require.NoError(t, err)

	acquisition := library.AcquisitionLibrary
	err = service.UpdateBatch(ctx, "user-a", library.BatchInput{
		IDs:         []string{first.ID, second.ID},
		Acquisition: &acquisition,
	})
	require.NoError(t, err)

	for _, e := range entries.entries {
		assert.Equal(t, library.AcquisitionLibrary, e.Acquisition)
	}
}

func TestBatch_EmptyIDs(t *testing.T) {
	service, _, _ := newFixture()

	err := service.DeleteBatch(context.Background(), "user-a", nil)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}
