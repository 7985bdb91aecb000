package cover_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdes/aldex/internal/catalog"
	"github.com/qdes/aldex/internal/cover"
	"github.com/qdes/aldex/internal/platform/apperr"
)

// # Test Fakes

type fakeAlbums struct {
	albums    map[string]*catalog.Album
	setCalls  int
	findCalls int
}

func (f *fakeAlbums) FindByID(_ context.Context, id string) (*catalog.Album, error) {
	f.findCalls++
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Album")
}

func (f *fakeAlbums) SetCover(_ context.Context, albumID, ref, url string) (bool, error) {
	f.setCalls++
	a, ok := f.albums[albumID]
	if !ok {
		return false, apperr.NotFound("Album")
	}
	if a.CoverImageRef != nil || a.CoverURL != nil {
		return false, nil
	}
	a.CoverImageRef, a.CoverURL = &ref, &url
	return true, nil
}

type fakeLinks struct {
	// entryID -> albumID
	links map[string]string
}

func (f *fakeLinks) AlbumIDForEntry(_ context.Context, id string) (string, error) {
	if albumID, ok := f.links[id]; ok {
		return albumID, nil
	}
	return "", apperr.NotFound("Entry")
}

type fakeBlobs struct {
	stored [][]byte
	types  []string
}

func (f *fakeBlobs) Store(_ context.Context, content []byte, contentType string) (string, error) {
	f.stored = append(f.stored, content)
	f.types = append(f.types, contentType)
	return "blob-ref-1", nil
}

type fakeCoverArt struct{}

func (fakeCoverArt) CoverArtURL(mbid string) string {
	return "https://coverart.test/release-group/" + mbid + "/front"
}

func newPipeline(albums *fakeAlbums, links *fakeLinks, blobs *fakeBlobs, client *http.Client) *cover.Pipeline {
	return cover.NewPipeline(albums, links, blobs, client, fakeCoverArt{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func imageServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// # Tests

/*
TestBackfill_StoresCoverOnce runs the same task twice and verifies the
image is fetched, persisted, and attached exactly once.
*/
func TestBackfill_StoresCoverOnce(t *testing.T) {
	server := imageServer(t, http.StatusOK, []byte("png-bytes"))

	albums := &fakeAlbums{albums: map[string]*catalog.Album{
		"album-1": {ID: "album-1", Title: "Debut", Artist: "Björk"},
	}}
	blobs := &fakeBlobs{}
	pipeline := newPipeline(albums, &fakeLinks{}, blobs, server.Client())

	task := cover.Task{TargetID: "album-1", CoverURL: server.URL + "/front.png"}
	pipeline.Backfill(context.Background(), task)

	require.Len(t, blobs.stored, 1)
	assert.Equal(t, []byte("png-bytes"), blobs.stored[0])
	assert.Equal(t, "image/png", blobs.types[0])

	album := albums.albums["album-1"]
	require.NotNil(t, album.CoverImageRef)
	assert.Equal(t, "blob-ref-1", *album.CoverImageRef)
	require.NotNil(t, album.CoverURL)

	// Second invocation sees the cover and does nothing.
	pipeline.Backfill(context.Background(), task)
	assert.Len(t, blobs.stored, 1, "a covered album must never be fetched again")
	assert.Equal(t, 1, albums.setCalls)
}

/*
TestBackfill_AlreadyCovered verifies that an album with any cover claim is
left alone, including one with only an external URL.
*/
func TestBackfill_AlreadyCovered(t *testing.T) {
	url := "https://img.example/existing.jpg"
	tests := []struct {
		name  string
		album *catalog.Album
	}{
		{"has_blob_ref", &catalog.Album{ID: "album-1", CoverImageRef: strPtr("existing-ref")}},
		{"has_url_only", &catalog.Album{ID: "album-1", CoverURL: &url}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			albums := &fakeAlbums{albums: map[string]*catalog.Album{"album-1": tt.album}}
			blobs := &fakeBlobs{}
			pipeline := newPipeline(albums, &fakeLinks{}, blobs, http.DefaultClient)

			pipeline.Backfill(context.Background(), cover.Task{
				TargetID: "album-1",
				CoverURL: "https://img.example/new.jpg",
			})

			assert.Empty(t, blobs.stored)
			assert.Zero(t, albums.setCalls)
		})
	}
}

/*
TestBackfill_EntryIDTarget verifies that a task carrying a library entry ID
is normalized to the album it references.
*/
func TestBackfill_EntryIDTarget(t *testing.T) {
	server := imageServer(t, http.StatusOK, []byte("png-bytes"))

	albums := &fakeAlbums{albums: map[string]*catalog.Album{
		"album-1": {ID: "album-1"},
	}}
	links := &fakeLinks{links: map[string]string{"entry-9": "album-1"}}
	blobs := &fakeBlobs{}
	pipeline := newPipeline(albums, links, blobs, server.Client())

	pipeline.Backfill(context.Background(), cover.Task{
		TargetID: "entry-9",
		CoverURL: server.URL + "/front.png",
	})

	require.NotNil(t, albums.albums["album-1"].CoverImageRef)
}

/*
TestBackfill_SilentFailures drives every abort path and verifies nothing
panics, nothing is stored, and no cover is attached.
*/
func TestBackfill_SilentFailures(t *testing.T) {
	t.Run("unknown_album", func(t *testing.T) {
		albums := &fakeAlbums{albums: map[string]*catalog.Album{}}
		blobs := &fakeBlobs{}
		pipeline := newPipeline(albums, &fakeLinks{}, blobs, http.DefaultClient)

		pipeline.Backfill(context.Background(), cover.Task{
			TargetID: "missing", CoverURL: "https://img.example/x.jpg",
		})
		assert.Empty(t, blobs.stored)
	})

	t.Run("no_cover_source", func(t *testing.T) {
		albums := &fakeAlbums{albums: map[string]*catalog.Album{"album-1": {ID: "album-1"}}}
		blobs := &fakeBlobs{}
		pipeline := newPipeline(albums, &fakeLinks{}, blobs, http.DefaultClient)

		pipeline.Backfill(context.Background(), cover.Task{TargetID: "album-1"})
		assert.Empty(t, blobs.stored)
		assert.Zero(t, albums.setCalls)
	})

	t.Run("upstream_404", func(t *testing.T) {
		server := imageServer(t, http.StatusNotFound, nil)
		albums := &fakeAlbums{albums: map[string]*catalog.Album{"album-1": {ID: "album-1"}}}
		blobs := &fakeBlobs{}
		pipeline := newPipeline(albums, &fakeLinks{}, blobs, server.Client())

		pipeline.Backfill(context.Background(), cover.Task{
			TargetID: "album-1", CoverURL: server.URL + "/front.png",
		})
		assert.Empty(t, blobs.stored)
		assert.Zero(t, albums.setCalls)
	})

	t.Run("empty_body", func(t *testing.T) {
		server := imageServer(t, http.StatusOK, nil)
		albums := &fakeAlbums{albums: map[string]*catalog.Album{"album-1": {ID: "album-1"}}}
		blobs := &fakeBlobs{}
		pipeline := newPipeline(albums, &fakeLinks{}, blobs, server.Client())

		pipeline.Backfill(context.Background(), cover.Task{
			TargetID: "album-1", CoverURL: server.URL + "/front.png",
		})
		assert.Empty(t, blobs.stored)
	})
}

/*
TestBackfill_DerivesCoverArtURL verifies the fallback to the Cover Art
Archive when the task has a MusicBrainz ID but no explicit URL.
*/
func TestBackfill_DerivesCoverArtURL(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write([]byte("jpg-bytes"))
	}))
	t.Cleanup(server.Close)

	albums := &fakeAlbums{albums: map[string]*catalog.Album{"album-1": {ID: "album-1"}}}
	blobs := &fakeBlobs{}

	// A resolver pointed at the test server instead of the real archive.
	pipeline := cover.NewPipeline(albums, &fakeLinks{}, blobs, server.Client(),
		serverCoverArt{base: server.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	pipeline.Backfill(context.Background(), cover.Task{
		TargetID:      "album-1",
		MusicBrainzID: "mbid-123",
	})

	assert.Equal(t, "/release-group/mbid-123/front", requested)
	assert.Len(t, blobs.stored, 1)
}

type serverCoverArt struct{ base string }

func (s serverCoverArt) CoverArtURL(mbid string) string {
	return s.base + "/release-group/" + mbid + "/front"
}

func strPtr(s string) *string { return &s }
