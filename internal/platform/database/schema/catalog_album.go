package schema

// CatalogAlbumTable represents the 'catalog.album' table
type CatalogAlbumTable struct {
	Table         string
	ID            string
	Title         string
	Artist        string
	ReleaseYear   string
	MusicBrainzID string
	CoverImageRef string
	CoverURL      string
	Genres        string
	CreatedAt     string
	UpdatedAt     string
}

// CatalogAlbum is the schema definition for catalog.album
var CatalogAlbum = CatalogAlbumTable{
	Table:         "catalog.album",
	ID:            "id",
	Title:         "title",
	Artist:        "artist",
	ReleaseYear:   "releaseyear",
	MusicBrainzID: "musicbrainzid",
	CoverImageRef: "coverimageref",
	CoverURL:      "coverurl",
	Genres:        "genres",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
}

func (t CatalogAlbumTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Artist, t.ReleaseYear, t.MusicBrainzID, t.CoverImageRef,
		t.CoverURL, t.Genres, t.CreatedAt, t.UpdatedAt,
	}
}
