package schema

// LibraryUserAlbumTable represents the 'library.useralbum' table
type LibraryUserAlbumTable struct {
	Table        string
	ID           string
	UserID       string
	AlbumID      string
	Acquisition  string
	Progress     string
	IsArchived   string
	Rating       string
	PersonalLink string
	Notes        string
	AddedAt      string
	CompletedAt  string
}

// LibraryUserAlbum is the schema definition for library.useralbum
var LibraryUserAlbum = LibraryUserAlbumTable{
	Table:        "library.useralbum",
	ID:           "id",
	UserID:       "userid",
	AlbumID:      "albumid",
	Acquisition:  "acquisition",
	Progress:     "progress",
	IsArchived:   "isarchived",
	Rating:       "rating",
	PersonalLink: "personallink",
	Notes:        "notes",
	AddedAt:      "addedat",
	CompletedAt:  "completedat",
}

func (t LibraryUserAlbumTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.AlbumID, t.Acquisition, t.Progress, t.IsArchived,
		t.Rating, t.PersonalLink, t.Notes, t.AddedAt, t.CompletedAt,
	}
}
