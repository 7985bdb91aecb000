package schema

// StorageBlobTable represents the 'storage.blob' table
type StorageBlobTable struct {
	Table       string
	ID          string
	Content     string
	ContentType string
	ByteSize    string
	CreatedAt   string
}

// StorageBlob is the schema definition for storage.blob
var StorageBlob = StorageBlobTable{
	Table:       "storage.blob",
	ID:          "id",
	Content:     "content",
	ContentType: "contenttype",
	ByteSize:    "bytesize",
	CreatedAt:   "createdat",
}

func (t StorageBlobTable) Columns() []string {
	return []string{t.ID, t.Content, t.ContentType, t.ByteSize, t.CreatedAt}
}
