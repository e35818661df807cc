package schema

// MidiFileTable represents the 'community.midifile' table
type MidiFileTable struct {
	Table           string
	ID              string
	UploaderID      string
	Title           string
	Artist          string
	Description     string
	Tags            string
	Tier            string
	Status          string
	FilePath        string
	FileSize        string
	DurationSeconds string
	DownloadCount   string
	AvgRating       string
	RatingCount     string
	CreatedAt       string
	UpdatedAt       string
	DeletedAt       string
}

// MidiFile is the schema definition for community.midifile
var MidiFile = MidiFileTable{
	Table:           "community.midifile",
	ID:              "id",
	UploaderID:      "uploaderid",
	Title:           "title",
	Artist:          "artist",
	Description:     "description",
	Tags:            "tags",
	Tier:            "tier",
	Status:          "status",
	FilePath:        "filepath",
	FileSize:        "filesize",
	DurationSeconds: "durationseconds",
	DownloadCount:   "downloadcount",
	AvgRating:       "avgrating",
	RatingCount:     "ratingcount",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
	DeletedAt:       "deletedat",
}

func (t MidiFileTable) Columns() []string {
	return []string{
		t.ID, t.UploaderID, t.Title, t.Artist, t.Description, t.Tags, t.Tier,
		t.Status, t.FilePath, t.FileSize, t.DurationSeconds, t.DownloadCount,
		t.AvgRating, t.RatingCount, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
