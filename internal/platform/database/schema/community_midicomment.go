package schema

// MidiCommentTable represents the 'community.midicomment' table
type MidiCommentTable struct {
	Table     string
	ID        string
	MidiID    string
	UserID    string
	Content   string
	CreatedAt string
	DeletedAt string
}

// MidiComment is the schema definition for community.midicomment
var MidiComment = MidiCommentTable{
	Table:     "community.midicomment",
	ID:        "id",
	MidiID:    "midiid",
	UserID:    "userid",
	Content:   "content",
	CreatedAt: "createdat",
	DeletedAt: "deletedat",
}

func (t MidiCommentTable) Columns() []string {
	return []string{t.ID, t.MidiID, t.UserID, t.Content, t.CreatedAt, t.DeletedAt}
}
