package schema

// MidiRatingTable represents the 'community.midirating' table
type MidiRatingTable struct {
	Table     string
	ID        string
	MidiID    string
	UserID    string
	Score     string
	CreatedAt string
	UpdatedAt string
}

// MidiRating is the schema definition for community.midirating
var MidiRating = MidiRatingTable{
	Table:     "community.midirating",
	ID:        "id",
	MidiID:    "midiid",
	UserID:    "userid",
	Score:     "score",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t MidiRatingTable) Columns() []string {
	return []string{t.ID, t.MidiID, t.UserID, t.Score, t.CreatedAt, t.UpdatedAt}
}
