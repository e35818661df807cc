package schema

// MidiDownloadTable represents the 'community.mididownload' table
type MidiDownloadTable struct {
	Table      string
	ID         string
	MidiID     string
	UserID     string
	CostPoints string
	CreatedAt  string
}

// MidiDownload is the schema definition for community.mididownload
var MidiDownload = MidiDownloadTable{
	Table:      "community.mididownload",
	ID:         "id",
	MidiID:     "midiid",
	UserID:     "userid",
	CostPoints: "costpoints",
	CreatedAt:  "createdat",
}

func (t MidiDownloadTable) Columns() []string {
	return []string{t.ID, t.MidiID, t.UserID, t.CostPoints, t.CreatedAt}
}
