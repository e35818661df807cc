package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table             string
	ID                string
	Username          string
	Email             string
	Password          string
	Rank              string
	IsAdmin           string
	Points            string
	TotalPointsEarned string
	CheckinStreak     string
	LastCheckinAt     string
	CreatedAt         string
	UpdatedAt         string
	DeletedAt         string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:             "users.account",
	ID:                "id",
	Username:          "username",
	Email:             "email",
	Password:          "passwordhash",
	Rank:              "rank",
	IsAdmin:           "isadmin",
	Points:            "points",
	TotalPointsEarned: "totalpointsearned",
	CheckinStreak:     "checkinstreak",
	LastCheckinAt:     "lastcheckinat",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
	DeletedAt:         "deletedat",
}

func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Password, t.Rank, t.IsAdmin, t.Points,
		t.TotalPointsEarned, t.CheckinStreak, t.LastCheckinAt,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
