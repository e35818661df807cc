package schema

// PointTransactionTable represents the 'community.pointtransaction' table
type PointTransactionTable struct {
	Table       string
	ID          string
	UserID      string
	Amount      string
	Reason      string
	ReferenceID string
	CreatedAt   string
}

// PointTransaction is the schema definition for community.pointtransaction
var PointTransaction = PointTransactionTable{
	Table:       "community.pointtransaction",
	ID:          "id",
	UserID:      "userid",
	Amount:      "amount",
	Reason:      "reason",
	ReferenceID: "referenceid",
	CreatedAt:   "createdat",
}

func (t PointTransactionTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Amount, t.Reason, t.ReferenceID, t.CreatedAt}
}
