package core

// Snapshot is every collection the ledger derives from, read at one moment.
type Snapshot struct {
	Today        CalendarDate     `json:"today"`
	Settings     Settings         `json:"settings"`
	Students     []Student        `json:"students"`
	Transactions []Transaction    `json:"transactions"`
	Planned      []PlannedExpense `json:"plannedExpenses"`
}
