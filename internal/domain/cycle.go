package domain

// CycleRecord most recent period start and cycle shape. One per user.
type CycleRecord struct {
	UserID       string `json:"user_id"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	CycleLength  int    `json:"length"`
	PeriodLength int    `json:"period_length"`
}

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)
