package domain

const (
	FrequencyDaily        = "daily"
	FrequencyWeekly       = "weekly"
	FrequencySpecificDays = "specific_days"
)

type Reminder struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"` // HH:MM
	IsActive  bool   `json:"is_active"`
	Notes     string `json:"notes,omitempty"`
}
