package domain

import "time"

type Mood string

const (
	MoodHappy     Mood = "Happy"
	MoodSad       Mood = "Sad"
	MoodAnxious   Mood = "Anxious"
	MoodEnergetic Mood = "Energetic"
	MoodTired     Mood = "Tired"
	MoodIrritable Mood = "Irritable"
)

// SymptomLog one saved check-in. Append-only.
type SymptomLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Symptoms  []string  `json:"symptoms"`
	Severity  int       `json:"severity"`
	Mood      Mood      `json:"mood"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
