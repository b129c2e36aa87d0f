package domain

import "time"

const (
	ReportDailyInsight  = "daily_insight"
	ReportWeeklySummary = "weekly_summary"
)

// HealthReport Content is ciphertext at rest.
type HealthReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	GeneratedAt time.Time `json:"generated_at"`
}
