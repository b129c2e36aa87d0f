package domain

import (
	"math"
	"time"
)

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalArchived  = "archived"
)

type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	Unit         string     `json:"unit"`
	Category     string     `json:"goal_type"`
	Status       string     `json:"status"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// CompletionPercent is not capped at 100: over-completion is reported as is.
func (g Goal) CompletionPercent() int {
	if g.TargetValue <= 0 {
		return 0
	}
	return int(math.Round(g.CurrentValue / g.TargetValue * 100))
}
