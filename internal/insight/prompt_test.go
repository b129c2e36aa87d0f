package insight

import (
	"testing"

	"shethrive-data/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_IncludesProfileAndLogs(t *testing.T) {
	p := BuildPrompt(PromptInput{
		FirstName:   "Sarah",
		Age:         29,
		CycleLength: 28,
		StartDate:   "2026-03-01",
		Phase:       "Follicular",
		CycleDay:    10,
		Logs: []domain.SymptomLog{
			{Date: "2026-03-09", Symptoms: []string{"Cramps"}, Severity: 4, Mood: domain.MoodTired, Notes: "private note"},
		},
	})

	assert.Contains(t, p, "- Name: Sarah")
	assert.Contains(t, p, "- Age: 29")
	assert.Contains(t, p, "- Cycle Length: 28 days")
	assert.Contains(t, p, "- Last Period Start: 2026-03-01")
	assert.Contains(t, p, "Follicular (day 10)")
	assert.Contains(t, p, `"symptoms":["Cramps"]`)
	assert.Contains(t, p, "under 150 words")
	assert.Contains(t, p, "not medical diagnosis")
	assert.NotContains(t, p, "private note")
	assert.NotContains(t, p, "Detected in this user's data")
}

func TestBuildPrompt_UnknownAge(t *testing.T) {
	p := BuildPrompt(PromptInput{FirstName: "A", CycleLength: 28})
	assert.Contains(t, p, "- Age: Unknown")
	assert.Contains(t, p, "Recent Symptom Logs (Last few days):\n[]")
}

func TestAnomalies(t *testing.T) {
	tests := []struct {
		name string
		in   PromptInput
		want int
	}{
		{"typical", PromptInput{CycleLength: 28, Age: 30}, 0},
		{"short cycle", PromptInput{CycleLength: 19, Age: 30}, 1},
		{"long cycle", PromptInput{CycleLength: 46}, 1},
		{"boundary cycle", PromptInput{CycleLength: 45, Age: 13}, 0},
		{"young", PromptInput{CycleLength: 28, Age: 12}, 1},
		{"old", PromptInput{CycleLength: 28, Age: 101}, 1},
		{"max severity", PromptInput{CycleLength: 28, Logs: []domain.SymptomLog{{Severity: 10}, {Severity: 10}}}, 1},
		{"mixed severity", PromptInput{CycleLength: 28, Logs: []domain.SymptomLog{{Severity: 10}, {Severity: 3}}}, 0},
		{"everything", PromptInput{CycleLength: 60, Age: 120, Logs: []domain.SymptomLog{{Severity: 10}}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Anomalies(tt.in), tt.want)
		})
	}
}

func TestBuildPrompt_ListsDetectedAnomalies(t *testing.T) {
	p := BuildPrompt(PromptInput{FirstName: "A", CycleLength: 50})
	assert.Contains(t, p, "Detected in this user's data")
	assert.Contains(t, p, "cycle length of 50 days")
}
