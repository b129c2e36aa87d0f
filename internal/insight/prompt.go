package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"shethrive-data/internal/domain"
)

// Anomaly thresholds called out to the model.
const (
	MinTypicalCycle = 20
	MaxTypicalCycle = 45
	MinAge          = 13
	MaxAge          = 100
	MaxSeverity     = 10
)

// PromptInput what the model is told about the user.
type PromptInput struct {
	FirstName   string
	Age         int // 0 when unknown
	CycleLength int
	StartDate   string
	Phase       string
	CycleDay    int
	Logs        []domain.SymptomLog
}

// Anomalies lists unusual values in in, in prompt wording.
func Anomalies(in PromptInput) []string {
	var out []string
	if in.CycleLength < MinTypicalCycle || in.CycleLength > MaxTypicalCycle {
		out = append(out, fmt.Sprintf("cycle length of %d days is outside the typical %d-%d day range", in.CycleLength, MinTypicalCycle, MaxTypicalCycle))
	}
	if in.Age != 0 && (in.Age < MinAge || in.Age > MaxAge) {
		out = append(out, fmt.Sprintf("reported age %d is outside %d-%d", in.Age, MinAge, MaxAge))
	}
	if len(in.Logs) > 0 {
		allMax := true
		for _, l := range in.Logs {
			if l.Severity < MaxSeverity {
				allMax = false
				break
			}
		}
		if allMax {
			out = append(out, "symptom severity is consistently 10/10")
		}
	}
	return out
}

type promptLog struct {
	Date     string   `json:"date"`
	Symptoms []string `json:"symptoms"`
	Severity int      `json:"severity"`
	Mood     string   `json:"mood"`
}

// BuildPrompt renders the insight request. Notes are left out so free text
// never leaves the store.
func BuildPrompt(in PromptInput) string {
	logs := make([]promptLog, 0, len(in.Logs))
	for _, l := range in.Logs {
		logs = append(logs, promptLog{Date: l.Date, Symptoms: l.Symptoms, Severity: l.Severity, Mood: string(l.Mood)})
	}
	logJSON, err := json.Marshal(logs)
	if err != nil {
		logJSON = []byte("[]")
	}
	age := "Unknown"
	if in.Age > 0 {
		age = fmt.Sprint(in.Age)
	}

	var b strings.Builder
	b.WriteString("Act as a compassionate, expert female health assistant for an app called SheThrive.\n\n")
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Age: %s\n\n", in.FirstName, age)
	b.WriteString("Cycle Context:\n")
	fmt.Fprintf(&b, "- Cycle Length: %d days\n- Last Period Start: %s\n", in.CycleLength, in.StartDate)
	if in.Phase != "" {
		fmt.Fprintf(&b, "- Current Phase: %s (day %d)\n", in.Phase, in.CycleDay)
	}
	fmt.Fprintf(&b, "\nRecent Symptom Logs (Last few days):\n%s\n\n", logJSON)
	b.WriteString("Based on this data, provide a personalized, empathetic, and scientifically grounded health insight.\n\n")
	b.WriteString("CRITICAL INSTRUCTION FOR DATA ANOMALIES:\n")
	fmt.Fprintf(&b, "- If the user's cycle length is unusual (< %d days or > %d days), gently suggest consulting a healthcare provider about irregular cycles, while still offering general wellness advice.\n", MinTypicalCycle, MaxTypicalCycle)
	fmt.Fprintf(&b, "- If the user's age is < %d or > %d, provide generic, safe wellness advice suitable for all ages and do not make assumptions about fertility.\n", MinAge, MaxAge)
	b.WriteString("- If symptom severity is consistently 10/10, advise seeking immediate medical attention in a calm way.\n")
	if flags := Anomalies(in); len(flags) > 0 {
		b.WriteString("\nDetected in this user's data:\n")
		for _, f := range flags {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	b.WriteString("\nFocus on specific advice regarding nutrition, stress management, or sleep that aligns with her likely cycle phase and reported symptoms.\n")
	b.WriteString("Keep it concise (under 150 words).\n\n")
	b.WriteString("Structure the response clearly. Do not use medical jargon without explanation.\n")
	b.WriteString("IMPORTANT: This is for informational purposes only, not medical diagnosis.\n")
	return b.String()
}
