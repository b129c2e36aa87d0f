// Package cycle derives the current cycle day, phase and a hormone curve from
// a cycle record.
//
// The output is an illustrative approximation for display. It is not a
// medical model and must not be presented as clinical guidance.
package cycle

import (
	"math"
	"time"

	"shethrive-data/internal/domain"
)

type Phase string

const (
	Menstrual  Phase = "Menstrual"
	Follicular Phase = "Follicular"
	Ovulation  Phase = "Ovulation"
	Luteal     Phase = "Luteal"
)

const (
	lutealLength  = 14
	baselineLevel = 20.0
	ovulationPeak = 60.0
	minLevel      = 10.0
	maxLevel      = 100.0
)

// Day is max(1, elapsed mod CycleLength) where elapsed is the absolute number
// of whole calendar days between StartDate and now. An unparsable record
// yields day 1.
func Day(rec domain.CycleRecord, now time.Time) int {
	start, err := time.Parse(domain.DateLayout, rec.StartDate)
	if err != nil || rec.CycleLength <= 0 {
		return 1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	elapsed := int(math.Abs(today.Sub(start).Hours()) / 24)
	day := elapsed % rec.CycleLength
	if day < 1 {
		return 1
	}
	return day
}

// PhaseFor classifies a cycle day. Menstrual wins over the fixed
// ovulation window for long periods.
func PhaseFor(day, periodLength int) Phase {
	switch {
	case day <= periodLength:
		return Menstrual
	case day >= 12 && day <= 16:
		return Ovulation
	case day > 16:
		return Luteal
	default:
		return Follicular
	}
}

// OvulationDay approximate ovulation day for a cycle length.
func OvulationDay(cycleLength int) int {
	return cycleLength - lutealLength
}

// Point one day on the hormone curve.
type Point struct {
	Day         int     `json:"day"`
	Level       float64 `json:"level"`
	IsPeriod    bool    `json:"is_period"`
	IsOvulation bool    `json:"is_ovulation"`
}

// HormoneCurve synthetic level for days 1..cycleLength, clamped to [10, 100].
func HormoneCurve(cycleLength, periodLength int) []Point {
	if cycleLength <= 0 {
		return []Point{}
	}
	ovulation := OvulationDay(cycleLength)
	points := make([]Point, 0, cycleLength)
	for day := 1; day <= cycleLength; day++ {
		level := baselineLevel
		if day > periodLength && day < ovulation {
			level += float64(day-periodLength) * 5
		}
		if day == ovulation {
			level = ovulationPeak
		}
		if day > ovulation && day < cycleLength-2 {
			level = 50 + 10*math.Sin(float64(day))
		}
		points = append(points, Point{
			Day:         day,
			Level:       math.Min(maxLevel, math.Max(minLevel, level)),
			IsPeriod:    day <= periodLength,
			IsOvulation: day == ovulation,
		})
	}
	return points
}

// Status dashboard summary of where the user is in the cycle.
type Status struct {
	Day           int    `json:"day"`
	Phase         Phase  `json:"phase"`
	DaysRemaining int    `json:"days_remaining"`
	NextPeriod    string `json:"next_period"` // YYYY-MM-DD
	OvulationDay  int    `json:"ovulation_day"`
	IsPeriod      bool   `json:"is_period"`
}

func Summarize(rec domain.CycleRecord, now time.Time) Status {
	day := Day(rec, now)
	remaining := rec.CycleLength - day
	if remaining < 0 {
		remaining = 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Status{
		Day:           day,
		Phase:         PhaseFor(day, rec.PeriodLength),
		DaysRemaining: remaining,
		NextPeriod:    today.AddDate(0, 0, remaining).Format(domain.DateLayout),
		OvulationDay:  OvulationDay(rec.CycleLength),
		IsPeriod:      day <= rec.PeriodLength,
	}
}
