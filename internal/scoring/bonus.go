// Package scoring holds the deterministic point adjustments applied on top of the
// model's raw pitch score.
package scoring

import (
	"math"
	"time"
)

const (
	// MaxScore caps every final score.
	MaxScore = 100

	EarlySubmissionPoints  = 5
	EarlySubmissionMaxDays = 7
	EarlySubmissionReason  = "Submitted in first week."

	OptimalDurationPoints = 3
	OptimalDurationMin    = 85
	OptimalDurationMax    = 90
	OptimalDurationReason = "Perfect pitch length (85–90s)."
)

// Input is everything the bonus rules look at. Nil pointers mean the fact is unknown
// and the matching rule does not apply.
type Input struct {
	RawScore        int
	SubmittedAt     *time.Time
	RoundStart      time.Time
	DurationSeconds *int
}

// Bonus is a single applied adjustment.
type Bonus struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Result is the adjusted score plus the bonuses that produced it.
type Result struct {
	FinalScore int
	Bonuses    []Bonus
}

// Reasons lists the human readable reason of each applied bonus, in rule order.
func (r Result) Reasons() []string {
	reasons := make([]string, 0, len(r.Bonuses))
	for _, bonus := range r.Bonuses {
		reasons = append(reasons, bonus.Reason)
	}
	return reasons
}

// Total sums the points of every applied bonus.
func (r Result) Total() int {
	total := 0
	for _, bonus := range r.Bonuses {
		total += bonus.Points
	}
	return total
}

// ApplyBonuses evaluates the early submission and optimal duration rules.
func ApplyBonuses(in Input) Result {
	bonuses := make([]Bonus, 0, 2)

	if days, ok := DaysSinceRoundStart(in.SubmittedAt, in.RoundStart); ok && days >= 0 && days <= EarlySubmissionMaxDays {
		bonuses = append(bonuses, Bonus{Points: EarlySubmissionPoints, Reason: EarlySubmissionReason})
	}

	if in.DurationSeconds != nil {
		duration := *in.DurationSeconds
		if duration >= OptimalDurationMin && duration <= OptimalDurationMax {
			bonuses = append(bonuses, Bonus{Points: OptimalDurationPoints, Reason: OptimalDurationReason})
		}
	}

	total := in.RawScore
	for _, bonus := range bonuses {
		total += bonus.Points
	}

	return Result{FinalScore: clamp(total), Bonuses: bonuses}
}

// DaysSinceRoundStart returns the whole days elapsed between round start and submission,
// rounded down so a submission an hour before the round opens counts as day -1.
func DaysSinceRoundStart(submittedAt *time.Time, roundStart time.Time) (int, bool) {
	if submittedAt == nil || submittedAt.IsZero() || roundStart.IsZero() {
		return 0, false
	}
	elapsed := submittedAt.Sub(roundStart)
	return int(math.Floor(elapsed.Hours() / 24)), true
}

func clamp(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
