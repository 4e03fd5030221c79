package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var roundStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func at(days int) *time.Time {
	ts := roundStart.AddDate(0, 0, days)
	return &ts
}

func seconds(v int) *int {
	return &v
}

func TestEarlySubmissionBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		days    int
		applies bool
	}{
		{"round start", 0, true},
		{"last day of first week", 7, true},
		{"eighth day", 8, false},
		{"before round start", -1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ApplyBonuses(Input{RawScore: 60, SubmittedAt: at(tc.days), RoundStart: roundStart})
			if tc.applies {
				require.Equal(t, 65, result.FinalScore)
				require.Equal(t, []string{EarlySubmissionReason}, result.Reasons())
			} else {
				require.Equal(t, 60, result.FinalScore)
				require.Empty(t, result.Bonuses)
			}
		})
	}
}

func TestEarlySubmissionHoursBeforeStartIsDayMinusOne(t *testing.T) {
	submitted := roundStart.Add(-2 * time.Hour)

	days, ok := DaysSinceRoundStart(&submitted, roundStart)
	require.True(t, ok)
	require.Equal(t, -1, days)

	result := ApplyBonuses(Input{RawScore: 60, SubmittedAt: &submitted, RoundStart: roundStart})
	require.Empty(t, result.Bonuses)
}

func TestDurationBoundaries(t *testing.T) {
	cases := map[int]bool{84: false, 85: true, 87: true, 90: true, 91: false}

	for duration, applies := range cases {
		result := ApplyBonuses(Input{RawScore: 50, DurationSeconds: seconds(duration)})
		if applies {
			require.Equal(t, 53, result.FinalScore, "duration %d", duration)
			require.Equal(t, []string{OptimalDurationReason}, result.Reasons())
		} else {
			require.Equal(t, 50, result.FinalScore, "duration %d", duration)
			require.Empty(t, result.Bonuses)
		}
	}
}

func TestBonusesStackAndClamp(t *testing.T) {
	result := ApplyBonuses(Input{RawScore: 82, SubmittedAt: at(0), RoundStart: roundStart, DurationSeconds: seconds(87)})
	require.Equal(t, 90, result.FinalScore)
	require.Len(t, result.Bonuses, 2)
	require.Equal(t, 8, result.Total())

	capped := ApplyBonuses(Input{RawScore: 97, SubmittedAt: at(3), RoundStart: roundStart, DurationSeconds: seconds(88)})
	require.Equal(t, MaxScore, capped.FinalScore)
	require.Len(t, capped.Bonuses, 2)
}

func TestBonusReasonsAreStoredVerbatim(t *testing.T) {
	result := ApplyBonuses(Input{RawScore: 60, SubmittedAt: at(2), RoundStart: roundStart, DurationSeconds: seconds(85)})

	require.Equal(t, []string{"Submitted in first week.", "Perfect pitch length (85–90s)."}, result.Reasons())
}

func TestNoBonusScenario(t *testing.T) {
	result := ApplyBonuses(Input{RawScore: 70, SubmittedAt: at(10), RoundStart: roundStart, DurationSeconds: seconds(60)})
	require.Equal(t, 70, result.FinalScore)
	require.Empty(t, result.Bonuses)
}

func TestUnknownFactsSkipRules(t *testing.T) {
	result := ApplyBonuses(Input{RawScore: 40})
	require.Equal(t, 40, result.FinalScore)
	require.Empty(t, result.Bonuses)

	noRound := ApplyBonuses(Input{RawScore: 40, SubmittedAt: at(1)})
	require.Empty(t, noRound.Bonuses)
}

func TestApplyBonusesIsDeterministicAndNeverReduces(t *testing.T) {
	for raw := 0; raw <= MaxScore; raw += 7 {
		for _, days := range []int{-3, 0, 4, 7, 8, 30} {
			for _, duration := range []int{30, 85, 90, 120} {
				in := Input{RawScore: raw, SubmittedAt: at(days), RoundStart: roundStart, DurationSeconds: seconds(duration)}
				first := ApplyBonuses(in)
				second := ApplyBonuses(in)

				require.Equal(t, first, second)
				require.LessOrEqual(t, first.FinalScore, MaxScore)
				require.GreaterOrEqual(t, first.FinalScore, 0)
				if len(first.Bonuses) > 0 {
					require.GreaterOrEqual(t, first.FinalScore, raw)
				}
			}
		}
	}
}
