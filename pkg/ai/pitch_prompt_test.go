package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func samplePitchInput() PitchInput {
	duration := 87
	submitted := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	return PitchInput{
		FounderName:          "Amara Okafor",
		FounderAge:           15,
		Country:              "Nigeria",
		City:                 "Lagos",
		School:               "Kings College",
		Grade:                "10",
		StartupName:          "SolarSack",
		PitchDescription:     "School bags with solar panels that charge reading lamps.",
		ProblemStatement:     "Students without electricity cannot study after dark.",
		SolutionDescription:  "A bag that charges during the walk to school.",
		TargetMarket:         "Rural secondary school students",
		VideoURL:             "https://videos.test/solarsack.mp4",
		VideoDurationSeconds: &duration,
		VideoSubmittedAt:     &submitted,
	}
}

func TestBuildPitchPromptsIsDeterministic(t *testing.T) {
	input := samplePitchInput()

	system1, user1 := BuildPitchPrompts(input)
	system2, user2 := BuildPitchPrompts(input)

	require.Equal(t, system1, system2)
	require.Equal(t, user1, user2)
	require.Equal(t, PitchEvaluatorPersona, system1)
}

func TestBuildPitchPromptsInterpolatesEveryField(t *testing.T) {
	_, user := BuildPitchPrompts(samplePitchInput())

	for _, expected := range []string{
		"Amara Okafor", "15 years old", "Lagos, Nigeria", "Kings College", "Grade: 10",
		"SolarSack", "solar panels", "cannot study after dark", "charges during the walk",
		"Rural secondary school students", "https://videos.test/solarsack.mp4",
		"87 seconds", "2025-03-01",
	} {
		require.Contains(t, user, expected)
	}
}

func TestBuildPitchPromptsCarriesRubricAndOutputContract(t *testing.T) {
	_, user := BuildPitchPrompts(samplePitchInput())

	require.Contains(t, user, "Clarity (0-30 points)")
	require.Contains(t, user, "Feasibility (0-30 points)")
	require.Contains(t, user, "Passion (0-20 points)")
	require.Contains(t, user, "Originality (0-20 points)")
	require.Contains(t, user, "90-100")
	require.Contains(t, user, "Below 50")
	require.Contains(t, user, "Tailor your feasibility judgment")
	require.Contains(t, user, "2-4 strengths")
	require.Contains(t, user, "2-3 improvements")
	require.Contains(t, user, "2-3 next steps")
}

func TestBuildPitchPromptsStripsMarkupAndFillsGaps(t *testing.T) {
	input := samplePitchInput()
	input.PitchDescription = `<script>alert("x")</script>Snacks & <b>drinks</b>`
	input.School = ""
	input.VideoDurationSeconds = nil
	input.FounderAge = 0

	_, user := BuildPitchPrompts(input)

	require.Contains(t, user, "Pitch: Snacks & drinks")
	require.NotContains(t, user, "<script>")
	require.Contains(t, user, "School: Not provided")
	require.Contains(t, user, "Duration: Not provided")
	require.Contains(t, user, "Founder age: unknown")
	require.False(t, strings.Contains(user, "&amp;"))
}

func TestSanitizeTextCollapsesGapsLeftByRemovedTags(t *testing.T) {
	require.Equal(t, "Narrow your to one school", SanitizeText("Narrow your <target market> to one school"))
	require.Equal(t, "Great energy, Amara!", SanitizeText("  Great energy,   <b>Amara</b>!\t"))
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", SanitizeText("First  paragraph.\n\n<i>Second</i> paragraph."))
	require.Equal(t, "", SanitizeText("<br>"))
}
