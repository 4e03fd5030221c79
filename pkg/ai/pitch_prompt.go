package ai

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// PitchRubricVersion identifies the persona and rubric text below. Bump it whenever
// either constant changes so stored scores can be traced to the prompt that produced them.
const PitchRubricVersion = "pitch-rubric-v1"

// PitchEvaluatorPersona is the system prompt for every pitch evaluation.
const PitchEvaluatorPersona = `You are an experienced startup mentor and pitch judge for a youth entrepreneurship program.
The founders you evaluate are young people, often still in school, presenting their first business idea in a short video pitch.

Your evaluation philosophy:
- Be constructive. Every piece of criticism must come with a concrete way to improve.
- Be age-aware. Judge ambition and feasibility relative to what a founder of the stated age can realistically achieve.
- Be encouraging. Celebrate genuine effort, curiosity and originality, while staying honest about weaknesses.
- Be consistent. Similar pitches must receive similar scores.

Always respond by calling the submit_pitch_evaluation function. Never answer in free text.`

// PitchRubric describes the weighted criteria and the scoring bands.
const PitchRubric = `SCORING CRITERIA (total 100 points):
1. Clarity (0-30 points): Is the problem clearly stated? Is the solution easy to understand? Is the pitch well structured?
2. Feasibility (0-30 points): Can this realistically be built and launched by this founder? Is the target market reachable?
3. Passion (0-20 points): Does the founder show genuine commitment, energy and confidence?
4. Originality (0-20 points): Is the idea fresh, or a creative twist on an existing solution?

The four criterion scores MUST add up exactly to overall_score.

SCORING BANDS:
- 90-100: Exceptional. Ready to compete at the highest level.
- 80-89: Excellent. Strong pitch with minor gaps.
- 70-79: Good. Solid foundation with clear room to grow.
- 60-69: Fair. Promising idea that needs significant development.
- 50-59: Developing. Key elements are missing or unclear.
- Below 50: Needs rework. The pitch should be substantially rethought.`

var promptPolicy = bluemonday.StrictPolicy()

// BuildPitchPrompts renders the system and user prompts for an application.
// The output depends only on input.
func BuildPitchPrompts(input PitchInput) (string, string) {
	return PitchEvaluatorPersona, buildPitchUserPrompt(input)
}

func buildPitchUserPrompt(input PitchInput) string {
	builder := strings.Builder{}
	builder.WriteString("Evaluate the following startup pitch application.\n\n")

	builder.WriteString("## Founder\n")
	fmt.Fprintf(&builder, "- Name: %s\n", cleanField(input.FounderName))
	fmt.Fprintf(&builder, "- Age: %s\n", formatAge(input.FounderAge))
	fmt.Fprintf(&builder, "- Location: %s, %s\n", cleanField(input.City), cleanField(input.Country))
	fmt.Fprintf(&builder, "- School: %s\n", cleanField(input.School))
	fmt.Fprintf(&builder, "- Grade: %s\n", cleanField(input.Grade))

	builder.WriteString("\n## Startup\n")
	fmt.Fprintf(&builder, "- Name: %s\n", cleanField(input.StartupName))
	fmt.Fprintf(&builder, "- Pitch: %s\n", cleanField(input.PitchDescription))
	fmt.Fprintf(&builder, "- Problem: %s\n", cleanField(input.ProblemStatement))
	fmt.Fprintf(&builder, "- Solution: %s\n", cleanField(input.SolutionDescription))
	fmt.Fprintf(&builder, "- Target market: %s\n", cleanField(input.TargetMarket))

	builder.WriteString("\n## Video pitch\n")
	fmt.Fprintf(&builder, "- Video: %s\n", cleanField(input.VideoURL))
	if input.VideoDurationSeconds != nil {
		fmt.Fprintf(&builder, "- Duration: %d seconds\n", *input.VideoDurationSeconds)
	} else {
		builder.WriteString("- Duration: Not provided\n")
	}
	if input.VideoSubmittedAt != nil && !input.VideoSubmittedAt.IsZero() {
		fmt.Fprintf(&builder, "- Submitted: %s\n", input.VideoSubmittedAt.UTC().Format("2006-01-02"))
	} else {
		builder.WriteString("- Submitted: Not provided\n")
	}

	builder.WriteString("\n")
	builder.WriteString(PitchRubric)
	builder.WriteString("\n\n## Instructions\n")
	fmt.Fprintf(&builder, "- Founder age: %s. Tailor your feasibility judgment to what is realistic at that age.\n", formatAge(input.FounderAge))
	builder.WriteString("- Provide 2-4 strengths as short bullet-style sentences.\n")
	builder.WriteString("- Provide 2-3 improvements as short, actionable bullet-style sentences.\n")
	builder.WriteString("- Provide 2-3 next steps the founder can take in the coming weeks.\n")
	builder.WriteString("- Write the feedback summary in a warm, encouraging tone addressed directly to the founder.\n")

	return builder.String()
}

// SanitizeText strips markup from free text while keeping it readable as plain text.
// Runs of spaces left behind by removed tags are collapsed; line breaks survive.
func SanitizeText(value string) string {
	stripped := html.UnescapeString(promptPolicy.Sanitize(value))

	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func cleanField(value string) string {
	cleaned := SanitizeText(value)
	if cleaned == "" {
		return "Not provided"
	}
	return cleaned
}

func formatAge(age int) string {
	if age <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d years old", age)
}
