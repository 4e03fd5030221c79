package ai

import (
	"context"
	"time"
)

// PitchInput is the applicant data rendered into the evaluation prompt.
type PitchInput struct {
	FounderName          string
	FounderAge           int
	Country              string
	City                 string
	School               string
	Grade                string
	StartupName          string
	PitchDescription     string
	ProblemStatement     string
	SolutionDescription  string
	TargetMarket         string
	VideoURL             string
	VideoDurationSeconds *int
	VideoSubmittedAt     *time.Time
}

// PitchScore is the structured evaluation returned by the model.
type PitchScore struct {
	OverallScore     int      `json:"overall_score"`
	ClarityScore     int      `json:"clarity_score"`
	FeasibilityScore int      `json:"feasibility_score"`
	PassionScore     int      `json:"passion_score"`
	OriginalityScore int      `json:"originality_score"`
	Feedback         string   `json:"feedback"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	NextSteps        []string `json:"next_steps"`
	Model            string   `json:"-"`
	PromptVersion    string   `json:"-"`
}

// SubScoreTotal sums the four rubric criteria.
func (s PitchScore) SubScoreTotal() int {
	return s.ClarityScore + s.FeasibilityScore + s.PassionScore + s.OriginalityScore
}

// PitchScorer describes a model capable of scoring a pitch application.
type PitchScorer interface {
	ScorePitch(ctx context.Context, input PitchInput) (PitchScore, error)
}
