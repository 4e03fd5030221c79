package dto

import (
	"time"

	"github.com/noah-isme/gema-pitch-api/internal/models"
)

// EvaluateApplicationRequest is the body accepted by the scoring endpoint.
type EvaluateApplicationRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
}

// FeedbackResponse is the structured feedback returned to callers.
type FeedbackResponse struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	NextSteps      []string `json:"next_steps"`
	BonusesApplied []string `json:"bonuses_applied"`
}

// BonusResponse describes one applied bonus rule.
type BonusResponse struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// EvaluationResult is the outcome of a successful pipeline run.
type EvaluationResult struct {
	ApplicationID    string           `json:"application_id"`
	FinalScore       int              `json:"final_score"`
	AIScore          int              `json:"ai_score"`
	ClarityScore     int              `json:"clarity_score"`
	FeasibilityScore int              `json:"feasibility_score"`
	PassionScore     int              `json:"passion_score"`
	OriginalityScore int              `json:"originality_score"`
	Bonuses          []BonusResponse  `json:"bonuses"`
	Feedback         FeedbackResponse `json:"feedback"`
	ScoredAt         time.Time        `json:"scored_at"`
}

// EvaluationResponse is the HTTP body of a successful scoring call.
type EvaluationResponse struct {
	Success       bool             `json:"success"`
	ApplicationID string           `json:"application_id"`
	FinalScore    int              `json:"final_score"`
	AIScore       int              `json:"ai_score"`
	Feedback      FeedbackResponse `json:"feedback"`
	Message       string           `json:"message"`
}

// NewEvaluationResponse wraps a pipeline result for the wire.
func NewEvaluationResponse(result EvaluationResult) EvaluationResponse {
	return EvaluationResponse{
		Success:       true,
		ApplicationID: result.ApplicationID,
		FinalScore:    result.FinalScore,
		AIScore:       result.AIScore,
		Feedback:      result.Feedback,
		Message:       "Pitch evaluated successfully",
	}
}

// NewFeedbackResponse converts the stored feedback object.
func NewFeedbackResponse(feedback models.ApplicationFeedback) FeedbackResponse {
	return FeedbackResponse{
		Summary:        feedback.Summary,
		Strengths:      nonNil(feedback.Strengths),
		Improvements:   nonNil(feedback.Improvements),
		NextSteps:      nonNil(feedback.NextSteps),
		BonusesApplied: nonNil(feedback.BonusesApplied),
	}
}

// ApplicationResponse is the read-back view of an application and its evaluation.
type ApplicationResponse struct {
	ID                   string            `json:"id"`
	FounderName          string            `json:"founder_name"`
	FounderAge           int               `json:"founder_age"`
	Country              string            `json:"country"`
	City                 string            `json:"city"`
	School               string            `json:"school"`
	Grade                string            `json:"grade"`
	StartupName          string            `json:"startup_name"`
	PitchDescription     string            `json:"pitch_description"`
	ProblemStatement     string            `json:"problem_statement"`
	SolutionDescription  string            `json:"solution_description"`
	TargetMarket         string            `json:"target_market"`
	VideoURL             string            `json:"video_url"`
	VideoDurationSeconds *int              `json:"video_duration_seconds"`
	VideoSubmittedAt     *time.Time        `json:"video_submitted_at"`
	Status               string            `json:"status"`
	AIScore              *int              `json:"ai_score"`
	FinalScore           *int              `json:"final_score"`
	ClarityScore         *int              `json:"clarity_score"`
	FeasibilityScore     *int              `json:"feasibility_score"`
	PassionScore         *int              `json:"passion_score"`
	OriginalityScore     *int              `json:"originality_score"`
	Feedback             *FeedbackResponse `json:"ai_feedback"`
	PromptVersion        string            `json:"prompt_version,omitempty"`
	ScoredAt             *time.Time        `json:"scored_at"`
	Rank                 *int              `json:"rank"`
	IsTop50              bool              `json:"is_top_50"`
	IsTop10              bool              `json:"is_top_10"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewApplicationResponse builds a response DTO from a model.
func NewApplicationResponse(application models.Application) ApplicationResponse {
	response := ApplicationResponse{
		ID:                   application.ID,
		FounderName:          application.FounderName,
		FounderAge:           application.FounderAge,
		Country:              application.Country,
		City:                 application.City,
		School:               application.School,
		Grade:                application.Grade,
		StartupName:          application.StartupName,
		PitchDescription:     application.PitchDescription,
		ProblemStatement:     application.ProblemStatement,
		SolutionDescription:  application.SolutionDescription,
		TargetMarket:         application.TargetMarket,
		VideoURL:             application.VideoURL,
		VideoDurationSeconds: application.VideoDurationSeconds,
		VideoSubmittedAt:     application.VideoSubmittedAt,
		Status:               application.Status,
		AIScore:              application.AIScore,
		FinalScore:           application.FinalScore,
		ClarityScore:         application.ClarityScore,
		FeasibilityScore:     application.FeasibilityScore,
		PassionScore:         application.PassionScore,
		OriginalityScore:     application.OriginalityScore,
		PromptVersion:        application.PromptVersion,
		ScoredAt:             application.ScoredAt,
		Rank:                 application.Rank,
		IsTop50:              application.IsTop50,
		IsTop10:              application.IsTop10,
		UpdatedAt:            application.UpdatedAt,
	}

	if feedback, ok := application.Feedback(); ok {
		converted := NewFeedbackResponse(feedback)
		response.Feedback = &converted
	}

	return response
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
