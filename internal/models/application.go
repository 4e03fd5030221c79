package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Application lifecycle states.
const (
	ApplicationStatusDraft      = "draft"
	ApplicationStatusRegistered = "registered"
	ApplicationStatusSubmitted  = "submitted"
	ApplicationStatusProcessing = "processing"
	ApplicationStatusAIScored   = "ai_scored"
	ApplicationStatusAccepted   = "accepted"
	ApplicationStatusRejected   = "rejected"
)

// Application is a single pitch submission from a young founder.
type Application struct {
	ID                   string         `gorm:"primaryKey;size:64" json:"id"`
	FounderName          string         `gorm:"size:255;not null" json:"founder_name"`
	FounderAge           int            `gorm:"not null" json:"founder_age"`
	Country              string         `gorm:"size:128" json:"country"`
	City                 string         `gorm:"size:128" json:"city"`
	School               string         `gorm:"size:255" json:"school"`
	Grade                string         `gorm:"size:64" json:"grade"`
	StartupName          string         `gorm:"size:255;not null" json:"startup_name"`
	PitchDescription     string         `gorm:"type:text" json:"pitch_description"`
	ProblemStatement     string         `gorm:"type:text" json:"problem_statement"`
	SolutionDescription  string         `gorm:"type:text" json:"solution_description"`
	TargetMarket         string         `gorm:"type:text" json:"target_market"`
	VideoURL             string         `gorm:"type:text" json:"video_url"`
	VideoDurationSeconds *int           `json:"video_duration_seconds"`
	VideoSubmittedAt     *time.Time     `json:"video_submitted_at"`
	Status               string         `gorm:"size:32;not null;default:draft;index" json:"status"`
	AIScore              *int           `json:"ai_score"`
	FinalScore           *int           `json:"final_score"`
	ClarityScore         *int           `json:"clarity_score"`
	FeasibilityScore     *int           `json:"feasibility_score"`
	PassionScore         *int           `json:"passion_score"`
	OriginalityScore     *int           `json:"originality_score"`
	AIFeedback           datatypes.JSON `json:"ai_feedback"`
	PromptVersion        string         `gorm:"size:32" json:"prompt_version"`
	ScoredAt             *time.Time     `json:"scored_at"`
	Rank                 *int           `json:"rank"`
	IsTop50              bool           `gorm:"column:is_top_50;not null;default:false" json:"is_top_50"`
	IsTop10              bool           `gorm:"column:is_top_10;not null;default:false" json:"is_top_10"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ApplicationFeedback is the structured feedback object stored in ai_feedback.
type ApplicationFeedback struct {
	Summary        string   `json:"summary"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	NextSteps      []string `json:"next_steps"`
	BonusesApplied []string `json:"bonuses_applied"`
}

// BeforeCreate assigns an opaque identifier when intake did not provide one.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = ApplicationStatusDraft
	}
	return nil
}

// Feedback decodes the stored feedback object. ok is false when the row has not been scored.
func (a Application) Feedback() (ApplicationFeedback, bool) {
	if len(a.AIFeedback) == 0 {
		return ApplicationFeedback{}, false
	}
	var feedback ApplicationFeedback
	if err := json.Unmarshal(a.AIFeedback, &feedback); err != nil {
		return ApplicationFeedback{}, false
	}
	return feedback, true
}

// IsScored reports whether the pipeline has written scores for the application.
func (a Application) IsScored() bool {
	return a.AIScore != nil && a.ScoredAt != nil
}
