package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-pitch-api/internal/models"
)

var (
	// ErrPersistence indicates the application store rejected or lost a write.
	ErrPersistence = errors.New("failed to persist application")
	// ErrApplicationFinalized indicates the row was accepted or rejected and no
	// longer takes evaluation writes.
	ErrApplicationFinalized = errors.New("application already decided")
)

// finalStatuses are owned by the acceptance workflow; evaluation writes never overwrite them.
var finalStatuses = []string{models.ApplicationStatusAccepted, models.ApplicationStatusRejected}

// ScoreUpdate carries every mutable evaluation field written after scoring.
type ScoreUpdate struct {
	AIScore          int
	FinalScore       int
	ClarityScore     int
	FeasibilityScore int
	PassionScore     int
	OriginalityScore int
	Feedback         models.ApplicationFeedback
	PromptVersion    string
	ScoredAt         time.Time
}

// ApplicationRepository exposes persistence helpers for pitch applications.
type ApplicationRepository interface {
	// Create inserts a new application. Intake and seeding use it; evaluation never does.
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id string) (models.Application, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	SaveScores(ctx context.Context, id string, update ScoreUpdate) error
}

// NewApplicationRepository constructs an application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

type applicationRepository struct {
	db *gorm.DB
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&application).Error
	if err != nil {
		return models.Application{}, err
	}
	return application, nil
}

// UpdateStatus moves an undecided application to status. A row that is accepted or
// rejected is left untouched and reported as ErrApplicationFinalized.
func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status NOT IN ?", id, finalStatuses).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("%w: update status: %v", ErrPersistence, result.Error)
	}
	if result.RowsAffected == 0 {
		return r.explainSkippedWrite(ctx, r.db, id)
	}
	return nil
}

// SaveScores writes scores, feedback, scored_at and the ai_scored status in a single
// UPDATE so a reader never observes scores without the status or the reverse. The
// update is conditional on the row still being undecided.
func (r *applicationRepository) SaveScores(ctx context.Context, id string, update ScoreUpdate) error {
	feedback, err := json.Marshal(update.Feedback)
	if err != nil {
		return fmt.Errorf("%w: encode feedback: %v", ErrPersistence, err)
	}

	scoredAt := update.ScoredAt.UTC()
	columns := map[string]interface{}{
		"status":            models.ApplicationStatusAIScored,
		"ai_score":          update.AIScore,
		"final_score":       update.FinalScore,
		"clarity_score":     update.ClarityScore,
		"feasibility_score": update.FeasibilityScore,
		"passion_score":     update.PassionScore,
		"originality_score": update.OriginalityScore,
		"ai_feedback":       datatypes.JSON(feedback),
		"prompt_version":    update.PromptVersion,
		"scored_at":         &scoredAt,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Application{}).
			Where("id = ? AND status NOT IN ?", id, finalStatuses).
			Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("%w: save scores: %v", ErrPersistence, result.Error)
		}
		if result.RowsAffected != 1 {
			return r.explainSkippedWrite(ctx, tx, id)
		}
		return nil
	})
}

// explainSkippedWrite tells a decided row apart from a deleted one after a guarded
// update matched nothing.
func (r *applicationRepository) explainSkippedWrite(ctx context.Context, db *gorm.DB, id string) error {
	var statuses []string
	err := db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("status", &statuses).Error
	if err != nil {
		return fmt.Errorf("%w: read status: %v", ErrPersistence, err)
	}
	if len(statuses) == 0 {
		return fmt.Errorf("%w: application %s no longer exists", ErrPersistence, id)
	}

	switch status := statuses[0]; status {
	case models.ApplicationStatusAccepted, models.ApplicationStatusRejected:
		return fmt.Errorf("%w: application %s is %s", ErrApplicationFinalized, id, status)
	default:
		return fmt.Errorf("%w: application %s was not updated", ErrPersistence, id)
	}
}
