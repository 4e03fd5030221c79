package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-pitch-api/internal/models"
)

func setupApplicationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Application{}))
	return db
}

func seedApplication(t *testing.T, repo ApplicationRepository) models.Application {
	t.Helper()
	duration := 87
	submitted := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	application := models.Application{
		FounderName:          "Amara Okafor",
		FounderAge:           15,
		Country:              "Nigeria",
		City:                 "Lagos",
		StartupName:          "SolarSack",
		PitchDescription:     "Solar powered school bags",
		VideoURL:             "https://videos.test/solarsack.mp4",
		VideoDurationSeconds: &duration,
		VideoSubmittedAt:     &submitted,
		Status:               models.ApplicationStatusSubmitted,
	}
	require.NoError(t, repo.Create(context.Background(), &application))
	return application
}

func TestApplicationRepositoryCreateAssignsID(t *testing.T) {
	repo := NewApplicationRepository(setupApplicationTestDB(t))

	application := seedApplication(t, repo)
	require.NotEmpty(t, application.ID)

	stored, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, "SolarSack", stored.StartupName)
	require.Equal(t, models.ApplicationStatusSubmitted, stored.Status)
	require.False(t, stored.IsScored())
}

func TestApplicationRepositoryGetByIDMissing(t *testing.T) {
	repo := NewApplicationRepository(setupApplicationTestDB(t))

	_, err := repo.GetByID(context.Background(), "does-not-exist")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	repo := NewApplicationRepository(setupApplicationTestDB(t))
	application := seedApplication(t, repo)

	require.NoError(t, repo.UpdateStatus(context.Background(), application.ID, models.ApplicationStatusProcessing))

	stored, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusProcessing, stored.Status)

	err = repo.UpdateStatus(context.Background(), "ghost", models.ApplicationStatusProcessing)
	require.True(t, errors.Is(err, ErrPersistence))
}

func TestApplicationRepositorySaveScoresWritesAllFields(t *testing.T) {
	repo := NewApplicationRepository(setupApplicationTestDB(t))
	application := seedApplication(t, repo)
	scoredAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	err := repo.SaveScores(context.Background(), application.ID, ScoreUpdate{
		AIScore:          82,
		FinalScore:       90,
		ClarityScore:     25,
		FeasibilityScore: 24,
		PassionScore:     18,
		OriginalityScore: 15,
		Feedback: models.ApplicationFeedback{
			Summary:        "Strong, focused pitch.",
			Strengths:      []string{"Clear problem", "Confident delivery"},
			Improvements:   []string{"Pricing"},
			NextSteps:      []string{"Interview ten students"},
			BonusesApplied: []string{"Submitted in first week."},
		},
		PromptVersion: "v1",
		ScoredAt:      scoredAt,
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusAIScored, stored.Status)
	require.True(t, stored.IsScored())
	require.Equal(t, 82, *stored.AIScore)
	require.Equal(t, 90, *stored.FinalScore)
	require.Equal(t, *stored.AIScore, *stored.ClarityScore+*stored.FeasibilityScore+*stored.PassionScore+*stored.OriginalityScore)
	require.Equal(t, "v1", stored.PromptVersion)
	require.WithinDuration(t, scoredAt, *stored.ScoredAt, time.Second)

	feedback, ok := stored.Feedback()
	require.True(t, ok)
	require.Equal(t, "Strong, focused pitch.", feedback.Summary)
	require.Equal(t, []string{"Submitted in first week."}, feedback.BonusesApplied)
}

func TestApplicationRepositorySaveScoresMissingRow(t *testing.T) {
	repo := NewApplicationRepository(setupApplicationTestDB(t))

	err := repo.SaveScores(context.Background(), "vanished", ScoreUpdate{AIScore: 50, FinalScore: 50, ScoredAt: time.Now()})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPersistence))
}

func TestApplicationRepositoryWritesSkipDecidedApplications(t *testing.T) {
	for _, decided := range []string{models.ApplicationStatusAccepted, models.ApplicationStatusRejected} {
		t.Run(decided, func(t *testing.T) {
			repo := NewApplicationRepository(setupApplicationTestDB(t))
			application := seedApplication(t, repo)
			require.NoError(t, repo.UpdateStatus(context.Background(), application.ID, models.ApplicationStatusProcessing))
			require.NoError(t, repo.UpdateStatus(context.Background(), application.ID, decided))

			err := repo.UpdateStatus(context.Background(), application.ID, models.ApplicationStatusSubmitted)
			require.True(t, errors.Is(err, ErrApplicationFinalized))
			require.False(t, errors.Is(err, ErrPersistence))

			err = repo.SaveScores(context.Background(), application.ID, ScoreUpdate{AIScore: 70, FinalScore: 70, ScoredAt: time.Now()})
			require.True(t, errors.Is(err, ErrApplicationFinalized))

			stored, err := repo.GetByID(context.Background(), application.ID)
			require.NoError(t, err)
			require.Equal(t, decided, stored.Status)
			require.Nil(t, stored.AIScore)
			require.Nil(t, stored.ScoredAt)
		})
	}
}
