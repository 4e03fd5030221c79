package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-pitch-api/internal/dto"
	"github.com/noah-isme/gema-pitch-api/internal/models"
	"github.com/noah-isme/gema-pitch-api/internal/observability"
	"github.com/noah-isme/gema-pitch-api/internal/repository"
	"github.com/noah-isme/gema-pitch-api/internal/scoring"
	"github.com/noah-isme/gema-pitch-api/pkg/ai"
)

var (
	// ErrMissingApplicationID indicates the request did not name an application.
	ErrMissingApplicationID = errors.New("missing application_id")
	// ErrApplicationNotFound indicates no application exists for the identifier.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrApplicationDecided indicates the application was already accepted or rejected.
	ErrApplicationDecided = errors.New("application has already been decided")
	// ErrScorerNotConfigured indicates the AI gateway credential is missing.
	ErrScorerNotConfigured = errors.New("AI gateway is not configured")
)

// Evaluation outcomes recorded on the pitch evaluation counter.
const (
	outcomeScored          = "scored"
	outcomeBadInput        = "rejected_bad_input"
	outcomeNotFound        = "rejected_not_found"
	outcomeInProgress      = "rejected_in_progress"
	outcomeDecided         = "rejected_decided"
	outcomeNotConfigured   = "failed_config"
	outcomeRateLimited     = "failed_rate_limited"
	outcomeBillingRequired = "failed_billing"
	outcomeLLMCall         = "failed_llm_call"
	outcomeInvalidFormat   = "failed_parse"
	outcomePersistence     = "failed_persist"
)

const statusRevertTimeout = 5 * time.Second

// VideoResolver turns a stored video reference into a URL the model can be told about.
type VideoResolver interface {
	VideoURL(ref string) (string, error)
}

// ApplicationEvaluationConfig carries the competition settings used by the bonus rules.
type ApplicationEvaluationConfig struct {
	RoundStart time.Time
}

// ApplicationEvaluationService scores pitch applications and exposes the stored result.
type ApplicationEvaluationService interface {
	Evaluate(ctx context.Context, applicationID string) (dto.EvaluationResult, error)
	Get(ctx context.Context, applicationID string) (dto.ApplicationResponse, error)
}

type applicationEvaluationService struct {
	applications repository.ApplicationRepository
	scorer       ai.PitchScorer
	locker       EvaluationLocker
	notifier     ScoreNotifier
	videos       VideoResolver
	config       ApplicationEvaluationConfig
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// ApplicationEvaluationOption customises the evaluation service.
type ApplicationEvaluationOption func(*applicationEvaluationService)

// WithEvaluationLocker guards runs with the given locker.
func WithEvaluationLocker(locker EvaluationLocker) ApplicationEvaluationOption {
	return func(s *applicationEvaluationService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithScoreNotifier publishes score events through notifier.
func WithScoreNotifier(notifier ScoreNotifier) ApplicationEvaluationOption {
	return func(s *applicationEvaluationService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithVideoResolver resolves stored video references before prompting.
func WithVideoResolver(resolver VideoResolver) ApplicationEvaluationOption {
	return func(s *applicationEvaluationService) {
		s.videos = resolver
	}
}

// WithClock overrides the time source used for scored_at.
func WithClock(now func() time.Time) ApplicationEvaluationOption {
	return func(s *applicationEvaluationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewApplicationEvaluationService constructs the scoring pipeline. A nil scorer makes
// every evaluation fail with ErrScorerNotConfigured.
func NewApplicationEvaluationService(applications repository.ApplicationRepository, scorer ai.PitchScorer, cfg ApplicationEvaluationConfig, logger zerolog.Logger, opts ...ApplicationEvaluationOption) ApplicationEvaluationService {
	svc := &applicationEvaluationService{
		applications: applications,
		scorer:       scorer,
		locker:       NoopEvaluationLocker{},
		notifier:     nopScoreNotifier{},
		config:       cfg,
		logger:       logger.With().Str("component", "application_evaluation_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-pitch-api/internal/service/application_evaluation"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (s *applicationEvaluationService) Evaluate(ctx context.Context, applicationID string) (dto.EvaluationResult, error) {
	applicationID = strings.TrimSpace(applicationID)

	ctx, span := s.tracer.Start(ctx, "pitch.evaluate", trace.WithAttributes(
		attribute.String("application.id", applicationID),
	))
	defer span.End()

	if applicationID == "" {
		s.reject(span, outcomeBadInput, ErrMissingApplicationID)
		return dto.EvaluationResult{}, ErrMissingApplicationID
	}

	if s.scorer == nil {
		s.reject(span, outcomeNotConfigured, ErrScorerNotConfigured)
		s.logger.Error().Str("application_id", applicationID).Msg("evaluation requested but the AI gateway key is not set")
		return dto.EvaluationResult{}, ErrScorerNotConfigured
	}

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.reject(span, outcomeNotFound, ErrApplicationNotFound)
			return dto.EvaluationResult{}, ErrApplicationNotFound
		}
		s.reject(span, outcomePersistence, err)
		return dto.EvaluationResult{}, fmt.Errorf("%w: load application: %v", repository.ErrPersistence, err)
	}

	if application.Status == models.ApplicationStatusAccepted || application.Status == models.ApplicationStatusRejected {
		s.reject(span, outcomeDecided, ErrApplicationDecided)
		return dto.EvaluationResult{}, ErrApplicationDecided
	}

	release, err := s.locker.Acquire(ctx, applicationID)
	if err != nil {
		s.reject(span, outcomeInProgress, err)
		return dto.EvaluationResult{}, err
	}
	defer release()

	// A row left in processing by a crashed run goes back to submitted on failure.
	restoreStatus := application.Status
	if restoreStatus == models.ApplicationStatusProcessing {
		restoreStatus = models.ApplicationStatusSubmitted
	}

	if err := s.applications.UpdateStatus(ctx, applicationID, models.ApplicationStatusProcessing); err != nil {
		if errors.Is(err, repository.ErrApplicationFinalized) {
			s.reject(span, outcomeDecided, ErrApplicationDecided)
			return dto.EvaluationResult{}, ErrApplicationDecided
		}
		s.reject(span, outcomePersistence, err)
		return dto.EvaluationResult{}, err
	}

	score, err := s.scorer.ScorePitch(ctx, s.pitchInput(application))
	if err != nil {
		s.reject(span, scorerOutcome(err), err)
		s.restoreStatus(ctx, applicationID, restoreStatus)
		s.logger.Error().Err(err).Str("application_id", applicationID).Msg("pitch scoring failed")
		return dto.EvaluationResult{}, err
	}

	bonus := scoring.ApplyBonuses(scoring.Input{
		RawScore:        score.OverallScore,
		SubmittedAt:     application.VideoSubmittedAt,
		RoundStart:      s.config.RoundStart,
		DurationSeconds: application.VideoDurationSeconds,
	})

	feedback := models.ApplicationFeedback{
		Summary:        ai.SanitizeText(score.Feedback),
		Strengths:      sanitizeList(score.Strengths),
		Improvements:   sanitizeList(score.Improvements),
		NextSteps:      sanitizeList(score.NextSteps),
		BonusesApplied: bonus.Reasons(),
	}

	scoredAt := s.now().UTC()
	update := repository.ScoreUpdate{
		AIScore:          score.OverallScore,
		FinalScore:       bonus.FinalScore,
		ClarityScore:     score.ClarityScore,
		FeasibilityScore: score.FeasibilityScore,
		PassionScore:     score.PassionScore,
		OriginalityScore: score.OriginalityScore,
		Feedback:         feedback,
		PromptVersion:    score.PromptVersion,
		ScoredAt:         scoredAt,
	}

	if err := s.applications.SaveScores(ctx, applicationID, update); err != nil {
		if errors.Is(err, repository.ErrApplicationFinalized) {
			s.reject(span, outcomeDecided, ErrApplicationDecided)
			s.logger.Warn().Str("application_id", applicationID).Msg("application was decided while scoring, discarding scores")
			return dto.EvaluationResult{}, ErrApplicationDecided
		}
		s.reject(span, outcomePersistence, err)
		s.restoreStatus(ctx, applicationID, restoreStatus)
		s.logger.Error().Err(err).Str("application_id", applicationID).Msg("failed to persist pitch scores")
		return dto.EvaluationResult{}, err
	}

	observability.PitchEvaluations().WithLabelValues(outcomeScored).Inc()
	observability.PitchFinalScores().Observe(float64(bonus.FinalScore))
	for _, applied := range bonus.Bonuses {
		observability.PitchBonusesApplied().WithLabelValues(applied.Reason).Inc()
	}

	span.SetAttributes(
		attribute.Int("pitch.ai_score", score.OverallScore),
		attribute.Int("pitch.final_score", bonus.FinalScore),
	)
	span.SetStatus(codes.Ok, "scored")

	event := ScoreEvent{
		Type:          ScoreEventType,
		ApplicationID: applicationID,
		AIScore:       score.OverallScore,
		FinalScore:    bonus.FinalScore,
		Bonuses:       feedback.BonusesApplied,
		PromptVersion: score.PromptVersion,
		Model:         score.Model,
		ScoredAt:      scoredAt,
	}
	if err := s.notifier.NotifyScored(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("application_id", applicationID).Msg("failed to publish score event")
	}

	s.logger.Info().
		Str("application_id", applicationID).
		Int("ai_score", score.OverallScore).
		Int("final_score", bonus.FinalScore).
		Int("bonus_points", bonus.Total()).
		Msg("application evaluated")

	return dto.EvaluationResult{
		ApplicationID:    applicationID,
		FinalScore:       bonus.FinalScore,
		AIScore:          score.OverallScore,
		ClarityScore:     score.ClarityScore,
		FeasibilityScore: score.FeasibilityScore,
		PassionScore:     score.PassionScore,
		OriginalityScore: score.OriginalityScore,
		Bonuses:          bonusResponses(bonus.Bonuses),
		Feedback:         dto.NewFeedbackResponse(feedback),
		ScoredAt:         scoredAt,
	}, nil
}

func (s *applicationEvaluationService) Get(ctx context.Context, applicationID string) (dto.ApplicationResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return dto.ApplicationResponse{}, ErrMissingApplicationID
	}

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, fmt.Errorf("%w: load application: %v", repository.ErrPersistence, err)
	}

	return dto.NewApplicationResponse(application), nil
}

func (s *applicationEvaluationService) pitchInput(application models.Application) ai.PitchInput {
	videoURL := application.VideoURL
	if s.videos != nil && videoURL != "" {
		resolved, err := s.videos.VideoURL(videoURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("application_id", application.ID).Str("video_ref", videoURL).Msg("video reference could not be resolved, prompting with the stored value")
		} else {
			videoURL = resolved
		}
	}

	return ai.PitchInput{
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
		VideoURL:             videoURL,
		VideoDurationSeconds: application.VideoDurationSeconds,
		VideoSubmittedAt:     application.VideoSubmittedAt,
	}
}

// restoreStatus undoes the processing marker. It runs even when the caller has gone away
// and leaves an application decided in the meantime alone.
func (s *applicationEvaluationService) restoreStatus(ctx context.Context, applicationID, status string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusRevertTimeout)
	defer cancel()

	if err := s.applications.UpdateStatus(ctx, applicationID, status); err != nil {
		if errors.Is(err, repository.ErrApplicationFinalized) {
			observability.PitchStatusReverts().WithLabelValues("skipped_decided").Inc()
			s.logger.Info().Str("application_id", applicationID).Msg("application was decided while scoring, status left as is")
			return
		}
		observability.PitchStatusReverts().WithLabelValues("error").Inc()
		s.logger.Error().Err(err).
			Str("application_id", applicationID).
			Str("status", status).
			Msg("failed to restore application status")
		return
	}
	observability.PitchStatusReverts().WithLabelValues("ok").Inc()
}

func (s *applicationEvaluationService) reject(span trace.Span, outcome string, err error) {
	observability.PitchEvaluations().WithLabelValues(outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
}

func scorerOutcome(err error) string {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return outcomeRateLimited
	case errors.Is(err, ai.ErrBillingRequired):
		return outcomeBillingRequired
	case errors.Is(err, ai.ErrInvalidResponseFormat):
		return outcomeInvalidFormat
	default:
		return outcomeLLMCall
	}
}

func sanitizeList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if text := ai.SanitizeText(value); text != "" {
			cleaned = append(cleaned, text)
		}
	}
	return cleaned
}

func bonusResponses(bonuses []scoring.Bonus) []dto.BonusResponse {
	responses := make([]dto.BonusResponse, 0, len(bonuses))
	for _, bonus := range bonuses {
		responses = append(responses, dto.BonusResponse{Points: bonus.Points, Reason: bonus.Reason})
	}
	return responses
}
