package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-pitch-api/internal/observability"
)

// ScoreEvent is broadcast after an application has been scored and persisted.
type ScoreEvent struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"application_id"`
	AIScore       int       `json:"ai_score"`
	FinalScore    int       `json:"final_score"`
	Bonuses       []string  `json:"bonuses_applied"`
	PromptVersion string    `json:"prompt_version"`
	Model         string    `json:"model,omitempty"`
	ScoredAt      time.Time `json:"scored_at"`
}

// ScoreEventType is the type field of every ScoreEvent.
const ScoreEventType = "application.scored"

// ScoreNotifier fans out score events. Failures never undo a persisted score.
type ScoreNotifier interface {
	NotifyScored(ctx context.Context, event ScoreEvent) error
}

type nopScoreNotifier struct{}

func (nopScoreNotifier) NotifyScored(context.Context, ScoreEvent) error { return nil }

// BrokerScoreNotifier publishes score events on redis pub/sub and NATS, whichever are configured.
type BrokerScoreNotifier struct {
	redis   *redis.Client
	nats    *nats.Conn
	channel string
	logger  zerolog.Logger
}

// NewBrokerScoreNotifier builds a notifier. Either client may be nil.
func NewBrokerScoreNotifier(redisClient *redis.Client, natsConn *nats.Conn, channel string, logger zerolog.Logger) *BrokerScoreNotifier {
	if channel == "" {
		channel = "gema:pitch"
	}
	return &BrokerScoreNotifier{
		redis:   redisClient,
		nats:    natsConn,
		channel: channel,
		logger:  logger.With().Str("component", "score_notifier").Logger(),
	}
}

// Subject is the NATS subject events are published on.
func (n *BrokerScoreNotifier) Subject() string {
	return n.channel + ".scored"
}

// NotifyScored implements ScoreNotifier.
func (n *BrokerScoreNotifier) NotifyScored(ctx context.Context, event ScoreEvent) error {
	if event.Type == "" {
		event.Type = ScoreEventType
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error

	if n.redis != nil {
		if err := n.redis.Publish(ctx, n.channel, payload).Err(); err != nil {
			observability.PitchEventsPublished().WithLabelValues("redis", "error").Inc()
			errs = append(errs, err)
		} else {
			observability.PitchEventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if n.nats != nil {
		if err := n.nats.Publish(n.Subject(), payload); err != nil {
			observability.PitchEventsPublished().WithLabelValues("nats", "error").Inc()
			errs = append(errs, err)
		} else {
			observability.PitchEventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}

	n.logger.Debug().
		Str("application_id", event.ApplicationID).
		Int("final_score", event.FinalScore).
		Msg("score event published")

	return errors.Join(errs...)
}

// LogScoreNotifier records score events in the service log only.
type LogScoreNotifier struct {
	logger zerolog.Logger
}

// NewLogScoreNotifier builds a notifier that writes one structured line per event.
func NewLogScoreNotifier(logger zerolog.Logger) *LogScoreNotifier {
	return &LogScoreNotifier{logger: logger.With().Str("component", "score_notifier").Logger()}
}

// NotifyScored implements ScoreNotifier.
func (n *LogScoreNotifier) NotifyScored(_ context.Context, event ScoreEvent) error {
	n.logger.Info().
		Str("application_id", event.ApplicationID).
		Int("ai_score", event.AIScore).
		Int("final_score", event.FinalScore).
		Strs("bonuses_applied", event.Bonuses).
		Msg("application scored")
	observability.PitchEventsPublished().WithLabelValues("log", "ok").Inc()
	return nil
}
