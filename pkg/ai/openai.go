package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PitchToolName is the function the model is forced to call.
const PitchToolName = "submit_pitch_evaluation"

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "pitch_ai",
		Name:      "scoring_duration_seconds",
		Help:      "Duration of pitch scoring requests to the AI gateway",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "pitch_ai",
		Name:      "scoring_failures_total",
		Help:      "Number of failed pitch scoring requests by failure kind",
	}, []string{"model", "kind"})
)

// OpenAIConfig defines configuration options for the gateway scorer.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIPitchScorer implements PitchScorer against an OpenAI compatible chat completion gateway.
type OpenAIPitchScorer struct {
	client    *openai.Client
	cfg       OpenAIConfig
	tool      openai.Tool
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewOpenAIPitchScorer builds a new scorer using the provided configuration.
func NewOpenAIPitchScorer(cfg OpenAIConfig) (*OpenAIPitchScorer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("ai gateway api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "google/gemini-2.5-flash"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIPitchScorer{
		client:    openai.NewClientWithConfig(config),
		cfg:       cfg,
		tool:      pitchEvaluationTool(),
		validator: validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otel.Tracer("github.com/noah-isme/gema-pitch-api/pkg/ai/openai"),
		logger:    logger.With().Str("component", "openai_pitch_scorer").Logger(),
	}, nil
}

// ScorePitch sends the rendered prompts to the gateway and decodes the forced tool call.
func (s *OpenAIPitchScorer) ScorePitch(parent context.Context, input PitchInput) (PitchScore, error) {
	ctx, span := s.tracer.Start(parent, "openai.score_pitch", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
		attribute.String("prompt_version", PitchRubricVersion),
	))
	defer span.End()

	systemPrompt, userPrompt := BuildPitchPrompts(input)

	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Tools: []openai.Tool{s.tool},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: PitchToolName},
		},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		classified := classifyGatewayError(err)
		s.fail(span, "gateway", classified)
		s.logger.Error().Err(err).Int("status", gatewayStatus(err)).Msg("ai gateway request failed")
		return PitchScore{}, classified
	}

	score, err := s.decodeToolCall(resp)
	if err != nil {
		s.fail(span, "format", err)
		s.logger.Error().Err(err).Msg("ai gateway returned an unusable response")
		return PitchScore{}, err
	}

	score.Model = s.cfg.Model
	score.PromptVersion = PitchRubricVersion
	span.SetAttributes(attribute.Int("pitch.overall_score", score.OverallScore))
	s.logger.Debug().
		Int("overall_score", score.OverallScore).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("pitch scored")

	return score, nil
}

func (s *OpenAIPitchScorer) fail(span trace.Span, kind string, err error) {
	aiFailures.WithLabelValues(s.cfg.Model, kind).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *OpenAIPitchScorer) decodeToolCall(resp openai.ChatCompletionResponse) (PitchScore, error) {
	if len(resp.Choices) == 0 {
		return PitchScore{}, fmt.Errorf("%w: no choices returned", ErrInvalidResponseFormat)
	}

	toolCalls := resp.Choices[0].Message.ToolCalls
	if len(toolCalls) == 0 {
		return PitchScore{}, fmt.Errorf("%w: no tool call in response", ErrInvalidResponseFormat)
	}

	call := toolCalls[0]
	if call.Function.Name != PitchToolName {
		return PitchScore{}, fmt.Errorf("%w: unexpected tool call %q", ErrInvalidResponseFormat, call.Function.Name)
	}

	return parsePitchScore(s.validator, call.Function.Arguments)
}

// pitchScorePayload mirrors the tool parameters. Scores decode as json.Number so
// integral floats such as 82.0 are accepted, and pointers let validation tell a
// missing score apart from a legitimate zero.
type pitchScorePayload struct {
	OverallScore     *json.Number `json:"overall_score" validate:"required"`
	ClarityScore     *json.Number `json:"clarity_score" validate:"required"`
	FeasibilityScore *json.Number `json:"feasibility_score" validate:"required"`
	PassionScore     *json.Number `json:"passion_score" validate:"required"`
	OriginalityScore *json.Number `json:"originality_score" validate:"required"`
	Feedback         string       `json:"feedback" validate:"required"`
	Strengths        []string     `json:"strengths" validate:"required,min=2,max=4,dive,required"`
	Improvements     []string     `json:"improvements" validate:"required,min=2,max=4,dive,required"`
	NextSteps        []string     `json:"next_steps" validate:"required,min=2,max=4,dive,required"`
}

func parsePitchScore(validate *validator.Validate, arguments string) (PitchScore, error) {
	var payload pitchScorePayload
	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return PitchScore{}, fmt.Errorf("%w: decode tool arguments: %v", ErrInvalidResponseFormat, err)
	}

	// Lists are checked after markup is stripped so an entry like "<br>" cannot
	// satisfy the size contract and then vanish before storage.
	payload.Feedback = SanitizeText(payload.Feedback)
	payload.Strengths = sanitizeEntries(payload.Strengths)
	payload.Improvements = sanitizeEntries(payload.Improvements)
	payload.NextSteps = sanitizeEntries(payload.NextSteps)

	if err := validate.Struct(payload); err != nil {
		return PitchScore{}, fmt.Errorf("%w: %v", ErrInvalidResponseFormat, err)
	}

	var scores [5]int
	fields := []struct {
		name  string
		value *json.Number
		limit int
	}{
		{"overall_score", payload.OverallScore, 100},
		{"clarity_score", payload.ClarityScore, 30},
		{"feasibility_score", payload.FeasibilityScore, 30},
		{"passion_score", payload.PassionScore, 20},
		{"originality_score", payload.OriginalityScore, 20},
	}
	for i, field := range fields {
		value, err := scorePoints(*field.value, field.limit)
		if err != nil {
			return PitchScore{}, fmt.Errorf("%w: %s %v", ErrInvalidResponseFormat, field.name, err)
		}
		scores[i] = value
	}

	score := PitchScore{
		OverallScore:     scores[0],
		ClarityScore:     scores[1],
		FeasibilityScore: scores[2],
		PassionScore:     scores[3],
		OriginalityScore: scores[4],
		Feedback:         payload.Feedback,
		Strengths:        payload.Strengths,
		Improvements:     payload.Improvements,
		NextSteps:        payload.NextSteps,
	}

	if score.SubScoreTotal() != score.OverallScore {
		return PitchScore{}, fmt.Errorf("%w: sub-scores add up to %d, overall_score is %d",
			ErrInvalidResponseFormat, score.SubScoreTotal(), score.OverallScore)
	}

	return score, nil
}

// scorePoints converts a decoded score to whole points within [0, limit].
func scorePoints(number json.Number, limit int) (int, error) {
	value, err := number.Float64()
	if err != nil {
		return 0, fmt.Errorf("is not a number: %q", number.String())
	}
	if value != math.Trunc(value) {
		return 0, fmt.Errorf("is not a whole number: %s", number.String())
	}
	if value < 0 || value > float64(limit) {
		return 0, fmt.Errorf("is outside 0-%d: %s", limit, number.String())
	}
	return int(value), nil
}

func sanitizeEntries(values []string) []string {
	if values == nil {
		return nil
	}
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if text := SanitizeText(value); text != "" {
			cleaned = append(cleaned, text)
		}
	}
	return cleaned
}

func pitchEvaluationTool() openai.Tool {
	stringList := func(description string) jsonschema.Definition {
		return jsonschema.Definition{
			Type:        jsonschema.Array,
			Description: description,
			Items:       &jsonschema.Definition{Type: jsonschema.String},
		}
	}

	parameters := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"overall_score":     {Type: jsonschema.Integer, Description: "Total score from 0 to 100, equal to the sum of the four criterion scores"},
			"clarity_score":     {Type: jsonschema.Integer, Description: "Clarity score from 0 to 30"},
			"feasibility_score": {Type: jsonschema.Integer, Description: "Feasibility score from 0 to 30, judged relative to the founder's age"},
			"passion_score":     {Type: jsonschema.Integer, Description: "Passion and confidence score from 0 to 20"},
			"originality_score": {Type: jsonschema.Integer, Description: "Originality score from 0 to 20"},
			"feedback":          {Type: jsonschema.String, Description: "Encouraging summary feedback addressed to the founder"},
			"strengths":         stringList("2-4 specific strengths of the pitch"),
			"improvements":      stringList("2-3 actionable improvements"),
			"next_steps":        stringList("2-3 concrete next steps for the founder"),
		},
		Required: []string{
			"overall_score", "clarity_score", "feasibility_score", "passion_score", "originality_score",
			"feedback", "strengths", "improvements", "next_steps",
		},
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        PitchToolName,
			Description: "Submit the structured evaluation of a startup pitch application",
			Parameters:  parameters,
		},
	}
}
