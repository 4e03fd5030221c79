package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-pitch-api/internal/dto"
	"github.com/noah-isme/gema-pitch-api/internal/middleware"
	"github.com/noah-isme/gema-pitch-api/internal/repository"
	"github.com/noah-isme/gema-pitch-api/internal/service"
	"github.com/noah-isme/gema-pitch-api/internal/utils"
	"github.com/noah-isme/gema-pitch-api/pkg/ai"
)

// ApplicationEvaluationHandler exposes the pitch scoring endpoints.
type ApplicationEvaluationHandler struct {
	service   service.ApplicationEvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewApplicationEvaluationHandler constructs the handler.
func NewApplicationEvaluationHandler(service service.ApplicationEvaluationService, validator *validator.Validate, logger zerolog.Logger) *ApplicationEvaluationHandler {
	return &ApplicationEvaluationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "application_evaluation_handler").Logger(),
	}
}

// Register wires the handler endpoints into the applications router group.
func (h *ApplicationEvaluationHandler) Register(router fiber.Router) {
	router.Post("/evaluate", h.Evaluate)
	router.Get("/:id", h.get)
}

// Evaluate scores the application named in the request body.
func (h *ApplicationEvaluationHandler) Evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateApplicationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, service.ErrMissingApplicationID.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Evaluate(c.UserContext(), payload.ApplicationID)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Str("application_id", result.ApplicationID).
		Int("final_score", result.FinalScore).
		Msg("evaluation request completed")

	return c.Status(fiber.StatusOK).JSON(dto.NewEvaluationResponse(result))
}

func (h *ApplicationEvaluationHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "application retrieved", response)
}

func (h *ApplicationEvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	logger := requestLogger(h.logger, c)

	switch {
	case errors.Is(err, service.ErrMissingApplicationID):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrMissingApplicationID.Error())
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrApplicationNotFound.Error())
	case errors.Is(err, service.ErrEvaluationInProgress), errors.Is(err, service.ErrApplicationDecided):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, ai.ErrRateLimited):
		logger.Warn().Err(err).Msg("ai gateway rate limited the evaluation")
		return utils.SendError(c, fiber.StatusTooManyRequests, ai.ErrRateLimited.Error())
	case errors.Is(err, ai.ErrBillingRequired):
		logger.Error().Err(err).Msg("ai gateway requires payment")
		return utils.SendError(c, fiber.StatusPaymentRequired, ai.ErrBillingRequired.Error())
	case errors.Is(err, service.ErrScorerNotConfigured):
		logger.Error().Err(err).Msg("evaluation attempted without gateway credentials")
		return utils.SendError(c, fiber.StatusInternalServerError, service.ErrScorerNotConfigured.Error())
	case errors.Is(err, ai.ErrInvalidResponseFormat):
		logger.Error().Err(err).Msg("ai response could not be used")
		return utils.SendError(c, fiber.StatusInternalServerError, ai.ErrInvalidResponseFormat.Error())
	case errors.Is(err, ai.ErrEvaluationService):
		logger.Error().Err(err).Msg("ai gateway call failed")
		return utils.SendError(c, fiber.StatusInternalServerError, ai.ErrEvaluationService.Error())
	case errors.Is(err, repository.ErrPersistence):
		logger.Error().Err(err).Msg("evaluation could not be persisted")
		return utils.SendError(c, fiber.StatusInternalServerError, repository.ErrPersistence.Error())
	default:
		logger.Error().Err(err).Msg("evaluation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	fields := base.With().Str("route", c.Path())
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		fields = fields.Str("correlation_id", correlation)
	}
	logger := fields.Logger()
	return &logger
}
