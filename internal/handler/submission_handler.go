package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/service"
	"github.com/codacad/debug-coach-api/internal/utils"
)

// SubmissionHandler exposes the judge endpoint.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/submit", h.submit)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission judged", response)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProblemWindowClosed):
		return utils.SendError(c, fiber.StatusForbidden, "problem is not open for submissions")
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return utils.SendError(c, fiber.StatusBadRequest, "language not supported")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("submit failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
