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

// PracticeHandler exposes practice answering endpoints.
type PracticeHandler struct {
	service service.PracticeService
	logger  zerolog.Logger
}

// NewPracticeHandler constructs the handler.
func NewPracticeHandler(service service.PracticeService, logger zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{
		service: service,
		logger:  logger.With().Str("component", "practice_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *PracticeHandler) Register(router fiber.Router) {
	router.Get("/:student_id/:problem_id", h.block)
	router.Post("/answer", h.answer)
}

func (h *PracticeHandler) block(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	problemID, err := parseUintParam(c, "problem_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Block(c.Context(), studentID, problemID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice block retrieved", response)
}

func (h *PracticeHandler) answer(c *fiber.Ctx) error {
	var payload dto.PracticeAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Answer(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *PracticeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrPracticeLocked):
		return utils.SendError(c, fiber.StatusForbidden, "practice unlocks after an accepted submission")
	case errors.Is(err, service.ErrPracticeQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidChoice):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("practice operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
