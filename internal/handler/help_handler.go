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

// HelpHandler exposes the AI help endpoints.
type HelpHandler struct {
	service service.HelpService
	logger  zerolog.Logger
}

// NewHelpHandler constructs the handler.
func NewHelpHandler(service service.HelpService, logger zerolog.Logger) *HelpHandler {
	return &HelpHandler{
		service: service,
		logger:  logger.With().Str("component", "help_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *HelpHandler) Register(router fiber.Router) {
	router.Post("/init", h.init)
	router.Post("/chat", h.chat)
	router.Get("/history/:student_id/:problem_id", h.history)
}

func (h *HelpHandler) init(c *fiber.Ctx) error {
	var payload dto.HelpInitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Init(c.Context(), payload)
	if err != nil {
		// Accepted or missing submissions have nothing to analyze.
		if errors.Is(err, service.ErrSubmissionAccepted) || errors.Is(err, service.ErrSubmissionNotFound) {
			return utils.SendSuccess(c, "no report for submission", dto.HelpInitResponse{Status: service.HelpStatusNoReport})
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "help session initialised", response)
}

func (h *HelpHandler) chat(c *fiber.Ctx) error {
	var payload dto.HelpChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Chat(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reply generated", response)
}

func (h *HelpHandler) history(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	problemID, err := parseUintParam(c, "problem_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	// An omitted submission_num falls back to the latest report.
	submissionNum, err := parseQueryInt(c, "submission_num")
	if err != nil || submissionNum < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission_num")
	}

	response, err := h.service.History(c.Context(), studentID, problemID, submissionNum)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "history retrieved", response)
}

func (h *HelpHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrHelpReportNotFound), errors.Is(err, service.ErrSubmissionNotFound), errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrHelpReportNotReady):
		return utils.SendError(c, fiber.StatusConflict, "analysis still running")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("help operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
