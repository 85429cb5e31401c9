package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codacad/debug-coach-api/internal/service"
	"github.com/codacad/debug-coach-api/internal/utils"
)

// StudentCodeHandler exposes the per-problem snapshot endpoint.
type StudentCodeHandler struct {
	service service.StudentCodeService
	logger  zerolog.Logger
}

// NewStudentCodeHandler constructs the handler.
func NewStudentCodeHandler(service service.StudentCodeService, logger zerolog.Logger) *StudentCodeHandler {
	return &StudentCodeHandler{
		service: service,
		logger:  logger.With().Str("component", "student_code_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *StudentCodeHandler) Register(router fiber.Router) {
	router.Get("/:student_id/:problem_id", h.snapshot)
}

func (h *StudentCodeHandler) snapshot(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	problemID, err := parseUintParam(c, "problem_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Snapshot(c.Context(), studentID, problemID)
	if err != nil {
		if errors.Is(err, service.ErrProblemNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("snapshot failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "snapshot retrieved", response)
}
