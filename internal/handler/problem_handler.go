package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codacad/debug-coach-api/internal/service"
	"github.com/codacad/debug-coach-api/internal/utils"
)

// ProblemHandler exposes problem listing for the sidebar.
type ProblemHandler struct {
	service service.ProblemService
	logger  zerolog.Logger
}

// NewProblemHandler constructs the handler.
func NewProblemHandler(service service.ProblemService, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		service: service,
		logger:  logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *ProblemHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *ProblemHandler) list(c *fiber.Ctx) error {
	response, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("problem list failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "problems retrieved", response)
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProblemNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("problem get failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "problem retrieved", response)
}
