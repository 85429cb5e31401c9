package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codacad/debug-coach-api/internal/config"
	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/handler"
	"github.com/codacad/debug-coach-api/internal/router"
)

type mockProblemService struct {
	problems []dto.ProblemResponse
}

func (m *mockProblemService) List(_ context.Context) ([]dto.ProblemResponse, error) {
	return m.problems, nil
}

func (m *mockProblemService) Get(_ context.Context, id uint) (dto.ProblemResponse, error) {
	return dto.ProblemResponse{ID: id}, nil
}

// claimsFromHeader stands in for the JWT middleware: it copies the role from a
// request header into the locals the downstream middlewares read.
func claimsFromHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func newRouterApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()
	cfg := config.Config{
		AppName:           "debug-coach-test",
		AppEnv:            "test",
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}

	router.Register(app, cfg, router.Dependencies{
		ProblemHandler: handler.NewProblemHandler(&mockProblemService{}, zerolog.New(io.Discard)),
		JWTMiddleware:  claimsFromHeader(),
	})
	return app
}

func getWithRole(t *testing.T, app *fiber.App, path, role string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRouterAllowsStudentRole(t *testing.T) {
	app := newRouterApp(t)

	resp := getWithRole(t, app, "/debugging/problems", "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouterAllowsTeacherRole(t *testing.T) {
	app := newRouterApp(t)

	resp := getWithRole(t, app, "/debugging/problems", "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouterRejectsUnknownRole(t *testing.T) {
	app := newRouterApp(t)

	resp := getWithRole(t, app, "/debugging/problems", "guest")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRouterRejectsMissingRole(t *testing.T) {
	app := newRouterApp(t)

	resp := getWithRole(t, app, "/debugging/problems", "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRouterHealthIsOpen(t *testing.T) {
	app := newRouterApp(t)

	resp := getWithRole(t, app, "/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
