package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/handler"
	"github.com/codacad/debug-coach-api/internal/service"
)

type mockHelpService struct {
	initResponse   dto.HelpInitResponse
	initErr        error
	chatResponse   dto.HelpChatResponse
	chatErr        error
	history        dto.HelpHistoryResponse
	historyErr     error
	lastInit       dto.HelpInitRequest
	lastHistoryNum int
}

func (m *mockHelpService) Init(_ context.Context, payload dto.HelpInitRequest) (dto.HelpInitResponse, error) {
	m.lastInit = payload
	return m.initResponse, m.initErr
}

func (m *mockHelpService) Chat(_ context.Context, payload dto.HelpChatRequest) (dto.HelpChatResponse, error) {
	return m.chatResponse, m.chatErr
}

func (m *mockHelpService) History(_ context.Context, studentID, problemID uint, submissionNum int) (dto.HelpHistoryResponse, error) {
	m.lastHistoryNum = submissionNum
	return m.history, m.historyErr
}

func (m *mockHelpService) Start(_ context.Context) error { return nil }

func newHelpApp(svc service.HelpService) *fiber.App {
	app := fiber.New()
	handler.NewHelpHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/debugging/help"))
	return app
}

func TestHelpHandler_InitStarted(t *testing.T) {
	svc := &mockHelpService{initResponse: dto.HelpInitResponse{Status: service.HelpStatusStarted}}
	app := newHelpApp(svc)

	resp := postJSON(t, app, "/debugging/help/init", dto.HelpInitRequest{StudentID: 7, ProblemID: 1, SubmissionNum: 3})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                 `json:"success"`
		Data    dto.HelpInitResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, service.HelpStatusStarted, payload.Data.Status)
	require.Equal(t, 3, svc.lastInit.SubmissionNum)
}

func TestHelpHandler_InitNoReportForAccepted(t *testing.T) {
	svc := &mockHelpService{initErr: service.ErrSubmissionAccepted}
	app := newHelpApp(svc)

	resp := postJSON(t, app, "/debugging/help/init", dto.HelpInitRequest{StudentID: 7, ProblemID: 1, SubmissionNum: 2})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.HelpInitResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Equal(t, service.HelpStatusNoReport, payload.Data.Status)
}

func TestHelpHandler_ChatNotReady(t *testing.T) {
	svc := &mockHelpService{chatErr: service.ErrHelpReportNotReady}
	app := newHelpApp(svc)

	resp := postJSON(t, app, "/debugging/help/chat", dto.HelpChatRequest{StudentID: 7, ProblemID: 1, SubmissionNum: 1, Message: "hi"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHelpHandler_History(t *testing.T) {
	svc := &mockHelpService{history: dto.HelpHistoryResponse{ChatLog: []dto.ChatMessageResponse{{Role: "agent", Content: "hello"}}}}
	app := newHelpApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/debugging/help/history/7/1?submission_num=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.HelpHistoryResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Len(t, payload.Data.ChatLog, 1)
}

func TestHelpHandler_HistoryWithoutSubmissionNumUsesLatest(t *testing.T) {
	svc := &mockHelpService{history: dto.HelpHistoryResponse{ChatLog: []dto.ChatMessageResponse{{Role: "agent", Content: "hello"}}}}
	app := newHelpApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/debugging/help/history/7/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Zero(t, svc.lastHistoryNum, "omitted submission_num resolves to the latest report")
}

func TestHelpHandler_HistoryRejectsNegativeSubmissionNum(t *testing.T) {
	app := newHelpApp(&mockHelpService{})

	req := httptest.NewRequest(http.MethodGet, "/debugging/help/history/7/1?submission_num=-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHelpHandler_HistoryNotFound(t *testing.T) {
	svc := &mockHelpService{historyErr: service.ErrHelpReportNotFound}
	app := newHelpApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/debugging/help/history/7/1?submission_num=9", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
