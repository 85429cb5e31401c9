package dto

import (
	"time"

	"github.com/codacad/debug-coach-api/internal/models"
)

// HelpInitRequest asks for an AI analysis of one submission snapshot.
type HelpInitRequest struct {
	StudentID     uint `json:"student_id" validate:"required,gt=0"`
	ProblemID     uint `json:"problem_id" validate:"required,gt=0"`
	SubmissionNum int  `json:"submission_num" validate:"required,gt=0"`
	ForceRefresh  bool `json:"force_refresh"`
}

// HelpInitResponse reports the analysis job state. Status is one of
// resumed, started, pending or no_report; Reply carries the opening coach
// message when a resolved session is resumed.
type HelpInitResponse struct {
	Status  string                `json:"status"`
	ChatLog []ChatMessageResponse `json:"chat_log,omitempty"`
	Reply   string                `json:"reply,omitempty"`
}

// HelpChatRequest is one chat turn within a resolved help session.
type HelpChatRequest struct {
	StudentID     uint   `json:"student_id" validate:"required,gt=0"`
	ProblemID     uint   `json:"problem_id" validate:"required,gt=0"`
	SubmissionNum int    `json:"submission_num" validate:"required,gt=0"`
	Message       string `json:"message" validate:"required,min=1,max=4000"`
}

// HelpChatResponse carries the coach reply.
type HelpChatResponse struct {
	Reply string `json:"reply"`
}

// HelpHistoryResponse returns the transcript for a submission snapshot.
type HelpHistoryResponse struct {
	ChatLog []ChatMessageResponse `json:"chat_log"`
}

// ChatMessageResponse serialises one transcript entry.
type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessageResponse converts a stored chat message.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Role:      message.Role,
		Content:   message.Content,
		Timestamp: message.CreatedAt,
	}
}

// NewChatLog converts a stored transcript.
func NewChatLog(messages []models.ChatMessage) []ChatMessageResponse {
	log := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		log = append(log, NewChatMessageResponse(message))
	}
	return log
}
