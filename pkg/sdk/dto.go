package sdk

import (
	"encoding/json"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
	}
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewAcceptedResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    202,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// CreateSessionRequest represents the request body for creating a new session
type CreateSessionRequest struct {
	ParticipantLabel string `json:"participant_label" binding:"required"`
	Level            string `json:"level"`
	Company          string `json:"company"`
}

// PostCaptionRequest represents the request body for appending a caption
type PostCaptionRequest struct {
	Speaker string `json:"speaker" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

// PutResumeRequest represents the request body for attaching resume text
type PutResumeRequest struct {
	Text string `json:"text" binding:"required"`
}

/** Responses */

// Session represents an interview session
type Session struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	ParticipantLabel string     `json:"participant_label"`
	Level            string     `json:"level"`
	Company          string     `json:"company"`
	LastActivity     time.Time  `json:"last_activity"`
	Captions         []*Caption `json:"captions,omitempty"`
}

// Caption represents a single caption fragment
type Caption struct {
	ID        uint      `json:"id"`
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Detection represents the question classification of a caption
type Detection struct {
	IsQuestion bool    `json:"is_question"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Complexity string  `json:"complexity"`
}

// PostCaptionResponse represents the response body after appending a caption
type PostCaptionResponse struct {
	Caption   Caption   `json:"caption"`
	Detection Detection `json:"detection"`
}

// Answer represents a generated answer
type Answer struct {
	ID           uint      `json:"id"`
	SessionID    string    `json:"session_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	UsedMemory   bool      `json:"used_memory"`
	Fallback     bool      `json:"fallback"`
	CreatedAt    time.Time `json:"created_at"`
}

// MemoryEntry represents one scored entry in a session's memory log
type MemoryEntry struct {
	ID         uint      `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event represents a streamed session event
type Event struct {
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Caption   *Caption  `json:"caption,omitempty"`
	Answer    *Answer   `json:"answer,omitempty"`
}
