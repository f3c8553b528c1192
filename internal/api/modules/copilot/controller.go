package copilot

import (
	"errors"
	"net/http"

	svc "github.com/ethanbaker/copilot/internal/copilot"
	"github.com/ethanbaker/copilot/pkg/detector"
	"github.com/ethanbaker/copilot/pkg/memory"
	"github.com/ethanbaker/copilot/pkg/sdk"
	"github.com/ethanbaker/copilot/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Controller handles copilot HTTP requests through the injected service
type Controller struct {
	service *svc.Service
}

// CreateSession handles POST requests to create a new session
func (ct *Controller) CreateSession(c *gin.Context) {
	// Parse request body
	var req sdk.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	sess, err := ct.service.StartSession(c.Request.Context(), session.Metadata{
		ParticipantLabel: req.ParticipantLabel,
		Level:            req.Level,
		Company:          req.Company,
	})
	if err != nil {
		c.JSON(storeErrorResponse("Failed to create session", err))
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session created successfully", toSDKSession(sess)).AsGinResponse())
}

// GetSession handles GET requests to retrieve a session snapshot by UUID
func (ct *Controller) GetSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	sess, err := ct.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to get session", err))
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session retrieved successfully", toSDKSession(sess)).AsGinResponse())
}

// PostCaption handles POST requests to append a caption fragment. The caption
// is accepted before any answer is generated, so the response is a 202.
func (ct *Controller) PostCaption(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	// Parse request body
	var req sdk.PostCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	speaker := session.Speaker(req.Speaker)
	if !session.ValidateSpeaker(speaker) {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Unknown speaker label", req.Speaker).AsGinResponse())
		return
	}

	fragment, detection, err := ct.service.IngestCaption(c.Request.Context(), sessionID, speaker, req.Text)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to append caption", err))
		return
	}

	resp := sdk.PostCaptionResponse{
		Caption:   toSDKCaption(fragment),
		Detection: toSDKDetection(detection),
	}

	c.JSON(sdk.NewAcceptedResponse("Caption accepted", resp).AsGinResponse())
}

// GetAnswers handles GET requests to list the answers of a session
func (ct *Controller) GetAnswers(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	answers, err := ct.service.Answers(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to get answers", err))
		return
	}

	out := make([]sdk.Answer, 0, len(answers))
	for _, answer := range answers {
		out = append(out, toSDKAnswer(answer))
	}

	c.JSON(sdk.NewSuccessResponse("Answers retrieved successfully", out).AsGinResponse())
}

// GetMemory handles GET requests for the scored memory log (debug endpoint)
func (ct *Controller) GetMemory(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	entries, err := ct.service.Memory(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to get memory", err))
		return
	}

	out := make([]sdk.MemoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toSDKMemoryEntry(entry))
	}

	c.JSON(sdk.NewSuccessResponse("Memory retrieved successfully", out).AsGinResponse())
}

// PutResume handles PUT requests attaching resume text to a session
func (ct *Controller) PutResume(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	// Parse request body
	var req sdk.PutResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	if err := ct.service.SetResume(c.Request.Context(), sessionID, req.Text); err != nil {
		c.JSON(storeErrorResponse("Failed to store resume", err))
		return
	}

	c.JSON(sdk.NewSuccess("Resume stored successfully").AsGinResponse())
}

// EndSession handles DELETE requests to end a session. The session remains
// readable until the retention sweep removes it.
func (ct *Controller) EndSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	sess, err := ct.service.EndSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(storeErrorResponse("Failed to end session", err))
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session ended successfully", toSDKSession(sess)).AsGinResponse())
}

// parseSessionID validates the uuid path parameter, writing the error
// response itself on failure
func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid session id", err.Error()).AsGinResponse())
		return uuid.Nil, false
	}
	return sessionID, true
}

// storeErrorResponse maps store sentinels to HTTP statuses
func storeErrorResponse(message string, err error) (int, any) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return sdk.NewErrorResponse(http.StatusNotFound, message, err.Error()).AsGinResponse()
	case errors.Is(err, session.ErrSessionClosed):
		return sdk.NewErrorResponse(http.StatusConflict, message, err.Error()).AsGinResponse()
	default:
		return sdk.NewErrorResponse(http.StatusInternalServerError, message, err.Error()).AsGinResponse()
	}
}

/** Conversion helpers */

// Helper method to convert an internal session to an sdk session
func toSDKSession(sess *session.Session) sdk.Session {
	resp := sdk.Session{
		ID:               sess.ID.String(),
		CreatedAt:        sess.CreatedAt,
		EndedAt:          sess.EndedAt,
		ParticipantLabel: sess.ParticipantLabel,
		Level:            sess.Level,
		Company:          sess.Company,
		LastActivity:     sess.LastActivity,
	}

	for _, fragment := range sess.Captions {
		caption := toSDKCaption(fragment)
		resp.Captions = append(resp.Captions, &caption)
	}

	return resp
}

// Helper method to convert an internal caption to an sdk caption
func toSDKCaption(fragment *session.CaptionFragment) sdk.Caption {
	return sdk.Caption{
		ID:        fragment.Model.ID,
		SessionID: fragment.SessionID.String(),
		Speaker:   string(fragment.Speaker),
		Text:      fragment.Text,
		CreatedAt: fragment.CreatedAt,
	}
}

// Helper method to convert a detection result to an sdk detection
func toSDKDetection(result detector.Result) sdk.Detection {
	return sdk.Detection{
		IsQuestion: result.IsQuestion,
		Type:       string(result.Type),
		Confidence: result.Confidence,
		Complexity: string(result.Complexity),
	}
}

// Helper method to convert an internal answer to an sdk answer
func toSDKAnswer(answer *session.Answer) sdk.Answer {
	return sdk.Answer{
		ID:           answer.Model.ID,
		SessionID:    answer.SessionID.String(),
		QuestionText: answer.QuestionText,
		AnswerText:   answer.AnswerText,
		UsedMemory:   answer.UsedMemory,
		Fallback:     answer.Fallback,
		CreatedAt:    answer.CreatedAt,
	}
}

// Helper method to convert an internal memory entry to an sdk entry
func toSDKMemoryEntry(entry *memory.Entry) sdk.MemoryEntry {
	return sdk.MemoryEntry{
		ID:         entry.Model.ID,
		SessionID:  entry.SessionID.String(),
		Kind:       string(entry.Kind),
		Content:    entry.Content,
		Importance: entry.Importance,
		CreatedAt:  entry.CreatedAt,
	}
}
