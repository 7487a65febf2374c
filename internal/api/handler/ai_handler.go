package handler

import (
	"context"

	"interview-assistant/internal/ai"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// AIHandler serves /ai. Every endpoint answers from canned content when no
// model is configured.
type AIHandler struct {
	assistant *ai.Assistant
}

func NewAIHandler(assistant *ai.Assistant) *AIHandler {
	return &AIHandler{assistant: assistant}
}

func (h *AIHandler) GenerateQuestion(ctx context.Context, c *app.RequestContext) {
	var req ai.QuestionRequest
	if err := bindJSON(c, &req, nil); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	res, err := h.assistant.GenerateQuestion(ctx, req)
	if err != nil {
		fail(ctx, c, err, "", "Failed to generate question")
		return
	}
	c.JSON(consts.StatusOK, res)
}

func (h *AIHandler) GenerateSuggestion(ctx context.Context, c *app.RequestContext) {
	var req ai.SuggestionRequest
	if err := bindJSON(c, &req, map[string]string{"transcript": "Transcript is required"}); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	res, err := h.assistant.GenerateSuggestion(ctx, req)
	if err != nil {
		fail(ctx, c, err, "", "Failed to generate suggestion")
		return
	}
	c.JSON(consts.StatusOK, res)
}

func (h *AIHandler) AnalyzeResponse(ctx context.Context, c *app.RequestContext) {
	var req ai.AnalysisRequest
	msg := "Response and question are required"
	if err := bindJSON(c, &req, map[string]string{"response": msg, "question": msg}); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	res, err := h.assistant.AnalyzeResponse(ctx, req)
	if err != nil {
		fail(ctx, c, err, "", "Failed to analyze response")
		return
	}
	c.JSON(consts.StatusOK, res)
}

func (h *AIHandler) GenerateFeedback(ctx context.Context, c *app.RequestContext) {
	var req ai.FeedbackRequest
	if err := bindJSON(c, &req, map[string]string{"transcript": "Transcript is required"}); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	res, err := h.assistant.GenerateFeedback(ctx, req)
	if err != nil {
		fail(ctx, c, err, "", "Failed to generate feedback")
		return
	}
	c.JSON(consts.StatusOK, res)
}

// Status handles GET /ai/status.
func (h *AIHandler) Status(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.assistant.Status(ctx))
}
