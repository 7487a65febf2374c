package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interview-assistant/internal/export"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/types"
	"interview-assistant/internal/validation"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type InterviewHandler struct {
	repo storage.InterviewRepository
	now  func() time.Time
}

func NewInterviewHandler(repo storage.InterviewRepository) *InterviewHandler {
	return &InterviewHandler{repo: repo, now: time.Now}
}

// InterviewRequest is the body of POST /interviews.
type InterviewRequest struct {
	CandidateID string              `json:"candidateId" validate:"required"`
	Position    string              `json:"position" validate:"required"`
	Interviewer types.Interviewer   `json:"interviewer"`
	ScheduledAt *time.Time          `json:"scheduledAt" validate:"required"`
	Duration    int                 `json:"duration" validate:"omitempty,min=1"`
	Type        types.InterviewType `json:"type" validate:"omitempty,oneof=phone video in-person"`
	Questions   []types.Question    `json:"questions" validate:"dive"`
}

var interviewMessages = map[string]string{
	"candidateId": "Candidate ID is required",
	"position":    "Position is required",
	"scheduledAt": "Scheduled time is required",
}

type transcriptRequest struct {
	Transcript *string `json:"transcript" validate:"required"`
}

type evaluationRequest struct {
	Criteria string   `json:"criteria" validate:"required"`
	Score    *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Notes    string   `json:"notes"`
}

var evaluationMessages = map[string]string{
	"criteria": "Criteria and score are required",
	"score":    "Score must be a number between 0 and 10",
}

// List handles GET /interviews.
func (h *InterviewHandler) List(ctx context.Context, c *app.RequestContext) {
	from, err := queryTime(c, "dateFrom")
	if err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	to, err := queryTime(c, "dateTo")
	if err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	f := types.InterviewFilter{
		Status:      types.InterviewStatus(c.Query("status")),
		Position:    c.Query("position"),
		CandidateID: c.Query("candidateId"),
		From:        from,
		To:          to,
		Page:        queryInt(c, "page", 1),
		Limit:       min(queryInt(c, "limit", defaultPageSize), maxPageSize),
	}
	interviews, total, err := h.repo.List(ctx, f)
	if err != nil {
		fail(ctx, c, err, "", "Failed to fetch interviews")
		return
	}
	if interviews == nil {
		interviews = []types.Interview{}
	}
	c.JSON(consts.StatusOK, utils.H{
		"interviews": interviews,
		"pagination": types.NewPagination(f.Page, f.Limit, total),
	})
}

func (h *InterviewHandler) Get(ctx context.Context, c *app.RequestContext) {
	iv, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to fetch interview")
		return
	}
	c.JSON(consts.StatusOK, iv)
}

func (h *InterviewHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req InterviewRequest
	if err := bindJSON(c, &req, interviewMessages); err != nil {
		fail(ctx, c, err, "", "Failed to create interview")
		return
	}
	iv := &types.Interview{
		CandidateID: req.CandidateID,
		Position:    req.Position,
		Interviewer: req.Interviewer,
		ScheduledAt: *req.ScheduledAt,
		Duration:    req.Duration,
		Type:        req.Type,
		Questions:   req.Questions,
	}
	if err := h.repo.Create(ctx, iv); err != nil {
		fail(ctx, c, err, "", "Failed to create interview")
		return
	}
	c.JSON(consts.StatusCreated, iv)
}

// Update handles PUT /interviews/:id. Fields absent from the body keep their
// stored values; the candidate cannot be reassigned.
func (h *InterviewHandler) Update(ctx context.Context, c *app.RequestContext) {
	iv, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to update interview")
		return
	}
	if body := c.Request.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, iv); err != nil {
			fail(ctx, c, validation.Newf("Invalid JSON body: %v", err), "", "")
			return
		}
	}
	iv.ID = c.Param("id")
	if err := validation.Struct(iv, nil); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	if err := h.repo.Update(ctx, iv); err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to update interview")
		return
	}
	c.JSON(consts.StatusOK, iv)
}

func (h *InterviewHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := h.repo.Delete(ctx, c.Param("id")); err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to delete interview")
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": "Interview deleted successfully"})
}

func (h *InterviewHandler) transition(ctx context.Context, c *app.RequestContext, fn func(context.Context, string, time.Time) (*types.Interview, error), invalid, internal string) {
	iv, err := fn(ctx, c.Param("id"), h.now())
	if errors.Is(err, storage.ErrInvalidTransition) {
		badRequest(c, invalid)
		return
	}
	if err != nil {
		fail(ctx, c, err, "Interview not found", internal)
		return
	}
	c.JSON(consts.StatusOK, iv)
}

// Start handles POST /interviews/:id/start.
func (h *InterviewHandler) Start(ctx context.Context, c *app.RequestContext) {
	h.transition(ctx, c, h.repo.Start, "Interview cannot be started", "Failed to start interview")
}

// End handles POST /interviews/:id/end.
func (h *InterviewHandler) End(ctx context.Context, c *app.RequestContext) {
	h.transition(ctx, c, h.repo.End, "Interview is not in progress", "Failed to end interview")
}

func (h *InterviewHandler) Transcript(ctx context.Context, c *app.RequestContext) {
	var req transcriptRequest
	if err := bindJSON(c, &req, map[string]string{"transcript": "Transcript is required"}); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	if _, err := h.repo.SetTranscript(ctx, c.Param("id"), *req.Transcript); err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to update transcript")
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": "Transcript updated successfully"})
}

func (h *InterviewHandler) AddQuestion(ctx context.Context, c *app.RequestContext) {
	var q types.Question
	if err := bindJSON(c, &q, map[string]string{"question": "Question and type are required", "type": "Question and type are required"}); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	added, err := h.repo.AddQuestion(ctx, c.Param("id"), q)
	if err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to add question")
		return
	}
	c.JSON(consts.StatusCreated, added)
}

func (h *InterviewHandler) AddEvaluation(ctx context.Context, c *app.RequestContext) {
	var req evaluationRequest
	if err := bindJSON(c, &req, evaluationMessages); err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	added, err := h.repo.AddEvaluation(ctx, c.Param("id"), types.Evaluation{
		Criteria: req.Criteria,
		Score:    *req.Score,
		Notes:    req.Notes,
	})
	if err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to add evaluation")
		return
	}
	c.JSON(consts.StatusCreated, added)
}

// Report handles GET /interviews/:id/report.
func (h *InterviewHandler) Report(ctx context.Context, c *app.RequestContext) {
	iv, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		fail(ctx, c, err, "Interview not found", "Failed to generate report")
		return
	}
	var buf bytes.Buffer
	if err := export.InterviewReport(&buf, iv); err != nil {
		fail(ctx, c, err, "", "Failed to generate report")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="interview-%s.pdf"`, iv.ID))
	c.Data(consts.StatusOK, export.PDFContentType, buf.Bytes())
}
