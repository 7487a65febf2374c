package handler

import (
	"bytes"
	"context"
	"strings"

	"interview-assistant/internal/candidate"
	"interview-assistant/internal/export"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CandidateHandler serves /candidates.
type CandidateHandler struct {
	repo storage.CandidateRepository
}

func NewCandidateHandler(repo storage.CandidateRepository) *CandidateHandler {
	return &CandidateHandler{repo: repo}
}

// CandidateRequest is the body of POST /candidates.
type CandidateRequest struct {
	Name       string                `json:"name" validate:"required"`
	Email      string                `json:"email" validate:"required,email"`
	Phone      string                `json:"phone"`
	Position   string                `json:"position" validate:"required"`
	Experience string                `json:"experience"`
	Skills     []string              `json:"skills"`
	Resume     *types.ResumeFile     `json:"resume"`
	Status     types.CandidateStatus `json:"status" validate:"omitempty,oneof=applied screening scheduled interviewed completed rejected hired"`
	Notes      string                `json:"notes"`
}

// CandidateUpdate is the body of PUT /candidates/:id; nil fields are kept.
type CandidateUpdate struct {
	Name         *string                `json:"name" validate:"omitempty,min=1"`
	Email        *string                `json:"email" validate:"omitempty,email"`
	Phone        *string                `json:"phone"`
	Position     *string                `json:"position" validate:"omitempty,min=1"`
	Experience   *string                `json:"experience"`
	Skills       []string               `json:"skills"`
	Resume       *types.ResumeFile      `json:"resume"`
	Status       *types.CandidateStatus `json:"status" validate:"omitempty,oneof=applied screening scheduled interviewed completed rejected hired"`
	Notes        *string                `json:"notes"`
	AverageScore *float64               `json:"averageScore" validate:"omitempty,gte=0,lte=10"`
}

func (r *CandidateRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = candidate.NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Position = strings.TrimSpace(r.Position)
}

func (u *CandidateUpdate) normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(u.Name)
	trim(u.Phone)
	trim(u.Position)
	if u.Email != nil {
		*u.Email = candidate.NormalizeEmail(*u.Email)
	}
}

func (u *CandidateUpdate) apply(c *types.Candidate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Name, u.Name)
	set(&c.Email, u.Email)
	set(&c.Phone, u.Phone)
	set(&c.Position, u.Position)
	set(&c.Experience, u.Experience)
	set(&c.Notes, u.Notes)
	if u.Skills != nil {
		c.Skills = u.Skills
	}
	if u.Resume != nil {
		c.Resume = u.Resume
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.AverageScore != nil {
		c.AverageScore = u.AverageScore
	}
}

// listFilter reads the shared list and export query parameters.
func listFilter(c *app.RequestContext) types.CandidateFilter {
	f := types.CandidateFilter{
		Search:   c.Query("search"),
		Position: c.Query("position"),
		Status:   types.CandidateStatus(c.Query("status")),
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("sortOrder") != "asc",
		Page:     queryInt(c, "page", 1),
		Limit:    min(queryInt(c, "limit", defaultPageSize), maxPageSize),
	}
	if _, ok := types.CandidateSortFields[f.SortBy]; !ok {
		f.SortBy = "createdAt"
	}
	return f
}

// List handles GET /candidates.
func (h *CandidateHandler) List(ctx context.Context, c *app.RequestContext) {
	f := listFilter(c)
	candidates, total, err := h.repo.List(ctx, f)
	if err != nil {
		fail(ctx, c, err, "", "Failed to fetch candidates")
		return
	}
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	c.JSON(consts.StatusOK, utils.H{
		"candidates": candidates,
		"pagination": types.NewPagination(f.Page, f.Limit, total),
	})
}

func (h *CandidateHandler) Get(ctx context.Context, c *app.RequestContext) {
	cand, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		fail(ctx, c, err, "Candidate not found", "Failed to fetch candidate")
		return
	}
	c.JSON(consts.StatusOK, cand)
}

func (h *CandidateHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req CandidateRequest
	if err := bindJSON(c, &req, nil); err != nil {
		fail(ctx, c, err, "", "Failed to create candidate")
		return
	}
	cand := &types.Candidate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Position:   req.Position,
		Experience: req.Experience,
		Skills:     req.Skills,
		Resume:     req.Resume,
		Status:     req.Status,
		Notes:      req.Notes,
	}
	candidate.Normalize(cand)
	if err := h.repo.Create(ctx, cand); err != nil {
		fail(ctx, c, err, "", "Failed to create candidate")
		return
	}
	c.JSON(consts.StatusCreated, cand)
}

func (h *CandidateHandler) Update(ctx context.Context, c *app.RequestContext) {
	var req CandidateUpdate
	if err := bindJSON(c, &req, nil); err != nil {
		fail(ctx, c, err, "", "Failed to update candidate")
		return
	}
	cand, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		fail(ctx, c, err, "Candidate not found", "Failed to update candidate")
		return
	}
	req.apply(cand)
	candidate.Normalize(cand)
	if err := h.repo.Update(ctx, cand); err != nil {
		fail(ctx, c, err, "Candidate not found", "Failed to update candidate")
		return
	}
	cand.Interviews = nil
	c.JSON(consts.StatusOK, cand)
}

func (h *CandidateHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := h.repo.Delete(ctx, c.Param("id")); err != nil {
		fail(ctx, c, err, "Candidate not found", "Failed to delete candidate")
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": "Candidate deleted successfully"})
}

// Stats handles GET /candidates/stats/overview.
func (h *CandidateHandler) Stats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.repo.Stats(ctx)
	if err != nil {
		fail(ctx, c, err, "", "Failed to fetch candidate statistics")
		return
	}
	c.JSON(consts.StatusOK, stats)
}

// Export handles GET /candidates/export: every candidate matching the list
// filters, unpaginated, as a spreadsheet.
func (h *CandidateHandler) Export(ctx context.Context, c *app.RequestContext) {
	f := listFilter(c)
	f.Page, f.Limit = 0, 0
	candidates, _, err := h.repo.List(ctx, f)
	if err != nil {
		fail(ctx, c, err, "", "Failed to export candidates")
		return
	}
	var buf bytes.Buffer
	if err := export.CandidatesXLSX(&buf, candidates); err != nil {
		fail(ctx, c, err, "", "Failed to export candidates")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="candidates.xlsx"`)
	c.Data(consts.StatusOK, export.XLSXContentType, buf.Bytes())
}
