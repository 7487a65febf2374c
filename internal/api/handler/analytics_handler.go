package handler

import (
	"context"

	"interview-assistant/internal/analytics"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type AnalyticsHandler struct {
	svc *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// respond writes v or the error of the report that produced it.
func respond[T any](ctx context.Context, c *app.RequestContext, v T, err error, internal string) {
	if err != nil {
		fail(ctx, c, err, "", internal)
		return
	}
	c.JSON(consts.StatusOK, v)
}

// Overview handles GET /analytics/overview?startDate=&endDate=.
func (h *AnalyticsHandler) Overview(ctx context.Context, c *app.RequestContext) {
	from, err := queryTime(c, "startDate")
	if err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	to, err := queryTime(c, "endDate")
	if err != nil {
		fail(ctx, c, err, "", "")
		return
	}
	v, err := h.svc.Overview(ctx, from, to)
	respond(ctx, c, v, err, "Failed to fetch analytics overview")
}

// Trends handles GET /analytics/trends?period=30days|3months|6months|1year.
func (h *AnalyticsHandler) Trends(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.Trends(ctx, c.DefaultQuery("period", analytics.Period30Days))
	respond(ctx, c, v, err, "Failed to fetch interview trends")
}

func (h *AnalyticsHandler) Scores(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.Scores(ctx)
	respond(ctx, c, v, err, "Failed to fetch score distribution")
}

func (h *AnalyticsHandler) Positions(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.Positions(ctx)
	respond(ctx, c, v, err, "Failed to fetch position statistics")
}

func (h *AnalyticsHandler) Performance(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.Performance(ctx)
	respond(ctx, c, v, err, "Failed to fetch performance metrics")
}

func (h *AnalyticsHandler) Questions(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.Questions(ctx)
	respond(ctx, c, v, err, "Failed to fetch question analytics")
}

func (h *AnalyticsHandler) RecentActivity(ctx context.Context, c *app.RequestContext) {
	v, err := h.svc.RecentActivity(ctx, queryInt(c, "limit", analytics.DefaultActivityLimit))
	respond(ctx, c, v, err, "Failed to fetch recent activity")
}
