package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// AccessLog logs one line per request once the handler chain returns.
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		status := c.Response.StatusCode()
		latency := time.Since(start)
		if status >= consts.StatusInternalServerError {
			hlog.CtxWarnf(ctx, "%s %s -> %d (%s)", c.Method(), c.Request.URI().PathOriginal(), status, latency)
			return
		}
		hlog.CtxInfof(ctx, "%s %s -> %d (%s)", c.Method(), c.Request.URI().PathOriginal(), status, latency)
	}
}

// Health answers liveness checks.
func Health(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "OK", "timestamp": timestamp()})
}
