// Package handler implements the HTTP endpoints on top of the repositories
// and services.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"interview-assistant/internal/parser"
	"interview-assistant/internal/settings"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/tracing"
	"interview-assistant/internal/validation"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

// sentinelMessages are the client-facing texts of storage errors.
var sentinelMessages = map[error]string{
	storage.ErrDuplicateEmail:   "Candidate with this email already exists",
	storage.ErrCandidateMissing: "Candidate not found",
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var conv *parser.DocumentConversionError
	var imp *settings.ImportError
	switch {
	case validation.IsValidation(err),
		errors.Is(err, storage.ErrDuplicateEmail),
		errors.Is(err, storage.ErrCandidateMissing),
		errors.Is(err, storage.ErrInvalidTransition),
		errors.As(err, &imp):
		return consts.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return consts.StatusNotFound
	case errors.As(err, &conv):
		return consts.StatusUnprocessableEntity
	default:
		return consts.StatusInternalServerError
	}
}

// fail writes {"error": ...}. notFound replaces the message of a 404 and
// internal replaces the message of a 500, whose cause is only logged.
func fail(ctx context.Context, c *app.RequestContext, err error, notFound, internal string) {
	status := statusFor(err)
	msg := err.Error()
	for sentinel, text := range sentinelMessages {
		if errors.Is(err, sentinel) {
			msg = text
		}
	}
	switch status {
	case consts.StatusNotFound:
		msg = notFound
	case consts.StatusInternalServerError:
		hlog.CtxErrorf(ctx, "%s %s: %v", c.Method(), c.Path(), err)
		msg = internal
	}
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	c.JSON(status, utils.H{"error": msg})
}

func badRequest(c *app.RequestContext, msg string) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": msg})
}

// bindJSON decodes the request body into dest and validates it. messages
// overrides the text of individual field failures.
func bindJSON(c *app.RequestContext, dest any, messages map[string]string) error {
	body := c.Request.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return validation.Newf("Invalid JSON body: %v", err)
	}
	if n, ok := dest.(normalizer); ok {
		n.normalize()
	}
	return validation.Struct(dest, messages)
}

// normalizer is implemented by request bodies that clean their fields
// before validation.
type normalizer interface {
	normalize()
}

// queryInt parses a positive integer query parameter, falling back to def.
func queryInt(c *app.RequestContext, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// queryTime accepts RFC 3339 timestamps or plain dates. An empty value
// yields nil.
func queryTime(c *app.RequestContext, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, validation.Newf("Invalid %s: %q", key, raw)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
