package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType classifies errors recorded on spans.
type ErrorType string

const (
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeStorage    ErrorType = "object_storage"
	ErrorTypeParser     ErrorType = "document_conversion"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
	// ErrorTypeExternal covers the chat completion provider and Tika.
	ErrorTypeExternal ErrorType = "external_system"
	ErrorTypeTimeout  ErrorType = "timeout"
)

// RecordError records err on span and marks the span failed. An expired
// deadline is reported as a timeout whatever errorType says; the caller's
// classification is kept in error.origin.
func RecordError(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes)+3)
	if errors.Is(err, context.DeadlineExceeded) && errorType != ErrorTypeTimeout {
		attrs = append(attrs, attribute.String("error.origin", string(errorType)))
		errorType = ErrorTypeTimeout
	}
	attrs = append(attrs,
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	attrs = append(attrs, attributes...)

	span.RecordError(err)
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, TruncateString(err.Error(), DefaultMaxLength))
}

// RecordHTTPError records the error behind a non-2xx response. Client errors
// are tagged but leave the span status unset.
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	if statusCode < 500 {
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("error.category", "client_error"),
			attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
		)
		return
	}
	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", "server_error"),
	)
}
