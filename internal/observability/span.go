package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error classes attached to failed spans.
const (
	ErrTypeInvalidInput = "invalid_input"
	ErrTypeInternal     = "internal"
	ErrTypeCanceled     = "canceled"

	attrErrorType = "error.type"
)

// RecordSpanError marks span as failed with err and an error class.
func RecordSpanError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(attrErrorType, errType))
}
