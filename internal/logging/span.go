package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work and tags every log line written under it.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan opens a span named name beneath any span already on ctx. A trace
// id is minted when ctx carries none. attrs are added to the span's logger.
func StartSpan(ctx context.Context, name string, attrs ...slog.Attr) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	fields := make([]any, 0, len(attrs)+4)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		fields = append(fields, slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	fields = append(fields, slog.String("span_id", spanID), slog.String("span_name", name))
	if parent := SpanIDFromContext(ctx); parent != "" {
		fields = append(fields, slog.String("parent_span_id", parent))
	}
	for _, attr := range attrs {
		fields = append(fields, attr)
	}

	logger := FromContext(ctx).With(fields...)
	ctx = WithSpanID(WithLogger(ctx, logger), spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End logs the span's duration at debug level.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
