package logger

import (
	"context"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// New builds the process logger: JSON in production, text otherwise.
func New(level string, production bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if production {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		log.WithField("level", level).Warn("unknown log level, falling back to info")
	}
	log.SetLevel(lvl)

	return log
}

// FromContext attaches the request id and the active trace/span ids to base.
func FromContext(ctx context.Context, base logrus.FieldLogger) logrus.FieldLogger {
	fields := logrus.Fields{}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		fields["request_id"] = requestID
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}

	if len(fields) == 0 {
		return base
	}
	return base.WithFields(fields)
}
