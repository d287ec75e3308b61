package obs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID returns a child context carrying the request id used in log fields.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, reqID)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDKey).(string)
	return reqID
}

// Logger returns a log entry pre-populated with the request id.
func Logger(ctx context.Context) *logrus.Entry {
	return logrus.WithField("req_id", RequestID(ctx))
}

// Time logs the duration of an operation. Use as
//
//	defer obs.Time(ctx, "op")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	entry := Logger(ctx)

	return func(errp *error) {
		fields := logrus.Fields{
			"op":     name,
			"dur_ms": time.Since(start).Milliseconds(),
		}

		if errp != nil && *errp != nil {
			entry.WithFields(fields).WithError(*errp).Warn("operation failed")
			return
		}
		entry.WithFields(fields).Debug("operation done")
	}
}
