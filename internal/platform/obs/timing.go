package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RequestIDKey carries the per-request correlation id through contexts.
const RequestIDKey ctxKey = "req_id"

// Time logs the duration (and error, if any) of an operation on return.
// Usage: defer obs.Time(ctx, "osrm.Table")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}

// Warn logs an absorbed degradation: the pipeline continued on a fallback
// path and the caller will not see a failure.
func Warn(ctx context.Context, op string, err error) {
	reqID, _ := ctx.Value(RequestIDKey).(string)
	log.Printf("level=warn req_id=%s op=%s err=%v", reqID, op, err)
}
