package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type key string

// TraceIdKey is where the logging middleware stores the per-request trace id.
const TraceIdKey key = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logging middleware,
// generating a fresh one if the middleware did not run for this request.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Request.Context().Value(TraceIdKey).(string)
	if !ok {
		return uuid.NewString()
	}
	return traceId
}
