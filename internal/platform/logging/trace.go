package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TraceparentHeader is the W3C trace context request header.
const TraceparentHeader = "traceparent"

// {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)

var (
	projectIDOnce   sync.Once
	cachedProjectID string
)

// Traceparent is a W3C trace context. The terminal client starts one per
// sign-up attempt and sends a child of it on every profile API request; the
// profile API turns it into Cloud Trace log fields.
type Traceparent struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// NewTraceparent starts a new sampled trace.
func NewTraceparent() Traceparent {
	return Traceparent{TraceID: randomHex(16), SpanID: randomHex(8), Sampled: true}
}

// ParseTraceparent reads a traceparent header. Version ff and all-zero IDs
// are rejected.
func ParseTraceparent(header string) (Traceparent, bool) {
	m := traceparentRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(header)))
	if m == nil || m[1] == "ff" {
		return Traceparent{}, false
	}
	if strings.Trim(m[2], "0") == "" || strings.Trim(m[3], "0") == "" {
		return Traceparent{}, false
	}
	return Traceparent{TraceID: m[2], SpanID: m[3], Sampled: m[4] == "01"}, true
}

// Child keeps the trace ID and picks a new span ID.
func (t Traceparent) Child() Traceparent {
	t.SpanID = randomHex(8)
	return t
}

// String formats t as a version 00 header value.
func (t Traceparent) String() string {
	flags := "00"
	if t.Sampled {
		flags = "01"
	}
	return "00-" + t.TraceID + "-" + t.SpanID + "-" + flags
}

// resource is the Cloud Trace resource name, empty without a project.
func (t Traceparent) resource(projectID string) string {
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", projectID, t.TraceID)
}

func (t Traceparent) fields(projectID string) []zap.Field {
	if projectID == "" {
		return nil
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", t.resource(projectID)),
		zap.String("logging.googleapis.com/spanId", t.SpanID),
		zap.Bool("logging.googleapis.com/trace_sampled", t.Sampled),
	}
}

// requestLogger derives the per-request logger: trace fields when the caller
// sent a valid traceparent and a project is known, plus the request ID.
func requestLogger(base *zap.Logger, tp Traceparent, traced bool, projectID, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	var fields []zap.Field
	if traced {
		fields = tp.fields(projectID)
	}
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func randomHex(n int) string {
	var buf []byte
	for len(buf) < n {
		id := uuid.New()
		buf = append(buf, id[:]...)
	}
	return hex.EncodeToString(buf[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveProjectID() string {
	projectIDOnce.Do(func() {
		cachedProjectID = firstNonEmpty(
			os.Getenv("FIREBASE_PROJECT_ID"),
			os.Getenv("GOOGLE_CLOUD_PROJECT"),
			os.Getenv("GCP_PROJECT"),
		)
	})
	return cachedProjectID
}
