package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	reqBodyLimit  = 8 * 1024 // 8KB
	respBodyLimit = 8 * 1024 // 8KB
)

// Credentials and customer contact details never reach the logs.
var redactedKeys = map[string]bool{
	"password":              true,
	"authorization":         true,
	"token":                 true,
	"access_token":          true,
	"secret":                true,
	"client_secret":         true,
	"phone":                 true,
	"address":               true,
	"delivery_instructions": true,
}

// capturingWriter keeps the first respBodyLimit bytes of the response.
type capturingWriter struct {
	gin.ResponseWriter
	captured bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	if room := respBodyLimit - w.captured.Len(); room > 0 {
		w.captured.Write(b[:min(len(b), room)])
	}
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) full() bool { return w.captured.Len() >= respBodyLimit }

func redactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var m any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw // not JSON
	}
	var scrub func(any) any
	scrub = func(x any) any {
		switch v := x.(type) {
		case map[string]any:
			for k, val := range v {
				if redactedKeys[strings.ToLower(k)] {
					v[k] = "***redacted***"
					continue
				}
				v[k] = scrub(val)
			}
			return v
		case []any:
			for i := range v {
				v[i] = scrub(v[i])
			}
			return v
		default:
			return v
		}
	}
	out := scrub(m)
	b, err := json.Marshal(out)
	if err != nil {
		return raw
	}
	return b
}

// replayBody serves the bytes already peeked, then the rest of the original
// body.
type replayBody struct {
	io.Reader
	io.Closer
}

// peekBody reads at most n+1 bytes, puts them back in front of the unread
// remainder and returns at most n bytes for logging.
func peekBody(r *http.Request, n int) (logged []byte, truncated bool, err error) {
	orig := r.Body
	head, err := io.ReadAll(io.LimitReader(orig, int64(n)+1))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), orig), Closer: orig}
	if err != nil {
		return nil, false, err
	}
	if len(head) > n {
		return head[:n], true, nil
	}
	return head, false, nil
}

// quietPaths are served without an access log line.
var quietPaths = map[string]bool{"/healthz": true, "/metrics": true}

func isJSON(contentType string) bool { return strings.Contains(contentType, "application/json") }

func loggedBody(b []byte, truncated bool) string {
	out := string(redactJSON(b))
	if truncated {
		out += "...truncated..."
	}
	return out
}

// Logging writes one http_request line per call and stores a request-scoped
// logger (request id, session id, trace id) in the gin context. 5xx log at
// error, 4xx at warn.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set("X-Request-Id", reqID)
		}
		c.Header("X-Request-Id", reqID)

		scoped := []any{"req_id", reqID}
		if sid := c.GetHeader("X-Session-Id"); sid != "" {
			scoped = append(scoped, "session_id", sid)
		}
		// set when the engine is wrapped by otelhttp
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			scoped = append(scoped, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
		}
		l := base.With(scoped...)
		logging.With(c, l)

		if quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		var reqBody string
		if c.Request.Body != nil && isJSON(c.GetHeader("Content-Type")) {
			head, truncated, err := peekBody(c.Request, reqBodyLimit)
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				l.Warn("http_request", "method", c.Request.Method, "route", c.FullPath(),
					"status", http.StatusRequestEntityTooLarge, "limit", tooLarge.Limit)
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request_too_large"})
				return
			}
			reqBody = loggedBody(head, truncated)
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"remote", c.ClientIP(),
			"status", status,
			"dur_ms", time.Since(started).Milliseconds(),
			"resp_bytes", strconv.Itoa(c.Writer.Size()),
		}
		if reqBody != "" {
			attrs = append(attrs, "req_body", reqBody)
		}
		if isJSON(c.Writer.Header().Get("Content-Type")) && w.captured.Len() > 0 {
			attrs = append(attrs, "resp_body", loggedBody(w.captured.Bytes(), w.full()))
		}
		if len(c.Params) > 0 {
			attrs = append(attrs, "params", c.Params)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}
