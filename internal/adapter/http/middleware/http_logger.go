package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aq2208/order-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	reqBodyLimit    = 8 * 1024
	redacted        = "***redacted***"
)

// redactedKeys are masked in logged JSON bodies, compared lower-cased.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"secret":        {},
	"client_secret": {},
	"clientsecret":  {},
	"access_token":  {},
}

// Logging tags each request with an id, stores a request-scoped logger in the
// context and writes one line per request with the redacted JSON body.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(requestIDHeader, reqID)
		}
		c.Header(requestIDHeader, reqID)

		l := base.With("req_id", reqID, "method", c.Request.Method, "route", c.FullPath(), "remote", c.ClientIP())
		logging.With(c, l)

		var loggedBody string
		if c.Request.Body != nil && strings.Contains(c.ContentType(), "json") {
			head, truncated, body := peekBody(c.Request.Body, reqBodyLimit)
			c.Request.Body = body
			if truncated {
				// a cut JSON document cannot be redacted
				loggedBody = "...truncated..."
			} else {
				loggedBody = string(redactJSON(head))
			}
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{"status", status, "dur_ms", time.Since(start).Milliseconds(), "resp_bytes", c.Writer.Size()}
		if loggedBody != "" {
			attrs = append(attrs, "req_body", loggedBody)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		level := slog.LevelInfo
		if status >= http.StatusBadRequest {
			level = slog.LevelError
		}
		l.Log(c.Request.Context(), level, "http_request", attrs...)
	}
}

// peekBody reads up to n bytes for logging and returns a body that still yields
// the complete payload to downstream handlers.
func peekBody(rc io.ReadCloser, n int) (head []byte, truncated bool, body io.ReadCloser) {
	var buf bytes.Buffer
	_, _ = io.CopyN(&buf, rc, int64(n+1))
	read := buf.Bytes()
	body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(read), rc), rc}
	if len(read) > n {
		return read[:n], true, body
	}
	return read, false, body
}

// redactJSON masks sensitive keys at any depth. Non-JSON input is returned as is.
func redactJSON(raw []byte) []byte {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return raw
	}
	out, err := json.Marshal(scrub(v))
	if err != nil {
		return raw
	}
	return out
}

func scrub(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			if _, ok := redactedKeys[strings.ToLower(k)]; ok {
				x[k] = redacted
			} else {
				x[k] = scrub(val)
			}
		}
	case []any:
		for i := range x {
			x[i] = scrub(x[i])
		}
	}
	return v
}
