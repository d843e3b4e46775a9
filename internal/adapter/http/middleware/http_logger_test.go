package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactJSON(t *testing.T) {
	out := redactJSON([]byte(`{"client_secret":"s3","nested":{"Password":"p"},"list":[{"token":"t"}],"keep":"v"}`))

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "***redacted***", m["client_secret"])
	assert.Equal(t, "***redacted***", m["nested"].(map[string]any)["Password"])
	assert.Equal(t, "***redacted***", m["list"].([]any)[0].(map[string]any)["token"])
	assert.Equal(t, "v", m["keep"])

	assert.Equal(t, []byte("plain"), redactJSON([]byte("plain")))
}

func TestLogging_HandlerSeesOriginalBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&logs, nil))

	big := `{"secret":"hunter2","pad":"` + strings.Repeat("x", reqBodyLimit) + `"}`
	var seen string

	r := gin.New()
	r.Use(Logging(l))
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = string(b)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for _, body := range []string{`{"secret":"hunter2"}`, big} {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, body, seen, "downstream handlers get the unredacted, untruncated body")
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	}
	assert.NotContains(t, logs.String(), "hunter2")
	assert.Contains(t, logs.String(), `"route":"/echo"`)
}
