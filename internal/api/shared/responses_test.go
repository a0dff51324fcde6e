package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDefaultLogger routes the default logger into a buffer for the test.
func captureDefaultLogger(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func requestWithTrace(traceID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if traceID == "" {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), TraceIDKey, traceID))
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, requestWithTrace(""), http.StatusOK, map[string]any{"processed": 3})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"processed":3}`, w.Body.String())
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	logs := captureDefaultLogger(t)
	w := httptest.NewRecorder()

	RespondWithJSON(w, requestWithTrace(""), http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, requestWithTrace("test-trace-id"), http.StatusBadRequest, "Invalid request")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Invalid request", response.Error)
	assert.Equal(t, "test-trace-id", response.TraceID)
}

func TestRespondWithErrorNoTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, requestWithTrace(""), http.StatusNotFound, "Not found")

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.TraceID)
	assert.NotContains(t, w.Body.String(), "trace_id")
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name             string
		statusCode       int
		message          string
		err              error
		expectedLogLevel string
		elevate          bool
	}{
		{
			name:             "server error",
			statusCode:       http.StatusInternalServerError,
			message:          "Failed to read cache",
			err:              errors.New("open /var/lib/setgrouper/cache.db: locked"),
			expectedLogLevel: "level=ERROR",
		},
		{
			name:             "client error",
			statusCode:       http.StatusBadRequest,
			message:          "Bad request",
			err:              errors.New("invalid input"),
			expectedLogLevel: "level=DEBUG",
		},
		{
			name:             "elevated client error",
			statusCode:       http.StatusBadRequest,
			message:          "Bad request",
			err:              errors.New("invalid input"),
			expectedLogLevel: "level=WARN",
			elevate:          true,
		},
		{
			name:             "rate limited",
			statusCode:       http.StatusTooManyRequests,
			message:          "Too many requests",
			err:              errors.New("rate limit exceeded"),
			expectedLogLevel: "level=WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureDefaultLogger(t)
			w := httptest.NewRecorder()

			var opts []ResponseOption
			if tc.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}
			RespondWithErrorAndLog(w, requestWithTrace("test-trace-id"), tc.statusCode, tc.message, tc.err, opts...)

			assert.Equal(t, tc.statusCode, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.message, response.Error)
			assert.NotContains(t, w.Body.String(), tc.err.Error(), "raw error must not reach the client")

			out := logs.String()
			assert.Contains(t, out, tc.expectedLogLevel)
			assert.Contains(t, out, "trace_id=test-trace-id")
			assert.Contains(t, out, "error_type=")
		})
	}
}

func TestRespondWithErrorAndLog_RedactsPaths(t *testing.T) {
	logs := captureDefaultLogger(t)
	w := httptest.NewRecorder()

	RespondWithErrorAndLog(w, requestWithTrace(""), http.StatusInternalServerError, "Failed",
		errors.New("open /var/lib/setgrouper/cache.db: locked"))

	assert.NotContains(t, logs.String(), "/var/lib/setgrouper")
	assert.Contains(t, logs.String(), "[REDACTED_PATH]")
}
