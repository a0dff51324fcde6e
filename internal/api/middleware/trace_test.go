package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/setgrouper/internal/api/shared"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger()

	var (
		traceID   string
		requestID string
	)
	handler := chimiddleware.RequestID(NewTraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		requestID = logger.GetRequestID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, traceID, 32)
	assert.NotEmpty(t, requestID)

	entries, err := buf.Entries()
	require.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "inside handler", entries[0]["msg"])
		assert.Equal(t, traceID, entries[0]["trace_id"])
		assert.Equal(t, "request completed", entries[1]["msg"])
		assert.Equal(t, float64(http.StatusTeapot), entries[1]["status"])
		assert.Equal(t, requestID, entries[1]["request_id"])
	}
}
