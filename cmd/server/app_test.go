package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/setgrouper/internal/api"
	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/platform/memory"
	"github.com/phrazzld/setgrouper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedSearcher map[string]string

func (c cannedSearcher) SearchPrints(_ context.Context, name string) ([]byte, error) {
	body, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("no prints for %q", name)
	}
	return []byte(body), nil
}

const solRingBody = `{"object":"list","has_more":false,"data":[
	{"name":"Sol Ring","set_name":"Commander Masters","promo":false,"oversized":false,
	 "color_identity":[],"prices":{"usd":"1.50"},"image_uris":{"normal":"https://img.example/sol.jpg"}},
	{"name":"Sol Ring","set_name":"Secret Lair Drop","promo":true,"oversized":false,
	 "color_identity":[],"prices":{"usd":"25.00"}}
]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SETGROUPER_CACHE_BACKEND", config.BackendMemory)
	t.Setenv("SETGROUPER_PIPELINE_CONCURRENCY", "2")

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	return cfg
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	log, _ := logger.NewTestLogger()
	app, err := newApplicationWithStore(testConfig(t), log, memory.NewStore(store.Quota{}),
		cannedSearcher{"Sol Ring": solRingBody})
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func TestRouter_EndToEnd(t *testing.T) {
	app := newTestApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/sets", "application/json",
		strings.NewReader(`{"text":"1 Sol Ring (CMM) 410\n1 Mox Lotus"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sets api.FetchSetsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sets))
	assert.Equal(t, 2, sets.Processed)
	require.Len(t, sets.Groups, 1)
	assert.Equal(t, "Commander Masters", sets.Groups[0].SetName)
	assert.Equal(t, []string{"Sol Ring"}, sets.Groups[0].Names())

	assert.Equal(t, []string{"card_Sol Ring"}, app.cache.Keys(context.Background()))

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(health.Body)
	_ = health.Body.Close()
	assert.Equal(t, "OK", string(body))

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metricsBody, _ := io.ReadAll(metricsResp.Body)
	_ = metricsResp.Body.Close()
	assert.Contains(t, string(metricsBody), `setgrouper_pipeline_names_total{outcome="fetched"} 1`)
	assert.Contains(t, string(metricsBody), `setgrouper_pipeline_names_total{outcome="failed"} 1`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	app := newTestApplication(t)
	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	app := newTestApplication(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, listener, app.setupRouter()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestInitializeApp_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SETGROUPER_CACHE_BACKEND", "floppy")

	_, err := initializeApp("")
	assert.ErrorContains(t, err, "validation failed")
}
