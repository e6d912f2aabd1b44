package opsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

func testManager(t *testing.T) *matcher.Manager {
	t.Helper()
	builder := matcher.NewTreeBuilder(nil)
	m, err := matcher.NewManager(builder, matcher.NodeConfig{Type: matcher.NodeFilter, Name: "root"}, nil, nil)
	require.NoError(t, err)
	return m
}

func TestHealthzHandler_ReportsStats(t *testing.T) {
	manager := testManager(t)
	registry := prometheus.NewRegistry()
	bus := dispatcher.NewChannelBus(10, nil, nil)

	srv := httptest.NewServer(NewServer("", manager, registry, bus, nil).httpServer.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["reloads"])
}

func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	manager := testManager(t)
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "opsserver_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()
	bus := dispatcher.NewChannelBus(10, nil, nil)

	srv := httptest.NewServer(NewServer("", manager, registry, bus, nil).httpServer.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buf strings.Builder
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "opsserver_test_total 1")
}

func TestDebugStream_TeesDispatchedActions(t *testing.T) {
	manager := testManager(t)
	registry := prometheus.NewRegistry()
	bus := dispatcher.NewChannelBus(10, nil, nil)

	srv := httptest.NewServer(NewServer("", manager, registry, bus, nil).httpServer.Handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/debug/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the subscriber before publishing.
	time.Sleep(10 * time.Millisecond)
	bus.Publish(rule.Action{ID: "page", Payload: value.String("down")})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var received rule.Action
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, "page", received.ID)
}
