package status

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeflow/ledcore/internal/health"
	"github.com/edgeflow/ledcore/internal/metrics"
	"github.com/edgeflow/ledcore/internal/resources"
	ledcorews "github.com/edgeflow/ledcore/internal/websocket"
)

func newTestServer() *Server {
	m := metrics.NewMetrics()
	hc := health.NewHealthChecker()
	monitor := resources.NewMonitor(resources.ResourceLimits{})
	hub := ledcorews.NewHub()
	return New(m, hc, monitor, hub)
}

func TestHandleStatusReturnsMetricsSnapshot(t *testing.T) {
	s := newTestServer()
	s.metrics.IncrementTicks()
	s.metrics.IncrementTicks()

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.EqualValues(t, 2, got["ticks_total"])
}

func TestHandleMetricsReturnsPrometheusText(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ledcore_ticks_total")
}

func TestHandleHealthReturnsHealthyWithNoChecks(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHandleResourcesReturnsGroupsBlock(t *testing.T) {
	s := newTestServer()
	s.monitor.EnableGroup("porch")

	req := httptest.NewRequest("GET", "/api/resources", nil)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got, "groups")
}
