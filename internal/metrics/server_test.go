package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

var testCounter = NewCounter("test_events_total", "metrics", "events seen by the metrics test", []string{"kind"})

func TestServer_ExposesMetrics(t *testing.T) {
	testCounter.WithLabelValues("scrape").Add(3)

	s, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Shutdown(context.Background()))
	}()

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `blockmirror_metrics_test_events_total{kind="scrape"} 3`)
}
