package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.CyclesRun.Inc()
	prom.Metrics.CyclesSkipped.Inc()
	prom.Metrics.AlertsSent.Inc()
	prom.Metrics.AlertsSent.Inc()
	prom.Metrics.AlertsFailed.Inc()
	prom.Metrics.SymbolsSkipped.Inc()
	prom.Metrics.SymbolsFailed.Inc()
	prom.Metrics.CommandsHandled.Inc()
	prom.Metrics.PollFailures.Inc()

	assertCounter(t, prom.cyclesRun, 1)
	assertCounter(t, prom.cyclesSkipped, 1)
	assertCounter(t, prom.alertsSent, 2)
	assertCounter(t, prom.alertsFailed, 1)
	assertCounter(t, prom.symbolsSkipped, 1)
	assertCounter(t, prom.symbolsFailed, 1)
	assertCounter(t, prom.commandsHandled, 1)
	assertCounter(t, prom.pollFailures, 1)
}

func TestPrometheusHandlerExposesCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.AlertsSent.Inc()
	rec := httptest.NewRecorder()
	prom.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "lp_funding_alert_alerts_sent_total 1") {
		t.Fatalf("expected alerts_sent counter in output")
	}
}

func TestNoopCounters(t *testing.T) {
	m := NewNoop()
	m.AlertsSent.Inc()
	m.PollFailures.Inc()
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
