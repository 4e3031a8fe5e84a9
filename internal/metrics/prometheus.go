package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "lp_funding_alert"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	cyclesRun       prometheus.Counter
	cyclesSkipped   prometheus.Counter
	alertsSent      prometheus.Counter
	alertsFailed    prometheus.Counter
	symbolsSkipped  prometheus.Counter
	symbolsFailed   prometheus.Counter
	commandsHandled prometheus.Counter
	pollFailures    prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry:        registry,
		cyclesRun:       newCounter("cycles_total", "Total number of alert cycles executed."),
		cyclesSkipped:   newCounter("cycles_paused_total", "Total number of alert cycles skipped while alerts were paused."),
		alertsSent:      newCounter("alerts_sent_total", "Total number of alerts delivered to the chat."),
		alertsFailed:    newCounter("alerts_failed_total", "Total number of alert deliveries that failed."),
		symbolsSkipped:  newCounter("symbols_skipped_total", "Total number of symbols skipped by filters or estimator checks."),
		symbolsFailed:   newCounter("symbols_failed_total", "Total number of symbols whose market fetch failed."),
		commandsHandled: newCounter("commands_handled_total", "Total number of operator commands applied."),
		pollFailures:    newCounter("poll_failures_total", "Total number of failed command polls."),
	}
	registry.MustRegister(
		p.cyclesRun,
		p.cyclesSkipped,
		p.alertsSent,
		p.alertsFailed,
		p.symbolsSkipped,
		p.symbolsFailed,
		p.commandsHandled,
		p.pollFailures,
		collectors.NewGoCollector(),
	)
	p.Metrics = &Metrics{
		CyclesRun:       promCounter{p.cyclesRun},
		CyclesSkipped:   promCounter{p.cyclesSkipped},
		AlertsSent:      promCounter{p.alertsSent},
		AlertsFailed:    promCounter{p.alertsFailed},
		SymbolsSkipped:  promCounter{p.symbolsSkipped},
		SymbolsFailed:   promCounter{p.symbolsFailed},
		CommandsHandled: promCounter{p.commandsHandled},
		PollFailures:    promCounter{p.pollFailures},
	}
	return p
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
