package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	CyclesRun       Counter
	CyclesSkipped   Counter
	AlertsSent      Counter
	AlertsFailed    Counter
	SymbolsSkipped  Counter
	SymbolsFailed   Counter
	CommandsHandled Counter
	PollFailures    Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		CyclesRun:       n,
		CyclesSkipped:   n,
		AlertsSent:      n,
		AlertsFailed:    n,
		SymbolsSkipped:  n,
		SymbolsFailed:   n,
		CommandsHandled: n,
		PollFailures:    n,
	}
}
