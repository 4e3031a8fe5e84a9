package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lp-funding-alert/internal/estimate"
	"lp-funding-alert/internal/logging"
	"lp-funding-alert/internal/market"
	"lp-funding-alert/internal/metrics"
	"lp-funding-alert/internal/state"
	"lp-funding-alert/internal/timescale"
	"lp-funding-alert/internal/watchlist"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type marketGateway interface {
	ActiveOpportunities(ctx context.Context) ([]market.Opportunity, error)
	ListTradableFutures(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, symbol string, window time.Duration) (estimate.MarketSnapshot, error)
}

type notifier interface {
	Send(ctx context.Context, message string) error
}

type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
)

// Skip reasons reported per symbol.
const (
	reasonNoContract   = "no_futures_contract"
	reasonPaused       = "alerts_paused"
	reasonExcluded     = "excluded"
	reasonMissingPrice = "missing_price"
	reasonInterval     = "invalid_interval"
	reasonNoHistory    = "no_funding_history"
)

type SymbolResult struct {
	Symbol  string
	Outcome Outcome
	Reason  string
	Err     error
}

type CycleReport struct {
	ID       string
	Skipped  bool
	Err      error
	Symbols  []SymbolResult
	Started  time.Time
	Finished time.Time
}

func (r CycleReport) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Symbols {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

type AlertCycle struct {
	gateway     marketGateway
	estimator   *estimate.Estimator
	watchlist   *watchlist.State
	notifier    notifier
	journal     state.Journal
	series      *timescale.Writer
	metrics     *metrics.Metrics
	log         *zap.Logger
	quoteSuffix string
	loc         *time.Location
	now         func() time.Time
}

func NewAlertCycle(gateway marketGateway, estimator *estimate.Estimator, wl *watchlist.State, n notifier, quoteSuffix string, loc *time.Location, log *zap.Logger) *AlertCycle {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertCycle{
		gateway:     gateway,
		estimator:   estimator,
		watchlist:   wl,
		notifier:    n,
		metrics:     metrics.NewNoop(),
		log:         log,
		quoteSuffix: quoteSuffix,
		loc:         loc,
		now:         time.Now,
	}
}

func (c *AlertCycle) SetMetrics(m *metrics.Metrics) {
	if m != nil {
		c.metrics = m
	}
}

func (c *AlertCycle) SetJournal(j state.Journal) {
	c.journal = j
}

func (c *AlertCycle) SetSeries(w *timescale.Writer) {
	c.series = w
}

// RunOnce evaluates every active launchpool opportunity. While alerts are
// paused it returns before touching the network.
func (c *AlertCycle) RunOnce(ctx context.Context) (report CycleReport) {
	report = CycleReport{ID: uuid.NewString(), Started: c.now()}
	log := c.log.With(zap.String("cycle_id", report.ID))
	defer func() {
		report.Finished = c.now()
	}()

	if !c.watchlist.AlertsEnabled() {
		report.Skipped = true
		c.metrics.CyclesSkipped.Inc()
		log.Debug("alerts paused, cycle skipped")
		return report
	}
	c.metrics.CyclesRun.Inc()

	opportunities, err := c.gateway.ActiveOpportunities(ctx)
	if err != nil {
		report.Err = err
		log.Warn("launchpool fetch failed", zap.Error(err))
		return report
	}
	if len(opportunities) == 0 {
		log.Debug("no active launchpool opportunities")
		return report
	}
	symbols, err := c.gateway.ListTradableFutures(ctx)
	if err != nil {
		report.Err = err
		log.Warn("futures list fetch failed", zap.Error(err))
		return report
	}
	tradable := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		tradable[symbol] = struct{}{}
	}

	for _, opp := range opportunities {
		if ctx.Err() != nil {
			break
		}
		symbol := watchlist.NormalizeCoin(opp.Coin) + c.quoteSuffix
		res := c.evaluate(ctx, log, symbol, opp.APR, tradable)
		report.Symbols = append(report.Symbols, res)
	}
	log.Info("alert cycle complete",
		zap.Int("opportunities", len(opportunities)),
		zap.Int("dispatched", report.Count(OutcomeDispatched)),
		zap.Int("skipped", report.Count(OutcomeSkipped)),
		zap.Int("failed", report.Count(OutcomeFailed)),
	)
	return report
}

func (c *AlertCycle) evaluate(ctx context.Context, log *zap.Logger, symbol string, apr float64, tradable map[string]struct{}) SymbolResult {
	log = log.With(zap.String("symbol", symbol))
	if _, ok := tradable[symbol]; !ok {
		return c.skip(log, symbol, reasonNoContract)
	}
	if !c.watchlist.AlertsEnabled() {
		return c.skip(log, symbol, reasonPaused)
	}
	if c.watchlist.IsExcluded(watchlist.BareTicker(symbol, c.quoteSuffix)) {
		return c.skip(log, symbol, reasonExcluded)
	}

	snap, err := c.gateway.Snapshot(ctx, symbol, c.estimator.Window())
	if err != nil {
		return c.fail(log, symbol, err)
	}
	result, err := c.estimator.Estimate(snap, apr)
	switch {
	case errors.Is(err, estimate.ErrMissingPrice):
		return c.skip(log, symbol, reasonMissingPrice)
	case errors.Is(err, estimate.ErrInvalidInterval):
		return c.skip(log, symbol, reasonInterval)
	case errors.Is(err, estimate.ErrNoFundingHistory):
		return c.skip(log, symbol, reasonNoHistory)
	case err != nil:
		return c.fail(log, symbol, err)
	}

	now := c.now().In(c.loc)
	if err := c.notifier.Send(ctx, formatAlert(now, result)); err != nil {
		c.metrics.AlertsFailed.Inc()
		return c.fail(log, symbol, err)
	}
	c.metrics.AlertsSent.Inc()
	c.record(ctx, log, now, result)
	log.Debug("alert dispatched",
		zap.String("funding_source", string(result.FundingSource)),
		zap.Float64("expected_daily_return", result.ExpectedDailyReturnPercent),
	)
	return SymbolResult{Symbol: symbol, Outcome: OutcomeDispatched}
}

func (c *AlertCycle) skip(log *zap.Logger, symbol, reason string) SymbolResult {
	c.metrics.SymbolsSkipped.Inc()
	log.Debug("symbol skipped", zap.String("reason", reason))
	return SymbolResult{Symbol: symbol, Outcome: OutcomeSkipped, Reason: reason}
}

func (c *AlertCycle) fail(log *zap.Logger, symbol string, err error) SymbolResult {
	c.metrics.SymbolsFailed.Inc()
	log.Warn("symbol evaluation failed", zap.Error(err))
	return SymbolResult{Symbol: symbol, Outcome: OutcomeFailed, Err: err}
}

func (c *AlertCycle) record(ctx context.Context, log *zap.Logger, now time.Time, res estimate.Result) {
	c.series.Enqueue(timescale.EstimatePoint{
		Time:                 now,
		Symbol:               res.Symbol,
		APR:                  res.APR,
		FundingSource:        string(res.FundingSource),
		FundingRate:          res.FundingRateRaw,
		FundingIntervalHours: res.FundingIntervalHours,
		SecondsToFunding:     res.SecondsUntilNextFunding,
		SpotPrice:            res.SpotPrice.InexactFloat64(),
		FuturesPrice:         res.FuturesPrice.InexactFloat64(),
		SpotFuturesGap:       res.SpotFuturesGap.InexactFloat64(),
		DailyAPR:             res.DailyAPRPercent,
		DailyFundingFee:      res.DailyFundingFeePercent,
		ExpectedDailyReturn:  res.ExpectedDailyReturnPercent,
	})
	if c.journal == nil {
		return
	}
	payload, err := json.Marshal(alertAudit{
		FundingSource:       string(res.FundingSource),
		FundingRatePercent:  res.FundingRatePercent,
		APR:                 res.APR,
		ExpectedDailyReturn: res.ExpectedDailyReturnPercent,
	})
	if err != nil {
		return
	}
	if err := c.journal.Append(ctx, state.Entry{
		Time:    now.UTC(),
		Kind:    state.KindAlert,
		Subject: res.Symbol,
		Payload: string(payload),
	}); err != nil {
		log.Warn("alert journal append failed", zap.Error(err))
	}
}

type alertAudit struct {
	FundingSource       string  `json:"funding_source"`
	FundingRatePercent  float64 `json:"funding_rate_percent"`
	APR                 float64 `json:"apr"`
	ExpectedDailyReturn float64 `json:"expected_daily_return"`
}

// Schedule runs the cycle immediately and then every interval until ctx is
// cancelled. A cycle still in flight when the next tick fires is not
// overlapped.
func (c *AlertCycle) Schedule(ctx context.Context, interval time.Duration) error {
	cronLog := logging.Cron(c.log)
	scheduler := cron.New(cron.WithLogger(cronLog))
	job := cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(func() {
		c.RunOnce(ctx)
	}))
	scheduler.Schedule(cron.Every(interval), job)
	go job.Run()
	scheduler.Start()
	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	return nil
}
