package estimate

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultFundingWindow = 30 * time.Minute
	daysPerYear          = 365
	gapDecimals          = 6
)

type Estimator struct {
	window time.Duration
}

func New(window time.Duration) *Estimator {
	if window <= 0 {
		window = DefaultFundingWindow
	}
	return &Estimator{window: window}
}

// Window is the distance from settlement inside which the live rate is used.
func (e *Estimator) Window() time.Duration {
	return e.window
}

// SelectFundingSource picks the live rate only when settlement is strictly in
// the future and at most window away. Stale or distant countdowns fall back to
// the last settled sample.
func SelectFundingSource(secondsLeft int64, window time.Duration) FundingSource {
	if secondsLeft > 0 && secondsLeft <= int64(window/time.Second) {
		return SourceLive
	}
	return SourceSettled
}

// FundingTimesPerDay is floor(24 / intervalHours).
func FundingTimesPerDay(intervalHours float64) (int, error) {
	if !(intervalHours > 0) || math.IsInf(intervalHours, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInterval, intervalHours)
	}
	return int(math.Floor(24 / intervalHours)), nil
}

func (e *Estimator) Source(snap MarketSnapshot) FundingSource {
	return SelectFundingSource(snap.SecondsUntilNextFunding, e.window)
}

func (e *Estimator) Estimate(snap MarketSnapshot, apr float64) (Result, error) {
	timesPerDay, err := FundingTimesPerDay(snap.FundingIntervalHours)
	if err != nil {
		return Result{}, err
	}
	if !snap.SpotPrice.Valid || !snap.FuturesPrice.Valid {
		return Result{}, ErrMissingPrice
	}
	source := e.Source(snap)
	rate := snap.LiveFundingRate
	if source == SourceSettled {
		if !snap.HasSettledRate {
			return Result{}, ErrNoFundingHistory
		}
		rate = snap.SettledFundingRate
	}

	ratePercent := round(rate*100, 4)
	dailyFundingFee := -ratePercent * float64(timesPerDay)
	dailyAPR := apr / daysPerYear
	gap := snap.SpotPrice.Decimal.Sub(snap.FuturesPrice.Decimal).Round(gapDecimals)

	return Result{
		Symbol:                     snap.Symbol,
		SpotPrice:                  snap.SpotPrice.Decimal,
		FuturesPrice:               snap.FuturesPrice.Decimal,
		SpotFuturesGap:             gap,
		FundingIntervalHours:       snap.FundingIntervalHours,
		FundingSource:              source,
		FundingRateRaw:             rate,
		FundingRatePercent:         ratePercent,
		FundingTimesPerDay:         timesPerDay,
		SecondsUntilNextFunding:    snap.SecondsUntilNextFunding,
		APR:                        apr,
		DailyAPRPercent:            round(dailyAPR, 4),
		DailyFundingFeePercent:     round(dailyFundingFee, 4),
		ExpectedDailyReturnPercent: round(dailyAPR-dailyFundingFee, 4),
	}, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
