package estimate

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInterval  = errors.New("funding interval must be > 0")
	ErrMissingPrice     = errors.New("spot or futures price missing")
	ErrNoFundingHistory = errors.New("no settled funding rate available")
)

type FundingSource string

const (
	// SourceLive is the rate still accruing toward the next settlement.
	SourceLive FundingSource = "live"
	// SourceSettled is the most recently settled sample from history.
	SourceSettled FundingSource = "settled"
)

// MarketSnapshot is fetched fresh for each evaluation. SettledFundingRate is
// only populated when the funding countdown falls outside the live window.
type MarketSnapshot struct {
	Symbol                  string
	SpotPrice               decimal.NullDecimal
	FuturesPrice            decimal.NullDecimal
	FundingIntervalHours    float64
	LiveFundingRate         float64
	SettledFundingRate      float64
	HasSettledRate          bool
	SecondsUntilNextFunding int64
	ObservedAt              time.Time
}

// Result carries every intermediate value so message rendering never has to
// recompute anything.
type Result struct {
	Symbol                     string
	SpotPrice                  decimal.Decimal
	FuturesPrice               decimal.Decimal
	SpotFuturesGap             decimal.Decimal
	FundingIntervalHours       float64
	FundingSource              FundingSource
	FundingRateRaw             float64
	FundingRatePercent         float64
	FundingTimesPerDay         int
	SecondsUntilNextFunding    int64
	APR                        float64
	DailyAPRPercent            float64
	DailyFundingFeePercent     float64
	ExpectedDailyReturnPercent float64
}
