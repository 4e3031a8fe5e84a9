package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lp-funding-alert/internal/estimate"
	"lp-funding-alert/internal/gate/rest"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrContractNotFound = errors.New("futures contract not found")

// Gateway wraps the exchange's public REST surface. It holds no market state
// between calls.
type Gateway struct {
	rest          *rest.Client
	launchpoolURL string
	pageSize      int
	loc           *time.Location
	log           *zap.Logger
	now           func() time.Time
}

func NewGateway(restClient *rest.Client, launchpoolURL string, pageSize int, loc *time.Location, log *zap.Logger) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		rest:          restClient,
		launchpoolURL: launchpoolURL,
		pageSize:      pageSize,
		loc:           loc,
		log:           log,
		now:           time.Now,
	}
}

// ListTradableFutures returns the names of perpetual contracts that are not
// being delisted.
func (g *Gateway) ListTradableFutures(ctx context.Context) ([]string, error) {
	var payload []contractPayload
	if err := g.rest.Get(ctx, "/futures/usdt/contracts", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(payload))
	for _, item := range payload {
		if item.InDelisting || item.Name == "" {
			continue
		}
		out = append(out, item.Name)
	}
	return out, nil
}

func (g *Gateway) FuturesContract(ctx context.Context, symbol string) (FuturesContract, error) {
	var payload contractPayload
	if err := g.rest.Get(ctx, "/futures/usdt/contracts/"+url.PathEscape(symbol), nil, &payload); err != nil {
		return FuturesContract{}, err
	}
	if payload.Name == "" {
		return FuturesContract{}, fmt.Errorf("%w: %s", ErrContractNotFound, symbol)
	}
	return payload.toContract(), nil
}

// LatestFundingRate returns the most recently settled funding sample.
// ok=false means the history endpoint had no samples.
func (g *Gateway) LatestFundingRate(ctx context.Context, symbol string) (float64, bool, error) {
	query := url.Values{}
	query.Set("contract", symbol)
	query.Set("limit", "1")
	var payload []fundingSamplePayload
	if err := g.rest.Get(ctx, "/futures/usdt/funding_rate", query, &payload); err != nil {
		return 0, false, err
	}
	for _, sample := range payload {
		if rate, ok := sample.Rate.Float(); ok {
			return rate, true, nil
		}
	}
	return 0, false, nil
}

func (g *Gateway) ListLaunchpoolProjects(ctx context.Context) ([]LaunchpoolProject, error) {
	query := url.Values{}
	query.Set("page", "1")
	query.Set("pageSize", strconv.Itoa(g.pageSize))
	query.Set("status", "0")
	var payload launchpoolPayload
	if err := g.rest.GetURL(ctx, g.launchpoolURL, query, &payload); err != nil {
		return nil, err
	}
	out := make([]LaunchpoolProject, 0, len(payload.Data.List))
	for _, item := range payload.Data.List {
		out = append(out, item.toProject())
	}
	return out, nil
}

// ActiveOpportunities keeps live projects whose reward pool pays out in the
// project's own coin. Order follows the listing; a repeated coin keeps its
// first position and its last APR.
func (g *Gateway) ActiveOpportunities(ctx context.Context) ([]Opportunity, error) {
	projects, err := g.ListLaunchpoolProjects(ctx)
	if err != nil {
		return nil, err
	}
	return ActiveOpportunities(projects), nil
}

func ActiveOpportunities(projects []LaunchpoolProject) []Opportunity {
	index := make(map[string]int)
	var out []Opportunity
	for _, project := range projects {
		if project.State != projectStateActive || project.Coin == "" {
			continue
		}
		for _, pool := range project.RewardPools {
			if pool.Coin != project.Coin {
				continue
			}
			apr := pool.AnnualRate
			if apr < 0 {
				apr = 0
			}
			if i, ok := index[project.Coin]; ok {
				out[i].APR = apr
			} else {
				index[project.Coin] = len(out)
				out = append(out, Opportunity{Coin: project.Coin, APR: apr})
			}
			break
		}
	}
	return out
}

// Snapshot fetches a fresh market view for symbol. The settled funding sample
// is only requested when the countdown falls outside the live window.
func (g *Gateway) Snapshot(ctx context.Context, symbol string, window time.Duration) (estimate.MarketSnapshot, error) {
	contract, err := g.FuturesContract(ctx, symbol)
	if err != nil {
		return estimate.MarketSnapshot{}, err
	}
	now := g.now().In(g.loc)
	snap := estimate.MarketSnapshot{
		Symbol:               symbol,
		FuturesPrice:         contract.LastPrice,
		FundingIntervalHours: contract.FundingIntervalHours(),
		LiveFundingRate:      contract.FundingRate,
		ObservedAt:           now,
	}
	if !contract.FundingNextApply.IsZero() {
		snap.SecondsUntilNextFunding = contract.FundingNextApply.Unix() - now.Unix()
	}

	spot, err := g.SpotPrice(ctx, symbol)
	if err != nil {
		g.log.Warn("spot price unavailable", zap.String("symbol", symbol), zap.Error(err))
	} else {
		snap.SpotPrice = spot
	}

	if estimate.SelectFundingSource(snap.SecondsUntilNextFunding, window) == estimate.SourceSettled {
		rate, ok, err := g.LatestFundingRate(ctx, symbol)
		if err != nil {
			return estimate.MarketSnapshot{}, fmt.Errorf("funding history %s: %w", symbol, err)
		}
		snap.SettledFundingRate = rate
		snap.HasSettledRate = ok
	}
	return snap, nil
}

// SpotPrice returns the last spot trade; Valid=false when the pair has no
// ticker or the price does not parse.
func (g *Gateway) SpotPrice(ctx context.Context, symbol string) (decimal.NullDecimal, error) {
	query := url.Values{}
	query.Set("currency_pair", symbol)
	var payload []spotTickerPayload
	if err := g.rest.Get(ctx, "/spot/tickers", query, &payload); err != nil {
		return decimal.NullDecimal{}, err
	}
	for _, ticker := range payload {
		if ticker.CurrencyPair != "" && !strings.EqualFold(ticker.CurrencyPair, symbol) {
			continue
		}
		return ticker.Last.Decimal(), nil
	}
	return decimal.NullDecimal{}, nil
}
