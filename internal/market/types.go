package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// projectStateActive is the launchpool project_state value for a live pool.
const projectStateActive = 1

type FuturesContract struct {
	Name             string
	LastPrice        decimal.NullDecimal
	FundingRate      float64
	FundingInterval  time.Duration
	FundingNextApply time.Time
	InDelisting      bool
}

type RewardPool struct {
	Coin       string
	AnnualRate float64
}

type LaunchpoolProject struct {
	Coin        string
	State       int
	RewardPools []RewardPool
}

// Opportunity is a launchpool coin with its advertised APR in percent.
type Opportunity struct {
	Coin string
	APR  float64
}

type contractPayload struct {
	Name             string     `json:"name"`
	LastPrice        flexString `json:"last_price"`
	FundingRate      flexString `json:"funding_rate"`
	FundingInterval  flexString `json:"funding_interval"`
	FundingNextApply flexString `json:"funding_next_apply"`
	InDelisting      bool       `json:"in_delisting"`
}

type spotTickerPayload struct {
	CurrencyPair string     `json:"currency_pair"`
	Last         flexString `json:"last"`
}

type fundingSamplePayload struct {
	Time flexString `json:"t"`
	Rate flexString `json:"r"`
}

type launchpoolPayload struct {
	Data struct {
		List []launchpoolProjectPayload `json:"list"`
	} `json:"data"`
}

type launchpoolProjectPayload struct {
	Coin         string              `json:"coin"`
	ProjectState flexString          `json:"project_state"`
	RewardPools  []rewardPoolPayload `json:"reward_pools"`
}

type rewardPoolPayload struct {
	Coin     string     `json:"coin"`
	RateYear flexString `json:"rate_year"`
}

func (p contractPayload) toContract() FuturesContract {
	c := FuturesContract{
		Name:        p.Name,
		LastPrice:   p.LastPrice.Decimal(),
		InDelisting: p.InDelisting,
	}
	if rate, ok := p.FundingRate.Float(); ok {
		c.FundingRate = rate
	}
	if secs, ok := p.FundingInterval.Int(); ok && secs > 0 {
		c.FundingInterval = time.Duration(secs) * time.Second
	}
	if ts, ok := p.FundingNextApply.Int(); ok && ts > 0 {
		c.FundingNextApply = time.Unix(ts, 0).UTC()
	}
	return c
}

// FundingIntervalHours mirrors the exchange's display precision of two
// decimal places.
func (c FuturesContract) FundingIntervalHours() float64 {
	return roundTo(c.FundingInterval.Hours(), 2)
}

func (p launchpoolProjectPayload) toProject() LaunchpoolProject {
	project := LaunchpoolProject{Coin: p.Coin}
	if state, ok := p.ProjectState.Int(); ok {
		project.State = int(state)
	}
	for _, pool := range p.RewardPools {
		rate, _ := pool.RateYear.Float()
		project.RewardPools = append(project.RewardPools, RewardPool{Coin: pool.Coin, AnnualRate: rate})
	}
	return project
}
