package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lp-funding-alert/internal/config"
	"lp-funding-alert/internal/estimate"
	"lp-funding-alert/internal/gate/rest"
	"lp-funding-alert/internal/logging"
	"lp-funding-alert/internal/market"
	"lp-funding-alert/internal/watchlist"

	"go.uber.org/zap"
)

const (
	defaultRESTTimeout   = 10 * time.Second
	defaultRESTBaseURL   = "https://api.gateio.ws/api/v4"
	defaultLaunchpoolURL = "https://www.gate.io/apiw/v2/earn/launch-pool/project-list"
	defaultQuoteSuffix   = "_USDT"
	defaultVerifyEnvFile = ".env"
)

// verify evaluates the current launchpool opportunities once and prints the
// estimates as JSON lines without sending anything to the chat.
func main() {
	configPath := flag.String("config", "", "optional config path for REST and alert settings")
	coin := flag.String("coin", "", "evaluate a single coin instead of every active launchpool")
	apr := flag.Float64("apr", 0, "APR override used with -coin")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}

	logCfg := config.LoggingConfig{Level: "warn"}
	baseURL := defaultRESTBaseURL
	launchpoolURL := defaultLaunchpoolURL
	timeout := defaultRESTTimeout
	suffix := defaultQuoteSuffix
	window := 30 * time.Minute
	pageSize := 50
	loc := time.FixedZone("UTC+09:00", 9*3600)
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		logCfg = cfg.Log
		baseURL = cfg.REST.BaseURL
		launchpoolURL = cfg.REST.LaunchpoolURL
		timeout = cfg.REST.Timeout
		suffix = cfg.Alert.QuoteSuffix
		window = cfg.Alert.FundingWindow
		pageSize = cfg.Alert.PageSize
		if loc, err = cfg.Alert.Location(); err != nil {
			fatal(err)
		}
	}

	log := logging.New(logCfg)
	defer func() { _ = log.Sync() }()

	gateway := market.NewGateway(rest.New(baseURL, timeout, log), launchpoolURL, pageSize, loc, log)
	estimator := estimate.New(window)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var opportunities []market.Opportunity
	if c := watchlist.NormalizeCoin(*coin); c != "" {
		opportunities = []market.Opportunity{{Coin: c, APR: *apr}}
	} else {
		var err error
		opportunities, err = gateway.ActiveOpportunities(ctx)
		if err != nil {
			fatal(err)
		}
	}
	if len(opportunities) == 0 {
		fatal(errors.New("no active launchpool opportunities"))
	}

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for _, opp := range opportunities {
		symbol := opp.Coin + suffix
		snap, err := gateway.Snapshot(ctx, symbol, estimator.Window())
		if err != nil {
			failed++
			log.Warn("snapshot failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		res, err := estimator.Estimate(snap, opp.APR)
		if err != nil {
			failed++
			log.Warn("estimate failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if err := enc.Encode(res); err != nil {
			fatal(err)
		}
	}
	if failed == len(opportunities) {
		fatal(fmt.Errorf("all %d symbols failed", failed))
	}
}

func fatal(err error) {
	msg := strings.TrimSpace(err.Error())
	fmt.Fprintf(os.Stderr, "verify failed: %s\n", msg)
	os.Exit(1)
}
