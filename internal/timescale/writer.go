package timescale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"lp-funding-alert/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// EstimatePoint is one evaluated symbol as it was sent to the operator.
type EstimatePoint struct {
	Time                 time.Time
	Symbol               string
	APR                  float64
	FundingSource        string
	FundingRate          float64
	FundingIntervalHours float64
	SecondsToFunding     int64
	SpotPrice            float64
	FuturesPrice         float64
	SpotFuturesGap       float64
	DailyAPR             float64
	DailyFundingFee      float64
	ExpectedDailyReturn  float64
}

type Writer struct {
	db      *sql.DB
	log     *zap.Logger
	schema  string
	points  chan EstimatePoint
	started atomic.Bool
	dropped atomic.Uint64
}

// New returns a nil writer when timescale is disabled. All methods are safe
// on a nil receiver.
func New(cfg config.TimescaleConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("timescale dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:     db,
		log:    log,
		schema: schema,
		points: make(chan EstimatePoint, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// Enqueue never blocks; points are dropped when the queue is full.
func (w *Writer) Enqueue(point EstimatePoint) {
	if w == nil {
		return
	}
	select {
	case w.points <- point:
	default:
		if w.dropped.Add(1) == 1 && w.log != nil {
			w.log.Warn("timescale estimate queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case point := <-w.points:
			w.write(ctx, point)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("timescale db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		symbol TEXT NOT NULL,
		apr DOUBLE PRECISION NOT NULL,
		funding_source TEXT NOT NULL,
		funding_rate DOUBLE PRECISION NOT NULL,
		funding_interval_hours DOUBLE PRECISION NOT NULL,
		seconds_to_funding BIGINT NOT NULL,
		spot_price DOUBLE PRECISION NOT NULL,
		futures_price DOUBLE PRECISION NOT NULL,
		spot_futures_gap DOUBLE PRECISION NOT NULL,
		daily_apr DOUBLE PRECISION NOT NULL,
		daily_funding_fee DOUBLE PRECISION NOT NULL,
		expected_daily_return DOUBLE PRECISION NOT NULL
	)`, w.table("funding_estimates"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table("funding_estimates"))); err != nil && w.log != nil {
		w.log.Warn("timescale funding_estimates hypertable create failed", zap.Error(err))
	}
	return nil
}

func (w *Writer) write(ctx context.Context, p EstimatePoint) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, symbol, apr, funding_source, funding_rate, funding_interval_hours, seconds_to_funding,
		spot_price, futures_price, spot_futures_gap, daily_apr, daily_funding_fee, expected_daily_return
	) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
	)`, w.table("funding_estimates"))
	if _, err := w.db.ExecContext(ctx, query,
		p.Time,
		p.Symbol,
		p.APR,
		p.FundingSource,
		p.FundingRate,
		p.FundingIntervalHours,
		p.SecondsToFunding,
		p.SpotPrice,
		p.FuturesPrice,
		p.SpotFuturesGap,
		p.DailyAPR,
		p.DailyFundingFee,
		p.ExpectedDailyReturn,
	); err != nil && w.log != nil {
		w.log.Warn("timescale estimate insert failed", zap.String("symbol", p.Symbol), zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
