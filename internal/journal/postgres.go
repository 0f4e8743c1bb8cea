package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	id          BIGSERIAL PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	class       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	stop_loss   DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	session     TEXT NOT NULL,
	is_fallback BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id          TEXT PRIMARY KEY,
	class       TEXT NOT NULL,
	opened_at   TIMESTAMPTZ NOT NULL,
	closed_at   TIMESTAMPTZ NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	exit_price  DOUBLE PRECISION NOT NULL,
	profit_loss DOUBLE PRECISION NOT NULL,
	result      TEXT NOT NULL
);`

// Postgres journals into two tables, creating them on first connect.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects, verifies the connection, and bootstraps the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// RecordSignal inserts the signal row.
func (p *Postgres) RecordSignal(sig signal.Signal) error {
	_, err := p.db.Exec(
		`INSERT INTO signals (ts, class, confidence, entry_price, stop_loss, take_profit, session, is_fallback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sig.Ts, string(sig.Class), sig.Confidence, sig.EntryPrice,
		sig.StopLoss, sig.TakeProfit, sig.Session, sig.Fallback,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// RecordTrade upserts the closed trade row.
func (p *Postgres) RecordTrade(trade tracker.Trade) error {
	_, err := p.db.Exec(
		`INSERT INTO trades (id, class, opened_at, closed_at, entry_price, exit_price, profit_loss, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
			closed_at = EXCLUDED.closed_at,
			exit_price = EXCLUDED.exit_price,
			profit_loss = EXCLUDED.profit_loss,
			result = EXCLUDED.result`,
		trade.ID, string(trade.Signal.Class), trade.OpenedAt, trade.ClosedAt,
		trade.Signal.EntryPrice, trade.ExitPrice, trade.ProfitLoss, string(trade.Result),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
