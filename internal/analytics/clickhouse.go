// Package analytics writes append-only execution and indexing rows to
// ClickHouse.
package analytics

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// Config holds ClickHouse connection settings
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore implements storage.AnalyticsSink.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

var _ storage.AnalyticsSink = (*ClickHouseStore)(nil)

const executionsDDL = `CREATE TABLE IF NOT EXISTS action_executions (
	execution_id String,
	chain_id     String,
	action_order UInt16,
	dapp_id      String,
	action_type  LowCardinality(String),
	status       LowCardinality(String),
	error        String,
	duration_ms  Int64,
	executed_at  DateTime64(3, 'UTC')
) ENGINE = MergeTree ORDER BY (executed_at, dapp_id)`

const snapshotsDDL = `CREATE TABLE IF NOT EXISTS dapp_index_snapshots (
	dapp_id    String,
	category   LowCardinality(String),
	tvl        Float64,
	volume_24h Float64,
	pools      UInt32,
	healthy    Bool,
	indexed_at DateTime64(3, 'UTC')
) ENGINE = MergeTree ORDER BY (dapp_id, indexed_at)`

// NewClickHouseStore connects and creates the analytics tables.
func NewClickHouseStore(ctx context.Context, cfg Config) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	for _, ddl := range []string{executionsDDL, snapshotsDDL} {
		if err := conn.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("create analytics table: %w", err)
		}
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

func (c *ClickHouseStore) InsertExecution(ctx context.Context, rec storage.ExecutionRecord) error {
	err := c.conn.Exec(ctx, `
		INSERT INTO action_executions (
			execution_id, chain_id, action_order, dapp_id, action_type,
			status, error, duration_ms, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ExecutionID,
		rec.ChainID,
		uint16(rec.Order),
		rec.DAppID,
		rec.ActionType,
		rec.Status,
		rec.Error,
		rec.DurationMs,
		rec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertIndexSnapshot(ctx context.Context, snap storage.IndexSnapshot) error {
	err := c.conn.Exec(ctx, `
		INSERT INTO dapp_index_snapshots (
			dapp_id, category, tvl, volume_24h, pools, healthy, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.DAppID,
		snap.Category,
		snap.TVL,
		snap.Volume24h,
		uint32(snap.Pools),
		snap.Healthy,
		snap.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert index snapshot: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Discard is an AnalyticsSink that drops every row.
type Discard struct{}

func (Discard) InsertExecution(context.Context, storage.ExecutionRecord) error   { return nil }
func (Discard) InsertIndexSnapshot(context.Context, storage.IndexSnapshot) error { return nil }
func (Discard) Close() error                                                     { return nil }
