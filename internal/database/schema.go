package database

import (
	"context"
	"fmt"
)

var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS dapps (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		contract_addresses TEXT NOT NULL,
		website_url VARCHAR(512) NOT NULL,
		api_endpoint VARCHAR(512) NOT NULL,
		tvl DOUBLE PRECISION NULL,
		volume_24h DOUBLE PRECISION NULL,
		is_active BOOLEAN NOT NULL,
		last_indexed BIGINT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dapp_interfaces (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		dapp_id VARCHAR(191) NOT NULL,
		action_type VARCHAR(64) NOT NULL,
		input_schema TEXT NOT NULL,
		output_schema TEXT NOT NULL,
		contract_interface TEXT NOT NULL,
		example_usage TEXT NOT NULL,
		UNIQUE (dapp_id, action_type)
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		id VARCHAR(191) NOT NULL PRIMARY KEY,
		dapp_id VARCHAR(191) NOT NULL,
		pool_address VARCHAR(191) NOT NULL,
		token0 VARCHAR(64) NOT NULL,
		token1 VARCHAR(64) NOT NULL,
		reserve0 VARCHAR(80) NOT NULL,
		reserve1 VARCHAR(80) NOT NULL,
		fee DOUBLE PRECISION NOT NULL,
		liquidity VARCHAR(80) NOT NULL,
		last_updated BIGINT NOT NULL,
		UNIQUE (pool_address)
	)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS; its unique keys already index
// the lookup columns.
var indexSchema = []string{
	`CREATE INDEX IF NOT EXISTS idx_interfaces_action ON dapp_interfaces (action_type)`,
	`CREATE INDEX IF NOT EXISTS idx_pools_dapp ON pools (dapp_id)`,
}

// Migrate creates the registry tables if they do not exist.
func (s *RegistryStore) Migrate(ctx context.Context) error {
	stmts := baseSchema
	if s.dialect.name != DriverMySQL {
		stmts = append(append([]string{}, baseSchema...), indexSchema...)
	}
	if s.dialect.name == DriverSQLite {
		stmts = append([]string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"}, stmts...)
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init registry schema: %w", err)
		}
	}
	return nil
}
