/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

// migrations returns the schema for the given driver. Only the event sequence
// column differs between dialects.
func migrations(driver string) *migrate.MemoryMigrationSource {
	seqColumn := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		seqColumn = "seq BIGSERIAL PRIMARY KEY"
	}

	return &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "0001_wallets",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS wallets (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL DEFAULT '',
						owners TEXT NOT NULL,
						threshold INTEGER NOT NULL,
						time_lock_seconds BIGINT NOT NULL DEFAULT 0,
						is_paused BOOLEAN NOT NULL DEFAULT FALSE,
						nonce BIGINT NOT NULL DEFAULT 0,
						version BIGINT NOT NULL DEFAULT 1,
						created_at BIGINT NOT NULL,
						updated_at BIGINT NOT NULL
					)`,
					`CREATE TABLE IF NOT EXISTS wallet_transactions (
						id TEXT PRIMARY KEY,
						wallet_id TEXT NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
						seq BIGINT NOT NULL,
						destination TEXT NOT NULL,
						amount TEXT NOT NULL,
						asset_class TEXT NOT NULL DEFAULT '',
						payload TEXT NOT NULL DEFAULT '',
						proposer TEXT NOT NULL,
						confirmations TEXT NOT NULL,
						is_executed BOOLEAN NOT NULL DEFAULT FALSE,
						requires_all BOOLEAN NOT NULL DEFAULT FALSE,
						executor TEXT NOT NULL DEFAULT '',
						transfer_ref TEXT NOT NULL DEFAULT '',
						executed_at BIGINT,
						version BIGINT NOT NULL DEFAULT 1,
						created_at BIGINT NOT NULL,
						UNIQUE (wallet_id, seq)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet ON wallet_transactions(wallet_id, seq)`,
					`CREATE TABLE IF NOT EXISTS spending_limits (
						wallet_id TEXT NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
						asset_class TEXT NOT NULL,
						daily_limit TEXT NOT NULL,
						monthly_limit TEXT NOT NULL,
						daily_spent TEXT NOT NULL,
						monthly_spent TEXT NOT NULL,
						last_reset_day BIGINT NOT NULL,
						last_reset_month BIGINT NOT NULL,
						updated_at BIGINT NOT NULL,
						PRIMARY KEY (wallet_id, asset_class)
					)`,
					fmt.Sprintf(`CREATE TABLE IF NOT EXISTS wallet_events (
						%s,
						id TEXT NOT NULL UNIQUE,
						wallet_id TEXT NOT NULL,
						transaction_id TEXT NOT NULL DEFAULT '',
						type TEXT NOT NULL,
						actor TEXT NOT NULL DEFAULT '',
						payload TEXT NOT NULL DEFAULT '',
						created_at BIGINT NOT NULL
					)`, seqColumn),
					`CREATE INDEX IF NOT EXISTS idx_wallet_events_wallet ON wallet_events(wallet_id, seq)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS wallet_events`,
					`DROP TABLE IF EXISTS spending_limits`,
					`DROP TABLE IF EXISTS wallet_transactions`,
					`DROP TABLE IF EXISTS wallets`,
				},
			},
			{
				Id: "0002_subledger",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS account_balances (
						id TEXT PRIMARY KEY,
						account TEXT NOT NULL,
						asset TEXT NOT NULL,
						balance TEXT NOT NULL DEFAULT '0',
						last_transfer_id TEXT NOT NULL DEFAULT '',
						version BIGINT NOT NULL DEFAULT 1,
						updated_at BIGINT NOT NULL,
						UNIQUE (account, asset)
					)`,
					`CREATE TABLE IF NOT EXISTS ledger_transfers (
						id TEXT PRIMARY KEY,
						reference TEXT NOT NULL UNIQUE,
						transfer_type TEXT NOT NULL,
						source TEXT NOT NULL,
						destination TEXT NOT NULL,
						asset TEXT NOT NULL,
						amount TEXT NOT NULL,
						source_balance_after TEXT NOT NULL,
						created_at BIGINT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_ledger_transfers_source ON ledger_transfers(source)`,
					`CREATE INDEX IF NOT EXISTS idx_ledger_transfers_destination ON ledger_transfers(destination)`,
					`CREATE TABLE IF NOT EXISTS journal_entries (
						id TEXT PRIMARY KEY,
						transfer_id TEXT NOT NULL,
						account TEXT NOT NULL,
						asset TEXT NOT NULL,
						debit_amount TEXT NOT NULL DEFAULT '0',
						credit_amount TEXT NOT NULL DEFAULT '0',
						created_at BIGINT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_journal_transfer ON journal_entries(transfer_id)`,
					`CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account, asset)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS journal_entries`,
					`DROP TABLE IF EXISTS ledger_transfers`,
					`DROP TABLE IF EXISTS account_balances`,
				},
			},
		},
	}
}

func runMigrations(db *sqlx.DB, driver string) error {
	n, err := migrate.Exec(db.DB, driver, migrations(driver), migrate.Up)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	zap.L().Info("Database migrations applied", zap.Int("count", n))
	return nil
}
