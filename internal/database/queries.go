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

// Queries use '?' placeholders and are rebound for the active driver.
const (
	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (id, name, owners, threshold, time_lock_seconds, is_paused, nonce, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetWallet = `
		SELECT id, name, owners, threshold, time_lock_seconds, is_paused, nonce, version, created_at, updated_at
		FROM wallets
		WHERE id = ?`

	queryListWallets = `
		SELECT id, name, owners, threshold, time_lock_seconds, is_paused, nonce, version, created_at, updated_at
		FROM wallets
		ORDER BY created_at, id`

	queryUpdateWallet = `
		UPDATE wallets
		SET name = ?, owners = ?, threshold = ?, time_lock_seconds = ?, is_paused = ?, nonce = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO wallet_transactions (
			id, wallet_id, seq, destination, amount, asset_class, payload, proposer, confirmations,
			is_executed, requires_all, executor, transfer_ref, executed_at, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransaction = `
		SELECT id, wallet_id, seq, destination, amount, asset_class, payload, proposer, confirmations,
		       is_executed, requires_all, executor, transfer_ref, executed_at, version, created_at
		FROM wallet_transactions
		WHERE wallet_id = ? AND id = ?`

	queryUpdateTransaction = `
		UPDATE wallet_transactions
		SET confirmations = ?, is_executed = ?, executor = ?, transfer_ref = ?, executed_at = ?, version = version + 1
		WHERE wallet_id = ? AND id = ? AND version = ?`

	queryListTransactions = `
		SELECT id, wallet_id, seq, destination, amount, asset_class, payload, proposer, confirmations,
		       is_executed, requires_all, executor, transfer_ref, executed_at, version, created_at
		FROM wallet_transactions
		WHERE wallet_id = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`

	// Spending limit queries
	queryGetSpendingLimit = `
		SELECT wallet_id, asset_class, daily_limit, monthly_limit, daily_spent, monthly_spent,
		       last_reset_day, last_reset_month, updated_at
		FROM spending_limits
		WHERE wallet_id = ? AND asset_class = ?`

	queryUpsertSpendingLimit = `
		INSERT INTO spending_limits (
			wallet_id, asset_class, daily_limit, monthly_limit, daily_spent, monthly_spent,
			last_reset_day, last_reset_month, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (wallet_id, asset_class) DO UPDATE SET
			daily_limit = excluded.daily_limit,
			monthly_limit = excluded.monthly_limit,
			daily_spent = excluded.daily_spent,
			monthly_spent = excluded.monthly_spent,
			last_reset_day = excluded.last_reset_day,
			last_reset_month = excluded.last_reset_month,
			updated_at = excluded.updated_at`

	// Event queries
	queryInsertEvent = `
		INSERT INTO wallet_events (id, wallet_id, transaction_id, type, actor, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`

	queryListEvents = `
		SELECT seq, id, wallet_id, transaction_id, type, actor, payload, created_at
		FROM wallet_events
		WHERE seq > ?
		ORDER BY seq
		LIMIT ?`

	queryListWalletEvents = `
		SELECT seq, id, wallet_id, transaction_id, type, actor, payload, created_at
		FROM wallet_events
		WHERE wallet_id = ? AND seq > ?
		ORDER BY seq
		LIMIT ?`

	// Subledger queries
	queryGetTransferByReference = `
		SELECT id, transfer_type, source, destination, asset, amount
		FROM ledger_transfers
		WHERE reference = ?`

	queryGetAccountBalance = `
		SELECT id, balance, version
		FROM account_balances
		WHERE account = ? AND asset = ?`

	queryInsertAccountBalance = `
		INSERT INTO account_balances (id, account, asset, balance, last_transfer_id, version, updated_at)
		VALUES (?, ?, ?, ?, '', 1, ?)`

	queryUpdateAccountBalance = `
		UPDATE account_balances
		SET balance = ?, last_transfer_id = ?, version = version + 1, updated_at = ?
		WHERE account = ? AND asset = ? AND version = ?`

	queryInsertLedgerTransfer = `
		INSERT INTO ledger_transfers (id, reference, transfer_type, source, destination, asset, amount, source_balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transfer_id, account, asset, debit_amount, credit_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE account = ? AND asset = ?`

	queryGetAccountBalances = `
		SELECT id, account, asset, balance, last_transfer_id, version, updated_at
		FROM account_balances
		WHERE account = ?
		ORDER BY asset`

	queryGetTransferHistory = `
		SELECT id, reference, transfer_type, source, destination, asset, amount, source_balance_after, created_at
		FROM ledger_transfers
		WHERE source = ? OR destination = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	queryJournalTotals = `
		SELECT debit_amount, credit_amount
		FROM journal_entries
		WHERE account = ? AND asset = ?`
)
