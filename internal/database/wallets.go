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
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// maxPageSize stands in for "no limit" in LIMIT clauses.
const maxPageSize = 1<<31 - 1

type txKey struct{}

// WithTx attaches an open database transaction so collaborators sharing the
// database (the subledger) join the caller's unit of work.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func (s *Service) CreateWallet(ctx context.Context, w *models.Wallet, initial *models.Event) error {
	owners, err := encodeStrings(w.Owners)
	if err != nil {
		return fmt.Errorf("failed to encode owners: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(queryInsertWallet),
		w.Id, w.Name, owners, w.Threshold, w.TimeLockSeconds, w.IsPaused, int64(w.Nonce), 1,
		w.CreatedAt.Unix(), w.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: wallet %s", store.ErrDuplicate, w.Id)
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	if initial != nil {
		if err := appendEvent(ctx, tx, initial); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.Version = 1

	zap.L().Debug("Wallet stored", zap.String("wallet_id", w.Id))
	return nil
}

func getWallet(ctx context.Context, q sqlx.ExtContext, id string, forUpdate bool) (*models.Wallet, error) {
	query := queryGetWallet
	if forUpdate {
		query += " FOR UPDATE"
	}
	var row walletRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return row.toModel()
}

func (s *Service) GetWallet(ctx context.Context, walletId string) (*models.Wallet, error) {
	return getWallet(ctx, s.db, walletId, false)
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var rows []walletRow
	if err := s.db.SelectContext(ctx, &rows, queryListWallets); err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	wallets := make([]models.Wallet, 0, len(rows))
	for i := range rows {
		w, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *w)
	}
	return wallets, nil
}

// Update holds the wallet row for the whole unit of work: SQLite takes the
// write lock at BEGIN (_txlock=immediate), PostgreSQL locks the row with
// SELECT ... FOR UPDATE.
func (s *Service) Update(ctx context.Context, walletId string, fn store.UpdateFunc) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	w, err := getWallet(ctx, tx, walletId, s.driver == DriverPostgres)
	if err != nil {
		return err
	}

	wtx := &walletTx{q: tx, wallet: w}
	if err := fn(WithTx(ctx, tx), wtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// View runs fn against committed state without taking the write lock. Writes
// made through the WalletTx are not permitted.
func (s *Service) View(ctx context.Context, walletId string, fn store.UpdateFunc) error {
	w, err := getWallet(ctx, s.db, walletId, false)
	if err != nil {
		return err
	}
	return fn(ctx, &walletTx{q: s.db, wallet: w, readOnly: true})
}

func (s *Service) ListTransactions(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var rows []transactionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(queryListTransactions), walletId, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (s *Service) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]models.Event, error) {
	return s.listEvents(ctx, queryListEvents, afterSeq, limit)
}

func (s *Service) ListWalletEvents(ctx context.Context, walletId string, afterSeq int64, limit int) ([]models.Event, error) {
	return s.listEvents(ctx, queryListWalletEvents, afterSeq, limit, walletId)
}

func (s *Service) listEvents(ctx context.Context, query string, afterSeq int64, limit int, scope ...any) ([]models.Event, error) {
	if limit <= 0 {
		limit = maxPageSize
	}
	args := append(scope, afterSeq, limit)
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]models.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toModel())
	}
	return events, nil
}

func appendEvent(ctx context.Context, q sqlx.ExtContext, e *models.Event) error {
	var seq int64
	err := sqlx.GetContext(ctx, q, &seq, q.Rebind(queryInsertEvent),
		e.Id, e.WalletId, e.TransactionId, e.Type, e.Actor, string(e.Payload), e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	e.Seq = seq
	return nil
}

// walletTx is the WalletTx of the SQL store. q is the open transaction, or
// the pool for read-only views.
type walletTx struct {
	q        sqlx.ExtContext
	wallet   *models.Wallet
	readOnly bool
}

var errReadOnly = errors.New("write attempted in a read-only view")

func (t *walletTx) Wallet() *models.Wallet {
	return t.wallet
}

func (t *walletTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	if t.readOnly {
		return errReadOnly
	}
	owners, err := encodeStrings(w.Owners)
	if err != nil {
		return fmt.Errorf("failed to encode owners: %w", err)
	}
	result, err := t.q.ExecContext(ctx, t.q.Rebind(queryUpdateWallet),
		w.Name, owners, w.Threshold, w.TimeLockSeconds, w.IsPaused, int64(w.Nonce), w.UpdatedAt.Unix(),
		w.Id, w.Version)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	if err := expectOneRow(result, "wallet "+w.Id); err != nil {
		return err
	}
	w.Version++
	return nil
}

func (t *walletTx) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	var row transactionRow
	err := sqlx.GetContext(ctx, t.q, &row, t.q.Rebind(queryGetTransaction), t.wallet.Id, transactionId)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return row.toModel()
}

func (t *walletTx) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if t.readOnly {
		return errReadOnly
	}
	confirmations, err := encodeStrings(tx.Confirmations)
	if err != nil {
		return fmt.Errorf("failed to encode confirmations: %w", err)
	}
	_, err = t.q.ExecContext(ctx, t.q.Rebind(queryInsertTransaction),
		tx.Id, tx.WalletId, int64(tx.Seq), tx.Destination, formatUint(tx.Amount), tx.AssetClass,
		hex.EncodeToString(tx.Payload), tx.Proposer, confirmations, tx.IsExecuted, tx.RequiresAllConfirmations,
		tx.Executor, tx.TransferRef, executedAtValue(tx.ExecutedAt), 1, tx.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, tx.Id)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	tx.Version = 1
	return nil
}

func (t *walletTx) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	if t.readOnly {
		return errReadOnly
	}
	confirmations, err := encodeStrings(tx.Confirmations)
	if err != nil {
		return fmt.Errorf("failed to encode confirmations: %w", err)
	}
	result, err := t.q.ExecContext(ctx, t.q.Rebind(queryUpdateTransaction),
		confirmations, tx.IsExecuted, tx.Executor, tx.TransferRef, executedAtValue(tx.ExecutedAt),
		tx.WalletId, tx.Id, tx.Version)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := expectOneRow(result, "transaction "+tx.Id); err != nil {
		return err
	}
	tx.Version++
	return nil
}

func (t *walletTx) GetSpendingLimit(ctx context.Context, assetClass string) (*models.SpendingLimit, error) {
	var row spendingLimitRow
	err := sqlx.GetContext(ctx, t.q, &row, t.q.Rebind(queryGetSpendingLimit), t.wallet.Id, assetClass)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spending limit: %w", err)
	}
	return row.toModel()
}

func (t *walletTx) SaveSpendingLimit(ctx context.Context, l *models.SpendingLimit) error {
	if t.readOnly {
		return errReadOnly
	}
	_, err := t.q.ExecContext(ctx, t.q.Rebind(queryUpsertSpendingLimit),
		l.WalletId, l.AssetClass, formatUint(l.DailyLimit), formatUint(l.MonthlyLimit),
		formatUint(l.DailySpent), formatUint(l.MonthlySpent), l.LastResetDay, l.LastResetMonth,
		l.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save spending limit: %w", err)
	}
	return nil
}

func (t *walletTx) AppendEvent(ctx context.Context, e *models.Event) error {
	if t.readOnly {
		return errReadOnly
	}
	return appendEvent(ctx, t.q, e)
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s update failed - %w", what, store.ErrConcurrentModification)
	}
	return nil
}
