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
	"errors"
	"fmt"
	"math/big"
	"time"

	"multisig-wallet-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for subledger operations
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransfer     = errors.New("invalid transfer")
	ErrReferenceConflict   = errors.New("reference already used by a different movement")
)

const (
	TransferTypeDeposit  = "deposit"
	TransferTypeTransfer = "transfer"

	nativeAsset  = "native"
	depositsPool = "external:deposits"
)

// WalletAccount is the subledger account that holds a wallet's funds.
func WalletAccount(walletId string) string {
	return "wallet:" + walletId
}

// ExternalAccount is the subledger account credited by an outgoing transfer.
func ExternalAccount(destination string) string {
	return "external:" + destination
}

// TransferReference is the ledger reference of a wallet transaction's
// outgoing transfer.
func TransferReference(transactionId string) string {
	return TransferTypeTransfer + ":" + transactionId
}

// DepositReference is the ledger reference of a deposit.
func DepositReference(reference string) string {
	return TransferTypeDeposit + ":" + reference
}

// AssetKey names an asset class in the subledger.
func AssetKey(assetClass string) string {
	if assetClass == "" {
		return nativeAsset
	}
	return assetClass
}

// SubledgerService keeps per-account balances with an immutable transfer
// history and double-entry journal. Amounts are in the asset's smallest unit.
type SubledgerService struct {
	db     *sqlx.DB
	driver string
}

func NewSubledgerService(db *sqlx.DB, driver string) *SubledgerService {
	return &SubledgerService{db: db, driver: driver}
}

// Transfer debits the wallet account and credits the destination. It joins a
// database transaction carried by ctx, so a failure later in the caller's
// unit of work undoes the movement. A repeated TransactionId returns the
// original receipt.
func (s *SubledgerService) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error) {
	ref, err := s.apply(ctx, movement{
		transferType: TransferTypeTransfer,
		reference:    TransferReference(req.TransactionId),
		source:       WalletAccount(req.WalletId),
		destination:  ExternalAccount(req.Destination),
		asset:        AssetKey(req.AssetClass),
		amount:       req.Amount,
		checkSource:  true,
	})
	if err != nil {
		return nil, err
	}
	return &models.TransferReceipt{Backend: "subledger", Reference: ref}, nil
}

// Deposit credits a wallet's account. reference makes the call idempotent.
func (s *SubledgerService) Deposit(ctx context.Context, walletId, assetClass string, amount uint64, reference string) (string, error) {
	if reference == "" {
		reference = uuid.New().String()
	}
	return s.apply(ctx, movement{
		transferType: TransferTypeDeposit,
		reference:    DepositReference(reference),
		source:       depositsPool,
		destination:  WalletAccount(walletId),
		asset:        AssetKey(assetClass),
		amount:       amount,
	})
}

type movement struct {
	transferType string
	reference    string
	source       string
	destination  string
	asset        string
	amount       uint64
	checkSource  bool
}

func (s *SubledgerService) apply(ctx context.Context, m movement) (string, error) {
	if m.reference == "" {
		return "", fmt.Errorf("%w: reference is required", ErrInvalidTransfer)
	}

	zap.L().Info("Processing subledger transfer",
		zap.String("type", m.transferType),
		zap.String("reference", m.reference),
		zap.String("source", m.source),
		zap.String("destination", m.destination),
		zap.String("asset", m.asset),
		zap.Uint64("amount", m.amount))

	tx := txFromContext(ctx)
	if tx == nil {
		var err error
		tx, err = s.db.BeginTxx(ctx, nil)
		if err != nil {
			return "", fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()
		ref, err := s.applyTx(ctx, tx, m)
		if err != nil {
			return "", err
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("failed to commit transaction: %w", err)
		}
		return ref, nil
	}
	return s.applyTx(ctx, tx, m)
}

func (s *SubledgerService) applyTx(ctx context.Context, tx *sqlx.Tx, m movement) (string, error) {
	amount := decimal.NewFromBigInt(new(big.Int).SetUint64(m.amount), 0)

	var existing struct {
		Id           string `db:"id"`
		TransferType string `db:"transfer_type"`
		Source       string `db:"source"`
		Destination  string `db:"destination"`
		Asset        string `db:"asset"`
		Amount       string `db:"amount"`
	}
	err := tx.GetContext(ctx, &existing, tx.Rebind(queryGetTransferByReference), m.reference)
	if err == nil {
		prior, perr := decimal.NewFromString(existing.Amount)
		if perr != nil || existing.TransferType != m.transferType || existing.Source != m.source ||
			existing.Destination != m.destination || existing.Asset != m.asset || !prior.Equal(amount) {
			zap.L().Error("Transfer reference reused for a different movement",
				zap.String("reference", m.reference),
				zap.String("transfer_id", existing.Id),
				zap.String("existing_type", existing.TransferType),
				zap.String("existing_source", existing.Source),
				zap.String("existing_destination", existing.Destination))
			return "", fmt.Errorf("%w: %s", ErrReferenceConflict, m.reference)
		}
		zap.L().Warn("Duplicate transfer reference detected, returning original",
			zap.String("reference", m.reference),
			zap.String("transfer_id", existing.Id))
		return existing.Id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to check for duplicate transfer: %w", err)
	}

	transferId := uuid.New().String()
	now := time.Now().UTC()

	sourceBalance, err := s.adjust(ctx, tx, m.source, m.asset, amount.Neg(), transferId, now, m.checkSource)
	if err != nil {
		return "", err
	}
	if _, err := s.adjust(ctx, tx, m.destination, m.asset, amount, transferId, now, false); err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(queryInsertLedgerTransfer),
		transferId, m.reference, m.transferType, m.source, m.destination, m.asset,
		amount.String(), sourceBalance.String(), now.Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert transfer: %w", err)
	}

	if err := s.addJournalEntries(ctx, tx, transferId, m, amount, now); err != nil {
		return "", fmt.Errorf("failed to add journal entries: %w", err)
	}

	zap.L().Info("Subledger transfer processed",
		zap.String("transfer_id", transferId),
		zap.String("reference", m.reference),
		zap.String("source_balance", sourceBalance.String()))
	return transferId, nil
}

// adjust applies delta to an account balance with optimistic locking,
// creating the row on first use. With checkFunds, a negative result is
// refused.
func (s *SubledgerService) adjust(ctx context.Context, tx *sqlx.Tx, account, asset string, delta decimal.Decimal, transferId string, now time.Time, checkFunds bool) (decimal.Decimal, error) {
	query := queryGetAccountBalance
	if s.driver == DriverPostgres {
		query += " FOR UPDATE"
	}

	var row struct {
		Id      string `db:"id"`
		Balance string `db:"balance"`
		Version int64  `db:"version"`
	}
	err := tx.GetContext(ctx, &row, tx.Rebind(query), account, asset)

	var current decimal.Decimal
	if errors.Is(err, sql.ErrNoRows) {
		row.Id = uuid.New().String()
		row.Version = 1
		current = decimal.Zero
		if _, err := tx.ExecContext(ctx, tx.Rebind(queryInsertAccountBalance), row.Id, account, asset, "0", now.Unix()); err != nil {
			return decimal.Zero, fmt.Errorf("failed to create account balance: %w", err)
		}
	} else if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get current balance: %w", err)
	} else {
		current, err = decimal.NewFromString(row.Balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse current balance '%s': %w", row.Balance, err)
		}
	}

	next := current.Add(delta)
	if checkFunds && next.IsNegative() {
		zap.L().Warn("Insufficient balance for transfer",
			zap.String("account", account),
			zap.String("asset", asset),
			zap.String("balance", current.String()),
			zap.String("required", delta.Neg().String()))
		return decimal.Zero, fmt.Errorf("%w: account %s has %s %s, needs %s",
			ErrInsufficientBalance, account, current.String(), asset, delta.Neg().String())
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(queryUpdateAccountBalance),
		next.String(), transferId, now.Unix(), account, asset, row.Version)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}
	if err := expectOneRow(result, "balance "+account); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// addJournalEntries records the destination debit and the source credit.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sqlx.Tx, transferId string, m movement, amount decimal.Decimal, now time.Time) error {
	entries := []struct {
		account string
		debit   decimal.Decimal
		credit  decimal.Decimal
	}{
		{m.destination, amount, decimal.Zero},
		{m.source, decimal.Zero, amount},
	}
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, tx.Rebind(queryInsertJournalEntry),
			uuid.New().String(), transferId, entry.account, m.asset, entry.debit.String(), entry.credit.String(), now.Unix())
		if err != nil {
			return err
		}
	}
	return nil
}

// GetBalance returns the account balance, zero when the account is unused.
func (s *SubledgerService) GetBalance(ctx context.Context, account, asset string) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.GetContext(ctx, &balanceStr, s.db.Rebind(queryGetBalance), account, asset)
	if errors.Is(err, sql.ErrNoRows) {
		// No balance record means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.String("account", account), zap.String("asset", asset), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
	}

	zap.L().Debug("Retrieved balance", zap.String("account", account), zap.String("asset", asset), zap.String("balance", balance.String()))
	return balance, nil
}

// GetWalletBalances returns every asset balance held by a wallet.
func (s *SubledgerService) GetWalletBalances(ctx context.Context, walletId string) ([]models.AccountBalance, error) {
	var rows []struct {
		Id             string `db:"id"`
		Account        string `db:"account"`
		Asset          string `db:"asset"`
		Balance        string `db:"balance"`
		LastTransferId string `db:"last_transfer_id"`
		Version        int64  `db:"version"`
		UpdatedAt      int64  `db:"updated_at"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(queryGetAccountBalances), WalletAccount(walletId)); err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	balances := make([]models.AccountBalance, 0, len(rows))
	for _, r := range rows {
		balance, err := decimal.NewFromString(r.Balance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance '%s': %w", r.Balance, err)
		}
		balances = append(balances, models.AccountBalance{
			Id:             r.Id,
			Account:        r.Account,
			Asset:          r.Asset,
			Balance:        balance,
			LastTransferId: r.LastTransferId,
			Version:        r.Version,
			UpdatedAt:      fromUnix(r.UpdatedAt),
		})
	}
	return balances, nil
}

// GetTransferHistory returns paginated transfers touching the account,
// newest first.
func (s *SubledgerService) GetTransferHistory(ctx context.Context, account string, limit, offset int) ([]models.LedgerTransfer, error) {
	if limit <= 0 {
		limit = maxPageSize
	}
	var rows []struct {
		Id                 string `db:"id"`
		Reference          string `db:"reference"`
		TransferType       string `db:"transfer_type"`
		Source             string `db:"source"`
		Destination        string `db:"destination"`
		Asset              string `db:"asset"`
		Amount             string `db:"amount"`
		SourceBalanceAfter string `db:"source_balance_after"`
		CreatedAt          int64  `db:"created_at"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(queryGetTransferHistory), account, account, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get transfer history: %w", err)
	}

	transfers := make([]models.LedgerTransfer, 0, len(rows))
	for _, r := range rows {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", r.Amount, err)
		}
		after, err := decimal.NewFromString(r.SourceBalanceAfter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance after '%s': %w", r.SourceBalanceAfter, err)
		}
		transfers = append(transfers, models.LedgerTransfer{
			Id:                 r.Id,
			Reference:          r.Reference,
			TransferType:       r.TransferType,
			Source:             r.Source,
			Destination:        r.Destination,
			Asset:              r.Asset,
			Amount:             amount,
			SourceBalanceAfter: after,
			CreatedAt:          fromUnix(r.CreatedAt),
		})
	}
	return transfers, nil
}

// ReconcileBalance verifies that the stored balance equals debits minus
// credits in the journal.
func (s *SubledgerService) ReconcileBalance(ctx context.Context, account, asset string) error {
	current, err := s.GetBalance(ctx, account, asset)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	var entries []struct {
		Debit  string `db:"debit_amount"`
		Credit string `db:"credit_amount"`
	}
	if err := s.db.SelectContext(ctx, &entries, s.db.Rebind(queryJournalTotals), account, asset); err != nil {
		return fmt.Errorf("failed to load journal entries: %w", err)
	}

	calculated := decimal.Zero
	for _, e := range entries {
		debit, err := decimal.NewFromString(e.Debit)
		if err != nil {
			return fmt.Errorf("failed to parse debit '%s': %w", e.Debit, err)
		}
		credit, err := decimal.NewFromString(e.Credit)
		if err != nil {
			return fmt.Errorf("failed to parse credit '%s': %w", e.Credit, err)
		}
		calculated = calculated.Add(debit).Sub(credit)
	}

	if !current.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account", account),
			zap.String("asset", asset),
			zap.String("current_balance", current.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", current.Sub(calculated).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", current.String(), calculated.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account", account),
		zap.String("asset", asset),
		zap.String("balance", current.String()))
	return nil
}
