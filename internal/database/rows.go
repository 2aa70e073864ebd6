package database

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"multisig-wallet-go/internal/models"
)

// Amounts are stored as decimal text because uint64 does not fit BIGINT.
// Timestamps are unix seconds.

type walletRow struct {
	Id              string `db:"id"`
	Name            string `db:"name"`
	Owners          string `db:"owners"`
	Threshold       int    `db:"threshold"`
	TimeLockSeconds int64  `db:"time_lock_seconds"`
	IsPaused        bool   `db:"is_paused"`
	Nonce           int64  `db:"nonce"`
	Version         int64  `db:"version"`
	CreatedAt       int64  `db:"created_at"`
	UpdatedAt       int64  `db:"updated_at"`
}

func (r *walletRow) toModel() (*models.Wallet, error) {
	var owners []string
	if err := json.Unmarshal([]byte(r.Owners), &owners); err != nil {
		return nil, fmt.Errorf("failed to decode owners for wallet %s: %w", r.Id, err)
	}
	return &models.Wallet{
		Id:              r.Id,
		Name:            r.Name,
		Owners:          owners,
		Threshold:       r.Threshold,
		TimeLockSeconds: r.TimeLockSeconds,
		IsPaused:        r.IsPaused,
		Nonce:           uint64(r.Nonce),
		Version:         r.Version,
		CreatedAt:       fromUnix(r.CreatedAt),
		UpdatedAt:       fromUnix(r.UpdatedAt),
	}, nil
}

type transactionRow struct {
	Id            string        `db:"id"`
	WalletId      string        `db:"wallet_id"`
	Seq           int64         `db:"seq"`
	Destination   string        `db:"destination"`
	Amount        string        `db:"amount"`
	AssetClass    string        `db:"asset_class"`
	Payload       string        `db:"payload"`
	Proposer      string        `db:"proposer"`
	Confirmations string        `db:"confirmations"`
	IsExecuted    bool          `db:"is_executed"`
	RequiresAll   bool          `db:"requires_all"`
	Executor      string        `db:"executor"`
	TransferRef   string        `db:"transfer_ref"`
	ExecutedAt    sql.NullInt64 `db:"executed_at"`
	Version       int64         `db:"version"`
	CreatedAt     int64         `db:"created_at"`
}

func (r *transactionRow) toModel() (*models.Transaction, error) {
	amount, err := strconv.ParseUint(r.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", r.Amount, err)
	}
	payload, err := hex.DecodeString(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload for transaction %s: %w", r.Id, err)
	}
	var confirmations []string
	if err := json.Unmarshal([]byte(r.Confirmations), &confirmations); err != nil {
		return nil, fmt.Errorf("failed to decode confirmations for transaction %s: %w", r.Id, err)
	}
	tx := &models.Transaction{
		Id:                       r.Id,
		WalletId:                 r.WalletId,
		Seq:                      uint64(r.Seq),
		Destination:              r.Destination,
		Amount:                   amount,
		AssetClass:               r.AssetClass,
		Proposer:                 r.Proposer,
		Confirmations:            confirmations,
		IsExecuted:               r.IsExecuted,
		RequiresAllConfirmations: r.RequiresAll,
		Executor:                 r.Executor,
		TransferRef:              r.TransferRef,
		Version:                  r.Version,
		CreatedAt:                fromUnix(r.CreatedAt),
	}
	if len(payload) > 0 {
		tx.Payload = payload
	}
	if r.ExecutedAt.Valid {
		at := fromUnix(r.ExecutedAt.Int64)
		tx.ExecutedAt = &at
	}
	return tx, nil
}

type spendingLimitRow struct {
	WalletId       string `db:"wallet_id"`
	AssetClass     string `db:"asset_class"`
	DailyLimit     string `db:"daily_limit"`
	MonthlyLimit   string `db:"monthly_limit"`
	DailySpent     string `db:"daily_spent"`
	MonthlySpent   string `db:"monthly_spent"`
	LastResetDay   int64  `db:"last_reset_day"`
	LastResetMonth int64  `db:"last_reset_month"`
	UpdatedAt      int64  `db:"updated_at"`
}

func (r *spendingLimitRow) toModel() (*models.SpendingLimit, error) {
	l := &models.SpendingLimit{
		WalletId:       r.WalletId,
		AssetClass:     r.AssetClass,
		LastResetDay:   r.LastResetDay,
		LastResetMonth: r.LastResetMonth,
		UpdatedAt:      fromUnix(r.UpdatedAt),
	}
	fields := []struct {
		raw string
		dst *uint64
	}{
		{r.DailyLimit, &l.DailyLimit},
		{r.MonthlyLimit, &l.MonthlyLimit},
		{r.DailySpent, &l.DailySpent},
		{r.MonthlySpent, &l.MonthlySpent},
	}
	for _, f := range fields {
		v, err := strconv.ParseUint(f.raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse spending limit value '%s': %w", f.raw, err)
		}
		*f.dst = v
	}
	return l, nil
}

type eventRow struct {
	Seq           int64  `db:"seq"`
	Id            string `db:"id"`
	WalletId      string `db:"wallet_id"`
	TransactionId string `db:"transaction_id"`
	Type          string `db:"type"`
	Actor         string `db:"actor"`
	Payload       string `db:"payload"`
	CreatedAt     int64  `db:"created_at"`
}

func (r *eventRow) toModel() models.Event {
	e := models.Event{
		Seq:           r.Seq,
		Id:            r.Id,
		WalletId:      r.WalletId,
		TransactionId: r.TransactionId,
		Type:          r.Type,
		Actor:         r.Actor,
		CreatedAt:     fromUnix(r.CreatedAt),
	}
	if r.Payload != "" {
		e.Payload = json.RawMessage(r.Payload)
	}
	return e
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func executedAtValue(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
