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

package multisig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Transferer moves value once a transaction is authorized. TransactionId is
// stable across retries and must be treated as an idempotency key.
type Transferer interface {
	Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error)
}

type Clock interface {
	Now() time.Time
}

// SystemClock reports wall-clock time at whole-second precision, the
// resolution at which records are persisted.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// IdentityValidator rejects identities that are not well-formed for the
// deployment, e.g. a base58 public key.
type IdentityValidator func(id string) error

// Controller sequences registry, ledger and spending checks inside one store
// unit of work per call.
type Controller struct {
	store      store.WalletStore
	transferer Transferer
	clock      Clock
	policy     ExecutionPolicy
	validateId IdentityValidator
	tracer     trace.Tracer
}

type Option func(*Controller)

func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithPolicy(p ExecutionPolicy) Option {
	return func(ctl *Controller) { ctl.policy = p }
}

func WithIdentityValidator(v IdentityValidator) Option {
	return func(ctl *Controller) { ctl.validateId = v }
}

func NewController(st store.WalletStore, transferer Transferer, opts ...Option) *Controller {
	c := &Controller{
		store:      st,
		transferer: transferer,
		clock:      SystemClock{},
		policy:     DefaultPolicy(),
		tracer:     otel.Tracer("multisig-wallet-go/internal/multisig"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Policy() ExecutionPolicy {
	return c.policy
}

// InitializeParams describes a new wallet.
type InitializeParams struct {
	Name      string
	Owners    []string
	Threshold int
	TimeLock  time.Duration
}

// ConfirmResult reports a confirmation and, when the policy executes on
// quorum, the outcome of that attempt. ExecuteErr never undoes the
// confirmation.
type ConfirmResult struct {
	Transaction   *models.Transaction
	Confirmations int
	Required      int
	Executed      bool
	ExecuteErr    error
}

func (c *Controller) startSpan(ctx context.Context, name, walletId string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("wallet.id", walletId))
	return c.tracer.Start(ctx, "multisig."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Controller) checkIdentity(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: identity is required", ErrInvalidInput)
		}
		if c.validateId != nil {
			if err := c.validateId(id); err != nil {
				return fmt.Errorf("%w: identity %q: %v", ErrInvalidInput, id, err)
			}
		}
	}
	return nil
}

// update maps store lookup failures onto domain kinds.
func (c *Controller) update(ctx context.Context, walletId string, fn store.UpdateFunc) error {
	return translateStoreError(c.store.Update(ctx, walletId, fn), walletId)
}

func translateStoreError(err error, walletId string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrWalletNotFound):
		return fmt.Errorf("%w: %s", ErrWalletNotFound, walletId)
	case errors.Is(err, store.ErrTransactionNotFound):
		return fmt.Errorf("%w: %w", ErrTransactionNotFound, err)
	}
	return err
}

func appendEvent(ctx context.Context, wtx store.WalletTx, transactionId, eventType, actor string, payload any, now time.Time) error {
	e, err := newEvent(wtx.Wallet().Id, transactionId, eventType, actor, payload, now)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	if err := wtx.AppendEvent(ctx, e); err != nil {
		return fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	return nil
}

func (c *Controller) InitializeWallet(ctx context.Context, actor string, p InitializeParams) (w *models.Wallet, err error) {
	ctx, span := c.tracer.Start(ctx, "multisig.InitializeWallet")
	defer func() { endSpan(span, err) }()

	if err := c.checkIdentity(p.Owners...); err != nil {
		return nil, err
	}
	now := c.clock.Now()
	w, err = NewWallet(p.Name, p.Owners, p.Threshold, p.TimeLock, now)
	if err != nil {
		return nil, err
	}
	event, err := newEvent(w.Id, "", EventWalletInitialized, actor, WalletInitializedPayload{
		Name:            w.Name,
		Owners:          w.Owners,
		Threshold:       w.Threshold,
		TimeLockSeconds: w.TimeLockSeconds,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := c.store.CreateWallet(ctx, w, event); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	span.SetAttributes(attribute.String("wallet.id", w.Id))
	zap.L().Info("Wallet initialized",
		zap.String("wallet_id", w.Id),
		zap.String("name", w.Name),
		zap.Int("owners", len(w.Owners)),
		zap.Int("threshold", w.Threshold),
		zap.Duration("time_lock", w.TimeLock()))
	return w, nil
}

func (c *Controller) ProposeTransaction(ctx context.Context, walletId, proposer string, p Proposal) (tx *models.Transaction, err error) {
	ctx, span := c.startSpan(ctx, "ProposeTransaction", walletId, attribute.String("proposer", proposer))
	defer func() { endSpan(span, err) }()

	if c.validateId != nil && p.Destination != "" {
		if err := c.validateId(p.Destination); err != nil {
			return nil, fmt.Errorf("%w: destination %q: %v", ErrInvalidInput, p.Destination, err)
		}
	}

	err = c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		now := c.clock.Now()
		limit, err := wtx.GetSpendingLimit(ctx, p.AssetClass)
		if err != nil {
			return err
		}
		tx, err = NewTransaction(w, proposer, p, limit, now)
		if err != nil {
			return err
		}
		w.UpdatedAt = now
		if err := wtx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if err := wtx.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		return appendEvent(ctx, wtx, tx.Id, EventTransactionCreated, proposer, TransactionCreatedPayload{
			Seq:                      tx.Seq,
			Destination:              tx.Destination,
			Amount:                   tx.Amount,
			AssetClass:               tx.AssetClass,
			RequiresAllConfirmations: tx.RequiresAllConfirmations,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction proposed",
		zap.String("wallet_id", walletId),
		zap.String("transaction_id", tx.Id),
		zap.Uint64("seq", tx.Seq),
		zap.String("proposer", proposer),
		zap.String("destination", tx.Destination),
		zap.Uint64("amount", tx.Amount),
		zap.String("asset_class", tx.AssetClass),
		zap.Bool("requires_all_confirmations", tx.RequiresAllConfirmations))
	return tx, nil
}

func (c *Controller) ConfirmTransaction(ctx context.Context, walletId, transactionId, owner string) (res *ConfirmResult, err error) {
	ctx, span := c.startSpan(ctx, "ConfirmTransaction", walletId,
		attribute.String("transaction.id", transactionId), attribute.String("owner", owner))
	defer func() { endSpan(span, err) }()

	var ready bool
	err = c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		tx, err := wtx.GetTransaction(ctx, transactionId)
		if err != nil {
			return err
		}
		count, err := Confirm(w, tx, owner)
		if err != nil {
			return err
		}
		if err := wtx.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		now := c.clock.Now()
		required := RequiredConfirmations(w, tx)
		res = &ConfirmResult{Transaction: tx, Confirmations: count, Required: required}
		ready = count >= required && !now.Before(TimeLockExpiry(w, tx))
		return appendEvent(ctx, wtx, tx.Id, EventTransactionConfirmed, owner, ConfirmationPayload{
			Confirmations: count,
			Required:      required,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction confirmed",
		zap.String("wallet_id", walletId),
		zap.String("transaction_id", transactionId),
		zap.String("owner", owner),
		zap.Int("confirmations", res.Confirmations),
		zap.Int("required", res.Required))

	if c.policy.AutoExecuteOnConfirm && ready {
		executed, execErr := c.ExecuteTransaction(ctx, walletId, transactionId, owner)
		if execErr != nil {
			zap.L().Warn("Automatic execution failed",
				zap.String("wallet_id", walletId),
				zap.String("transaction_id", transactionId),
				zap.Error(execErr))
			res.ExecuteErr = execErr
		} else {
			res.Transaction = executed
			res.Executed = true
		}
	}
	return res, nil
}

func (c *Controller) RevokeConfirmation(ctx context.Context, walletId, transactionId, owner string) (tx *models.Transaction, err error) {
	ctx, span := c.startSpan(ctx, "RevokeConfirmation", walletId,
		attribute.String("transaction.id", transactionId), attribute.String("owner", owner))
	defer func() { endSpan(span, err) }()

	err = c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		tx, err = wtx.GetTransaction(ctx, transactionId)
		if err != nil {
			return err
		}
		if err := Revoke(w, tx, owner); err != nil {
			return err
		}
		if err := wtx.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		return appendEvent(ctx, wtx, tx.Id, EventConfirmationRevoked, owner, ConfirmationPayload{
			Confirmations: CountConfirmations(w, tx),
			Required:      RequiredConfirmations(w, tx),
		}, c.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Confirmation revoked",
		zap.String("wallet_id", walletId),
		zap.String("transaction_id", transactionId),
		zap.String("owner", owner))
	return tx, nil
}

// ExecuteTransaction reserves the spend, performs the transfer and marks the
// transaction executed in one unit of work. If any step fails nothing is
// committed.
func (c *Controller) ExecuteTransaction(ctx context.Context, walletId, transactionId, executor string) (tx *models.Transaction, err error) {
	ctx, span := c.startSpan(ctx, "ExecuteTransaction", walletId,
		attribute.String("transaction.id", transactionId), attribute.String("executor", executor))
	defer func() { endSpan(span, err) }()

	var override bool
	err = c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		tx, err = wtx.GetTransaction(ctx, transactionId)
		if err != nil {
			return err
		}
		now := c.clock.Now()
		if err := CheckExecute(w, tx, executor, now); err != nil {
			return err
		}

		var limit *models.SpendingLimit
		if c.policy.EnforceSpendingLimits {
			limit, err = wtx.GetSpendingLimit(ctx, tx.AssetClass)
			if err != nil {
				return err
			}
			if !CheckAndReserve(limit, tx.Amount, now) {
				if !unanimous(w, tx) {
					return fmt.Errorf("%w: %d of asset class %q", ErrSpendingLimitExceeded, tx.Amount, tx.AssetClass)
				}
				// Unanimous approval bypasses the cap; the counters saturate.
				override = true
				ReserveSaturating(limit, tx.Amount, now)
			}
		}

		receipt, err := c.transferer.Transfer(ctx, models.TransferRequest{
			WalletId:      w.Id,
			TransactionId: tx.Id,
			Destination:   tx.Destination,
			Amount:        tx.Amount,
			AssetClass:    tx.AssetClass,
			Payload:       tx.Payload,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		var ref string
		if receipt != nil {
			ref = receipt.Reference
		}

		MarkExecuted(tx, executor, ref, now)
		if err := wtx.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		if limit != nil {
			if err := wtx.SaveSpendingLimit(ctx, limit); err != nil {
				return err
			}
		}
		return appendEvent(ctx, wtx, tx.Id, EventTransactionExecuted, executor, TransactionExecutedPayload{
			Destination:   tx.Destination,
			Amount:        tx.Amount,
			AssetClass:    tx.AssetClass,
			TransferRef:   ref,
			LimitOverride: override,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction executed",
		zap.String("wallet_id", walletId),
		zap.String("transaction_id", transactionId),
		zap.String("executor", executor),
		zap.String("destination", tx.Destination),
		zap.Uint64("amount", tx.Amount),
		zap.String("asset_class", tx.AssetClass),
		zap.String("transfer_ref", tx.TransferRef),
		zap.Bool("limit_override", override))
	return tx, nil
}

// mutateWallet runs an owner-gated change to the wallet record and appends one
// event describing it.
func (c *Controller) mutateWallet(ctx context.Context, walletId, actor string, fn func(w *models.Wallet) (string, any, error)) (*models.Wallet, error) {
	var out *models.Wallet
	err := c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		if err := RequireOwner(w, actor); err != nil {
			return err
		}
		eventType, payload, err := fn(w)
		if err != nil {
			return err
		}
		now := c.clock.Now()
		w.UpdatedAt = now
		if err := wtx.SaveWallet(ctx, w); err != nil {
			return err
		}
		out = w.Clone()
		return appendEvent(ctx, wtx, "", eventType, actor, payload, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Controller) AddOwner(ctx context.Context, walletId, actor, newOwner string) (w *models.Wallet, err error) {
	ctx, span := c.startSpan(ctx, "AddOwner", walletId, attribute.String("owner", newOwner))
	defer func() { endSpan(span, err) }()

	if err := c.checkIdentity(newOwner); err != nil {
		return nil, err
	}
	w, err = c.mutateWallet(ctx, walletId, actor, func(w *models.Wallet) (string, any, error) {
		if err := AddOwner(w, newOwner); err != nil {
			return "", nil, err
		}
		return EventOwnerAdded, OwnerChangedPayload{Owner: newOwner, Owners: len(w.Owners), Threshold: w.Threshold}, nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Owner added",
		zap.String("wallet_id", walletId),
		zap.String("actor", actor),
		zap.String("owner", newOwner),
		zap.Int("owners", len(w.Owners)))
	return w, nil
}

func (c *Controller) RemoveOwner(ctx context.Context, walletId, actor, owner string) (w *models.Wallet, err error) {
	ctx, span := c.startSpan(ctx, "RemoveOwner", walletId, attribute.String("owner", owner))
	defer func() { endSpan(span, err) }()

	w, err = c.mutateWallet(ctx, walletId, actor, func(w *models.Wallet) (string, any, error) {
		if err := RemoveOwner(w, owner); err != nil {
			return "", nil, err
		}
		return EventOwnerRemoved, OwnerChangedPayload{Owner: owner, Owners: len(w.Owners), Threshold: w.Threshold}, nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Owner removed",
		zap.String("wallet_id", walletId),
		zap.String("actor", actor),
		zap.String("owner", owner),
		zap.Int("owners", len(w.Owners)),
		zap.Int("threshold", w.Threshold))
	return w, nil
}

func (c *Controller) ChangeThreshold(ctx context.Context, walletId, actor string, threshold int) (w *models.Wallet, err error) {
	ctx, span := c.startSpan(ctx, "ChangeThreshold", walletId, attribute.Int("threshold", threshold))
	defer func() { endSpan(span, err) }()

	w, err = c.mutateWallet(ctx, walletId, actor, func(w *models.Wallet) (string, any, error) {
		previous := w.Threshold
		if err := ChangeThreshold(w, threshold); err != nil {
			return "", nil, err
		}
		return EventThresholdChanged, ThresholdChangedPayload{Previous: previous, Threshold: threshold}, nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Threshold changed",
		zap.String("wallet_id", walletId),
		zap.String("actor", actor),
		zap.Int("threshold", threshold))
	return w, nil
}

// SetSpendingLimit creates or replaces the limit for an asset class. Counters
// restart from zero in the current period.
func (c *Controller) SetSpendingLimit(ctx context.Context, walletId, actor, assetClass string, daily, monthly uint64) (l *models.SpendingLimit, err error) {
	ctx, span := c.startSpan(ctx, "SetSpendingLimit", walletId, attribute.String("asset_class", assetClass))
	defer func() { endSpan(span, err) }()

	if c.validateId != nil && assetClass != "" {
		if err := c.validateId(assetClass); err != nil {
			return nil, fmt.Errorf("%w: asset class %q: %v", ErrInvalidInput, assetClass, err)
		}
	}

	err = c.update(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		if err := RequireOwner(w, actor); err != nil {
			return err
		}
		now := c.clock.Now()
		l = NewSpendingLimit(w.Id, assetClass, daily, monthly, now)
		if err := wtx.SaveSpendingLimit(ctx, l); err != nil {
			return err
		}
		return appendEvent(ctx, wtx, "", EventSpendingLimitSet, actor, SpendingLimitSetPayload{
			AssetClass:   assetClass,
			DailyLimit:   daily,
			MonthlyLimit: monthly,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Spending limit set",
		zap.String("wallet_id", walletId),
		zap.String("actor", actor),
		zap.String("asset_class", assetClass),
		zap.Uint64("daily_limit", daily),
		zap.Uint64("monthly_limit", monthly))
	return l, nil
}

// PauseWallet needs a single owner, not a quorum.
func (c *Controller) PauseWallet(ctx context.Context, walletId, actor string) (*models.Wallet, error) {
	return c.setPaused(ctx, walletId, actor, true)
}

func (c *Controller) UnpauseWallet(ctx context.Context, walletId, actor string) (*models.Wallet, error) {
	return c.setPaused(ctx, walletId, actor, false)
}

func (c *Controller) setPaused(ctx context.Context, walletId, actor string, paused bool) (w *models.Wallet, err error) {
	name := "UnpauseWallet"
	eventType := EventWalletUnpaused
	if paused {
		name = "PauseWallet"
		eventType = EventWalletPaused
	}
	ctx, span := c.startSpan(ctx, name, walletId)
	defer func() { endSpan(span, err) }()

	w, err = c.mutateWallet(ctx, walletId, actor, func(w *models.Wallet) (string, any, error) {
		SetPaused(w, paused)
		return eventType, nil, nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Wallet pause state changed",
		zap.String("wallet_id", walletId),
		zap.String("actor", actor),
		zap.Bool("paused", paused))
	return w, nil
}

func (c *Controller) GetWallet(ctx context.Context, walletId string) (*models.Wallet, error) {
	w, err := c.store.GetWallet(ctx, walletId)
	if err != nil {
		return nil, translateStoreError(err, walletId)
	}
	return w, nil
}

func (c *Controller) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	return c.store.ListWallets(ctx)
}

// TransactionStatus is a transaction together with its quorum and time-lock
// state as of the call.
type TransactionStatus struct {
	Transaction    *models.Transaction `json:"transaction"`
	Confirmations  int                 `json:"confirmations"`
	Required       int                 `json:"required"`
	ExecutableAt   time.Time           `json:"executable_at"`
	ReadyToExecute bool                `json:"ready_to_execute"`
}

func (c *Controller) GetTransaction(ctx context.Context, walletId, transactionId string) (*TransactionStatus, error) {
	var status *TransactionStatus
	err := c.store.View(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		tx, err := wtx.GetTransaction(ctx, transactionId)
		if err != nil {
			return err
		}
		status = &TransactionStatus{
			Transaction:   tx,
			Confirmations: CountConfirmations(w, tx),
			Required:      RequiredConfirmations(w, tx),
			ExecutableAt:  TimeLockExpiry(w, tx),
		}
		status.ReadyToExecute = !tx.IsExecuted && !w.IsPaused && CanExecute(w, tx) &&
			!c.clock.Now().Before(status.ExecutableAt)
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, walletId)
	}
	return status, nil
}

func (c *Controller) ListTransactions(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error) {
	if _, err := c.GetWallet(ctx, walletId); err != nil {
		return nil, err
	}
	return c.store.ListTransactions(ctx, walletId, limit, offset)
}

// GetSpendingLimit returns the limit with counters rolled to the current
// period, or nil when none is configured.
func (c *Controller) GetSpendingLimit(ctx context.Context, walletId, assetClass string) (*models.SpendingLimit, error) {
	var l *models.SpendingLimit
	err := c.store.View(ctx, walletId, func(ctx context.Context, wtx store.WalletTx) error {
		var err error
		l, err = wtx.GetSpendingLimit(ctx, assetClass)
		if err != nil || l == nil {
			return err
		}
		roll(l, c.clock.Now())
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, walletId)
	}
	return l, nil
}

func (c *Controller) ListEvents(ctx context.Context, walletId string, afterSeq int64, limit int) ([]models.Event, error) {
	if _, err := c.GetWallet(ctx, walletId); err != nil {
		return nil, err
	}
	return c.store.ListWalletEvents(ctx, walletId, afterSeq, limit)
}
