package database

import (
	"context"
	"errors"
	"testing"

	"multisig-wallet-go/internal/multisig"

	"github.com/shopspring/decimal"
)

func TestControllerOverSQLStore(t *testing.T) {
	service := setupTestDb(t)
	subledger := service.Subledger()
	ctx := context.Background()
	ctl := multisig.NewController(service, subledger)

	w, err := ctl.InitializeWallet(ctx, "A", multisig.InitializeParams{Name: "ops", Owners: []string{"A", "B", "C"}, Threshold: 2})
	if err != nil {
		t.Fatalf("InitializeWallet failed: %v", err)
	}
	if _, err := ctl.SetSpendingLimit(ctx, w.Id, "A", "", 100, 0); err != nil {
		t.Fatalf("SetSpendingLimit failed: %v", err)
	}

	tx, err := ctl.ProposeTransaction(ctx, w.Id, "A", multisig.Proposal{Destination: "X", Amount: 30})
	if err != nil {
		t.Fatalf("ProposeTransaction failed: %v", err)
	}
	if _, err := ctl.ConfirmTransaction(ctx, w.Id, tx.Id, "B"); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}

	// Unfunded: the transfer fails and nothing is committed.
	_, err = ctl.ExecuteTransaction(ctx, w.Id, tx.Id, "A")
	if !errors.Is(err, multisig.ErrTransferFailed) || !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Expected TransferFailed wrapping insufficient balance, got %v", err)
	}
	limit, err := ctl.GetSpendingLimit(ctx, w.Id, "")
	if err != nil {
		t.Fatalf("GetSpendingLimit failed: %v", err)
	}
	if limit.DailySpent != 0 {
		t.Errorf("Expected no reservation after failed execution, got %d", limit.DailySpent)
	}

	if _, err := subledger.Deposit(ctx, w.Id, "", 30, "fund-1"); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	executed, err := ctl.ExecuteTransaction(ctx, w.Id, tx.Id, "A")
	if err != nil {
		t.Fatalf("ExecuteTransaction failed: %v", err)
	}
	if !executed.IsExecuted || executed.TransferRef == "" {
		t.Errorf("Unexpected executed transaction: %+v", executed)
	}

	if _, err := ctl.ExecuteTransaction(ctx, w.Id, tx.Id, "A"); !errors.Is(err, multisig.ErrTransactionExecuted) {
		t.Errorf("Expected TransactionExecuted, got %v", err)
	}

	balance, _ := subledger.GetBalance(ctx, WalletAccount(w.Id), AssetKey(""))
	if !balance.IsZero() {
		t.Errorf("Expected empty wallet, got %s", balance)
	}
	external, _ := subledger.GetBalance(ctx, ExternalAccount("X"), AssetKey(""))
	if !external.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected 30 at destination, got %s", external)
	}

	limit, _ = ctl.GetSpendingLimit(ctx, w.Id, "")
	if limit.DailySpent != 30 {
		t.Errorf("Expected 30 reserved, got %d", limit.DailySpent)
	}

	events, err := ctl.ListEvents(ctx, w.Id, 0, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	want := []string{
		multisig.EventWalletInitialized, multisig.EventSpendingLimitSet, multisig.EventTransactionCreated,
		multisig.EventTransactionConfirmed, multisig.EventTransactionExecuted,
	}
	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], e.Type)
		}
	}
}

func TestDepositNamedAfterTransactionDoesNotSkipTransfer(t *testing.T) {
	service := setupTestDb(t)
	subledger := service.Subledger()
	ctx := context.Background()
	ctl := multisig.NewController(service, subledger)

	w, err := ctl.InitializeWallet(ctx, "A", multisig.InitializeParams{Name: "ops", Owners: []string{"A", "B"}, Threshold: 1})
	if err != nil {
		t.Fatalf("InitializeWallet failed: %v", err)
	}
	if _, err := subledger.Deposit(ctx, w.Id, "", 100, "fund-1"); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	tx, err := ctl.ProposeTransaction(ctx, w.Id, "A", multisig.Proposal{Destination: "X", Amount: 40})
	if err != nil {
		t.Fatalf("ProposeTransaction failed: %v", err)
	}

	if _, err := subledger.Deposit(ctx, "other-wallet", "", 1, tx.Id); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	executed, err := ctl.ExecuteTransaction(ctx, w.Id, tx.Id, "A")
	if err != nil {
		t.Fatalf("ExecuteTransaction failed: %v", err)
	}
	if !executed.IsExecuted {
		t.Fatalf("Expected transaction to be executed")
	}

	balance, _ := subledger.GetBalance(ctx, WalletAccount(w.Id), AssetKey(""))
	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected wallet balance 60, got %s", balance)
	}
	external, _ := subledger.GetBalance(ctx, ExternalAccount("X"), AssetKey(""))
	if !external.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected destination balance 40, got %s", external)
	}
}
