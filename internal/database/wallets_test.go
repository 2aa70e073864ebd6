package database

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"
)

func testWallet(id string) *models.Wallet {
	now := time.Unix(1_700_000_000, 0).UTC()
	return &models.Wallet{
		Id:              id,
		Name:            "treasury",
		Owners:          []string{"A", "B", "C"},
		Threshold:       2,
		TimeLockSeconds: 60,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestNewServiceValidation(t *testing.T) {
	ctx := context.Background()
	cases := []models.DatabaseConfig{
		{Driver: "mysql", Path: "x", MaxOpenConns: 1, PingTimeout: time.Second},
		{Driver: DriverSQLite, MaxOpenConns: 1, PingTimeout: time.Second},
		{Driver: DriverPostgres, MaxOpenConns: 1, PingTimeout: time.Second},
		{Driver: DriverSQLite, Path: "x", MaxOpenConns: 0, PingTimeout: time.Second},
		{Driver: DriverSQLite, Path: "x", MaxOpenConns: 1},
	}
	for i, cfg := range cases {
		if _, err := NewService(ctx, cfg); err == nil {
			t.Errorf("case %d: expected configuration error", i)
		}
	}
}

func TestCreateAndGetWallet(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	w := testWallet("w1")
	if err := service.CreateWallet(ctx, w, &models.Event{Id: "e1", WalletId: "w1", Type: "WalletInitialized", CreatedAt: w.CreatedAt}); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}

	got, err := service.GetWallet(ctx, "w1")
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !slices.Equal(got.Owners, w.Owners) || got.Threshold != 2 || got.TimeLockSeconds != 60 || got.Version != 1 {
		t.Errorf("Unexpected wallet: %+v", got)
	}
	if !got.CreatedAt.Equal(w.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", w.CreatedAt, got.CreatedAt)
	}

	if err := service.CreateWallet(ctx, testWallet("w1"), nil); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	if _, err := service.GetWallet(ctx, "missing"); !errors.Is(err, store.ErrWalletNotFound) {
		t.Errorf("Expected ErrWalletNotFound, got %v", err)
	}

	wallets, err := service.ListWallets(ctx)
	if err != nil || len(wallets) != 1 {
		t.Fatalf("Expected 1 wallet, got %d (%v)", len(wallets), err)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	if err := service.CreateWallet(ctx, testWallet("w1"), nil); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}

	created := time.Unix(1_700_000_100, 0).UTC()
	err := service.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		w.Nonce++
		w.IsPaused = true
		if err := wtx.SaveWallet(ctx, w); err != nil {
			return err
		}
		tx := &models.Transaction{
			Id: "t1", WalletId: "w1", Seq: 1, Destination: "X", Amount: 1<<63 + 5,
			AssetClass: "mint", Payload: []byte{0xde, 0xad}, Proposer: "A",
			Confirmations: []string{"A"}, RequiresAllConfirmations: true, CreatedAt: created,
		}
		if err := wtx.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		tx.Confirmations = append(tx.Confirmations, "B")
		if err := wtx.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		if err := wtx.SaveSpendingLimit(ctx, &models.SpendingLimit{
			WalletId: "w1", AssetClass: "mint", DailyLimit: 100, MonthlyLimit: 1000,
			DailySpent: 7, LastResetDay: 3, LastResetMonth: 1, UpdatedAt: created,
		}); err != nil {
			return err
		}
		return wtx.AppendEvent(ctx, &models.Event{Id: "e1", WalletId: "w1", TransactionId: "t1", Type: "TransactionCreated", Payload: []byte(`{"seq":1}`), CreatedAt: created})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = service.View(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		if w.Nonce != 1 || !w.IsPaused || w.Version != 2 {
			t.Errorf("Unexpected wallet after update: %+v", w)
		}
		tx, err := wtx.GetTransaction(ctx, "t1")
		if err != nil {
			return err
		}
		if tx.Amount != 1<<63+5 || !slices.Equal(tx.Confirmations, []string{"A", "B"}) || tx.Version != 2 {
			t.Errorf("Unexpected transaction: %+v", tx)
		}
		if !slices.Equal(tx.Payload, []byte{0xde, 0xad}) || !tx.RequiresAllConfirmations || tx.ExecutedAt != nil {
			t.Errorf("Unexpected transaction fields: %+v", tx)
		}
		l, err := wtx.GetSpendingLimit(ctx, "mint")
		if err != nil {
			return err
		}
		if l == nil || l.DailyLimit != 100 || l.DailySpent != 7 || l.LastResetDay != 3 {
			t.Errorf("Unexpected spending limit: %+v", l)
		}
		if none, err := wtx.GetSpendingLimit(ctx, ""); err != nil || none != nil {
			t.Errorf("Expected no native limit, got %+v (%v)", none, err)
		}
		if err := wtx.SaveWallet(ctx, w); err == nil {
			t.Error("Expected write in view to fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	events, err := service.ListWalletEvents(ctx, "w1", 0, 10)
	if err != nil || len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d (%v)", len(events), err)
	}
	if events[0].Seq < 1 || string(events[0].Payload) != `{"seq":1}` {
		t.Errorf("Unexpected event: %+v", events[0])
	}
}

func TestUpdateRollsBack(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	if err := service.CreateWallet(ctx, testWallet("w1"), nil); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}

	boom := errors.New("boom")
	err := service.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		w.Threshold = 3
		if err := wtx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if err := wtx.AppendEvent(ctx, &models.Event{Id: "e1", WalletId: "w1", Type: "ThresholdChanged"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	w, err := service.GetWallet(ctx, "w1")
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if w.Threshold != 2 || w.Version != 1 {
		t.Errorf("Expected rollback, got %+v", w)
	}
	events, _ := service.ListEvents(ctx, 0, 0)
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestSaveTransactionVersionConflict(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	if err := service.CreateWallet(ctx, testWallet("w1"), nil); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}

	err := service.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		tx := &models.Transaction{Id: "t1", WalletId: "w1", Seq: 1, Destination: "X", Proposer: "A", Confirmations: []string{"A"}}
		if err := wtx.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		stale := *tx
		if err := wtx.SaveTransaction(ctx, tx); err != nil {
			return err
		}
		return wtx.SaveTransaction(ctx, &stale)
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	if err := service.CreateWallet(ctx, testWallet("w1"), nil); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- service.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
				w := wtx.Wallet()
				w.Nonce++
				return wtx.SaveWallet(ctx, w)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	w, err := service.GetWallet(ctx, "w1")
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if w.Nonce != workers {
		t.Errorf("Expected nonce %d, got %d", workers, w.Nonce)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	if err := service.CreateWallet(ctx, testWallet("w1"), nil); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
	err := service.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		for i := 1; i <= 5; i++ {
			tx := &models.Transaction{
				Id: string(rune('a' + i)), WalletId: "w1", Seq: uint64(i), Destination: "X",
				Proposer: "A", Confirmations: []string{"A"},
			}
			if err := wtx.InsertTransaction(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	page, err := service.ListTransactions(ctx, "w1", 2, 1)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 4 || page[1].Seq != 3 {
		t.Errorf("Unexpected page: %+v", page)
	}
	all, err := service.ListTransactions(ctx, "w1", 0, 0)
	if err != nil || len(all) != 5 {
		t.Errorf("Expected 5 transactions, got %d (%v)", len(all), err)
	}
}
