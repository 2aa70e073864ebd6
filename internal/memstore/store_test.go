package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWallet(t *testing.T, s *Service) *models.Wallet {
	t.Helper()
	w := &models.Wallet{Id: "w1", Owners: []string{"A", "B"}, Threshold: 1, CreatedAt: time.Unix(0, 0)}
	require.NoError(t, s.CreateWallet(context.Background(), w, &models.Event{WalletId: w.Id, Type: "WalletInitialized"}))
	return w
}

func TestUpdateCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)

	err := s.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		w.Nonce++
		if err := wtx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if err := wtx.InsertTransaction(ctx, &models.Transaction{Id: "t1", WalletId: "w1", Confirmations: []string{"A"}}); err != nil {
			return err
		}
		if err := wtx.SaveSpendingLimit(ctx, &models.SpendingLimit{WalletId: "w1", DailyLimit: 10}); err != nil {
			return err
		}
		return wtx.AppendEvent(ctx, &models.Event{WalletId: "w1", Type: "TransactionCreated"})
	})
	require.NoError(t, err)

	w, err := s.GetWallet(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.Nonce)
	assert.Equal(t, int64(2), w.Version)

	txs, err := s.ListTransactions(ctx, "w1", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t1", txs[0].Id)

	events, err := s.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)
	boom := errors.New("boom")

	err := s.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		w := wtx.Wallet()
		w.IsPaused = true
		_ = wtx.SaveWallet(ctx, w)
		_ = wtx.InsertTransaction(ctx, &models.Transaction{Id: "t1", WalletId: "w1"})
		_ = wtx.AppendEvent(ctx, &models.Event{WalletId: "w1"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	w, err := s.GetWallet(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, w.IsPaused)
	txs, _ := s.ListTransactions(ctx, "w1", 0, 0)
	assert.Empty(t, txs)
	events, _ := s.ListEvents(ctx, 0, 0)
	assert.Len(t, events, 1)
}

func TestMissingRecords(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)

	err := s.Update(ctx, "nope", func(ctx context.Context, wtx store.WalletTx) error { return nil })
	assert.ErrorIs(t, err, store.ErrWalletNotFound)

	err = s.View(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		_, err := wtx.GetTransaction(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrTransactionNotFound)
		l, err := wtx.GetSpendingLimit(ctx, "")
		assert.NoError(t, err)
		assert.Nil(t, l)
		return nil
	})
	require.NoError(t, err)

	err = s.CreateWallet(ctx, &models.Wallet{Id: "w1"}, nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestConcurrentUpdatesSerializePerWallet(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
				w := wtx.Wallet()
				w.Nonce++
				return wtx.SaveWallet(ctx, w)
			})
		}()
	}
	wg.Wait()

	w, err := s.GetWallet(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), w.Nonce)
}

func TestListEventsFiltersByWalletAndCursor(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)
	require.NoError(t, s.CreateWallet(ctx, &models.Wallet{Id: "w2", Owners: []string{"C"}, Threshold: 1}, &models.Event{WalletId: "w2"}))

	all, err := s.ListEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	after, err := s.ListEvents(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "w2", after[0].WalletId)

	w1, err := s.ListWalletEvents(ctx, "w1", 0, 0)
	require.NoError(t, err)
	require.Len(t, w1, 1)
	assert.Equal(t, "w1", w1[0].WalletId)
}

func TestListTransactionsPaging(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	seedWallet(t, s)

	err := s.Update(ctx, "w1", func(ctx context.Context, wtx store.WalletTx) error {
		for _, id := range []string{"t1", "t2", "t3"} {
			if err := wtx.InsertTransaction(ctx, &models.Transaction{Id: id, WalletId: "w1"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	txs, err := s.ListTransactions(ctx, "w1", 0, -5)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "t3", txs[0].Id)

	txs, err = s.ListTransactions(ctx, "w1", 1, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t2", txs[0].Id)

	txs, err = s.ListTransactions(ctx, "w1", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
