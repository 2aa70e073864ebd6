package memstore

import (
	"context"
	"fmt"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"
)

// stagedTx buffers writes against copies of the committed records.
type stagedTx struct {
	ws          *walletState
	wallet      *models.Wallet
	walletDirty bool
	txs         map[string]*models.Transaction
	inserted    []string
	limits      map[string]*models.SpendingLimit
	events      []*models.Event
}

var _ store.WalletTx = (*stagedTx)(nil)

func newStagedTx(ws *walletState) *stagedTx {
	return &stagedTx{
		ws:     ws,
		wallet: ws.wallet.Clone(),
		txs:    make(map[string]*models.Transaction),
		limits: make(map[string]*models.SpendingLimit),
	}
}

func (t *stagedTx) Wallet() *models.Wallet {
	return t.wallet
}

func (t *stagedTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	if w.Version != t.ws.wallet.Version {
		return fmt.Errorf("%w: wallet %s", store.ErrConcurrentModification, w.Id)
	}
	c := w.Clone()
	c.Version++
	w.Version = c.Version
	t.wallet = c
	t.walletDirty = true
	return nil
}

func (t *stagedTx) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	if tx, ok := t.txs[transactionId]; ok {
		return tx.Clone(), nil
	}
	tx, ok := t.ws.txs[transactionId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionId)
	}
	return tx.Clone(), nil
}

func (t *stagedTx) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if _, ok := t.ws.txs[tx.Id]; ok {
		return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, tx.Id)
	}
	if _, ok := t.txs[tx.Id]; ok {
		return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, tx.Id)
	}
	tx.Version = 1
	t.txs[tx.Id] = tx.Clone()
	t.inserted = append(t.inserted, tx.Id)
	return nil
}

func (t *stagedTx) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	current, ok := t.txs[tx.Id]
	if !ok {
		current, ok = t.ws.txs[tx.Id]
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTransactionNotFound, tx.Id)
	}
	if current.Version != tx.Version {
		return fmt.Errorf("%w: transaction %s", store.ErrConcurrentModification, tx.Id)
	}
	tx.Version++
	t.txs[tx.Id] = tx.Clone()
	return nil
}

func (t *stagedTx) GetSpendingLimit(ctx context.Context, assetClass string) (*models.SpendingLimit, error) {
	if l, ok := t.limits[assetClass]; ok {
		return l.Clone(), nil
	}
	return t.ws.limits[assetClass].Clone(), nil
}

func (t *stagedTx) SaveSpendingLimit(ctx context.Context, l *models.SpendingLimit) error {
	t.limits[l.AssetClass] = l.Clone()
	return nil
}

func (t *stagedTx) AppendEvent(ctx context.Context, e *models.Event) error {
	c := *e
	t.events = append(t.events, &c)
	return nil
}
