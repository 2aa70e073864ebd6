package store

import (
	"context"
	"errors"

	"multisig-wallet-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrDuplicate              = errors.New("duplicate record")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// WalletTx is the view of one wallet's records inside a unit of work. Every
// method reads and writes through the same exclusive hold on the wallet, and
// nothing is visible to other callers until the unit of work commits.
type WalletTx interface {
	Wallet() *models.Wallet
	SaveWallet(ctx context.Context, w *models.Wallet) error

	GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error

	// GetSpendingLimit returns nil, nil when no limit is configured.
	GetSpendingLimit(ctx context.Context, assetClass string) (*models.SpendingLimit, error)
	SaveSpendingLimit(ctx context.Context, l *models.SpendingLimit) error

	AppendEvent(ctx context.Context, e *models.Event) error
}

// UpdateFunc runs with exclusive access to a wallet. Returning an error rolls
// back every write made through the WalletTx.
type UpdateFunc func(ctx context.Context, wtx WalletTx) error

// WalletStore defines the contract that every backend (memory, SQLite, PostgreSQL) must satisfy.
type WalletStore interface {
	// --- Wallets ---
	CreateWallet(ctx context.Context, w *models.Wallet, initial *models.Event) error
	GetWallet(ctx context.Context, walletId string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)

	// --- Units of work ---
	Update(ctx context.Context, walletId string, fn UpdateFunc) error
	View(ctx context.Context, walletId string, fn UpdateFunc) error

	// --- Reads ---
	ListTransactions(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error)
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]models.Event, error)
	ListWalletEvents(ctx context.Context, walletId string, afterSeq int64, limit int) ([]models.Event, error)

	// --- Lifecycle ---
	Close()
}
