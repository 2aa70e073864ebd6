package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/store"
)

// Service is an in-process WalletStore. Each wallet has its own lock, so
// units of work on different wallets run in parallel.
type Service struct {
	mu      sync.RWMutex
	wallets map[string]*walletState
	events  []models.Event
	nextSeq int64
}

type walletState struct {
	mu     sync.RWMutex
	wallet *models.Wallet
	txs    map[string]*models.Transaction
	order  []string
	limits map[string]*models.SpendingLimit
}

var _ store.WalletStore = (*Service)(nil)

func NewService() *Service {
	return &Service{wallets: make(map[string]*walletState)}
}

func (s *Service) Close() {}

func (s *Service) state(walletId string) (*walletState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.wallets[walletId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, walletId)
	}
	return ws, nil
}

func (s *Service) CreateWallet(ctx context.Context, w *models.Wallet, initial *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.Id]; exists {
		return fmt.Errorf("%w: wallet %s", store.ErrDuplicate, w.Id)
	}
	w.Version = 1
	s.wallets[w.Id] = &walletState{
		wallet: w.Clone(),
		txs:    make(map[string]*models.Transaction),
		limits: make(map[string]*models.SpendingLimit),
	}
	if initial != nil {
		s.appendLocked(initial)
	}
	return nil
}

// appendLocked requires s.mu to be held for writing.
func (s *Service) appendLocked(e *models.Event) {
	s.nextSeq++
	e.Seq = s.nextSeq
	s.events = append(s.events, *e)
}

func (s *Service) GetWallet(ctx context.Context, walletId string) (*models.Wallet, error) {
	ws, err := s.state(walletId)
	if err != nil {
		return nil, err
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.wallet.Clone(), nil
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	s.mu.RLock()
	states := make([]*walletState, 0, len(s.wallets))
	for _, ws := range s.wallets {
		states = append(states, ws)
	}
	s.mu.RUnlock()

	out := make([]models.Wallet, 0, len(states))
	for _, ws := range states {
		ws.mu.RLock()
		out = append(out, *ws.wallet.Clone())
		ws.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b models.Wallet) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Service) Update(ctx context.Context, walletId string, fn store.UpdateFunc) error {
	ws, err := s.state(walletId)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	wtx := newStagedTx(ws)
	if err := fn(ctx, wtx); err != nil {
		return err
	}
	return s.commit(ws, wtx)
}

func (s *Service) View(ctx context.Context, walletId string, fn store.UpdateFunc) error {
	ws, err := s.state(walletId)
	if err != nil {
		return err
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return fn(ctx, newStagedTx(ws))
}

// commit requires ws.mu to be held for writing.
func (s *Service) commit(ws *walletState, wtx *stagedTx) error {
	if wtx.walletDirty {
		ws.wallet = wtx.wallet
	}
	for _, tx := range wtx.txs {
		ws.txs[tx.Id] = tx
	}
	ws.order = append(ws.order, wtx.inserted...)
	for asset, l := range wtx.limits {
		ws.limits[asset] = l
	}
	if len(wtx.events) > 0 {
		s.mu.Lock()
		for _, e := range wtx.events {
			s.appendLocked(e)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *Service) ListTransactions(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error) {
	ws, err := s.state(walletId)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	// newest first, matching the SQL backends
	out := make([]models.Transaction, 0)
	for i := len(ws.order) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *ws.txs[ws.order[i]].Clone())
	}
	return out, nil
}

func (s *Service) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]models.Event, error) {
	return s.filterEvents(func(e *models.Event) bool { return true }, afterSeq, limit), nil
}

func (s *Service) ListWalletEvents(ctx context.Context, walletId string, afterSeq int64, limit int) ([]models.Event, error) {
	return s.filterEvents(func(e *models.Event) bool { return e.WalletId == walletId }, afterSeq, limit), nil
}

func (s *Service) filterEvents(match func(*models.Event) bool, afterSeq int64, limit int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, 0)
	for i := range s.events {
		e := &s.events[i]
		if e.Seq <= afterSeq || !match(e) {
			continue
		}
		out = append(out, *e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
