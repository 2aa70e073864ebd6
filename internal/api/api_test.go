package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"multisig-wallet-go/internal/auth"
	"multisig-wallet-go/internal/memstore"
	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransferer struct {
	mu       sync.Mutex
	requests []models.TransferRequest
	err      error
}

func (t *recordingTransferer) Transfer(_ context.Context, req models.TransferRequest) (*models.TransferReceipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	t.requests = append(t.requests, req)
	return &models.TransferReceipt{Backend: "test", Reference: "ref-" + req.TransactionId}, nil
}

type fakeFunder struct {
	deposits map[string]uint64
}

func (f *fakeFunder) Deposit(_ context.Context, walletId, assetClass string, amount uint64, reference string) (string, error) {
	f.deposits[walletId+"/"+assetClass] += amount
	return reference, nil
}

func (f *fakeFunder) GetWalletBalances(_ context.Context, walletId string) ([]models.AccountBalance, error) {
	var out []models.AccountBalance
	for k, v := range f.deposits {
		if len(k) > len(walletId) && k[:len(walletId)] == walletId {
			out = append(out, models.AccountBalance{Account: "wallet:" + walletId, Asset: "native", Balance: decimal.NewFromInt(int64(v))})
		}
	}
	return out, nil
}

type failingPinger struct{ err error }

func (p failingPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	t          *testing.T
	handler    http.Handler
	transferer *recordingTransferer
	owners     []string
	outsider   string
}

func newTestServer(t *testing.T, funder Funder) *testServer {
	t.Helper()
	ts := &testServer{t: t, transferer: &recordingTransferer{}}
	for i := 0; i < 3; i++ {
		ts.owners = append(ts.owners, solana.NewWallet().PublicKey().String())
	}
	ts.outsider = solana.NewWallet().PublicKey().String()

	ctl := multisig.NewController(memstore.NewService(), ts.transferer,
		multisig.WithIdentityValidator(auth.ValidateIdentity))
	ts.handler = NewRouter(NewWalletService(ctl, funder, nil), auth.HeaderAuthenticator{})
	return ts
}

func (ts *testServer) do(method, path, signer string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if signer != "" {
		req.Header.Set(auth.HeaderSigner, signer)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createWallet(threshold int) models.Wallet {
	rec := ts.do(http.MethodPost, "/wallets", ts.owners[0], initializeRequest{
		Name: "treasury", Owners: ts.owners, Threshold: threshold,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[models.Wallet](ts.t, rec)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ctl := multisig.NewController(memstore.NewService(), &recordingTransferer{})
	h := NewRouter(NewWalletService(ctl, nil, failingPinger{err: errors.New("down")}), auth.HeaderAuthenticator{})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWalletsRequireAuthentication(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/wallets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProposeConfirmExecuteFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.createWallet(2)
	dest := solana.NewWallet().PublicKey().String()

	rec := ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions", ts.owners[0], proposeRequest{Destination: dest, Amount: 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeBody[models.Transaction](t, rec)
	assert.Equal(t, uint64(1), tx.Seq)

	base := "/wallets/" + w.Id + "/transactions/" + tx.Id

	rec = ts.do(http.MethodPost, base+"/execute", ts.owners[0], nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "InsufficientConfirmations", errBody.Error)
	assert.True(t, errBody.Retriable)

	rec = ts.do(http.MethodPost, base+"/confirm", ts.owners[1], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirm := decodeBody[confirmResponse](t, rec)
	assert.Equal(t, 2, confirm.Confirmations)
	assert.Equal(t, 2, confirm.Required)
	assert.False(t, confirm.Executed)

	rec = ts.do(http.MethodGet, base, ts.outsider, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[multisig.TransactionStatus](t, rec)
	assert.True(t, status.ReadyToExecute)

	rec = ts.do(http.MethodPost, base+"/execute", ts.owners[2], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	executed := decodeBody[models.Transaction](t, rec)
	assert.True(t, executed.IsExecuted)
	require.Len(t, ts.transferer.requests, 1)
	assert.Equal(t, dest, ts.transferer.requests[0].Destination)

	rec = ts.do(http.MethodPost, base+"/execute", ts.owners[2], nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TransactionExecuted", decodeBody[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodGet, "/wallets/"+w.Id+"/events", ts.owners[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeBody[[]models.Event](t, rec)
	require.Len(t, events, 4)
	assert.Equal(t, multisig.EventTransactionExecuted, events[3].Type)
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.createWallet(1)
	dest := solana.NewWallet().PublicKey().String()

	rec := ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions", ts.outsider, proposeRequest{Destination: dest, Amount: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NotOwner", decodeBody[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodGet, "/wallets/missing", ts.owners[0], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions", ts.owners[0], proposeRequest{Destination: "not a key", Amount: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/wallets/"+w.Id+"/threshold", ts.owners[0], thresholdRequest{Threshold: 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidThreshold", decodeBody[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/pause", ts.owners[1], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions", ts.owners[0], proposeRequest{Destination: dest, Amount: 1})
	assert.Equal(t, http.StatusLocked, rec.Code)
	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/unpause", ts.owners[1], nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ts.transferer.err = errors.New("backend down")
	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions", ts.owners[0], proposeRequest{Destination: dest, Amount: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := decodeBody[models.Transaction](t, rec)
	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/transactions/"+tx.Id+"/execute", ts.owners[0], nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "TransferFailed", decodeBody[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodPost, "/wallets/"+w.Id+"/owners", ts.owners[0], map[string]any{"owner": ts.outsider, "extra": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerAndLimitAdministration(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.createWallet(2)
	path := "/wallets/" + w.Id

	rec := ts.do(http.MethodPost, path+"/owners", ts.owners[0], ownerRequest{Owner: ts.outsider})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[models.Wallet](t, rec).Owners, 4)

	rec = ts.do(http.MethodPost, path+"/owners", ts.owners[0], ownerRequest{Owner: ts.outsider})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodDelete, path+"/owners/"+ts.outsider, ts.owners[1], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[models.Wallet](t, rec).Owners, 3)

	rec = ts.do(http.MethodGet, path+"/limits", ts.owners[0], nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPut, path+"/limits", ts.owners[0], limitRequest{DailyLimit: 100, MonthlyLimit: 1000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, path+"/limits", ts.owners[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limit := decodeBody[models.SpendingLimit](t, rec)
	assert.Equal(t, uint64(100), limit.DailyLimit)

	rec = ts.do(http.MethodPost, path+"/transactions", ts.owners[0], proposeRequest{
		Destination: solana.NewWallet().PublicKey().String(), Amount: 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeBody[models.Transaction](t, rec).RequiresAllConfirmations)

	rec = ts.do(http.MethodGet, path+"/transactions?limit=10", ts.owners[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Transaction](t, rec), 1)

	rec = ts.do(http.MethodGet, path+"/transactions?limit=-1", ts.owners[0], nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositsAndBalances(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.createWallet(1)

	rec := ts.do(http.MethodPost, "/wallets/"+w.Id+"/deposits", ts.owners[0], depositRequest{Amount: 10})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	funded := newTestServer(t, &fakeFunder{deposits: map[string]uint64{}})
	w = funded.createWallet(1)

	rec = funded.do(http.MethodPost, "/wallets/"+w.Id+"/deposits", funded.owners[0], depositRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = funded.do(http.MethodPost, "/wallets/"+w.Id+"/deposits", funded.owners[0], depositRequest{Amount: 250})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[DepositResult](t, rec)
	assert.NotEmpty(t, res.Reference)

	rec = funded.do(http.MethodGet, "/wallets/"+w.Id+"/balances", funded.owners[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decodeBody[[]models.AccountBalance](t, rec)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(250)))

	rec = funded.do(http.MethodPost, "/wallets/missing/deposits", funded.owners[0], depositRequest{Amount: 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
