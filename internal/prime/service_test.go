package prime

import (
	"context"
	"errors"
	"testing"

	"multisig-wallet-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWithdrawals struct {
	requests []*transactions.CreateWalletWithdrawalRequest
	err      error
}

func (f *fakeWithdrawals) CreateWalletWithdrawal(_ context.Context, request *transactions.CreateWalletWithdrawalRequest) (*transactions.CreateWalletWithdrawalResponse, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &transactions.CreateWalletWithdrawalResponse{ActivityId: "activity-" + request.IdempotencyKey}, nil
}

func testAssets() *models.AssetRegistry {
	return &models.AssetRegistry{
		Native: models.AssetClass{Symbol: "SOL", Precision: 9, Network: "solana-mainnet", PrimeWalletId: "pw-sol"},
		Tokens: map[string]models.AssetClass{
			"mint-usdc": {Symbol: "USDC", Mint: "mint-usdc", Precision: 6, PrimeWalletId: "pw-usdc"},
			"mint-none": {Symbol: "NONE", Mint: "mint-none", Precision: 2},
		},
	}
}

func TestTransferBuildsWithdrawal(t *testing.T) {
	fake := &fakeWithdrawals{}
	s := &Service{withdrawals: fake, portfolioId: "portfolio-1", assets: testAssets()}

	receipt, err := s.Transfer(context.Background(), models.TransferRequest{
		WalletId:      "w1",
		TransactionId: "tx-1",
		Destination:   "DestAddr",
		Amount:        1_500_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "prime", receipt.Backend)
	assert.Equal(t, "activity-tx-1", receipt.Reference)

	require.Len(t, fake.requests, 1)
	r := fake.requests[0]
	assert.Equal(t, "portfolio-1", r.PortfolioId)
	assert.Equal(t, "pw-sol", r.SourceWalletId)
	assert.Equal(t, "1.5", r.Amount)
	assert.Equal(t, "tx-1", r.IdempotencyKey)
	assert.Equal(t, "SOL", r.Symbol)
	assert.Equal(t, "DESTINATION_BLOCKCHAIN", r.DestinationType)
	require.NotNil(t, r.BlockchainAddress)
	assert.Equal(t, "DestAddr", r.BlockchainAddress.Address)
	require.NotNil(t, r.BlockchainAddress.Network)
	assert.Equal(t, "solana", r.BlockchainAddress.Network.Id)
	assert.Equal(t, "mainnet", r.BlockchainAddress.Network.Type)
}

func TestTransferTokenWithoutNetwork(t *testing.T) {
	fake := &fakeWithdrawals{}
	s := &Service{withdrawals: fake, portfolioId: "p", assets: testAssets()}

	_, err := s.Transfer(context.Background(), models.TransferRequest{
		TransactionId: "tx-2", Destination: "D", Amount: 2_500_000, AssetClass: "mint-usdc",
	})
	require.NoError(t, err)
	assert.Equal(t, "2.5", fake.requests[0].Amount)
	assert.Equal(t, "pw-usdc", fake.requests[0].SourceWalletId)
	assert.Nil(t, fake.requests[0].BlockchainAddress.Network)
}

func TestTransferRejectsUnconfiguredAssets(t *testing.T) {
	fake := &fakeWithdrawals{}
	s := &Service{withdrawals: fake, assets: testAssets()}

	_, err := s.Transfer(context.Background(), models.TransferRequest{TransactionId: "t", AssetClass: "unknown"})
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = s.Transfer(context.Background(), models.TransferRequest{TransactionId: "t", AssetClass: "mint-none"})
	assert.ErrorIs(t, err, ErrNoSourceWallet)

	assert.Empty(t, fake.requests)
}

func TestTransferPropagatesApiError(t *testing.T) {
	apiErr := errors.New("prime unavailable")
	s := &Service{withdrawals: &fakeWithdrawals{err: apiErr}, assets: testAssets()}

	_, err := s.Transfer(context.Background(), models.TransferRequest{TransactionId: "t"})
	assert.ErrorIs(t, err, apiErr)
}

func TestCreateCustomHttpClient(t *testing.T) {
	c, err := createCustomHttpClient()
	require.NoError(t, err)
	assert.NotNil(t, c.Transport)
}
