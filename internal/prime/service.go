package prime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

var (
	ErrUnknownAsset   = errors.New("asset class is not configured")
	ErrNoSourceWallet = errors.New("asset class has no prime_wallet_id")
)

var _ multisig.Transferer = (*Service)(nil)

type withdrawalCreator interface {
	CreateWalletWithdrawal(ctx context.Context, request *transactions.CreateWalletWithdrawalRequest) (*transactions.CreateWalletWithdrawalResponse, error)
}

// Service executes authorized transfers as Prime wallet withdrawals. The
// multisig transaction id is the withdrawal idempotency key, so a retried
// execution never creates a second withdrawal.
type Service struct {
	client        client.RestClient
	portfoliosSvc portfolios.PortfoliosService
	withdrawals   withdrawalCreator
	portfolioId   string
	assets        *models.AssetRegistry
}

type Portfolio struct {
	Id   string
	Name string
}

func NewService(ctx context.Context, cfg models.TransferConfig, assets *models.AssetRegistry) (*Service, error) {
	if cfg.PrimeAccessKey == "" || cfg.PrimePassphrase == "" || cfg.PrimeSigningKey == "" {
		return nil, fmt.Errorf("prime config requires PRIME_ACCESS_KEY, PRIME_PASSPHRASE and PRIME_SIGNING_KEY")
	}
	creds := &credentials.Credentials{
		AccessKey:  cfg.PrimeAccessKey,
		Passphrase: cfg.PrimePassphrase,
		SigningKey: cfg.PrimeSigningKey,
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(creds, httpClient)

	s := &Service{
		client:        restClient,
		portfoliosSvc: portfolios.NewPortfoliosService(restClient),
		withdrawals:   transactions.NewTransactionsService(restClient),
		portfolioId:   cfg.PrimePortfolioId,
		assets:        assets,
	}

	if s.portfolioId == "" {
		portfolio, err := s.FindDefaultPortfolio(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve portfolio: %w", err)
		}
		s.portfolioId = portfolio.Id
	}

	zap.L().Info("Prime service initialized", zap.String("portfolio_id", s.portfolioId))
	return s, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

// Close is a no-op; the REST client holds no long-lived resources.
func (s *Service) Close() {}

func (s *Service) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	request := &portfolios.ListPortfoliosRequest{}

	response, err := s.portfoliosSvc.ListPortfolios(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolios: %w", err)
	}

	portfolioList := make([]Portfolio, len(response.Portfolios))
	for i, p := range response.Portfolios {
		portfolioList[i] = Portfolio{
			Id:   p.Id,
			Name: p.Name,
		}
	}

	return portfolioList, nil
}

func (s *Service) FindDefaultPortfolio(ctx context.Context) (*Portfolio, error) {
	portfolioList, err := s.ListPortfolios(ctx)
	if err != nil {
		return nil, err
	}

	for _, portfolio := range portfolioList {
		if portfolio.Name == "Default Portfolio" {
			return &portfolio, nil
		}
	}

	return nil, fmt.Errorf("default portfolio not found")
}

// Transfer submits a blockchain withdrawal from the Prime wallet configured
// for the asset class.
func (s *Service) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error) {
	request, err := s.withdrawalRequest(req)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Creating withdrawal via Prime API",
		zap.String("portfolio_id", request.PortfolioId),
		zap.String("source_wallet_id", request.SourceWalletId),
		zap.String("symbol", request.Symbol),
		zap.String("amount", request.Amount),
		zap.String("destination", req.Destination),
		zap.String("idempotency_key", request.IdempotencyKey))

	response, err := s.withdrawals.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("transaction_id", req.TransactionId),
			zap.String("amount", request.Amount),
			zap.String("symbol", request.Symbol),
			zap.Error(err))
		return nil, fmt.Errorf("unable to create withdrawal: %w", err)
	}

	zap.L().Info("Withdrawal created successfully",
		zap.String("activity_id", response.ActivityId),
		zap.String("transaction_id", req.TransactionId))

	return &models.TransferReceipt{Backend: "prime", Reference: response.ActivityId}, nil
}

func (s *Service) withdrawalRequest(req models.TransferRequest) (*transactions.CreateWalletWithdrawalRequest, error) {
	asset, ok := s.assets.Lookup(req.AssetClass)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, req.AssetClass)
	}
	if asset.PrimeWalletId == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceWallet, asset.Symbol)
	}

	blockchainAddr := &model.BlockchainAddress{
		Address: req.Destination,
	}
	// Network is "<id>-<type>", e.g. solana-mainnet
	if id, typ, found := strings.Cut(asset.Network, "-"); found {
		blockchainAddr.Network = &model.NetworkDetails{
			Id:   id,
			Type: typ,
		}
	}

	return &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:       s.portfolioId,
		SourceWalletId:    asset.PrimeWalletId,
		Amount:            asset.Human(req.Amount).String(),
		IdempotencyKey:    req.TransactionId,
		Symbol:            asset.Symbol,
		DestinationType:   "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: blockchainAddr,
	}, nil
}
