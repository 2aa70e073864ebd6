package formance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds in formance ledger")
	ErrUnknownAsset      = errors.New("asset class is not configured")
)

var _ multisig.Transferer = (*Service)(nil)

// Service moves wallet funds on a Formance Stack ledger. Each wallet owns the
// account wallets:{walletId}; transfers post to external:{destination}.
type Service struct {
	client *v3.Formance
	ledger string
	assets *models.AssetRegistry
}

// NewService connects to the stack and creates the ledger if it doesn't already exist.
func NewService(ctx context.Context, cfg models.TransferConfig, assets *models.AssetRegistry) (*Service, error) {
	if cfg.FormanceServerURL == "" || cfg.FormanceClientID == "" || cfg.FormanceClientSecret == "" {
		return nil, fmt.Errorf("formance config requires FORMANCE_SERVER_URL, FORMANCE_CLIENT_ID and FORMANCE_CLIENT_SECRET")
	}
	ledger := cfg.FormanceLedger
	if ledger == "" {
		ledger = "multisig"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("server_url", cfg.FormanceServerURL),
		zap.String("ledger", ledger))

	client := v3.New(
		v3.WithServerURL(cfg.FormanceServerURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.FormanceClientID),
			ClientSecret: v3.Pointer(cfg.FormanceClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: ledger, assets: assets}
	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance service initialized", zap.String("ledger", ledger))
	return svc, nil
}

// ensureLedger creates the ledger if it does not already exist.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "multisig-wallet",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close is a no-op for the Formance backend (HTTP client needs no teardown).
func (s *Service) Close() {}

// ---------- helpers ----------

func walletAddress(walletId string) string {
	return "wallets:" + walletId
}

// formanceAsset returns the Formance UMN notation, e.g. "USDC/6".
func formanceAsset(a models.AssetClass) string {
	return fmt.Sprintf("%s/%d", a.Symbol, a.Precision)
}

// assetSymbol extracts the symbol from a Formance asset like "USDC/6".
func assetSymbol(fAsset string) string {
	for i, c := range fAsset {
		if c == '/' {
			return fAsset[:i]
		}
	}
	return fAsset
}

// assetPrecision extracts the precision from a Formance asset, 0 when absent.
func assetPrecision(fAsset string) int {
	for i, c := range fAsset {
		if c == '/' {
			p, err := strconv.Atoi(fAsset[i+1:])
			if err != nil {
				return 0
			}
			return p
		}
	}
	return 0
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest-unit to a human-readable decimal.
func bigIntToDecimal(raw *big.Int, precision int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(precision))
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func isInsufficientFundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumInsufficientFund
}

func strPtr(s string) *string { return &s }
