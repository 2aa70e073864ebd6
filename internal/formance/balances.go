package formance

import (
	"context"
	"fmt"
	"time"

	"multisig-wallet-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"go.uber.org/zap"
)

// GetWalletBalances returns all non-zero balances held by a wallet account.
func (s *Service) GetWalletBalances(ctx context.Context, walletId string) ([]models.AccountBalance, error) {
	zap.L().Debug("Getting wallet balances from Formance", zap.String("wallet_id", walletId))

	addr := walletAddress(walletId)
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: addr,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account volumes: %w", err)
	}

	account := resp.V2AccountResponse.Data
	updatedAt := time.Now().UTC()
	if account.UpdatedAt != nil {
		updatedAt = *account.UpdatedAt
	}

	var balances []models.AccountBalance
	for fAsset := range account.Volumes {
		bal := volumeBalance(account.Volumes, fAsset)
		if bal == nil || bal.Sign() == 0 {
			continue
		}
		balances = append(balances, models.AccountBalance{
			Id:        addr,
			Account:   addr,
			Asset:     assetSymbol(fAsset),
			Balance:   bigIntToDecimal(bal, assetPrecision(fAsset)),
			UpdatedAt: updatedAt,
		})
	}
	return balances, nil
}
