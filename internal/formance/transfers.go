package formance

import (
	"context"
	"fmt"
	"strconv"

	"multisig-wallet-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Numscript templates. Metadata is set inside the script so each Formance
// transaction is self-describing.

const numscriptTransfer = `vars {
  asset $asset
  number $amount
  account $wallet
  account $destination
  string $transaction_id
  string $amount_human
}

send [$asset $amount] (
  source = @wallets:$wallet
  destination = @external:$destination
)

set_tx_meta("event_type", "multisig_transfer")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("amount_human", $amount_human)
`

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $wallet
  string $amount_human
}

send [$asset $amount] (
  source = @world
  destination = @wallets:$wallet
)

set_tx_meta("event_type", "deposit")
set_tx_meta("amount_human", $amount_human)
`

// Ledger references are namespaced by movement type.
func transferReference(transactionId string) string {
	return "transfer:" + transactionId
}

func depositReference(reference string) string {
	return "deposit:" + reference
}

// Transfer posts the movement under transferReference(transaction id). A
// CONFLICT means this transaction's movement was already posted.
func (s *Service) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferReceipt, error) {
	asset, ok := s.assets.Lookup(req.AssetClass)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, req.AssetClass)
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(transferReference(req.TransactionId)),
			Script: &shared.V2PostTransactionScript{
				Plain: numscriptTransfer,
				Vars: map[string]string{
					"asset":          formanceAsset(asset),
					"amount":         strconv.FormatUint(req.Amount, 10),
					"wallet":         req.WalletId,
					"destination":    req.Destination,
					"transaction_id": req.TransactionId,
					"amount_human":   asset.Human(req.Amount).String(),
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Warn("Transfer already posted to Formance", zap.String("transaction_id", req.TransactionId))
			return &models.TransferReceipt{Backend: "formance", Reference: transferReference(req.TransactionId)}, nil
		}
		if isInsufficientFundError(err) {
			return nil, fmt.Errorf("%w: wallet %s", ErrInsufficientFunds, req.WalletId)
		}
		return nil, fmt.Errorf("error posting transfer: %w", err)
	}

	zap.L().Info("Transfer posted to Formance",
		zap.String("wallet_id", req.WalletId),
		zap.String("transaction_id", req.TransactionId),
		zap.String("asset", asset.Symbol),
		zap.String("amount", asset.Human(req.Amount).String()))
	return &models.TransferReceipt{Backend: "formance", Reference: transferReference(req.TransactionId)}, nil
}

// Deposit funds a wallet account from @world.
func (s *Service) Deposit(ctx context.Context, walletId, assetClass string, amount uint64, reference string) (string, error) {
	asset, ok := s.assets.Lookup(assetClass)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAsset, assetClass)
	}
	post := shared.V2PostTransaction{
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptDeposit,
			Vars: map[string]string{
				"asset":        formanceAsset(asset),
				"amount":       strconv.FormatUint(amount, 10),
				"wallet":       walletId,
				"amount_human": asset.Human(amount).String(),
			},
		},
	}
	if reference != "" {
		post.Reference = strPtr(depositReference(reference))
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: post,
	})
	if err != nil && !isConflictError(err) {
		return "", fmt.Errorf("error posting deposit: %w", err)
	}

	zap.L().Info("Deposit posted to Formance",
		zap.String("wallet_id", walletId),
		zap.String("asset", asset.Symbol),
		zap.String("amount", asset.Human(amount).String()))
	return reference, nil
}
