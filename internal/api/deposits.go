/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"
	"fmt"

	"multisig-wallet-go/internal/multisig"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrFundingUnsupported = errors.New("transfer backend does not support deposits")

// DepositResult reports the outcome of crediting a wallet account.
type DepositResult struct {
	WalletId   string `json:"wallet_id"`
	AssetClass string `json:"asset_class"`
	Amount     uint64 `json:"amount"`
	Reference  string `json:"reference"`
}

// ProcessDeposit credits a wallet's account on the balance backend. The
// reference makes the deposit idempotent; one is generated when empty.
func (s *WalletService) ProcessDeposit(ctx context.Context, walletId, assetClass string, amount uint64, reference string) (*DepositResult, error) {
	if s.funder == nil {
		return nil, ErrFundingUnsupported
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", multisig.ErrInvalidInput)
	}
	if _, err := s.controller.GetWallet(ctx, walletId); err != nil {
		return nil, err
	}
	if reference == "" {
		reference = uuid.New().String()
	}

	zap.L().Info("Processing deposit",
		zap.String("wallet_id", walletId),
		zap.String("asset_class", assetClass),
		zap.Uint64("amount", amount),
		zap.String("reference", reference))

	if _, err := s.funder.Deposit(ctx, walletId, assetClass, amount, reference); err != nil {
		zap.L().Error("Deposit processing failed",
			zap.String("wallet_id", walletId),
			zap.String("reference", reference),
			zap.Error(err))
		return nil, fmt.Errorf("deposit failed: %w", err)
	}

	return &DepositResult{
		WalletId:   walletId,
		AssetClass: assetClass,
		Amount:     amount,
		Reference:  reference,
	}, nil
}
