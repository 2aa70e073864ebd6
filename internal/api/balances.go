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
	"fmt"

	"multisig-wallet-go/internal/models"

	"go.uber.org/zap"
)

// GetWalletBalances returns all non-zero balances held by a wallet
func (s *WalletService) GetWalletBalances(ctx context.Context, walletId string) ([]models.AccountBalance, error) {
	if s.funder == nil {
		return nil, ErrFundingUnsupported
	}
	if _, err := s.controller.GetWallet(ctx, walletId); err != nil {
		return nil, err
	}

	balances, err := s.funder.GetWalletBalances(ctx, walletId)
	if err != nil {
		zap.L().Error("Failed to get wallet balances", zap.String("wallet_id", walletId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balances: %w", err)
	}
	if balances == nil {
		balances = []models.AccountBalance{}
	}
	return balances, nil
}
