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
	"multisig-wallet-go/internal/multisig"
)

// Funder credits wallet accounts and reports their balances. Only backends
// that keep balances themselves implement it.
type Funder interface {
	Deposit(ctx context.Context, walletId, assetClass string, amount uint64, reference string) (string, error)
	GetWalletBalances(ctx context.Context, walletId string) ([]models.AccountBalance, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// WalletService fronts the controller and the balance backend for HTTP
// handlers and CLIs.
type WalletService struct {
	controller *multisig.Controller
	funder     Funder
	db         Pinger
}

func NewWalletService(controller *multisig.Controller, funder Funder, db Pinger) *WalletService {
	return &WalletService{
		controller: controller,
		funder:     funder,
		db:         db,
	}
}

func (s *WalletService) Controller() *multisig.Controller {
	return s.controller
}

func (s *WalletService) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
