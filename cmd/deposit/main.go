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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"multisig-wallet-go/internal/common"
	"multisig-wallet-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	walletId := flag.String("wallet", "", "Wallet ID")
	asset := flag.String("asset", "", "Token mint; empty for the native asset")
	amount := flag.Uint64("amount", 0, "Amount in smallest units")
	reference := flag.String("ref", "", "Idempotency reference (generated when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.WalletService.ProcessDeposit(ctx, *walletId, *asset, *amount, *reference)
	if err != nil {
		zap.L().Fatal("Deposit failed", zap.Error(err))
	}

	balances, err := services.WalletService.GetWalletBalances(ctx, *walletId)
	if err != nil {
		zap.L().Fatal("Failed to read balances", zap.Error(err))
	}

	common.PrintHeader("DEPOSIT "+result.Reference, common.DefaultWidth)
	fmt.Printf("Credited %s to wallet %s\n", common.FormatAmount(services.Assets, result.AssetClass, result.Amount), result.WalletId)
	common.PrintSection(fmt.Sprintf("Balances (%d)", len(balances)))
	for i, b := range balances {
		fmt.Printf("%s %-15s: %20s (v%d, updated: %s)\n",
			common.BoxPrefix(i == len(balances)-1), b.Asset, b.Balance.String(), b.Version,
			b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
