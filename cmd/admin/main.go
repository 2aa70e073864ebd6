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
	"strings"
	"time"

	"multisig-wallet-go/internal/common"
	"multisig-wallet-go/internal/config"
	"multisig-wallet-go/internal/models"

	"go.uber.org/zap"
)

func printWallet(w *models.Wallet) {
	common.PrintHeader("WALLET "+w.Id, common.DefaultWidth)
	common.PrintWallet(w)
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	walletId := flag.String("wallet", "", "Wallet ID")
	action := flag.String("action", "", "One of: add-owner, remove-owner, threshold, limit, pause, unpause")
	owner := flag.String("owner", "", "Owner public key for add-owner/remove-owner")
	threshold := flag.Int("threshold", 0, "New threshold")
	asset := flag.String("asset", "", "Token mint for limit; empty for the native asset")
	daily := flag.Uint64("daily", 0, "Daily limit in smallest units (0 = uncapped)")
	monthly := flag.Uint64("monthly", 0, "Monthly limit in smallest units (0 = uncapped)")
	as := flag.String("as", "", "Public key of the acting owner")
	keypair := flag.String("keypair", "", "Path to a solana-keygen keypair identifying the acting owner")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	actor, err := common.ResolveActor(*as, *keypair)
	if err != nil {
		zap.L().Fatal("Invalid identity", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	ctl := services.Controller
	var wallet *models.Wallet

	switch strings.ToLower(*action) {
	case "add-owner":
		wallet, err = ctl.AddOwner(ctx, *walletId, actor, *owner)
	case "remove-owner":
		wallet, err = ctl.RemoveOwner(ctx, *walletId, actor, *owner)
	case "threshold":
		wallet, err = ctl.ChangeThreshold(ctx, *walletId, actor, *threshold)
	case "pause":
		wallet, err = ctl.PauseWallet(ctx, *walletId, actor)
	case "unpause":
		wallet, err = ctl.UnpauseWallet(ctx, *walletId, actor)
	case "limit":
		limit, err := ctl.SetSpendingLimit(ctx, *walletId, actor, *asset, *daily, *monthly)
		if err != nil {
			zap.L().Fatal("Failed to set spending limit", zap.Error(err))
		}
		fmt.Printf("Spending limit for %s: daily %s, monthly %s\n",
			common.AssetLabel(services.Assets, limit.AssetClass),
			common.FormatAmount(services.Assets, limit.AssetClass, limit.DailyLimit),
			common.FormatAmount(services.Assets, limit.AssetClass, limit.MonthlyLimit))
		return
	default:
		zap.L().Fatal("Unknown action", zap.String("action", *action))
	}
	if err != nil {
		zap.L().Fatal("Admin action failed", zap.String("action", *action), zap.Error(err))
	}

	printWallet(wallet)
}
