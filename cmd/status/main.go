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
	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"go.uber.org/zap"
)

func printTransactions(ctx context.Context, ctl *multisig.Controller, assets *models.AssetRegistry, w *models.Wallet, limit int) error {
	txs, err := ctl.ListTransactions(ctx, w.Id, limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	common.PrintSection(fmt.Sprintf("Transactions (%d most recent)", len(txs)))
	for i, tx := range txs {
		isLast := i == len(txs)-1
		status, err := ctl.GetTransaction(ctx, w.Id, tx.Id)
		if err != nil {
			return err
		}
		fmt.Printf("%s#%-4d %s %-20s -> %s (%s)\n",
			common.BoxPrefix(isLast), tx.Seq, common.ShortId(tx.Id),
			common.FormatAmount(assets, tx.AssetClass, tx.Amount), common.ShortId(tx.Destination),
			common.TransactionState(status))
	}
	return nil
}

func printLimits(ctx context.Context, ctl *multisig.Controller, assets *models.AssetRegistry, w *models.Wallet) error {
	classes := []string{""}
	for mint := range assets.Tokens {
		classes = append(classes, mint)
	}
	common.PrintSection("Spending limits")
	for _, class := range classes {
		l, err := ctl.GetSpendingLimit(ctx, w.Id, class)
		if err != nil {
			return err
		}
		if l == nil {
			continue
		}
		fmt.Printf("│  %-8s daily %s / %s, monthly %s / %s\n",
			common.AssetLabel(assets, class),
			common.FormatAmount(assets, class, l.DailySpent), common.FormatAmount(assets, class, l.DailyLimit),
			common.FormatAmount(assets, class, l.MonthlySpent), common.FormatAmount(assets, class, l.MonthlyLimit))
	}
	return nil
}

func main() {
	walletId := flag.String("wallet", "", "Wallet ID (omit to list all wallets)")
	limit := flag.Int("limit", 20, "Number of recent transactions to show")
	events := flag.Bool("events", false, "Also print the wallet's event history")
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

	ctl := services.Controller

	if *walletId == "" {
		wallets, err := ctl.ListWallets(ctx)
		if err != nil {
			zap.L().Fatal("Failed to list wallets", zap.Error(err))
		}
		common.PrintHeader(fmt.Sprintf("WALLETS (%d)", len(wallets)), common.WideWidth)
		for i, w := range wallets {
			fmt.Printf("%s%s  %-20s %d of %d  paused=%t  nonce=%d\n",
				common.BoxPrefix(i == len(wallets)-1), w.Id, w.Name, w.Threshold, len(w.Owners), w.IsPaused, w.Nonce)
		}
		common.PrintSeparator("=", common.WideWidth)
		return
	}

	w, err := ctl.GetWallet(ctx, *walletId)
	if err != nil {
		zap.L().Fatal("Failed to load wallet", zap.Error(err))
	}

	common.PrintHeader("WALLET "+w.Name+" ("+w.Id+")", common.WideWidth)
	common.PrintWallet(w)

	if err := printTransactions(ctx, ctl, services.Assets, w, *limit); err != nil {
		zap.L().Fatal("Failed to print transactions", zap.Error(err))
	}
	if err := printLimits(ctx, ctl, services.Assets, w); err != nil {
		zap.L().Fatal("Failed to print limits", zap.Error(err))
	}

	if *events {
		evts, err := ctl.ListEvents(ctx, w.Id, 0, 1000)
		if err != nil {
			zap.L().Fatal("Failed to list events", zap.Error(err))
		}
		common.PrintSection(fmt.Sprintf("Events (%d)", len(evts)))
		for i, e := range evts {
			isLast := i == len(evts)-1
			fmt.Printf("%s#%-5d %s %-22s by %s\n", common.BoxPrefix(isLast), e.Seq,
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Type, common.ShortId(e.Actor))
			if e.TransactionId != "" {
				fmt.Printf("%s   tx %s\n", common.BoxDetailPrefix(isLast), e.TransactionId)
			}
		}
	}

	common.PrintFooter("Status generated at "+time.Now().UTC().Format(time.RFC3339), common.WideWidth)
}
