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

	"go.uber.org/zap"
)

func main() {
	walletId := flag.String("wallet", "", "Wallet ID")
	txId := flag.String("tx", "", "Transaction ID")
	action := flag.String("action", "confirm", "One of: confirm, revoke, execute")
	as := flag.String("as", "", "Public key of the owner")
	keypair := flag.String("keypair", "", "Path to a solana-keygen keypair identifying the owner")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	owner, err := common.ResolveActor(*as, *keypair)
	if err != nil {
		zap.L().Fatal("Invalid identity", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	ctl := services.Controller
	var tx *models.Transaction

	switch *action {
	case "confirm":
		res, err := ctl.ConfirmTransaction(ctx, *walletId, *txId, owner)
		if err != nil {
			zap.L().Fatal("Failed to confirm transaction", zap.Error(err))
		}
		tx = res.Transaction
		fmt.Printf("Confirmations: %d/%d\n", res.Confirmations, res.Required)
		if res.ExecuteErr != nil {
			fmt.Printf("Automatic execution did not complete: %v\n", res.ExecuteErr)
		}
	case "revoke":
		tx, err = ctl.RevokeConfirmation(ctx, *walletId, *txId, owner)
		if err != nil {
			zap.L().Fatal("Failed to revoke confirmation", zap.Error(err))
		}
	case "execute":
		tx, err = ctl.ExecuteTransaction(ctx, *walletId, *txId, owner)
		if err != nil {
			zap.L().Fatal("Failed to execute transaction", zap.Error(err))
		}
	default:
		zap.L().Fatal("Unknown action", zap.String("action", *action))
	}

	common.PrintHeader("TRANSACTION "+tx.Id, common.DefaultWidth)
	fmt.Printf("Amount:    %s -> %s\n", common.FormatAmount(services.Assets, tx.AssetClass, tx.Amount), tx.Destination)
	fmt.Printf("Confirmed: %d owner(s)\n", len(tx.Confirmations))
	if tx.IsExecuted {
		fmt.Printf("Executed by %s (transfer ref %s)\n", tx.Executor, tx.TransferRef)
	} else {
		fmt.Println("Pending execution")
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
