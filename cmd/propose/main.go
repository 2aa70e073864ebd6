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
	"encoding/hex"
	"flag"
	"fmt"
	"time"

	"multisig-wallet-go/internal/common"
	"multisig-wallet-go/internal/config"
	"multisig-wallet-go/internal/multisig"

	"go.uber.org/zap"
)

func main() {
	walletId := flag.String("wallet", "", "Wallet ID")
	to := flag.String("to", "", "Destination address (base58)")
	amount := flag.Uint64("amount", 0, "Amount in smallest units")
	asset := flag.String("asset", "", "Token mint; empty for the native asset")
	payloadHex := flag.String("payload", "", "Optional hex-encoded payload (max 1024 bytes)")
	as := flag.String("as", "", "Public key of the proposer")
	keypair := flag.String("keypair", "", "Path to a solana-keygen keypair identifying the proposer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	proposer, err := common.ResolveActor(*as, *keypair)
	if err != nil {
		zap.L().Fatal("Invalid identity", zap.Error(err))
	}

	payload, err := hex.DecodeString(*payloadHex)
	if err != nil {
		zap.L().Fatal("Payload must be hex encoded", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	tx, err := services.Controller.ProposeTransaction(ctx, *walletId, proposer, multisig.Proposal{
		Destination: *to,
		Amount:      *amount,
		AssetClass:  *asset,
		Payload:     payload,
	})
	if err != nil {
		zap.L().Fatal("Failed to propose transaction", zap.Error(err))
	}

	common.PrintHeader("TRANSACTION PROPOSED", common.DefaultWidth)
	fmt.Printf("Transaction: %s (#%d)\n", tx.Id, tx.Seq)
	fmt.Printf("Destination: %s\n", tx.Destination)
	fmt.Printf("Amount:      %s\n", common.FormatAmount(services.Assets, tx.AssetClass, tx.Amount))
	if tx.RequiresAllConfirmations {
		fmt.Println("Over spending limit: every owner must confirm")
	}
	common.PrintFooter("Confirm with: go run ./cmd/approve -wallet "+tx.WalletId+" -tx "+tx.Id, common.DefaultWidth)
}
