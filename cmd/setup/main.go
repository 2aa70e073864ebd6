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
	"multisig-wallet-go/internal/multisig"

	"go.uber.org/zap"
)

func parseOwners(list string) []string {
	var owners []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			owners = append(owners, o)
		}
	}
	return owners
}

func main() {
	name := flag.String("name", "", "Wallet name")
	ownersFlag := flag.String("owners", "", "Comma-separated owner public keys (base58)")
	threshold := flag.Int("threshold", 1, "Confirmations required to execute")
	timeLock := flag.Duration("timelock", 0, "Delay between proposal and execution, e.g. 24h")
	as := flag.String("as", "", "Public key of the caller")
	keypair := flag.String("keypair", "", "Path to a solana-keygen keypair identifying the caller")
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

	wallet, err := services.Controller.InitializeWallet(ctx, actor, multisig.InitializeParams{
		Name:      *name,
		Owners:    parseOwners(*ownersFlag),
		Threshold: *threshold,
		TimeLock:  *timeLock,
	})
	if err != nil {
		zap.L().Fatal("Failed to initialize wallet", zap.Error(err))
	}

	common.PrintHeader("MULTISIG WALLET CREATED", common.DefaultWidth)
	fmt.Printf("ID:        %s\n", wallet.Id)
	fmt.Printf("Name:      %s\n", wallet.Name)
	common.PrintWallet(wallet)
	common.PrintFooter("Propose transfers with: go run ./cmd/propose -wallet "+wallet.Id, common.DefaultWidth)
}
