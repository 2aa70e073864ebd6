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
	"os"
	"os/signal"
	"syscall"
	"time"

	"multisig-wallet-go/internal/common"
	"multisig-wallet-go/internal/config"
	"multisig-wallet-go/internal/relay"

	"go.uber.org/zap"
)

func main() {
	after := flag.Int64("after", -1, "Start after this event sequence number (overrides RELAY_START_AFTER_SEQ)")
	quiet := flag.Bool("quiet", false, "Do not print events to the console")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting multisig event relay")

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	sinks := []relay.Sink{relay.LogSink{}}
	if !*quiet {
		sinks = append(sinks, relay.ConsoleSink{Out: os.Stdout})
	}
	if cfg.Relay.WebhookURL != "" {
		sinks = append(sinks, relay.NewWebhookSink(cfg.Relay.WebhookURL, cfg.Relay.WebhookTimeout))
		zap.L().Info("Forwarding events to webhook", zap.String("url", cfg.Relay.WebhookURL))
	}

	startAfter := cfg.Relay.StartAfterSeq
	if *after >= 0 {
		startAfter = *after
	}

	r := relay.New(relay.Config{
		Source:          dbService,
		Sinks:           sinks,
		PollingInterval: cfg.Relay.PollingInterval,
		BatchSize:       cfg.Relay.BatchSize,
		StartAfterSeq:   startAfter,
	})
	if err := r.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start relay", zap.Error(err))
	}

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping relay...")

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Relay stopped gracefully", zap.Int64("cursor", r.Cursor()))
	case <-time.After(30 * time.Second):
		zap.L().Warn("Forced shutdown after timeout")
	}
}
