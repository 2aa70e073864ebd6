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

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"go.uber.org/zap"
)

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*ConsoleSink)(nil)
	_ Sink = (*WebhookSink)(nil)
)

// LogSink writes each event to the structured audit log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, e models.Event) error {
	zap.L().Info("Wallet event",
		zap.Int64("seq", e.Seq),
		zap.String("event_id", e.Id),
		zap.String("event_type", e.Type),
		zap.String("wallet_id", e.WalletId),
		zap.String("transaction_id", e.TransactionId),
		zap.String("actor", e.Actor),
		zap.ByteString("payload", e.Payload))
	return nil
}

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// ConsoleSink prints one colored line per event.
type ConsoleSink struct {
	Out io.Writer
}

func (ConsoleSink) Name() string { return "console" }

func (c ConsoleSink) Deliver(_ context.Context, e models.Event) error {
	color := colorCyan
	switch e.Type {
	case multisig.EventTransactionExecuted:
		color = colorGreen
	case multisig.EventWalletPaused, multisig.EventOwnerRemoved, multisig.EventConfirmationRevoked:
		color = colorYellow
	}
	target := e.WalletId
	if len(target) > 8 {
		target = target[:8]
	}
	if e.TransactionId != "" {
		tx := e.TransactionId
		if len(tx) > 8 {
			tx = tx[:8]
		}
		target += "/" + tx
	}
	_, err := fmt.Fprintf(c.Out, "%s#%d %-22s %s%s %sby %s%s\n",
		color, e.Seq, e.Type, target, colorReset, colorGray, e.Actor, colorReset)
	return err
}

// WebhookSink POSTs each event as JSON. Non-2xx responses are failures.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{url: url, client: &http.Client{Timeout: timeout}}
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Deliver(ctx context.Context, e models.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", e.Id)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
