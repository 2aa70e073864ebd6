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

package models

import (
	"slices"
	"time"
)

// Wallet is the multisig wallet record. The owner set, threshold, time-lock
// and pause flag are embedded here and change only through the registry.
type Wallet struct {
	Id              string    `json:"id"`
	Name            string    `json:"name"`
	Owners          []string  `json:"owners"`
	Threshold       int       `json:"threshold"`
	TimeLockSeconds int64     `json:"time_lock_seconds"`
	IsPaused        bool      `json:"is_paused"`
	Nonce           uint64    `json:"nonce"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TimeLock returns the mandatory delay between proposal and execution.
func (w *Wallet) TimeLock() time.Duration {
	return time.Duration(w.TimeLockSeconds) * time.Second
}

func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	c.Owners = slices.Clone(w.Owners)
	return &c
}

// Transaction is a proposed transfer awaiting (or past) quorum.
type Transaction struct {
	Id                       string     `json:"id"`
	WalletId                 string     `json:"wallet_id"`
	Seq                      uint64     `json:"seq"`
	Destination              string     `json:"destination"`
	Amount                   uint64     `json:"amount"`
	AssetClass               string     `json:"asset_class,omitempty"`
	Payload                  []byte     `json:"payload,omitempty"`
	Proposer                 string     `json:"proposer"`
	Confirmations            []string   `json:"confirmations"`
	IsExecuted               bool       `json:"is_executed"`
	RequiresAllConfirmations bool       `json:"requires_all_confirmations"`
	Executor                 string     `json:"executor,omitempty"`
	TransferRef              string     `json:"transfer_ref,omitempty"`
	ExecutedAt               *time.Time `json:"executed_at,omitempty"`
	Version                  int64      `json:"version"`
	CreatedAt                time.Time  `json:"created_at"`
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Payload = slices.Clone(t.Payload)
	c.Confirmations = slices.Clone(t.Confirmations)
	if t.ExecutedAt != nil {
		at := *t.ExecutedAt
		c.ExecutedAt = &at
	}
	return &c
}

// SpendingLimit caps the executed amount per asset class over rolling day and
// month periods. A zero limit means the period is not capped.
type SpendingLimit struct {
	WalletId       string    `json:"wallet_id"`
	AssetClass     string    `json:"asset_class"`
	DailyLimit     uint64    `json:"daily_limit"`
	MonthlyLimit   uint64    `json:"monthly_limit"`
	DailySpent     uint64    `json:"daily_spent"`
	MonthlySpent   uint64    `json:"monthly_spent"`
	LastResetDay   int64     `json:"last_reset_day"`
	LastResetMonth int64     `json:"last_reset_month"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (l *SpendingLimit) Clone() *SpendingLimit {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
