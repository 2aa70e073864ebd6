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

package multisig

import (
	"encoding/json"
	"time"

	"multisig-wallet-go/internal/models"

	"github.com/google/uuid"
)

const (
	EventWalletInitialized    = "WalletInitialized"
	EventTransactionCreated   = "TransactionCreated"
	EventTransactionConfirmed = "TransactionConfirmed"
	EventConfirmationRevoked  = "ConfirmationRevoked"
	EventTransactionExecuted  = "TransactionExecuted"
	EventOwnerAdded           = "OwnerAdded"
	EventOwnerRemoved         = "OwnerRemoved"
	EventThresholdChanged     = "ThresholdChanged"
	EventSpendingLimitSet     = "SpendingLimitSet"
	EventWalletPaused         = "WalletPaused"
	EventWalletUnpaused       = "WalletUnpaused"
)

type WalletInitializedPayload struct {
	Name            string   `json:"name"`
	Owners          []string `json:"owners"`
	Threshold       int      `json:"threshold"`
	TimeLockSeconds int64    `json:"time_lock_seconds"`
}

type TransactionCreatedPayload struct {
	Seq                      uint64 `json:"seq"`
	Destination              string `json:"destination"`
	Amount                   uint64 `json:"amount"`
	AssetClass               string `json:"asset_class,omitempty"`
	RequiresAllConfirmations bool   `json:"requires_all_confirmations"`
}

type ConfirmationPayload struct {
	Confirmations int `json:"confirmations"`
	Required      int `json:"required"`
}

type TransactionExecutedPayload struct {
	Destination   string `json:"destination"`
	Amount        uint64 `json:"amount"`
	AssetClass    string `json:"asset_class,omitempty"`
	TransferRef   string `json:"transfer_ref,omitempty"`
	LimitOverride bool   `json:"limit_override,omitempty"`
}

type OwnerChangedPayload struct {
	Owner     string `json:"owner"`
	Owners    int    `json:"owners"`
	Threshold int    `json:"threshold"`
}

type ThresholdChangedPayload struct {
	Previous  int `json:"previous"`
	Threshold int `json:"threshold"`
}

type SpendingLimitSetPayload struct {
	AssetClass   string `json:"asset_class,omitempty"`
	DailyLimit   uint64 `json:"daily_limit"`
	MonthlyLimit uint64 `json:"monthly_limit"`
}

// newEvent builds an event for the wallet; the store assigns Seq on append.
func newEvent(walletId, transactionId, eventType, actor string, payload any, now time.Time) (*models.Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &models.Event{
		Id:            uuid.New().String(),
		WalletId:      walletId,
		TransactionId: transactionId,
		Type:          eventType,
		Actor:         actor,
		Payload:       raw,
		CreatedAt:     now,
	}, nil
}
