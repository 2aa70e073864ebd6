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
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest is what the controller hands to a transfer backend once a
// transaction is authorized. TransactionId doubles as the idempotency key.
type TransferRequest struct {
	WalletId      string
	TransactionId string
	Destination   string
	Amount        uint64
	AssetClass    string
	Payload       []byte
}

// TransferReceipt identifies the movement on the backend that performed it.
type TransferReceipt struct {
	Backend   string
	Reference string
}

// AccountBalance is the current balance of a subledger account for one asset.
type AccountBalance struct {
	Id             string          `db:"id" json:"id"`
	Account        string          `db:"account" json:"account"`
	Asset          string          `db:"asset" json:"asset"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	LastTransferId string          `db:"last_transfer_id" json:"last_transfer_id,omitempty"`
	Version        int64           `db:"version" json:"version"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// LedgerTransfer is an immutable entry in the subledger's transfer history.
type LedgerTransfer struct {
	Id                 string          `json:"id"`
	Reference          string          `json:"reference"`
	TransferType       string          `json:"transfer_type"`
	Source             string          `json:"source"`
	Destination        string          `json:"destination"`
	Asset              string          `json:"asset"`
	Amount             decimal.Decimal `json:"amount"`
	SourceBalanceAfter decimal.Decimal `json:"source_balance_after"`
	CreatedAt          time.Time       `json:"created_at"`
}
