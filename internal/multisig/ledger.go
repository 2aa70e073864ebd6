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
	"fmt"
	"slices"
	"time"

	"multisig-wallet-go/internal/models"

	"github.com/google/uuid"
)

// MaxPayloadSize bounds the opaque payload carried by a proposal.
const MaxPayloadSize = 1024

// Proposal is the caller-supplied part of a new transaction.
type Proposal struct {
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
	AssetClass  string `json:"asset_class,omitempty"`
	Payload     []byte `json:"payload,omitempty"`
}

func (p Proposal) validate() error {
	if p.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	if len(p.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: payload is %d bytes, limit is %d", ErrInvalidInput, len(p.Payload), MaxPayloadSize)
	}
	return nil
}

// NewTransaction creates a proposal with the proposer as its first
// confirmation and advances the wallet nonce. An amount outside the advisory
// spending check marks the transaction as needing every owner.
func NewTransaction(w *models.Wallet, proposer string, p Proposal, limit *models.SpendingLimit, now time.Time) (*models.Transaction, error) {
	if w.IsPaused {
		return nil, ErrWalletPaused
	}
	if err := RequireOwner(w, proposer); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	w.Nonce++
	return &models.Transaction{
		Id:                       uuid.New().String(),
		WalletId:                 w.Id,
		Seq:                      w.Nonce,
		Destination:              p.Destination,
		Amount:                   p.Amount,
		AssetClass:               p.AssetClass,
		Payload:                  slices.Clone(p.Payload),
		Proposer:                 proposer,
		Confirmations:            []string{proposer},
		RequiresAllConfirmations: !WithinLimit(limit, p.Amount, now),
		CreatedAt:                now,
	}, nil
}

func checkMutable(w *models.Wallet, tx *models.Transaction, owner string) error {
	if w.IsPaused {
		return ErrWalletPaused
	}
	if err := RequireOwner(w, owner); err != nil {
		return err
	}
	if tx.IsExecuted {
		return fmt.Errorf("%w: %s", ErrTransactionExecuted, tx.Id)
	}
	return nil
}

// Confirm records owner's approval and returns the number of confirmations
// held by current owners.
func Confirm(w *models.Wallet, tx *models.Transaction, owner string) (int, error) {
	if err := checkMutable(w, tx, owner); err != nil {
		return 0, err
	}
	if slices.Contains(tx.Confirmations, owner) {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyConfirmed, owner)
	}
	tx.Confirmations = append(tx.Confirmations, owner)
	return CountConfirmations(w, tx), nil
}

// Revoke withdraws owner's approval. The proposer may revoke too.
func Revoke(w *models.Wallet, tx *models.Transaction, owner string) error {
	if err := checkMutable(w, tx, owner); err != nil {
		return err
	}
	idx := slices.Index(tx.Confirmations, owner)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotConfirmed, owner)
	}
	tx.Confirmations = slices.Delete(tx.Confirmations, idx, idx+1)
	return nil
}

func RequiredConfirmations(w *models.Wallet, tx *models.Transaction) int {
	if tx.RequiresAllConfirmations {
		return len(w.Owners)
	}
	return w.Threshold
}

// CountConfirmations ignores approvals from identities that are no longer
// owners.
func CountConfirmations(w *models.Wallet, tx *models.Transaction) int {
	n := 0
	for _, c := range tx.Confirmations {
		if IsOwner(w, c) {
			n++
		}
	}
	return n
}

func CanExecute(w *models.Wallet, tx *models.Transaction) bool {
	return CountConfirmations(w, tx) >= RequiredConfirmations(w, tx)
}

// unanimous reports whether every current owner has confirmed.
func unanimous(w *models.Wallet, tx *models.Transaction) bool {
	return CountConfirmations(w, tx) == len(w.Owners)
}

// TimeLockExpiry is the first instant at which tx may execute.
func TimeLockExpiry(w *models.Wallet, tx *models.Transaction) time.Time {
	return tx.CreatedAt.Add(w.TimeLock())
}

// CheckExecute runs every execution precondition without mutating anything.
func CheckExecute(w *models.Wallet, tx *models.Transaction, executor string, now time.Time) error {
	if err := checkMutable(w, tx, executor); err != nil {
		return err
	}
	if !CanExecute(w, tx) {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientConfirmations,
			CountConfirmations(w, tx), RequiredConfirmations(w, tx))
	}
	if expiry := TimeLockExpiry(w, tx); now.Before(expiry) {
		return fmt.Errorf("%w: executable after %s", ErrTimeLockNotExpired, expiry.UTC().Format(time.RFC3339))
	}
	return nil
}

// MarkExecuted is the only transition out of the proposed state.
func MarkExecuted(tx *models.Transaction, executor, transferRef string, now time.Time) {
	tx.IsExecuted = true
	tx.Executor = executor
	tx.TransferRef = transferRef
	at := now
	tx.ExecutedAt = &at
}
