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

// MaxOwners is the largest owner set a wallet may hold.
const MaxOwners = 50

// NewWallet validates the initial owner set and returns an unpaused wallet.
func NewWallet(name string, owners []string, threshold int, timeLock time.Duration, now time.Time) (*models.Wallet, error) {
	if len(owners) == 0 || len(owners) > MaxOwners {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOwnersCount, len(owners))
	}
	seen := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		if o == "" {
			return nil, fmt.Errorf("%w: empty owner identity", ErrInvalidInput)
		}
		if _, dup := seen[o]; dup {
			return nil, fmt.Errorf("%w: %s", ErrOwnerAlreadyExists, o)
		}
		seen[o] = struct{}{}
	}
	if threshold < 1 || threshold > len(owners) {
		return nil, fmt.Errorf("%w: %d of %d owners", ErrInvalidThreshold, threshold, len(owners))
	}
	if timeLock < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeLock, timeLock)
	}

	return &models.Wallet{
		Id:              uuid.New().String(),
		Name:            name,
		Owners:          slices.Clone(owners),
		Threshold:       threshold,
		TimeLockSeconds: int64(timeLock / time.Second),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func IsOwner(w *models.Wallet, id string) bool {
	return id != "" && slices.Contains(w.Owners, id)
}

func RequireOwner(w *models.Wallet, id string) error {
	if !IsOwner(w, id) {
		return fmt.Errorf("%w: %s", ErrNotOwner, id)
	}
	return nil
}

// AddOwner appends id to the owner set. The threshold is left unchanged.
func AddOwner(w *models.Wallet, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty owner identity", ErrInvalidInput)
	}
	if len(w.Owners) >= MaxOwners {
		return ErrTooManyOwners
	}
	if IsOwner(w, id) {
		return fmt.Errorf("%w: %s", ErrOwnerAlreadyExists, id)
	}
	w.Owners = append(w.Owners, id)
	return nil
}

// RemoveOwner drops id and clamps the threshold so it never exceeds the owner
// count.
func RemoveOwner(w *models.Wallet, id string) error {
	idx := slices.Index(w.Owners, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrOwnerNotFound, id)
	}
	if len(w.Owners) == 1 {
		return ErrCannotRemoveLastOwner
	}
	w.Owners = slices.Delete(w.Owners, idx, idx+1)
	if w.Threshold > len(w.Owners) {
		w.Threshold = len(w.Owners)
	}
	return nil
}

func ChangeThreshold(w *models.Wallet, threshold int) error {
	if threshold < 1 || threshold > len(w.Owners) {
		return fmt.Errorf("%w: %d of %d owners", ErrInvalidThreshold, threshold, len(w.Owners))
	}
	w.Threshold = threshold
	return nil
}

func SetPaused(w *models.Wallet, paused bool) {
	w.IsPaused = paused
}
