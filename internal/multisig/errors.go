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
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Code is the stable numeric identifier of an error kind.
type Code uint32

// Error is a root error kind. Operations return one of the registered kinds,
// usually wrapped with context, and callers match with errors.Is.
type Error struct {
	code      Code
	name      string
	desc      string
	retriable bool
}

func (e *Error) Error() string {
	return e.desc
}

func (e *Error) Code() Code {
	return e.code
}

// Name is the machine-readable kind name, e.g. "NotOwner".
func (e *Error) Name() string {
	return e.name
}

// Retriable reports whether the same call may succeed later without any
// change to its arguments (more confirmations, the time-lock elapsing, an
// unpause or a new spending period).
func (e *Error) Retriable() bool {
	return e.retriable
}

var usedCodes = map[Code]*Error{}

// register must only be called during package initialisation.
func register(code Code, name, desc string, retriable bool) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.name))
	}
	err := &Error{code: code, name: name, desc: desc, retriable: retriable}
	usedCodes[code] = err
	return err
}

var (
	// Structural.
	ErrInvalidOwnersCount    = register(1, "InvalidOwnersCount", "owner count must be between 1 and 50", false)
	ErrInvalidThreshold      = register(2, "InvalidThreshold", "threshold must be between 1 and the owner count", false)
	ErrTooManyOwners         = register(3, "TooManyOwners", "wallet already has the maximum number of owners", false)
	ErrOwnerAlreadyExists    = register(4, "OwnerAlreadyExists", "owner already exists", false)
	ErrOwnerNotFound         = register(5, "OwnerNotFound", "owner not found", false)
	ErrCannotRemoveLastOwner = register(6, "CannotRemoveLastOwner", "cannot remove the last owner", false)
	ErrInvalidTimeLock       = register(7, "InvalidTimeLock", "time-lock must not be negative", false)
	ErrInvalidInput          = register(8, "InvalidInput", "invalid input", false)

	// Authorization.
	ErrNotOwner = register(20, "NotOwner", "caller is not an owner of the wallet", false)

	// Lifecycle.
	ErrTransactionExecuted       = register(30, "TransactionExecuted", "transaction already executed", false)
	ErrAlreadyConfirmed          = register(31, "AlreadyConfirmed", "transaction already confirmed by this owner", false)
	ErrNotConfirmed              = register(32, "NotConfirmed", "transaction not confirmed by this owner", false)
	ErrInsufficientConfirmations = register(33, "InsufficientConfirmations", "insufficient confirmations", true)
	ErrTimeLockNotExpired        = register(34, "TimeLockNotExpired", "time-lock has not expired", true)
	ErrSpendingLimitExceeded     = register(35, "SpendingLimitExceeded", "spending limit exceeded", true)

	// Availability.
	ErrWalletPaused = register(40, "WalletPaused", "wallet is paused", true)

	// Lookup.
	ErrWalletNotFound      = register(50, "WalletNotFound", "wallet not found", false)
	ErrTransactionNotFound = register(51, "TransactionNotFound", "transaction not found", false)

	// Collaborator.
	ErrTransferFailed = register(60, "TransferFailed", "transfer failed", false)
)

// KindOf returns the registered kind carried by err, or nil.
func KindOf(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsRetriable reports whether err carries a retriable kind.
func IsRetriable(err error) bool {
	e := KindOf(err)
	return e != nil && e.Retriable()
}

// Kinds returns every registered kind, ordered by code.
func Kinds() []*Error {
	out := make([]*Error, 0, len(usedCodes))
	for _, e := range usedCodes {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Error) int { return cmp.Compare(a.code, b.code) })
	return out
}
