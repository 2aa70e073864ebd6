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

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"multisig-wallet-go/internal/multisig"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      uint32 `json:"code,omitempty"`
	Message   string `json:"message"`
	Retriable bool   `json:"retriable"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind *multisig.Error) int {
	switch kind {
	case multisig.ErrNotOwner:
		return http.StatusForbidden
	case multisig.ErrWalletNotFound, multisig.ErrTransactionNotFound, multisig.ErrOwnerNotFound:
		return http.StatusNotFound
	case multisig.ErrOwnerAlreadyExists, multisig.ErrTransactionExecuted, multisig.ErrAlreadyConfirmed,
		multisig.ErrNotConfirmed, multisig.ErrInsufficientConfirmations, multisig.ErrSpendingLimitExceeded:
		return http.StatusConflict
	case multisig.ErrWalletPaused:
		return http.StatusLocked
	case multisig.ErrTimeLockNotExpired:
		return http.StatusTooEarly
	case multisig.ErrTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if kind := multisig.KindOf(err); kind != nil {
		writeJSON(w, statusFor(kind), errorResponse{
			Error:     kind.Name(),
			Code:      uint32(kind.Code()),
			Message:   err.Error(),
			Retriable: kind.Retriable(),
		})
		return
	}
	if errors.Is(err, ErrFundingUnsupported) {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "NotImplemented", Message: err.Error()})
		return
	}

	zap.L().Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal", Message: "internal error"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   multisig.ErrInvalidInput.Name(),
		Code:    uint32(multisig.ErrInvalidInput.Code()),
		Message: msg,
	})
}
