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
	"net/http"
	"strconv"
	"time"

	"multisig-wallet-go/internal/auth"
	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"github.com/go-chi/chi/v5"
)

type handlers struct {
	svc *WalletService
}

type initializeRequest struct {
	Name            string   `json:"name"`
	Owners          []string `json:"owners"`
	Threshold       int      `json:"threshold"`
	TimeLockSeconds int64    `json:"time_lock_seconds"`
}

type proposeRequest struct {
	Destination string `json:"destination"`
	Amount      uint64 `json:"amount"`
	AssetClass  string `json:"asset_class"`
	Payload     []byte `json:"payload,omitempty"`
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

type thresholdRequest struct {
	Threshold int `json:"threshold"`
}

type limitRequest struct {
	AssetClass   string `json:"asset_class"`
	DailyLimit   uint64 `json:"daily_limit"`
	MonthlyLimit uint64 `json:"monthly_limit"`
}

type depositRequest struct {
	AssetClass string `json:"asset_class"`
	Amount     uint64 `json:"amount"`
	Reference  string `json:"reference,omitempty"`
}

type confirmResponse struct {
	Transaction   *models.Transaction `json:"transaction"`
	Confirmations int                 `json:"confirmations"`
	Required      int                 `json:"required"`
	Executed      bool                `json:"executed"`
	ExecuteError  *errorResponse      `json:"execute_error,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func caller(r *http.Request) string {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) initializeWallet(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.svc.controller.InitializeWallet(r.Context(), caller(r), multisig.InitializeParams{
		Name:      req.Name,
		Owners:    req.Owners,
		Threshold: req.Threshold,
		TimeLock:  time.Duration(req.TimeLockSeconds) * time.Second,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *handlers) listWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.svc.controller.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (h *handlers) getWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.controller.GetWallet(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) proposeTransaction(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.svc.controller.ProposeTransaction(r.Context(), chi.URLParam(r, "walletId"), caller(r), multisig.Proposal{
		Destination: req.Destination,
		Amount:      req.Amount,
		AssetClass:  req.AssetClass,
		Payload:     req.Payload,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *handlers) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok1 := queryInt(r, "limit", 50)
	offset, ok2 := queryInt(r, "offset", 0)
	if !ok1 || !ok2 {
		badRequest(w, "limit and offset must be non-negative integers")
		return
	}
	txs, err := h.svc.controller.ListTransactions(r.Context(), chi.URLParam(r, "walletId"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.controller.GetTransaction(r.Context(), chi.URLParam(r, "walletId"), chi.URLParam(r, "txId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handlers) confirmTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.controller.ConfirmTransaction(r.Context(), chi.URLParam(r, "walletId"), chi.URLParam(r, "txId"), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := confirmResponse{
		Transaction:   res.Transaction,
		Confirmations: res.Confirmations,
		Required:      res.Required,
		Executed:      res.Executed,
	}
	if res.ExecuteErr != nil {
		resp.ExecuteError = &errorResponse{Message: res.ExecuteErr.Error()}
		if kind := multisig.KindOf(res.ExecuteErr); kind != nil {
			resp.ExecuteError.Error = kind.Name()
			resp.ExecuteError.Code = uint32(kind.Code())
			resp.ExecuteError.Retriable = kind.Retriable()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) revokeConfirmation(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.controller.RevokeConfirmation(r.Context(), chi.URLParam(r, "walletId"), chi.URLParam(r, "txId"), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handlers) executeTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.controller.ExecuteTransaction(r.Context(), chi.URLParam(r, "walletId"), chi.URLParam(r, "txId"), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handlers) addOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.svc.controller.AddOwner(r.Context(), chi.URLParam(r, "walletId"), caller(r), req.Owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) removeOwner(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.controller.RemoveOwner(r.Context(), chi.URLParam(r, "walletId"), caller(r), chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) changeThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.svc.controller.ChangeThreshold(r.Context(), chi.URLParam(r, "walletId"), caller(r), req.Threshold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) setSpendingLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if !decode(w, r, &req) {
		return
	}
	limit, err := h.svc.controller.SetSpendingLimit(r.Context(), chi.URLParam(r, "walletId"), caller(r),
		req.AssetClass, req.DailyLimit, req.MonthlyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}

func (h *handlers) getSpendingLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := h.svc.controller.GetSpendingLimit(r.Context(), chi.URLParam(r, "walletId"), r.URL.Query().Get("asset_class"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}

func (h *handlers) pauseWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.controller.PauseWallet(r.Context(), chi.URLParam(r, "walletId"), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) unpauseWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.svc.controller.UnpauseWallet(r.Context(), chi.URLParam(r, "walletId"), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 100)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}
	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(w, "after must be an integer sequence number")
			return
		}
		after = n
	}
	events, err := h.svc.controller.ListEvents(r.Context(), chi.URLParam(r, "walletId"), after, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.ProcessDeposit(r.Context(), chi.URLParam(r, "walletId"), req.AssetClass, req.Amount, req.Reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.svc.GetWalletBalances(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}
