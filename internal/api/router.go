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
	"net/http"
	"time"

	"multisig-wallet-go/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the wallet API. Everything under /wallets requires an
// authenticated identity; /healthz does not.
func NewRouter(s *WalletService, authn auth.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handlers{svc: s}

	r.Get("/healthz", h.health)

	r.Route("/wallets", func(r chi.Router) {
		r.Use(auth.Middleware(authn))

		r.Post("/", h.initializeWallet)
		r.Get("/", h.listWallets)

		r.Route("/{walletId}", func(r chi.Router) {
			r.Get("/", h.getWallet)

			r.Post("/transactions", h.proposeTransaction)
			r.Get("/transactions", h.listTransactions)
			r.Get("/transactions/{txId}", h.getTransaction)
			r.Post("/transactions/{txId}/confirm", h.confirmTransaction)
			r.Post("/transactions/{txId}/revoke", h.revokeConfirmation)
			r.Post("/transactions/{txId}/execute", h.executeTransaction)

			r.Post("/owners", h.addOwner)
			r.Delete("/owners/{owner}", h.removeOwner)
			r.Put("/threshold", h.changeThreshold)
			r.Put("/limits", h.setSpendingLimit)
			r.Get("/limits", h.getSpendingLimit)
			r.Post("/pause", h.pauseWallet)
			r.Post("/unpause", h.unpauseWallet)

			r.Get("/events", h.listEvents)
			r.Post("/deposits", h.deposit)
			r.Get("/balances", h.balances)
		})
	})

	return r
}
