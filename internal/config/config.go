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

package config

import (
	"errors"
	"fmt"

	"multisig-wallet-go/internal/models"

	"github.com/caarlos0/env/v11"
)

const (
	BackendSubledger = "subledger"
	BackendFormance  = "formance"
	BackendPrime     = "prime"
)

// Load reads the configuration from the environment. A .env file, if any,
// has already been applied by the common package.
func Load() (*models.Config, error) {
	var cfg models.Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *models.Config) error {
	var errs []error

	switch cfg.Database.Driver {
	case "sqlite3":
		if cfg.Database.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for sqlite3"))
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver))
	}

	switch cfg.Transfer.Backend {
	case BackendSubledger:
	case BackendFormance:
		if cfg.Transfer.FormanceServerURL == "" || cfg.Transfer.FormanceClientID == "" || cfg.Transfer.FormanceClientSecret == "" {
			errs = append(errs, errors.New("formance backend requires FORMANCE_SERVER_URL, FORMANCE_CLIENT_ID and FORMANCE_CLIENT_SECRET"))
		}
	case BackendPrime:
		if cfg.Transfer.PrimeAccessKey == "" || cfg.Transfer.PrimePassphrase == "" || cfg.Transfer.PrimeSigningKey == "" {
			errs = append(errs, errors.New("prime backend requires PRIME_ACCESS_KEY, PRIME_PASSPHRASE and PRIME_SIGNING_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported TRANSFER_BACKEND %q", cfg.Transfer.Backend))
	}

	switch cfg.Server.AuthMode {
	case "header", "signature":
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_MODE %q", cfg.Server.AuthMode))
	}

	if cfg.Relay.BatchSize <= 0 {
		errs = append(errs, errors.New("RELAY_BATCH_SIZE must be positive"))
	}
	if cfg.Relay.PollingInterval <= 0 {
		errs = append(errs, errors.New("RELAY_POLLING_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}
