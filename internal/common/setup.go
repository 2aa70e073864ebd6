package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"multisig-wallet-go/internal/api"
	"multisig-wallet-go/internal/auth"
	"multisig-wallet-go/internal/config"
	"multisig-wallet-go/internal/database"
	"multisig-wallet-go/internal/formance"
	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"
	"multisig-wallet-go/internal/prime"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// transferBackend is a Transferer that owns resources.
type transferBackend interface {
	multisig.Transferer
	Close()
}

type Services struct {
	DbService     *database.Service
	Transferer    multisig.Transferer
	Funder        api.Funder
	Assets        *models.AssetRegistry
	Controller    *multisig.Controller
	WalletService *api.WalletService

	backend transferBackend
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the store, connects the configured transfer
// backend and assembles the controller around them.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	assets, err := loadAssets(cfg.Transfer)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	s := &Services{DbService: dbService, Assets: assets}

	switch cfg.Transfer.Backend {
	case config.BackendSubledger:
		subledger := dbService.Subledger()
		s.Transferer = subledger
		s.Funder = subledger
	case config.BackendFormance:
		zap.L().Info("Connecting Formance transfer backend")
		svc, err := formance.NewService(ctx, cfg.Transfer, assets)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		s.Transferer, s.Funder, s.backend = svc, svc, svc
	case config.BackendPrime:
		zap.L().Info("Connecting Prime transfer backend")
		svc, err := prime.NewService(ctx, cfg.Transfer, assets)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		s.Transferer, s.backend = svc, svc
	default:
		dbService.Close()
		return nil, fmt.Errorf("unsupported transfer backend %q", cfg.Transfer.Backend)
	}

	s.Controller = multisig.NewController(dbService, s.Transferer,
		multisig.WithPolicy(multisig.PolicyFromConfig(cfg.Policy)),
		multisig.WithIdentityValidator(auth.ValidateIdentity))
	s.WalletService = api.NewWalletService(s.Controller, s.Funder, dbService)

	zap.L().Info("Services initialized",
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("transfer_backend", cfg.Transfer.Backend),
		zap.Bool("auto_execute", cfg.Policy.AutoExecuteOnConfirm),
		zap.Bool("enforce_limits", cfg.Policy.EnforceSpendingLimits))
	return s, nil
}

// InitializeDatabaseOnly initializes just the database service without a
// remote transfer backend. Useful for read-only operations like status.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.backend != nil {
		cs.backend.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// loadAssets reads the asset registry. The subledger backend can run on the
// built-in native asset when no file exists; remote backends cannot.
func loadAssets(cfg models.TransferConfig) (*models.AssetRegistry, error) {
	assets, err := LoadAssetConfig(cfg.AssetsFile)
	if err == nil {
		return assets, nil
	}
	if errors.Is(err, os.ErrNotExist) && cfg.Backend == config.BackendSubledger {
		zap.L().Warn("Assets file not found, using default native asset", zap.String("assets_file", cfg.AssetsFile))
		return DefaultAssets(), nil
	}
	return nil, err
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
