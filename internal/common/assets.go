package common

import (
	"fmt"
	"os"
	"path/filepath"

	"multisig-wallet-go/internal/models"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v2"
)

type AssetsConfig struct {
	Native models.AssetClass   `yaml:"native"`
	Tokens []models.AssetClass `yaml:"tokens"`
}

func DefaultAssets() *models.AssetRegistry {
	return &models.AssetRegistry{
		Native: models.AssetClass{Symbol: "SOL", Precision: 9, Network: "solana-mainnet"},
		Tokens: map[string]models.AssetClass{},
	}
}

// LoadAssetConfig reads the asset-class registry. Tokens are keyed by mint,
// which must be a base58 address.
func LoadAssetConfig(assetsFile string) (*models.AssetRegistry, error) {
	var assetsPath string
	if filepath.IsAbs(assetsFile) {
		assetsPath = assetsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, assetsFile)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", assetsFile, err)
	}

	var config AssetsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", assetsFile, err)
	}

	if config.Native.Symbol == "" {
		return nil, fmt.Errorf("native asset missing symbol")
	}
	if config.Native.Mint != "" {
		return nil, fmt.Errorf("native asset must not have a mint")
	}

	registry := &models.AssetRegistry{
		Native: config.Native,
		Tokens: make(map[string]models.AssetClass, len(config.Tokens)),
	}
	for i, asset := range config.Tokens {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("token at index %d missing symbol", i)
		}
		if _, err := solana.PublicKeyFromBase58(asset.Mint); err != nil {
			return nil, fmt.Errorf("token %s has invalid mint %q: %w", asset.Symbol, asset.Mint, err)
		}
		if asset.Precision < 0 || asset.Precision > 18 {
			return nil, fmt.Errorf("token %s precision out of range", asset.Symbol)
		}
		if _, dup := registry.Tokens[asset.Mint]; dup {
			return nil, fmt.Errorf("duplicate mint %s", asset.Mint)
		}
		registry.Tokens[asset.Mint] = asset
	}

	return registry, nil
}

// AssetLabel renders an asset class for display, falling back to the raw key.
func AssetLabel(registry *models.AssetRegistry, assetClass string) string {
	if a, ok := registry.Lookup(assetClass); ok {
		return a.Symbol
	}
	if assetClass == "" {
		return "native"
	}
	return assetClass
}

// FormatAmount renders smallest units in the asset's precision when known.
func FormatAmount(registry *models.AssetRegistry, assetClass string, amount uint64) string {
	if a, ok := registry.Lookup(assetClass); ok {
		return a.Human(amount).String() + " " + a.Symbol
	}
	return fmt.Sprintf("%d", amount)
}
