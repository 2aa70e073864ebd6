package common

import (
	"errors"
	"fmt"

	"multisig-wallet-go/internal/auth"

	"github.com/gagliardetto/solana-go"
)

// ResolveActor returns the caller identity for CLI commands, from either a
// solana-keygen keypair file or an explicit base58 public key.
func ResolveActor(as, keypairPath string) (string, error) {
	switch {
	case keypairPath != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			return "", fmt.Errorf("unable to read keypair %s: %w", keypairPath, err)
		}
		pub := key.PublicKey().String()
		if as != "" && as != pub {
			return "", fmt.Errorf("-as %s does not match keypair public key %s", as, pub)
		}
		return pub, nil
	case as != "":
		if err := auth.ValidateIdentity(as); err != nil {
			return "", err
		}
		return as, nil
	default:
		return "", errors.New("an identity is required: pass -as <pubkey> or -keypair <file>")
	}
}
