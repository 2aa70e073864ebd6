package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActor(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	pub := key.PublicKey().String()

	// solana-keygen stores the 64-byte key as a JSON array of numbers
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := ResolveActor("", path)
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	got, err = ResolveActor(pub, "")
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	other := solana.NewWallet().PublicKey().String()
	_, err = ResolveActor(other, path)
	assert.Error(t, err)

	_, err = ResolveActor("bob", "")
	assert.Error(t, err)

	_, err = ResolveActor("", "")
	assert.Error(t, err)
}
