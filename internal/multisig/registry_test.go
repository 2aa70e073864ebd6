package multisig

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owners(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("owner-%02d", i)
	}
	return out
}

func TestNewWalletValidation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name      string
		owners    []string
		threshold int
		timeLock  time.Duration
		want      error
	}{
		{"no owners", nil, 1, 0, ErrInvalidOwnersCount},
		{"too many owners", owners(MaxOwners + 1), 1, 0, ErrInvalidOwnersCount},
		{"zero threshold", owners(3), 0, 0, ErrInvalidThreshold},
		{"threshold above owners", owners(3), 4, 0, ErrInvalidThreshold},
		{"duplicate owner", []string{"A", "B", "A"}, 2, 0, ErrOwnerAlreadyExists},
		{"empty owner", []string{"A", ""}, 1, 0, ErrInvalidInput},
		{"negative time-lock", owners(2), 1, -time.Second, ErrInvalidTimeLock},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWallet("w", tc.owners, tc.threshold, tc.timeLock, now)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	w, err := NewWallet("treasury", owners(MaxOwners), MaxOwners, time.Hour, now)
	require.NoError(t, err)
	assert.NotEmpty(t, w.Id)
	assert.False(t, w.IsPaused)
	assert.Equal(t, int64(3600), w.TimeLockSeconds)
	assert.Equal(t, time.Hour, w.TimeLock())
}

func TestAddOwner(t *testing.T) {
	w, err := NewWallet("w", []string{"A"}, 1, 0, time.Now())
	require.NoError(t, err)

	require.NoError(t, AddOwner(w, "B"))
	assert.Equal(t, []string{"A", "B"}, w.Owners)
	assert.Equal(t, 1, w.Threshold)
	assert.ErrorIs(t, AddOwner(w, "B"), ErrOwnerAlreadyExists)

	full, err := NewWallet("full", owners(MaxOwners), 1, 0, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, AddOwner(full, "extra"), ErrTooManyOwners)
	assert.Len(t, full.Owners, MaxOwners)
}

func TestRemoveOwnerClampsThreshold(t *testing.T) {
	w, err := NewWallet("w", []string{"A", "B", "C"}, 3, 0, time.Now())
	require.NoError(t, err)

	require.NoError(t, RemoveOwner(w, "B"))
	assert.Equal(t, []string{"A", "C"}, w.Owners)
	assert.Equal(t, 2, w.Threshold)

	assert.ErrorIs(t, RemoveOwner(w, "B"), ErrOwnerNotFound)
	require.NoError(t, RemoveOwner(w, "A"))
	assert.Equal(t, 1, w.Threshold)
	assert.ErrorIs(t, RemoveOwner(w, "C"), ErrCannotRemoveLastOwner)
	assert.Equal(t, []string{"C"}, w.Owners)
}

func TestChangeThreshold(t *testing.T) {
	w, err := NewWallet("w", []string{"A", "B", "C"}, 2, 0, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, ChangeThreshold(w, 0), ErrInvalidThreshold)
	assert.ErrorIs(t, ChangeThreshold(w, 4), ErrInvalidThreshold)
	assert.Equal(t, 2, w.Threshold)
	require.NoError(t, ChangeThreshold(w, 3))
	assert.Equal(t, 3, w.Threshold)
}

func TestIsOwner(t *testing.T) {
	w, err := NewWallet("w", []string{"A"}, 1, 0, time.Now())
	require.NoError(t, err)
	assert.True(t, IsOwner(w, "A"))
	assert.False(t, IsOwner(w, "D"))
	assert.False(t, IsOwner(w, ""))
	assert.ErrorIs(t, RequireOwner(w, "D"), ErrNotOwner)
}
