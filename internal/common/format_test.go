package common

import (
	"testing"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"

	"github.com/stretchr/testify/assert"
)

func TestShortId(t *testing.T) {
	assert.Equal(t, "none", ShortId(""))
	assert.Equal(t, "abc", ShortId("abc"))
	assert.Equal(t, "3f1c7a52...", ShortId("3f1c7a52-0f55-4d8e-9a1a-1f2d4c5e6b7a"))
}

func TestWalletPolicyLine(t *testing.T) {
	w := &models.Wallet{Owners: []string{"A", "B", "C"}, Threshold: 2, TimeLockSeconds: 90, IsPaused: true, Nonce: 4}
	assert.Equal(t, "Threshold: 2 of 3   Time-lock: 1m30s   Paused: true   Nonce: 4", WalletPolicyLine(w))
}

func TestTransactionState(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name   string
		status multisig.TransactionStatus
		want   string
	}{
		{"pending", multisig.TransactionStatus{Transaction: &models.Transaction{}, Confirmations: 1, Required: 2}, "1/2 confirmed"},
		{"ready", multisig.TransactionStatus{Transaction: &models.Transaction{}, Confirmations: 2, Required: 2, ReadyToExecute: true}, "2/2 confirmed, ready"},
		{"time-locked", multisig.TransactionStatus{Transaction: &models.Transaction{}, Confirmations: 2, Required: 2, ExecutableAt: at}, "2/2 confirmed, executable at 2026-01-02T03:04:05Z"},
		{"executed", multisig.TransactionStatus{Transaction: &models.Transaction{IsExecuted: true}, Confirmations: 2, Required: 2}, "executed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TransactionState(&tt.status))
		})
	}
}
