package store

import (
	"errors"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{ErrWalletNotFound, ErrTransactionNotFound, ErrDuplicate, ErrConcurrentModification}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("expected %v and %v to be distinct", a, b)
			}
		}
	}

	var _ WalletStore
	var _ WalletTx
}
