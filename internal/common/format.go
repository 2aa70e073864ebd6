package common

import (
	"fmt"
	"strings"
	"time"

	"multisig-wallet-go/internal/models"
	"multisig-wallet-go/internal/multisig"
)

const (
	DefaultWidth = 80
	WideWidth    = 100

	sectionWidth = 78
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a title framed by '=' rules, preceded by a blank line.
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a closing message framed by '=' rules.
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintSection opens a box-drawn sub-section.
func PrintSection(title string) {
	fmt.Printf("\n┌─ %s\n", title)
	fmt.Println("├" + strings.Repeat("─", sectionWidth))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// ShortId abbreviates uuids and public keys for list output.
func ShortId(id string) string {
	if id == "" {
		return "none"
	}
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

// WalletPolicyLine summarises a wallet's approval rules on one line.
func WalletPolicyLine(w *models.Wallet) string {
	return fmt.Sprintf("Threshold: %d of %d   Time-lock: %s   Paused: %t   Nonce: %d",
		w.Threshold, len(w.Owners), w.TimeLock(), w.IsPaused, w.Nonce)
}

// PrintWallet prints the policy line followed by the owner list.
func PrintWallet(w *models.Wallet) {
	fmt.Println(WalletPolicyLine(w))
	for i, o := range w.Owners {
		fmt.Printf("%s%s\n", BoxPrefix(i == len(w.Owners)-1), o)
	}
}

// TransactionState describes where a transaction stands in its lifecycle.
func TransactionState(status *multisig.TransactionStatus) string {
	if status.Transaction != nil && status.Transaction.IsExecuted {
		return "executed"
	}
	state := fmt.Sprintf("%d/%d confirmed", status.Confirmations, status.Required)
	switch {
	case status.ReadyToExecute:
		state += ", ready"
	case status.Confirmations >= status.Required:
		state += ", executable at " + status.ExecutableAt.UTC().Format(time.RFC3339)
	}
	return state
}
