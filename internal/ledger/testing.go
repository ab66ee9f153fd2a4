package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets an account balance directly when
// using the in-memory ledger.
func SeedBalance(l Ledger, accountID string, amount decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if acct, exists := mem.accounts[accountID]; exists {
			acct.balance = amount
			return
		}
		mem.accounts[accountID] = &memoryAccount{balance: amount}
	}
}
