package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestInMemoryLedger_DepositsAccumulate(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	if err := l.Open(ctx, id, dec(1_000)); err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, amount := range []int64{100, 250, 33} {
		if _, err := l.Deposit(ctx, id, dec(amount)); err != nil {
			t.Fatalf("deposit %d: %v", amount, err)
		}
	}

	balance, err := l.Balance(ctx, id)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec(1_383)) {
		t.Fatalf("expected balance 1383, got %s", balance)
	}
}

func TestInMemoryLedger_InvalidAmounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	l.Open(ctx, id, dec(100))

	if _, err := l.Deposit(ctx, id, dec(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero deposit, got %v", err)
	}
	if _, err := l.Withdraw(ctx, id, dec(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for negative withdraw, got %v", err)
	}
}

func TestInMemoryLedger_WithdrawInsufficientLeavesBalanceUnchanged(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	l.Open(ctx, id, dec(50))

	if _, err := l.Withdraw(ctx, id, dec(80)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, _ := l.Balance(ctx, id)
	if !balance.Equal(dec(50)) {
		t.Fatalf("balance changed after failed withdraw: %s", balance)
	}
	entries, _ := l.History(ctx, id, 10)
	if len(entries) != 0 {
		t.Fatalf("failed withdraw must not be recorded, got %d entries", len(entries))
	}
}

func TestInMemoryLedger_TransferConservesTotal(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	sender := uuid.NewString()
	recipient := uuid.NewString()
	l.Open(ctx, sender, dec(1_000))
	l.Open(ctx, recipient, dec(200))

	newBalance, err := l.Transfer(ctx, Posting{
		SenderID:       sender,
		RecipientID:    recipient,
		SenderEmail:    "alice@example.com",
		RecipientEmail: "bob@example.com",
		Amount:         dec(300),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !newBalance.Equal(dec(700)) {
		t.Fatalf("expected sender balance 700, got %s", newBalance)
	}

	senderBal, _ := l.Balance(ctx, sender)
	recipientBal, _ := l.Balance(ctx, recipient)
	if !senderBal.Add(recipientBal).Equal(dec(1_200)) {
		t.Fatalf("total not conserved: %s + %s", senderBal, recipientBal)
	}

	sent, _ := l.History(ctx, sender, 10)
	if len(sent) != 1 || sent[0].Kind != KindSent || sent[0].Counterparty != "bob@example.com" {
		t.Fatalf("unexpected sender entry: %+v", sent)
	}
	received, _ := l.History(ctx, recipient, 10)
	if len(received) != 1 || received[0].Kind != KindReceived || received[0].Counterparty != "alice@example.com" {
		t.Fatalf("unexpected recipient entry: %+v", received)
	}
}

func TestInMemoryLedger_TransferRejectsSameAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	l.Open(ctx, id, dec(500))

	posting := Posting{SenderID: id, RecipientID: id, Amount: dec(100)}
	if _, err := l.Transfer(ctx, posting); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}

	balance, _ := l.Balance(ctx, id)
	if !balance.Equal(dec(500)) {
		t.Fatalf("balance changed after rejected posting: %s", balance)
	}
	entries, _ := l.History(ctx, id, 10)
	if len(entries) != 0 {
		t.Fatalf("rejected posting must not be recorded, got %d entries", len(entries))
	}
}

func TestInMemoryLedger_ConcurrentWithdrawalsNoDoubleSpend(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	SeedBalance(l, id, dec(100))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Withdraw(ctx, id, dec(100))
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one rejection, got ok=%d insufficient=%d", ok, insufficient)
	}

	balance, _ := l.Balance(ctx, id)
	if !balance.Equal(dec(0)) {
		t.Fatalf("expected balance 0, got %s", balance)
	}
}

func TestInMemoryLedger_ConcurrentTransfersConserveTotal(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := uuid.NewString()
	b := uuid.NewString()
	SeedBalance(l, a, dec(10_000))
	SeedBalance(l, b, dec(10_000))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := Posting{SenderID: a, RecipientID: b, Amount: dec(100)}
			if i%2 == 1 {
				p.SenderID, p.RecipientID = b, a
			}
			if _, err := l.Transfer(ctx, p); err != nil {
				t.Errorf("transfer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	balA, _ := l.Balance(ctx, a)
	balB, _ := l.Balance(ctx, b)
	if !balA.Add(balB).Equal(dec(20_000)) {
		t.Fatalf("total not conserved: %s + %s", balA, balB)
	}
}

func TestInMemoryLedger_HistoryNewestFirstAndCapped(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := uuid.NewString()
	l.Open(ctx, id, dec(0))

	for i := int64(1); i <= 60; i++ {
		if _, err := l.Deposit(ctx, id, dec(i)); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
	}

	entries, err := l.History(ctx, id, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != MaxHistoryLimit {
		t.Fatalf("expected history capped at %d, got %d", MaxHistoryLimit, len(entries))
	}
	if !entries[0].Amount.Equal(dec(60)) {
		t.Fatalf("expected newest entry first, got amount %s", entries[0].Amount)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("entries not in non-increasing time order at %d", i)
		}
	}

	limited, err := l.History(ctx, id, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(limited) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(limited))
	}
}
