package ledger

import (
	"context"
	"testing"
)

func TestHistoryNewestFirst(t *testing.T) {
	rec := NewInMemory()
	ctx := context.Background()

	types := []EntryType{TypeCredit, TypeLock, TypeDebit}
	for i, typ := range types {
		err := rec.Append(ctx, Entry{WalletID: "w1", Type: typ, Amount: int64(i + 1)})
		if err != nil {
			t.Fatalf("append %s: %v", typ, err)
		}
	}

	entries, err := rec.History(ctx, "w1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Type != TypeDebit || entries[2].Type != TypeCredit {
		t.Fatalf("expected newest-first ordering, got %v %v %v", entries[0].Type, entries[1].Type, entries[2].Type)
	}

	limited, err := rec.History(ctx, "w1", 2)
	if err != nil {
		t.Fatalf("history with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(limited))
	}
}

func TestHistoryUnknownWallet(t *testing.T) {
	rec := NewInMemory()
	entries, err := rec.History(context.Background(), "missing", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestReplayReproducesBalances(t *testing.T) {
	entries := []Entry{
		{Type: TypeCredit, Amount: 500, BalanceAfter: 500},
		{Type: TypeLock, Amount: 300, BalanceAfter: 500},
		{Type: TypeDebit, Amount: 300, BalanceAfter: 200},
		{Type: TypeCredit, Amount: 100, BalanceAfter: 300},
		{Type: TypeLock, Amount: 50, BalanceAfter: 300},
		{Type: TypeUnlock, Amount: 50, BalanceAfter: 300},
	}

	balance, locked := Replay(entries)
	if balance != 300 {
		t.Fatalf("expected balance 300, got %d", balance)
	}
	if locked != 0 {
		t.Fatalf("expected locked 0, got %d", locked)
	}
}

func TestReplayRefund(t *testing.T) {
	entries := []Entry{
		{Type: TypeCredit, Amount: 200},
		{Type: TypeLock, Amount: 200},
		{Type: TypeDebit, Amount: 200},
		{Type: TypeRefund, Amount: 200},
	}

	balance, locked := Replay(entries)
	if balance != 200 || locked != 0 {
		t.Fatalf("expected balance 200 locked 0, got %d %d", balance, locked)
	}
}
