package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/gateway"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/logging"
	"github.com/rechargehub/rechargehub/internal/recharge"
	"github.com/rechargehub/rechargehub/internal/txn"
	"github.com/rechargehub/rechargehub/internal/wallet"
)

// stubResolver records which transactions the sweep handed it.
type stubResolver struct {
	mu    sync.Mutex
	seen  []string
	txns  txn.Store
	final txn.Status
}

func (r *stubResolver) Reconcile(ctx context.Context, id string) (recharge.Outcome, error) {
	r.mu.Lock()
	r.seen = append(r.seen, id)
	r.mu.Unlock()
	if err := r.txns.SetStatus(ctx, id, txn.Update{Status: r.final}); err != nil {
		return recharge.Outcome{}, err
	}
	return recharge.Outcome{Status: gateway.StatusSuccess, TransactionID: id}, nil
}

func seedPending(t *testing.T, store txn.Store, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	err := store.Create(context.Background(), txn.Transaction{
		ID:        id,
		UserID:    "user-1",
		Kind:      txn.KindRecharge,
		Status:    txn.StatusPending,
		Amount:    100,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return id
}

func TestSweepResolvesPendingEndToEnd(t *testing.T) {
	ctx := context.Background()

	wallets := wallet.NewMemoryStore(ledger.NewInMemory())
	userID := uuid.NewString()
	if _, err := wallets.Create(ctx, userID); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if err := wallets.Credit(ctx, userID, 500, "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gw := &gateway.ScriptedGateway{
		CallResults:   []gateway.Result{{Status: gateway.StatusPending}},
		StatusResults: []gateway.Result{{Status: gateway.StatusSuccess, ProviderReference: "OP1"}},
	}
	txns := txn.NewMemoryStore()
	svc := recharge.NewService(wallets, txns, gw, nil, nil, logging.Discard())

	outcome, err := svc.Submit(ctx, userID, recharge.SubmitInput{OperatorID: "1", Amount: 300, MobileNumber: "7011234567"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	s := New(svc, txns, nil, nil, logging.Discard(), Options{MinAge: time.Nanosecond})
	if err := s.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	stored, err := txns.Get(ctx, outcome.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if stored.Status != txn.StatusSuccess {
		t.Fatalf("expected SUCCESS after sweep, got %s", stored.Status)
	}
	w, _ := wallets.Get(ctx, userID)
	if w.Balance != 200 || w.LockedBalance != 0 {
		t.Fatalf("expected balance 200 locked 0, got %d/%d", w.Balance, w.LockedBalance)
	}
}

func TestSweepRespectsMinAge(t *testing.T) {
	txns := txn.NewMemoryStore()
	seedPending(t, txns, time.Now().UTC())
	resolver := &stubResolver{txns: txns, final: txn.StatusSuccess}

	s := New(resolver, txns, nil, nil, logging.Discard(), Options{MinAge: time.Hour})
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(resolver.seen) != 0 {
		t.Fatalf("fresh transactions must be left alone, touched %v", resolver.seen)
	}
}

func TestSweepSkipsBeyondMaxAge(t *testing.T) {
	txns := txn.NewMemoryStore()
	stale := seedPending(t, txns, time.Now().UTC().Add(-72*time.Hour))
	resolver := &stubResolver{txns: txns, final: txn.StatusSuccess}
	time.Sleep(5 * time.Millisecond)

	s := New(resolver, txns, nil, nil, logging.Discard(), Options{MinAge: time.Nanosecond, MaxAge: 48 * time.Hour})
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(resolver.seen) != 0 {
		t.Fatalf("over-age transactions must be skipped, touched %v", resolver.seen)
	}

	stored, _ := txns.Get(context.Background(), stale)
	if stored.Status != txn.StatusPending {
		t.Fatalf("skipped transaction must stay PENDING, got %s", stored.Status)
	}
}

func TestSweepHonorsDistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	txns := txn.NewMemoryStore()
	seedPending(t, txns, time.Now().UTC())
	resolver := &stubResolver{txns: txns, final: txn.StatusSuccess}
	time.Sleep(5 * time.Millisecond)

	// Another instance holds the lock.
	if err := cache.Set(context.Background(), sweepLockKey, "other", time.Minute).Err(); err != nil {
		t.Fatalf("hold lock: %v", err)
	}

	s := New(resolver, txns, cache, nil, logging.Discard(), Options{MinAge: time.Nanosecond})
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(resolver.seen) != 0 {
		t.Fatalf("sweep must yield while the lock is held, touched %v", resolver.seen)
	}

	// Lock released, the next sweep proceeds.
	mr.Del(sweepLockKey)
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(resolver.seen) != 1 {
		t.Fatalf("expected one reconcile after lock release, got %d", len(resolver.seen))
	}
}

func TestSweepBatchCap(t *testing.T) {
	txns := txn.NewMemoryStore()
	for i := 0; i < 5; i++ {
		seedPending(t, txns, time.Now().UTC())
	}
	resolver := &stubResolver{txns: txns, final: txn.StatusSuccess}
	time.Sleep(5 * time.Millisecond)

	s := New(resolver, txns, nil, nil, logging.Discard(), Options{MinAge: time.Nanosecond, Batch: 2})
	if err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(resolver.seen) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(resolver.seen))
	}
}
