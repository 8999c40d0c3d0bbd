package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StaticGateway approves every request. Used in development when no
// provider is configured.
type StaticGateway struct{}

// Call approves the request with a synthetic reference.
func (StaticGateway) Call(_ context.Context, _ Request) (Result, error) {
	return Result{Status: StatusSuccess, ProviderReference: uuid.NewString(), Message: "processed"}, nil
}

// FetchBill returns a synthetic bill.
func (StaticGateway) FetchBill(_ context.Context, operatorID, identifier string) (Bill, error) {
	now := time.Now().UTC()
	return Bill{
		BillNumber:   "BILL-" + uuid.NewString()[:8],
		BillDate:     now,
		DueDate:      now.AddDate(0, 0, 7),
		Amount:       39900,
		CustomerName: "Demo Customer",
	}, nil
}

// CheckStatus reports success for any reference.
func (StaticGateway) CheckStatus(_ context.Context, _ string) (Result, error) {
	return Result{Status: StatusSuccess, ProviderReference: uuid.NewString(), Message: "processed"}, nil
}

// ScriptedGateway replays a fixed sequence of verdicts, letting tests drive
// the orchestrator through SUCCESS, PENDING and FAILED paths
// deterministically.
type ScriptedGateway struct {
	mu sync.Mutex

	CallResults   []Result
	CallErrs      []error
	StatusResults []Result
	StatusErrs    []error
	Bills         []Bill

	Calls        []Request
	StatusChecks []string

	callIdx   int
	statusIdx int
	billIdx   int
}

func (g *ScriptedGateway) Call(_ context.Context, req Request) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls = append(g.Calls, req)
	i := g.callIdx
	g.callIdx++
	var err error
	if i < len(g.CallErrs) {
		err = g.CallErrs[i]
	}
	if err != nil {
		return Result{}, err
	}
	if i >= len(g.CallResults) {
		return Result{Status: StatusSuccess, ProviderReference: uuid.NewString()}, nil
	}
	return g.CallResults[i], nil
}

func (g *ScriptedGateway) FetchBill(_ context.Context, _, _ string) (Bill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.billIdx >= len(g.Bills) {
		return Bill{BillNumber: "BILL-1", Amount: 30000, CustomerName: "Test Customer"}, nil
	}
	b := g.Bills[g.billIdx]
	g.billIdx++
	return b, nil
}

func (g *ScriptedGateway) CheckStatus(_ context.Context, key string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.StatusChecks = append(g.StatusChecks, key)
	i := g.statusIdx
	g.statusIdx++
	var err error
	if i < len(g.StatusErrs) {
		err = g.StatusErrs[i]
	}
	if err != nil {
		return Result{}, err
	}
	if i >= len(g.StatusResults) {
		return Result{Status: StatusPending}, nil
	}
	return g.StatusResults[i], nil
}
