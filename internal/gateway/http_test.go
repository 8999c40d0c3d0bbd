package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rechargehub/rechargehub/internal/logging"
)

func TestCallMapsVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recharge" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing api key, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"SUCCESS","provider_reference":"OP123","message":"done"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", time.Second, logging.Discard())
	res, err := g.Call(context.Background(), Request{Identifier: "9870000001", OperatorID: "1", Amount: 19900, IdempotencyKey: "tx-1"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.Status != StatusSuccess || res.ProviderReference != "OP123" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", 20*time.Millisecond, logging.Discard())
	_, err := g.Call(context.Background(), Request{Identifier: "9870000001", OperatorID: "1", Amount: 100})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCallServerFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", time.Second, logging.Discard())
	_, err := g.Call(context.Background(), Request{Identifier: "9870000001", OperatorID: "1", Amount: 100})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCallUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"MAYBE"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", time.Second, logging.Discard())
	_, err := g.Call(context.Background(), Request{Identifier: "9870000001", OperatorID: "1", Amount: 100})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for unknown status, got %v", err)
	}
}

func TestFetchBill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/bills/fetch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"bill_number":"B42","bill_date":"2026-08-01","due_date":"2026-08-15","amount":45900,"customer_name":"A Subscriber"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", time.Second, logging.Discard())
	bill, err := g.FetchBill(context.Background(), "5", "9870000001")
	if err != nil {
		t.Fatalf("fetch bill: %v", err)
	}
	if bill.BillNumber != "B42" || bill.Amount != 45900 {
		t.Fatalf("unexpected bill: %+v", bill)
	}
	if bill.DueDate.Format("2006-01-02") != "2026-08-15" {
		t.Fatalf("unexpected due date: %v", bill.DueDate)
	}
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("client_ref"); got != "tx-9" {
			t.Errorf("expected client_ref tx-9, got %q", got)
		}
		w.Write([]byte(`{"status":"PENDING","message":"in flight"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, "key", time.Second, logging.Discard())
	res, err := g.CheckStatus(context.Background(), "tx-9")
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if res.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", res.Status)
	}
}
