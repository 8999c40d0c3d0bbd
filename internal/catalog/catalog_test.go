package catalog

import (
	"context"
	"testing"
)

func TestOperatorsFilterByType(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	all, err := p.Operators(ctx, "")
	if err != nil {
		t.Fatalf("operators: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("catalog must not be empty")
	}

	dth, err := p.Operators(ctx, TypeDTH)
	if err != nil {
		t.Fatalf("dth operators: %v", err)
	}
	if len(dth) == 0 || len(dth) >= len(all) {
		t.Fatalf("expected a proper DTH subset, got %d of %d", len(dth), len(all))
	}
	for _, op := range dth {
		if op.Type != TypeDTH {
			t.Fatalf("filter leaked %s operator %s", op.Type, op.Name)
		}
	}
}

func TestPlansFilterByCategory(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	all, err := p.Plans(ctx, "1", "all")
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("operator 1 must have plans")
	}

	unlimited, err := p.Plans(ctx, "1", "unlimited")
	if err != nil {
		t.Fatalf("filtered plans: %v", err)
	}
	for _, plan := range unlimited {
		if plan.Category != "unlimited" {
			t.Fatalf("filter leaked category %s", plan.Category)
		}
	}

	for _, plan := range all {
		if plan.OperatorID != "1" {
			t.Fatalf("plan %s belongs to operator %s", plan.ID, plan.OperatorID)
		}
	}
}

func TestDetectOperatorByPrefix(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	cases := []struct {
		number string
		code   string
	}{
		{"7011234567", "AIRTEL"},
		{"7031234567", "JIO"},
		{"7051234567", "VI"},
		{"9991234567", "BSNL"},
	}
	for _, tc := range cases {
		op, circle, err := p.DetectOperator(ctx, tc.number)
		if err != nil {
			t.Fatalf("detect %s: %v", tc.number, err)
		}
		if op.Code != tc.code {
			t.Fatalf("number %s: expected %s, got %s", tc.number, tc.code, op.Code)
		}
		if circle.ID == "" {
			t.Fatalf("number %s: missing circle", tc.number)
		}
	}
}
