package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound indicates an unknown operator.
var ErrNotFound = errors.New("operator not found")

// OperatorType groups operators by product line.
type OperatorType string

const (
	TypePrepaid  OperatorType = "prepaid"
	TypePostpaid OperatorType = "postpaid"
	TypeDTH      OperatorType = "dth"
)

// Operator is a telecom or DTH provider.
type Operator struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Code string       `json:"code"`
	Type OperatorType `json:"type"`
}

// Circle is a telecom service region.
type Circle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Plan is a recharge plan offered by an operator.
type Plan struct {
	ID          string `json:"id"`
	OperatorID  string `json:"operator_id"`
	Amount      int64  `json:"amount"`
	Validity    string `json:"validity"`
	Description string `json:"description"`
	Data        string `json:"data,omitempty"`
	Talktime    string `json:"talktime,omitempty"`
	Category    string `json:"category"`
}

// Provider serves read-only reference data. It has no transactional
// coupling to the ledger.
type Provider interface {
	Operators(ctx context.Context, opType OperatorType) ([]Operator, error)
	Operator(ctx context.Context, id string) (Operator, error)
	Circles(ctx context.Context) ([]Circle, error)
	Plans(ctx context.Context, operatorID, category string) ([]Plan, error)
	DetectOperator(ctx context.Context, mobileNumber string) (Operator, Circle, error)
}

// StaticProvider serves a fixed catalog. Stands in for the upstream catalog
// API in development and tests.
type StaticProvider struct {
	operators []Operator
	circles   []Circle
	plans     []Plan
}

// NewStaticProvider builds a provider with the built-in catalog.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{operators: operators, circles: circles, plans: plans}
}

func (p *StaticProvider) Operators(_ context.Context, opType OperatorType) ([]Operator, error) {
	if opType == "" {
		return append([]Operator(nil), p.operators...), nil
	}
	var out []Operator
	for _, op := range p.operators {
		if op.Type == opType {
			out = append(out, op)
		}
	}
	return out, nil
}

func (p *StaticProvider) Operator(_ context.Context, id string) (Operator, error) {
	for _, op := range p.operators {
		if op.ID == id {
			return op, nil
		}
	}
	return Operator{}, ErrNotFound
}

func (p *StaticProvider) Circles(_ context.Context) ([]Circle, error) {
	return append([]Circle(nil), p.circles...), nil
}

func (p *StaticProvider) Plans(_ context.Context, operatorID, category string) ([]Plan, error) {
	var out []Plan
	for _, plan := range p.plans {
		if plan.OperatorID != operatorID {
			continue
		}
		if category != "" && category != "all" && plan.Category != category {
			continue
		}
		out = append(out, plan)
	}
	return out, nil
}

// DetectOperator guesses the operator from the mobile number prefix. The
// prefix table mirrors the upstream provider's detection rules.
func (p *StaticProvider) DetectOperator(_ context.Context, mobileNumber string) (Operator, Circle, error) {
	code := "BSNL"
	switch {
	case strings.HasPrefix(mobileNumber, "701"), strings.HasPrefix(mobileNumber, "702"):
		code = "AIRTEL"
	case strings.HasPrefix(mobileNumber, "703"), strings.HasPrefix(mobileNumber, "704"):
		code = "JIO"
	case strings.HasPrefix(mobileNumber, "705"), strings.HasPrefix(mobileNumber, "706"):
		code = "VI"
	}
	for _, op := range p.operators {
		if op.Code == code {
			return op, p.circles[0], nil
		}
	}
	return Operator{}, Circle{}, ErrNotFound
}
