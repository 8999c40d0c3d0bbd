package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// HTTPGateway talks to the provider's REST API. Every call carries a bounded
// deadline; deadline hits map to ErrTimeout and transport or 5xx faults to
// ErrUnavailable so the orchestrator can park the transaction instead of
// refunding money the operator may already have spent.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPGateway builds a provider connector for the given base URL.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type callPayload struct {
	Number     string `json:"number"`
	Operator   string `json:"operator"`
	Circle     string `json:"circle,omitempty"`
	Amount     int64  `json:"amount"`
	ClientRef  string `json:"client_ref"`
}

type resultPayload struct {
	Status    string `json:"status"`
	Reference string `json:"provider_reference"`
	Message   string `json:"message"`
}

type billPayload struct {
	BillNumber   string `json:"bill_number"`
	BillDate     string `json:"bill_date"`
	DueDate      string `json:"due_date"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customer_name"`
}

// Call submits a recharge or bill payment to the provider.
func (g *HTTPGateway) Call(ctx context.Context, req Request) (Result, error) {
	payload := callPayload{
		Number:    req.Identifier,
		Operator:  req.OperatorID,
		Circle:    req.CircleID,
		Amount:    req.Amount,
		ClientRef: req.IdempotencyKey,
	}

	var res resultPayload
	if err := g.post(ctx, "/v1/recharge", payload, &res); err != nil {
		return Result{}, err
	}
	return g.toResult(res)
}

// FetchBill retrieves the outstanding postpaid bill for an identifier.
func (g *HTTPGateway) FetchBill(ctx context.Context, operatorID, identifier string) (Bill, error) {
	var res billPayload
	err := g.post(ctx, "/v1/bills/fetch", map[string]string{
		"operator": operatorID,
		"number":   identifier,
	}, &res)
	if err != nil {
		return Bill{}, err
	}

	billDate, err := time.Parse("2006-01-02", res.BillDate)
	if err != nil {
		return Bill{}, fmt.Errorf("%w: bad bill_date %q", ErrUnavailable, res.BillDate)
	}
	dueDate, err := time.Parse("2006-01-02", res.DueDate)
	if err != nil {
		return Bill{}, fmt.Errorf("%w: bad due_date %q", ErrUnavailable, res.DueDate)
	}
	return Bill{
		BillNumber:   res.BillNumber,
		BillDate:     billDate,
		DueDate:      dueDate,
		Amount:       res.Amount,
		CustomerName: res.CustomerName,
	}, nil
}

// CheckStatus re-queries the provider for a previously submitted request.
func (g *HTTPGateway) CheckStatus(ctx context.Context, idempotencyKey string) (Result, error) {
	endpoint := "/v1/status?" + url.Values{"client_ref": {idempotencyKey}}.Encode()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	var res resultPayload
	if err := g.do(httpReq, &res); err != nil {
		return Result{}, err
	}
	return g.toResult(res)
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	return g.do(req, out)
}

func (g *HTTPGateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(req.Context().Err(), context.DeadlineExceeded) {
			g.logger.Warn("gateway call timed out", "path", req.URL.Path)
			return ErrTimeout
		}
		g.logger.Warn("gateway call failed", "path", req.URL.Path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: provider returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider rejected request with status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *HTTPGateway) toResult(res resultPayload) (Result, error) {
	switch Status(res.Status) {
	case StatusSuccess, StatusPending, StatusFailed:
		return Result{
			Status:            Status(res.Status),
			ProviderReference: res.Reference,
			Message:           res.Message,
		}, nil
	default:
		// Unknown verdicts are uncertain outcomes, not failures.
		return Result{}, fmt.Errorf("%w: unknown status %q", ErrUnavailable, res.Status)
	}
}
