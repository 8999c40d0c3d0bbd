package recharge

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/txn"
	"github.com/rechargehub/rechargehub/internal/wallet"
)

// Handler exposes the recharge, bill payment and transaction endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds the orchestrator's HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	OperatorID   string `json:"operator_id"`
	CircleID     string `json:"circle_id"`
	Amount       int64  `json:"amount"`
	MobileNumber string `json:"mobile_number"`
	DTHID        string `json:"dth_id"`
	PlanID       string `json:"plan_id"`
	OfferCode    string `json:"offer_code"`
}

type billRequest struct {
	OperatorID   string `json:"operator_id"`
	MobileNumber string `json:"mobile_number"`
}

// Submit processes a prepaid or DTH recharge for the authenticated user.
func (h *Handler) Submit(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.service.Submit(c.UserContext(), userID, SubmitInput{
		OperatorID:   req.OperatorID,
		CircleID:     req.CircleID,
		Amount:       req.Amount,
		MobileNumber: req.MobileNumber,
		DTHID:        req.DTHID,
		PlanID:       req.PlanID,
		OfferCode:    req.OfferCode,
	})
	return respond(c, outcome, err)
}

// FetchBill returns the outstanding postpaid bill for an account.
func (h *Handler) FetchBill(c *fiber.Ctx) error {
	var req billRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	bill, err := h.service.FetchBill(c.UserContext(), req.OperatorID, req.MobileNumber)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, "could not fetch bill")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"bill_number":   bill.BillNumber,
		"bill_date":     bill.BillDate.Format("2006-01-02"),
		"due_date":      bill.DueDate.Format("2006-01-02"),
		"amount":        bill.Amount,
		"customer_name": bill.CustomerName,
	})
}

// PayBill settles the outstanding bill for the authenticated user.
func (h *Handler) PayBill(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req billRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.service.PayBill(c.UserContext(), userID, PayBillInput{
		OperatorID:   req.OperatorID,
		MobileNumber: req.MobileNumber,
	})
	return respond(c, outcome, err)
}

// History lists the caller's transactions.
func (h *Handler) History(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	transactions, err := h.service.History(c.UserContext(), userID,
		txn.ServiceType(c.Query("service_type")), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionJSON(t))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Status returns one transaction owned by the caller.
func (h *Handler) Status(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	t, err := h.service.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, txn.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return err
	}
	if t.UserID != userID {
		return fiber.NewError(http.StatusNotFound, "transaction not found")
	}
	return c.Status(http.StatusOK).JSON(transactionJSON(t))
}

// Reconcile resolves a PENDING transaction owned by the caller.
func (h *Handler) Reconcile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	id := c.Params("id")

	t, err := h.service.Status(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, txn.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return err
	}
	if t.UserID != userID {
		return fiber.NewError(http.StatusNotFound, "transaction not found")
	}

	outcome, err := h.service.Reconcile(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(outcomeJSON(outcome))
}

func respond(c *fiber.Ctx, outcome Outcome, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return fiber.NewError(http.StatusPaymentRequired, "insufficient wallet balance")
		case errors.Is(err, ErrLockFailed):
			return c.Status(http.StatusConflict).JSON(outcomeJSON(outcome))
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(outcomeJSON(outcome))
}

func outcomeJSON(outcome Outcome) fiber.Map {
	m := fiber.Map{
		"status":         outcome.Status,
		"transaction_id": outcome.TransactionID,
		"message":        outcome.Message,
	}
	if outcome.Transaction.ID != "" {
		m["data"] = transactionJSON(outcome.Transaction)
	}
	return m
}

func transactionJSON(t txn.Transaction) fiber.Map {
	return fiber.Map{
		"id":                      t.ID,
		"kind":                    t.Kind,
		"service_type":            t.ServiceType,
		"amount":                  t.Amount,
		"status":                  t.Status,
		"operator_id":             t.OperatorID,
		"identifier":              t.Identifier,
		"reference_id":            t.ReferenceID,
		"provider_transaction_id": t.ProviderTransactionID,
		"metadata":                t.Metadata,
		"created_at":              t.CreatedAt,
		"updated_at":              t.UpdatedAt,
	}
}
