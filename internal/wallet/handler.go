package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Balance returns the caller's balance, locked balance and available amount.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	w, err := h.store.Get(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":      w.ID,
		"balance":        w.Balance,
		"locked_balance": w.LockedBalance,
		"available":      w.Available(),
		"as_of":          time.Now().UTC(),
	})
}

// Ledger returns the caller's audit trail newest-first.
func (h *Handler) Ledger(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	limit := c.QueryInt("limit", 50)

	entries, err := h.store.History(c.UserContext(), userID, limit)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return err
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":             e.ID,
			"transaction_id": e.TransactionID,
			"type":           e.Type,
			"amount":         e.Amount,
			"balance_after":  e.BalanceAfter,
			"description":    e.Description,
			"created_at":     e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": out})
}

type creditRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Credit applies an administrative top-up to the caller's wallet. There is
// no payment-gateway flow behind this endpoint.
func (h *Handler) Credit(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req creditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Description == "" {
		req.Description = "wallet top-up"
	}

	if err := h.store.Credit(c.UserContext(), userID, req.Amount, req.Description); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	w, err := h.store.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":        w.Balance,
		"locked_balance": w.LockedBalance,
	})
}
