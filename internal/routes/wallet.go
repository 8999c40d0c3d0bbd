package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/wallet"
)

// RegisterWalletRoutes exposes the authenticated user's wallet.
func RegisterWalletRoutes(router fiber.Router, h *wallet.Handler) {
	group := router.Group("/wallet")
	group.Get("", h.Balance)
	group.Get("/ledger", h.Ledger)
	group.Post("/credit", h.Credit)
}
