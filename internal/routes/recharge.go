package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/recharge"
)

// RegisterRechargeRoutes wires recharge submission, bill payment and
// transaction lookup.
func RegisterRechargeRoutes(router fiber.Router, h *recharge.Handler) {
	group := router.Group("/recharges")
	group.Post("", h.Submit)
	group.Get("", h.History)
	group.Get("/:id", h.Status)
	group.Post("/:id/reconcile", h.Reconcile)

	bills := router.Group("/bills")
	bills.Post("/fetch", h.FetchBill)
	bills.Post("/pay", h.PayBill)
}
