package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rechargehub/rechargehub/internal/catalog"
)

// RegisterCatalogRoutes exposes the operator/circle/plan catalog. These are
// public: the storefront renders them before the user signs in.
func RegisterCatalogRoutes(router fiber.Router, h *catalog.Handler) {
	group := router.Group("/catalog")
	group.Get("/operators", h.Operators)
	group.Get("/circles", h.Circles)
	group.Get("/operators/:operatorId/plans", h.Plans)
	group.Get("/detect", h.Detect)
}
