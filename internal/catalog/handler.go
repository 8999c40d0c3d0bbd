package catalog

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	provider Provider
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(provider Provider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) Operators(c *fiber.Ctx) error {
	ops, err := h.provider.Operators(c.UserContext(), OperatorType(c.Query("type")))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"operators": ops})
}

func (h *Handler) Circles(c *fiber.Ctx) error {
	circles, err := h.provider.Circles(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"circles": circles})
}

func (h *Handler) Plans(c *fiber.Ctx) error {
	operatorID := c.Params("operatorId")
	plans, err := h.provider.Plans(c.UserContext(), operatorID, c.Query("category"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"plans": plans})
}

func (h *Handler) Detect(c *fiber.Ctx) error {
	number := c.Query("mobile_number")
	if number == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile_number is required")
	}
	op, circle, err := h.provider.DetectOperator(c.UserContext(), number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "could not detect operator")
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"operator": op, "circle": circle})
}
