package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyforme-service/internal/api/dto"
	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/service"
)

// StaffRequestsHandler serves the staff-only fulfilment endpoints.
type StaffRequestsHandler struct {
	service *service.BuyForMeService
}

// NewStaffRequestsHandler constructs handler.
func NewStaffRequestsHandler(svc *service.BuyForMeService) *StaffRequestsHandler {
	return &StaffRequestsHandler{service: svc}
}

// Review POST /buyforme/requests/:id/review.
func (h *StaffRequestsHandler) Review(c *fiber.Ctx) error {
	var req dto.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.Review(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Payment POST /buyforme/requests/:id/payment.
func (h *StaffRequestsHandler) Payment(c *fiber.Ctx) error {
	var req dto.PaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.ProcessPayment(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Purchase POST /buyforme/requests/:id/purchase.
func (h *StaffRequestsHandler) Purchase(c *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.MarkPurchased(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// QualityControl POST /buyforme/requests/:id/quality-control.
func (h *StaffRequestsHandler) QualityControl(c *fiber.Ctx) error {
	var req dto.QualityControlRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.QualityControl(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Ship POST /buyforme/requests/:id/shipping.
func (h *StaffRequestsHandler) Ship(c *fiber.Ctx) error {
	var req dto.ShipRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.Ship(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Deliver POST /buyforme/requests/:id/delivery.
func (h *StaffRequestsHandler) Deliver(c *fiber.Ctx) error {
	var req dto.DeliverRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.Deliver(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Returns POST /buyforme/requests/:id/returns.
func (h *StaffRequestsHandler) Returns(c *fiber.Ctx) error {
	var req dto.ReturnRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.ReturnOrReplace(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}
