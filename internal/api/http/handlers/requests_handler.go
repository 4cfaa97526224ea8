package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyforme-service/internal/api/dto"
	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/service"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// RequestsHandler serves BuyForMe endpoints shared by customers and staff.
type RequestsHandler struct {
	service *service.BuyForMeService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(svc *service.BuyForMeService) *RequestsHandler {
	return &RequestsHandler{service: svc}
}

// Create POST /buyforme/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	created, err := h.service.Create(c.UserContext(), actor, req.ToCommand())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": detail(actor, created)})
}

// List GET /buyforme/requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter, page, pageSize := parseRequestListQuery(c)
	list, err := h.service.List(c.UserContext(), auth.ActorFromContext(c), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(list))
	for i := range list {
		items = append(items, dto.NewRequestSummary(&list[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"page": page, "page_size": pageSize},
	})
}

// Get GET /buyforme/requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor := auth.ActorFromContext(c)
	req, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, req)})
}

// GetByNumber GET /buyforme/requests/number/:number.
func (h *RequestsHandler) GetByNumber(c *fiber.Ctx) error {
	actor := auth.ActorFromContext(c)
	req, err := h.service.GetByNumber(c.UserContext(), actor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, req)})
}

// Modify PUT /buyforme/requests/:id.
func (h *RequestsHandler) Modify(c *fiber.Ctx) error {
	var req dto.ModifyRequestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.Modify(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// Delete DELETE /buyforme/requests/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), auth.ActorFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CustomerReview POST /buyforme/requests/:id/customer-review.
func (h *RequestsHandler) CustomerReview(c *fiber.Ctx) error {
	var req dto.CustomerReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.CustomerReview(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// ChoosePacking POST /buyforme/requests/:id/packing.
func (h *RequestsHandler) ChoosePacking(c *fiber.Ctx) error {
	var req dto.PackingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	actor := auth.ActorFromContext(c)
	updated, err := h.service.ChoosePacking(c.UserContext(), actor, c.Params("id"), req.ToCommand())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail(actor, updated)})
}

// bind parses the JSON body into payload and runs struct validation. An empty body validates
// the zero payload.
func bind(c *fiber.Ctx, payload any) error {
	if len(c.Body()) == 0 {
		return dto.Validate(payload)
	}
	if err := c.BodyParser(payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(payload)
}

func detail(actor *domain.Actor, req *domain.Request) dto.RequestDetail {
	return dto.NewRequestDetail(req, actor != nil && actor.IsStaff())
}

func parseRequestListQuery(c *fiber.Ctx) (service.RequestListFilter, int, int) {
	filter := service.RequestListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.RequestPriority(strings.TrimSpace(part)))
		}
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, page, pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
