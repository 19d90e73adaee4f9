package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qubzes/baiyit/internal/middleware"
	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/repository"
	"github.com/qubzes/baiyit/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders   *repository.Repository[models.Order]
	products *repository.Repository[models.Product]
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{
		orders:   repository.New[models.Order](db, models.OrderFields, models.OrderSearchFields),
		products: repository.New[models.Product](db, models.ProductFields, models.ProductSearchFields),
	}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder composes the requested line items into an immutable order
// snapshot: effective unit prices and item fields are frozen at creation and
// never recomputed from the live catalog.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	var total float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		product, err := h.products.Get(c.Context(), map[string]any{"id": productID})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound,
					fmt.Sprintf("Product %s not found", item.ProductID))
			}
			return err
		}

		price := product.EffectivePrice()
		total += price * float64(item.Quantity)

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     price,
			Quantity:  item.Quantity,
			Image:     product.Image,
		})
	}

	order := models.Order{
		UserID: user.ID,
		Total:  total,
		Status: models.OrderProcessing,
		Items:  items,
	}
	if err := h.orders.Save(c.Context(), &order); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// ListOrders returns paginated orders scoped to the owner unless the caller
// is an admin.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	q := utils.ParseListQuery(c)

	filters := map[string]any{}
	if user.Role != models.RoleAdmin {
		filters["user_id"] = user.ID
	}
	if v := c.Query("status"); v != "" {
		status := models.OrderStatus(v)
		if !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid order status")
		}
		filters["status"] = status
	}

	orders, total, err := h.orders.List(c.Context(), repository.ListParams{
		Page:       q.Page,
		Size:       q.Size,
		SortBy:     q.SortBy,
		Descending: q.Descending,
		Filters:    filters,
		Search:     q.Search,
		Preloads:   []string{"Items"},
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  orders,
		"total": total,
		"page":  q.Page,
		"pages": q.Pages(total),
	})
}

// GetOrder loads one order; non-admins can only access their own.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadScoped(c, user)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// CancelOrder cancels an order; legal only while it is still processing.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.loadScoped(c, user)
	if err != nil {
		return err
	}

	if err := order.Transition(models.OrderCancelled); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Only processing orders can be canceled")
	}
	if err := h.orders.Save(c.Context(), order); err != nil {
		return err
	}
	return c.JSON(order)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus advances an order through the fulfilment state machine
// (admin only).
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if user.Role != models.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "Only admins can update order status")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	status := models.OrderStatus(req.Status)
	if !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order status")
	}

	order, err := h.loadScoped(c, user)
	if err != nil {
		return err
	}

	if err := order.Transition(status); err != nil {
		return err
	}
	if err := h.orders.Save(c.Context(), order); err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) loadScoped(c *fiber.Ctx, user *models.User) (*models.Order, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	filters := map[string]any{"id": id}
	if user.Role != models.RoleAdmin {
		filters["user_id"] = user.ID
	}

	order, err := h.orders.Get(c.Context(), filters, "Items")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Order not found")
		}
		return nil, err
	}
	return order, nil
}
