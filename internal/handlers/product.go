package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/qubzes/baiyit/internal/models"
	"github.com/qubzes/baiyit/internal/repository"
	"github.com/qubzes/baiyit/internal/utils"
)

// ProductHandler manages catalog CRUD.
type ProductHandler struct {
	products *repository.Repository[models.Product]
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{
		products: repository.New[models.Product](db, models.ProductFields, models.ProductSearchFields),
	}
}

type productRequest struct {
	Title         string   `json:"title" validate:"required,max=100"`
	Description   string   `json:"description" validate:"required"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gt=0"`
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gt=0"`
	Image         string   `json:"image" validate:"required"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	Category      string   `json:"category" validate:"omitempty,max=50"`
	Featured      bool     `json:"featured"`
	Specs         []string `json:"specs"`
}

// CreateProduct adds a catalog entry (admin only, enforced at the route).
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	product := models.Product{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		DiscountPrice: req.DiscountPrice,
		Image:         req.Image,
		Rating:        req.Rating,
		Category:      req.Category,
		Featured:      req.Featured,
		Specs:         pq.StringArray(req.Specs),
	}

	if err := h.products.Save(c.Context(), &product); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetProduct loads a product by id.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	product, err := h.products.Get(c.Context(), map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return c.JSON(product)
}

// ListProducts returns paginated products with optional filters, free-text
// search and price/rating range predicates.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	q := utils.ParseListQuery(c)

	filters := map[string]any{}
	if v := c.Query("category"); v != "" {
		filters["category"] = v
	}
	if v := c.Query("featured"); v != "" {
		filters["featured"] = c.QueryBool("featured")
	}

	var scopes []func(*gorm.DB) *gorm.DB
	if v := c.Query("min_price"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
				return db.Where("price >= ?", val)
			})
		}
	}
	if v := c.Query("max_price"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
				return db.Where("price <= ?", val)
			})
		}
	}
	if v := c.Query("min_rating"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
				return db.Where("rating >= ?", val)
			})
		}
	}

	products, total, err := h.products.List(c.Context(), repository.ListParams{
		Page:       q.Page,
		Size:       q.Size,
		SortBy:     q.SortBy,
		Descending: q.Descending,
		Filters:    filters,
		UseOr:      q.UseOr,
		Search:     q.Search,
		Scopes:     scopes,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  products,
		"total": total,
		"page":  q.Page,
		"pages": q.Pages(total),
	})
}

type productUpdateRequest struct {
	Title         *string  `json:"title" validate:"omitempty,max=100"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gt=0"`
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gt=0"`
	Image         *string  `json:"image"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Category      *string  `json:"category" validate:"omitempty,max=50"`
	Featured      *bool    `json:"featured"`
	Specs         []string `json:"specs"`
}

// UpdateProduct applies the non-nil fields of the request.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req productUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	product, err := h.products.Get(c.Context(), map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return err
	}

	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		product.OriginalPrice = req.OriginalPrice
	}
	if req.DiscountPrice != nil {
		product.DiscountPrice = req.DiscountPrice
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Rating != nil {
		product.Rating = *req.Rating
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.Specs != nil {
		product.Specs = pq.StringArray(req.Specs)
	}

	if err := h.products.Save(c.Context(), product); err != nil {
		return err
	}
	return c.JSON(product)
}

// DeleteProduct removes a catalog entry.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	product, err := h.products.Get(c.Context(), map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return err
	}

	if err := h.products.Delete(c.Context(), product); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}
