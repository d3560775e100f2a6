package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shop/internal/models"
	"shop/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// Static paths are registered before the :id routes so that "search",
// "count" and friends are not captured as IDs.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Post("/", h.HandleCreateProduct)
	products.Get("/search", h.HandleSearchProducts)
	products.Get("/search/name", h.HandleSearchByName)
	products.Get("/search/description", h.HandleSearchByDescription)
	products.Get("/search/price", h.HandleSearchByPriceRange)
	products.Get("/count", h.HandleCountProducts)
	products.Get("/count/price", h.HandleCountByPrice)
	products.Get("/above-average", h.HandleAboveAveragePrice)
	products.Get("/exists/name", h.HandleExistsByName)
	products.Get("/:id", h.HandleGetProductByID)
	products.Get("/:id/exists", h.HandleProductExists)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	product, err := h.service.GetProductByID(id)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product from the request body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var candidate models.CandidateProduct
	if err := c.BodyParser(&candidate); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return badRequest(c, "Invalid request body")
	}

	product, err := h.service.CreateProduct(candidate)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product from the request body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}

	var candidate models.CandidateProduct
	if err := c.BodyParser(&candidate); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return badRequest(c, "Invalid request body")
	}

	product, err := h.service.UpdateProduct(id, candidate)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.DeleteProduct(id); err != nil {
		return h.renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSearchByName retrieves products whose name contains the "name"
// query fragment.
func (h *ProductHandler) HandleSearchByName(c *fiber.Ctx) error {
	products, err := h.service.SearchProductsByName(c.Query("name"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleSearchByDescription retrieves products whose description
// contains the "description" query fragment.
func (h *ProductHandler) HandleSearchByDescription(c *fiber.Ctx) error {
	products, err := h.service.SearchProductsByDescription(c.Query("description"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleSearchByPriceRange retrieves products priced within the
// inclusive [minPrice, maxPrice] range.
func (h *ProductHandler) HandleSearchByPriceRange(c *fiber.Ctx) error {
	min, err := parsePrice(c, "minPrice")
	if err != nil {
		return badRequest(c, err.Error())
	}
	max, err := parsePrice(c, "maxPrice")
	if err != nil {
		return badRequest(c, err.Error())
	}

	products, err := h.service.SearchProductsByPriceRange(min, max)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleSearchProducts retrieves products matching the keyword in name
// or description. An empty keyword returns the full list.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.Query("keyword"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleCountProducts returns the total product count.
func (h *ProductHandler) HandleCountProducts(c *fiber.Ctx) error {
	count, err := h.service.GetTotalProductCount()
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(count)
}

// HandleCountByPrice returns the number of products priced at or above
// the "price" query parameter.
func (h *ProductHandler) HandleCountByPrice(c *fiber.Ctx) error {
	price, err := parsePrice(c, "price")
	if err != nil {
		return badRequest(c, err.Error())
	}
	count, err := h.service.GetProductCountPricedAtLeast(price)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(count)
}

// HandleAboveAveragePrice retrieves all products priced strictly above
// the current mean price.
func (h *ProductHandler) HandleAboveAveragePrice(c *fiber.Ctx) error {
	products, err := h.service.GetProductsAboveAveragePrice()
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(products)
}

// HandleProductExists reports whether a product with the given ID
// exists.
func (h *ProductHandler) HandleProductExists(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	exists, err := h.service.ProductExists(id)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(exists)
}

// HandleExistsByName reports whether a product with the exact "name"
// query value exists.
func (h *ProductHandler) HandleExistsByName(c *fiber.Ctx) error {
	exists, err := h.service.ProductExistsByName(c.Query("name"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(exists)
}

// renderError maps service errors to HTTP statuses: not-found to 404,
// validation and conflict to 400 (the API deliberately uses 400 rather
// than 409 for duplicate names), anything else to a generic 500.
func (h *ProductHandler) renderError(c *fiber.Ctx, err error) error {
	var notFound *services.NotFoundError
	var validation *services.ValidationError
	var conflict *services.ConflictError

	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": notFound.Error(),
		})
	case errors.As(err, &validation):
		return badRequest(c, validation.Error())
	case errors.As(err, &conflict):
		return badRequest(c, conflict.Error())
	default:
		log.Printf("Unexpected error handling %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parsePrice(c *fiber.Ctx, param string) (models.Money, error) {
	raw := c.Query(param)
	if raw == "" {
		return models.Money{}, fmt.Errorf("Query parameter %q is required", param)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return models.Money{}, fmt.Errorf("Query parameter %q must be a decimal number", param)
	}
	return models.Money{Decimal: d}, nil
}
