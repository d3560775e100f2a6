package services

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"shop/internal/models"
	"shop/internal/repositories"
)

// EventPublisher publishes product change events. Implementations must
// be safe for concurrent use.
type EventPublisher interface {
	PublishProductEvent(event string, product *models.Product) error
}

// Product change event names.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductService handles business logic related to products: candidate
// validation, name uniqueness, and the named query intents.
type ProductService struct {
	repo     repositories.ProductRepository
	events   EventPublisher
	validate *validator.Validate
}

// NewProductService creates a new ProductService. events may be nil, in
// which case no change events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	v := validator.New()
	// Let the standard numeric tags (gt, gte) apply to Money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if m, ok := field.Interface().(models.Money); ok {
			f, _ := m.Float64()
			return f
		}
		return nil
	}, models.Money{})

	return &ProductService{
		repo:     repo,
		events:   events,
		validate: v,
	}
}

// CreateProduct validates the candidate, enforces name uniqueness and
// persists a new product. The store assigns the ID and both timestamps.
func (s *ProductService) CreateProduct(candidate models.CandidateProduct) (*models.Product, error) {
	candidate = normalizeCandidate(candidate)
	if err := s.validateCandidate(&candidate); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(candidate.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ConflictError{Name: candidate.Name}
	}

	product := &models.Product{
		Name:        candidate.Name,
		Description: candidate.Description,
		Price:       *candidate.Price,
	}
	if err := s.repo.Create(product); err != nil {
		// The unique index on name is the real enforcement point; a
		// racing create loses here rather than inserting a duplicate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Name: candidate.Name}
		}
		return nil, err
	}

	s.publish(EventProductCreated, product)
	return product, nil
}

// UpdateProduct overwrites name, description and price of an existing
// product. ID and CreatedAt are immutable; UpdatedAt is refreshed by the
// store.
func (s *ProductService) UpdateProduct(id uint, candidate models.CandidateProduct) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}

	candidate = normalizeCandidate(candidate)
	if err := s.validateCandidate(&candidate); err != nil {
		return nil, err
	}

	if candidate.Name != existing.Name {
		taken, err := s.repo.ExistsByName(candidate.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &ConflictError{Name: candidate.Name}
		}
	}

	existing.Name = candidate.Name
	existing.Description = candidate.Description
	existing.Price = *candidate.Price
	if err := s.repo.Update(existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Name: candidate.Name}
		}
		return nil, err
	}

	s.publish(EventProductUpdated, existing)
	return existing, nil
}

// DeleteProduct removes a product permanently. The ID is never reused.
func (s *ProductService) DeleteProduct(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	s.publish(EventProductDeleted, product)
	return nil
}

// GetAllProducts retrieves all products in store-defined order.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}
	return product, nil
}

// GetProductsByName retrieves all products whose name matches exactly.
func (s *ProductService) GetProductsByName(name string) ([]models.Product, error) {
	return s.repo.FindByName(name)
}

// SearchProductsByName retrieves products whose name contains the given
// fragment. A blank fragment returns the full list.
func (s *ProductService) SearchProductsByName(name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.repo.GetAll()
	}
	return s.repo.FindByNameContaining(name)
}

// SearchProductsByDescription retrieves products whose description
// contains the given fragment. A blank fragment returns the full list.
func (s *ProductService) SearchProductsByDescription(description string) ([]models.Product, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return s.repo.GetAll()
	}
	return s.repo.FindByDescriptionContaining(description)
}

// SearchProductsByPriceRange retrieves products priced within the
// inclusive range [min, max].
func (s *ProductService) SearchProductsByPriceRange(min, max models.Money) ([]models.Product, error) {
	if min.Cmp(max.Decimal) > 0 {
		return nil, &ValidationError{Field: "price", Reason: ReasonInvalidRange}
	}
	if min.IsNegative() {
		return nil, &ValidationError{Field: "minPrice", Reason: ReasonNegative}
	}
	if max.IsNegative() {
		return nil, &ValidationError{Field: "maxPrice", Reason: ReasonNegative}
	}
	return s.repo.FindByPriceBetween(min, max)
}

// GetProductsPricedBelow retrieves products priced strictly below price.
func (s *ProductService) GetProductsPricedBelow(price models.Money) ([]models.Product, error) {
	return s.repo.FindByPriceBelow(price)
}

// GetProductsPricedAbove retrieves products priced strictly above price.
func (s *ProductService) GetProductsPricedAbove(price models.Money) ([]models.Product, error) {
	return s.repo.FindByPriceAbove(price)
}

// SearchProducts retrieves the union of name and description containment
// matches for the keyword. A blank keyword returns the full list.
func (s *ProductService) SearchProducts(keyword string) ([]models.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.repo.GetAll()
	}
	return s.repo.FindByNameOrDescriptionContaining(keyword)
}

// GetTotalProductCount returns the total number of products.
func (s *ProductService) GetTotalProductCount() (int64, error) {
	return s.repo.CountAll()
}

// GetProductCountPricedAtLeast returns the number of products priced at
// or above the given price.
func (s *ProductService) GetProductCountPricedAtLeast(price models.Money) (int64, error) {
	if price.IsNegative() {
		return 0, &ValidationError{Field: "price", Reason: ReasonNegative}
	}
	return s.repo.CountByPriceAtLeast(price)
}

// GetProductsAboveAveragePrice retrieves all products priced strictly
// above the mean price of the current snapshot.
func (s *ProductService) GetProductsAboveAveragePrice() ([]models.Product, error) {
	return s.repo.FindAboveAveragePrice()
}

// ProductExists reports whether a product with the given ID exists.
func (s *ProductService) ProductExists(id uint) (bool, error) {
	return s.repo.ExistsByID(id)
}

// ProductExistsByName reports whether a product with the exact name
// exists. A blank name never exists.
func (s *ProductService) ProductExistsByName(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	return s.repo.ExistsByName(name)
}

// normalizeCandidate trims surrounding whitespace from name and
// description and rounds the price to two fractional digits.
func normalizeCandidate(c models.CandidateProduct) models.CandidateProduct {
	c.Name = strings.TrimSpace(c.Name)
	if c.Description != nil {
		trimmed := strings.TrimSpace(*c.Description)
		c.Description = &trimmed
	}
	if c.Price != nil {
		rounded := models.Money{Decimal: c.Price.Round(2)}
		c.Price = &rounded
	}
	return c
}

// validateCandidate checks the candidate's field constraints and maps
// the first violation to a ValidationError.
func (s *ProductService) validateCandidate(c *models.CandidateProduct) error {
	if c.Price == nil {
		return &ValidationError{Field: "price", Reason: ReasonRequired}
	}
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return toValidationError(fieldErrs[0])
	}
	return err
}

func toValidationError(fe validator.FieldError) *ValidationError {
	reason := ""
	switch fe.Tag() {
	case "required":
		reason = ReasonRequired
	case "max":
		reason = ReasonTooLong
	case "gt":
		reason = ReasonNotPositive
	}
	return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason}
}

func (s *ProductService) publish(event string, product *models.Product) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(event, product); err != nil {
		log.Printf("Failed to publish %s event for product %d: %v", event, product.ID, err)
	}
}
