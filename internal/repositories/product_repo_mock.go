package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shop/internal/models"
)

// MockProductRepository is an in-memory implementation of
// ProductRepository. It mirrors the store contract: IDs come from a
// monotonic sequence and are never reused, timestamps are assigned on
// create and refreshed on update, containment matches are
// case-sensitive.
type MockProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products ordered by ID.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(models.Product) bool { return true }), nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// Create adds a new product, assigning the next ID and both timestamps.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	product.ID = r.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	r.nextID++
	r.products[product.ID] = *product
	return nil
}

// Update overwrites an existing product and refreshes UpdatedAt.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrNotFound
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID. The ID is not reused afterwards.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// FindByName returns all products whose name matches exactly.
func (r *MockProductRepository) FindByName(name string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool { return p.Name == name }), nil
}

// FindByNameContaining returns all products whose name contains the
// fragment.
func (r *MockProductRepository) FindByNameContaining(fragment string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool { return strings.Contains(p.Name, fragment) }), nil
}

// FindByDescriptionContaining returns all products whose description
// contains the fragment.
func (r *MockProductRepository) FindByDescriptionContaining(fragment string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Description != nil && strings.Contains(*p.Description, fragment)
	}), nil
}

// FindByPriceBetween returns all products priced within [min, max].
func (r *MockProductRepository) FindByPriceBetween(min, max models.Money) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Price.Cmp(min.Decimal) >= 0 && p.Price.Cmp(max.Decimal) <= 0
	}), nil
}

// FindByPriceBelow returns all products priced strictly below price.
func (r *MockProductRepository) FindByPriceBelow(price models.Money) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool { return p.Price.Cmp(price.Decimal) < 0 }), nil
}

// FindByPriceAbove returns all products priced strictly above price.
func (r *MockProductRepository) FindByPriceAbove(price models.Money) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool { return p.Price.Cmp(price.Decimal) > 0 }), nil
}

// FindByNameOrDescriptionContaining returns the union of name and
// description containment matches for the same keyword.
func (r *MockProductRepository) FindByNameOrDescriptionContaining(keyword string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		if strings.Contains(p.Name, keyword) {
			return true
		}
		return p.Description != nil && strings.Contains(*p.Description, keyword)
	}), nil
}

// FindAboveAveragePrice returns all products priced strictly above the
// mean price of the current snapshot.
func (r *MockProductRepository) FindAboveAveragePrice() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.products) == 0 {
		return []models.Product{}, nil
	}
	prices := make([]decimal.Decimal, 0, len(r.products))
	for _, p := range r.products {
		prices = append(prices, p.Price.Decimal)
	}
	mean := decimal.Avg(prices[0], prices[1:]...)
	return r.collect(func(p models.Product) bool { return p.Price.Cmp(mean) > 0 }), nil
}

// CountAll returns the total number of products.
func (r *MockProductRepository) CountAll() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// CountByPriceAtLeast returns the number of products priced at or above
// the given price.
func (r *MockProductRepository) CountByPriceAtLeast(price models.Money) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		if p.Price.Cmp(price.Decimal) >= 0 {
			count++
		}
	}
	return count, nil
}

// ExistsByID reports whether a product with the given ID exists.
func (r *MockProductRepository) ExistsByID(id uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

// ExistsByName reports whether a product with the exact name exists.
func (r *MockProductRepository) ExistsByName(name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// collect gathers matching products ordered by ID. Callers must hold at
// least a read lock.
func (r *MockProductRepository) collect(match func(models.Product) bool) []models.Product {
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if match(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}
