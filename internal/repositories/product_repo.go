package repositories

import (
	"errors"

	"shop/internal/models"
)

// ErrNotFound is returned when no product matches the given identity.
var ErrNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
// Each read method corresponds to one named query intent; all reads are
// side-effect-free.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error

	FindByName(name string) ([]models.Product, error)
	FindByNameContaining(fragment string) ([]models.Product, error)
	FindByDescriptionContaining(fragment string) ([]models.Product, error)
	FindByPriceBetween(min, max models.Money) ([]models.Product, error)
	FindByPriceBelow(price models.Money) ([]models.Product, error)
	FindByPriceAbove(price models.Money) ([]models.Product, error)
	FindByNameOrDescriptionContaining(keyword string) ([]models.Product, error)
	FindAboveAveragePrice() ([]models.Product, error)

	CountAll() (int64, error)
	CountByPriceAtLeast(price models.Money) (int64, error)
	ExistsByID(id uint) (bool, error)
	ExistsByName(name string) (bool, error)
}
