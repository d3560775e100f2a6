package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shop/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products. Order is whatever the store returns.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product. The store assigns the ID and both
// timestamps on the passed struct.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update persists all fields of an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row,
		// so we check RowsAffected.
		return ErrNotFound
	}
	return nil
}

// Delete removes a product by its ID. Hard delete; IDs are never reused
// because the store's identity sequence only moves forward.
func (r *GORMProductRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByName retrieves all products whose name matches exactly.
func (r *GORMProductRepository) FindByName(name string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("name = ?", name).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// FindByNameContaining retrieves all products whose name contains the
// fragment.
func (r *GORMProductRepository) FindByNameContaining(fragment string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("name LIKE ?", "%"+fragment+"%").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by name fragment: %w", err)
	}
	return products, nil
}

// FindByDescriptionContaining retrieves all products whose description
// contains the fragment.
func (r *GORMProductRepository) FindByDescriptionContaining(fragment string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("description LIKE ?", "%"+fragment+"%").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by description fragment: %w", err)
	}
	return products, nil
}

// FindByPriceBetween retrieves all products priced within the inclusive
// range [min, max].
func (r *GORMProductRepository) FindByPriceBetween(min, max models.Money) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("price BETWEEN ? AND ?", min, max).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by price range: %w", err)
	}
	return products, nil
}

// FindByPriceBelow retrieves all products priced strictly below the
// given price.
func (r *GORMProductRepository) FindByPriceBelow(price models.Money) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("price < ?", price).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products below price: %w", err)
	}
	return products, nil
}

// FindByPriceAbove retrieves all products priced strictly above the
// given price.
func (r *GORMProductRepository) FindByPriceAbove(price models.Money) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("price > ?", price).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products above price: %w", err)
	}
	return products, nil
}

// FindByNameOrDescriptionContaining retrieves the union of name and
// description containment matches for the same keyword.
func (r *GORMProductRepository) FindByNameOrDescriptionContaining(keyword string) ([]models.Product, error) {
	var products []models.Product
	pattern := "%" + keyword + "%"
	if err := r.db.Where("name LIKE ? OR description LIKE ?", pattern, pattern).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products by keyword: %w", err)
	}
	return products, nil
}

// FindAboveAveragePrice retrieves all products priced strictly above the
// mean price, computed over the same snapshot by the store.
func (r *GORMProductRepository) FindAboveAveragePrice() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("price > (SELECT AVG(price) FROM products)").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products above average price: %w", err)
	}
	return products, nil
}

// CountAll returns the total number of products.
func (r *GORMProductRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CountByPriceAtLeast returns the number of products priced at or above
// the given price.
func (r *GORMProductRepository) CountByPriceAtLeast(price models.Money) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Where("price >= ?", price).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products by price: %w", err)
	}
	return count, nil
}

// ExistsByID reports whether a product with the given ID exists.
func (r *GORMProductRepository) ExistsByID(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByName reports whether a product with the exact name exists.
func (r *GORMProductRepository) ExistsByName(name string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product name existence: %w", err)
	}
	return count > 0, nil
}
