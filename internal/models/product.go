package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount that serializes as a bare JSON number with
// two fractional digits.
type Money struct {
	decimal.Decimal
}

// NewMoney builds a Money from whole units and cents,
// e.g. NewMoney(9, 99) == 9.99.
func NewMoney(units int64, cents int64) Money {
	return Money{decimal.New(units*100+cents, -2)}
}

// MarshalJSON renders the amount as an unquoted number with exactly two
// fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// Product represents a product in the catalog.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description *string   `json:"description" gorm:"size:1000"`
	Price       Money     `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// CandidateProduct is an unpersisted product payload submitted for
// create or update. Name and description are validated after trimming
// surrounding whitespace; price must be present and strictly positive.
// Price presence is checked separately from the tags so that a zero
// price reports as non-positive rather than missing.
type CandidateProduct struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Price       *Money  `json:"price" validate:"gt=0"`
}
