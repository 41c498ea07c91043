package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale: bir teslimat kaydı. Amount = Quantity * Rate, kayıt sırasında
// hesaplanıp saklanır; aylık bakiyeler bu kolondan toplanır.
type Sale struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"index;not null"`
	Customer   Customer
	MilkTypeID uint `gorm:"index;not null"`
	MilkType   MilkType

	Date     time.Time       `gorm:"index;not null"`
	Quantity decimal.Decimal `gorm:"type:numeric(10,2);not null"` // litre
	Rate     decimal.Decimal `gorm:"type:numeric(12,2);not null"` // litre fiyatı (satış anındaki)
	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Notes    string          `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
