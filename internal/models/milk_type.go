package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MilkType: süt çeşidi (inek, manda vb.) ve litre fiyatı.
// Fiyat satış anında Sale.Rate alanına kopyalanır, sonradan
// fiyat değişse bile eski satışlar etkilenmez.
type MilkType struct {
	ID           uint            `gorm:"primaryKey"`
	Name         string          `gorm:"size:100;not null;unique"`
	RatePerLiter decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
