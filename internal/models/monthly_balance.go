package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceStatus string

const (
	BalanceStatusNoSales BalanceStatus = "no_sales" // o ay satış yok
	BalanceStatusPaid    BalanceStatus = "paid"     // bakiye <= 0
	BalanceStatusPending BalanceStatus = "pending"  // bakiye > 0
)

// MonthlyBalance: (müşteri, yıl, ay) başına türetilmiş özet. Kaynak veri
// değil; Sale + Payment + PaymentAllocation satırlarından her yazmada
// baştan hesaplanan bir önbellek. balance.Recalculate dışında kimse yazmaz.
type MonthlyBalance struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"uniqueIndex:idx_customer_period;not null"`
	Customer   Customer
	Year       int `gorm:"uniqueIndex:idx_customer_period;not null"`
	Month      int `gorm:"uniqueIndex:idx_customer_period;not null"` // 1-12

	SalesAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"` // direkt + dağıtılmış
	Balance       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        BalanceStatus   `gorm:"size:20;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
