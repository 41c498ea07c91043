package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment: müşteriden alınan tahsilat. İki modu var:
//   - tek ay:   Month ve Year dolu, allocation kaydı yok
//   - çok ay:   Month ve Year NULL, tutar PaymentAllocation satırlarıyla
//     aylara dağıtılmış durumda
//
// İkisi aynı anda dolu olamaz; bu kuralı payment servisi korur.
type Payment struct {
	ID         uint `gorm:"primaryKey"`
	CustomerID uint `gorm:"index;not null"`
	Customer   Customer

	Date        time.Time       `gorm:"index;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Description string          `gorm:"size:255"`

	Month *int `gorm:"index"`
	Year  *int `gorm:"index"`

	Allocations []PaymentAllocation `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMultiMonth: tahsilatın dağıtılmış modda olup olmadığı
func (p *Payment) IsMultiMonth() bool {
	return p.Month == nil && p.Year == nil
}

// PaymentAllocation: çok aylı tahsilatın bir aya düşen payı.
// Toplamları hiçbir zaman tahsilat tutarını aşamaz.
type PaymentAllocation struct {
	ID        uint `gorm:"primaryKey"`
	PaymentID uint `gorm:"index;not null"`

	Month  int             `gorm:"not null"` // 1-12
	Year   int             `gorm:"not null"`
	Amount decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	CreatedAt time.Time
}
