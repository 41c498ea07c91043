package models

import "time"

type Customer struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"size:200;not null;index"`
	Address string `gorm:"size:255"`
	Phone   string `gorm:"size:20"`

	// Bölge opsiyonel; NULL = atanmamış
	AreaID *uint `gorm:"index"`
	Area   *Area

	// Müşterinin abone olduğu süt çeşitleri
	MilkTypes []MilkType `gorm:"many2many:customer_milk_types"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
