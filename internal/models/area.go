package models

import "time"

// Area: dağıtım bölgesi (mahalle / semt). Müşteriler bir bölgeye atanır,
// bölge silinince müşteriler silinmez, "atanmamış" durumuna düşer.
type Area struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Customers []Customer
}
