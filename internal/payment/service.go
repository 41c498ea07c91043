package payment

import (
	"fmt"
	"time"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Input: tahsilat oluşturma/düzenleme girdisi. Ya Month+Year dolu
// (tek ay) ya da TargetPeriods dolu (çok ay); ikisi birden olamaz.
type Input struct {
	CustomerID  uint
	Date        time.Time
	Amount      decimal.Decimal
	Description string

	Month *int
	Year  *int

	TargetPeriods []balance.Period
}

func (in *Input) validate() error {
	if in.CustomerID == 0 {
		return fmt.Errorf("müşteri zorunlu")
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("tutar sıfırdan büyük olmalı")
	}
	if (in.Month == nil) != (in.Year == nil) {
		return fmt.Errorf("ay ve yıl birlikte verilmeli")
	}
	if in.Month != nil {
		p := balance.Period{Year: *in.Year, Month: *in.Month}
		if !p.Valid() {
			return fmt.Errorf("geçersiz ay/yıl")
		}
		if len(in.TargetPeriods) > 0 {
			return fmt.Errorf("tek ay tahsilatında hedef ay listesi verilemez")
		}
		return nil
	}
	for _, p := range in.TargetPeriods {
		if !p.Valid() {
			return fmt.Errorf("geçersiz hedef ay: %d/%d", p.Month, p.Year)
		}
	}
	return nil
}

func (in *Input) isMultiMonth() bool { return in.Month == nil }

// Create: tahsilatı tek transaction içinde kaydeder. Çok aylı ise
// dağıtım motoru çalışır ve allocation satırları yazılır; dokunulan
// bütün ayların bakiyeleri aynı transaction'da yeniden hesaplanır.
func Create(db *gorm.DB, in Input) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, in.CustomerID).Error; err != nil {
			return fmt.Errorf("müşteri bulunamadı")
		}

		p = models.Payment{
			CustomerID:  in.CustomerID,
			Date:        in.Date,
			Amount:      in.Amount,
			Description: in.Description,
			Month:       in.Month,
			Year:        in.Year,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		var touched []balance.Period
		if in.isMultiMonth() {
			allocated, err := runAllocation(tx, &p, in.TargetPeriods)
			if err != nil {
				return err
			}
			// seçilen ama pay almayan aylar da yeniden hesaplanır;
			// değişmezler ama no_sales gibi eksik kayıtlar tamamlanmış olur
			touched = balance.Union(allocated, in.TargetPeriods)
		} else {
			touched = []balance.Period{{Year: *in.Year, Month: *in.Month}}
		}

		return balance.Recalculate(tx, p.CustomerID, touched)
	})
	if err != nil {
		return nil, err
	}

	return reload(db, p.ID)
}

// Update: düzenleme durum makinesi. Mod ne olursa olsun mevcut
// allocation satırları SİLİNİR ve (çok aylıysa) baştan üretilir —
// artımlı fark alınmaz, böylece kayma/çift sayma sınıfı hatalar
// baştan yok. Eski ve yeni dönemlerin birleşimi yeniden hesaplanır.
func Update(db *gorm.DB, id uint, in Input) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Preload("Allocations").First(&p, id).Error; err != nil {
			return fmt.Errorf("tahsilat bulunamadı")
		}

		oldCustomerID := p.CustomerID
		oldPeriods := touchedPeriods(&p)

		// delete-then-recreate: her düzenlemede önce temizlik
		if err := tx.Where("payment_id = ?", p.ID).
			Delete(&models.PaymentAllocation{}).Error; err != nil {
			return err
		}

		if in.CustomerID != oldCustomerID {
			var customer models.Customer
			if err := tx.First(&customer, in.CustomerID).Error; err != nil {
				return fmt.Errorf("müşteri bulunamadı")
			}
		}

		// Month/Year NULL'a çekilebileceği için map ile güncelleme.
		// Model olarak p DEĞİL boş model kullanılıyor: p'nin preload
		// edilmiş Allocations'ı üzerinden GORM az önce silinen satırları
		// geri yazar, tahsilat hem tek ay hem dağıtılmış görünürdü.
		updates := map[string]interface{}{
			"customer_id": in.CustomerID,
			"date":        in.Date,
			"amount":      in.Amount,
			"description": in.Description,
			"month":       in.Month,
			"year":        in.Year,
		}
		if err := tx.Model(&models.Payment{}).Where("id = ?", p.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		p.CustomerID = in.CustomerID
		p.Amount = in.Amount
		p.Month = in.Month
		p.Year = in.Year
		p.Allocations = nil

		var newPeriods []balance.Period
		if in.isMultiMonth() {
			allocated, err := runAllocation(tx, &p, in.TargetPeriods)
			if err != nil {
				return err
			}
			newPeriods = balance.Union(allocated, in.TargetPeriods)
		} else {
			newPeriods = []balance.Period{{Year: *in.Year, Month: *in.Month}}
		}

		// müşteri değiştiyse iki müşterinin de dönemleri düzeltilir
		if in.CustomerID != oldCustomerID {
			if err := balance.Recalculate(tx, oldCustomerID, oldPeriods); err != nil {
				return err
			}
			return balance.Recalculate(tx, in.CustomerID, newPeriods)
		}

		return balance.Recalculate(tx, in.CustomerID, balance.Union(oldPeriods, newPeriods))
	})
	if err != nil {
		return nil, err
	}

	return reload(db, id)
}

// Delete: tahsilatı ve allocation satırlarını siler, dokunduğu ayları
// bu tahsilat olmadan yeniden hesaplar.
func Delete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Preload("Allocations").First(&p, id).Error; err != nil {
			return fmt.Errorf("tahsilat bulunamadı")
		}

		periods := touchedPeriods(&p)

		if err := tx.Where("payment_id = ?", p.ID).
			Delete(&models.PaymentAllocation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}

		return balance.Recalculate(tx, p.CustomerID, periods)
	})
}

// runAllocation: hedef ayların kalan borcunu CANLI veriden hesaplar
// (bu tahsilatın eski satırları bu noktada silinmiş durumda, kendi
// kendini sayamaz), motoru çalıştırır, satırları yazar.
func runAllocation(tx *gorm.DB, p *models.Payment, targets []balance.Period) ([]balance.Period, error) {
	outstandings := make([]PeriodOutstanding, 0, len(targets))
	for _, t := range balance.Union(targets) {
		remaining, err := balance.Outstanding(tx, p.CustomerID, t)
		if err != nil {
			return nil, err
		}
		outstandings = append(outstandings, PeriodOutstanding{Period: t, Outstanding: remaining})
	}

	allocations := Allocate(p.Amount, outstandings)

	var periods []balance.Period
	for _, a := range allocations {
		row := models.PaymentAllocation{
			PaymentID: p.ID,
			Month:     a.Period.Month,
			Year:      a.Period.Year,
			Amount:    a.Amount,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		periods = append(periods, a.Period)
	}

	return periods, nil
}

// touchedPeriods: tahsilatın şu an dokunduğu aylar — tek ay modunda
// hedef ayı, çok ay modunda allocation satırlarının ayları.
func touchedPeriods(p *models.Payment) []balance.Period {
	if !p.IsMultiMonth() {
		return []balance.Period{{Year: *p.Year, Month: *p.Month}}
	}
	periods := make([]balance.Period, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		periods = append(periods, balance.Period{Year: a.Year, Month: a.Month})
	}
	return periods
}

// Unallocated: tutar ile dağıtılan toplam arasındaki fark (fazla ödeme).
// İade edilmez, ileriye taşınmaz; sadece raporlanır.
func Unallocated(p *models.Payment) decimal.Decimal {
	if !p.IsMultiMonth() {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, a := range p.Allocations {
		sum = sum.Add(a.Amount)
	}
	return p.Amount.Sub(sum)
}

func reload(db *gorm.DB, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := db.Preload("Allocations").Preload("Customer").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
