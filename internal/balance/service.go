package balance

import (
	"errors"
	"sort"
	"time"

	"mandira-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Period: bir (yıl, ay) dönemi. Aylık bakiyelerin ve tahsilat
// dağıtımının ortak anahtarı.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

func (p Period) Valid() bool {
	return p.Year >= 2000 && p.Month >= 1 && p.Month <= 12
}

// Bounds: dönemin [başlangıç, bitiş) tarih aralığı
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Before: kronolojik sıralama (en eski önce)
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Union: iki dönem listesini birleştirir, tekrarları atar, eskiden
// yeniye sıralar. Tahsilat düzenlemelerinde eski + yeni dönemlerin
// hepsi yeniden hesaplanmak zorunda.
func Union(lists ...[]Period) []Period {
	seen := make(map[Period]bool)
	var out []Period
	for _, list := range lists {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Totals: bir müşterinin bir dönemdeki satış ve tahsilat toplamları,
// her zaman kaynak satırlardan. Tahsilat toplamı = direkt (tek ay)
// tahsilatlar + çok aylı tahsilatlardan bu aya düşen paylar.
func Totals(tx *gorm.DB, customerID uint, p Period) (decimal.Decimal, decimal.Decimal, error) {
	start, end := p.Bounds()

	type row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}

	var sales row
	if err := tx.Model(&models.Sale{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("customer_id = ? AND date >= ? AND date < ?", customerID, start, end).
		Scan(&sales).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var direct row
	if err := tx.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("customer_id = ? AND month = ? AND year = ?", customerID, p.Month, p.Year).
		Scan(&direct).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var allocated row
	if err := tx.Model(&models.PaymentAllocation{}).
		Select("COALESCE(SUM(payment_allocations.amount), 0) as total").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.customer_id = ? AND payment_allocations.month = ? AND payment_allocations.year = ?",
			customerID, p.Month, p.Year).
		Scan(&allocated).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return sales.Total, direct.Total.Add(allocated.Total), nil
}

// Outstanding: dönemin kalan borcu (satış - tahsilat). Dağıtım motoru
// bu değeri girdi olarak alır; önbellekten değil canlı veriden gelir.
func Outstanding(tx *gorm.DB, customerID uint, p Period) (decimal.Decimal, error) {
	sales, payments, err := Totals(tx, customerID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return sales.Sub(payments), nil
}

func classify(sales, balanceAmount decimal.Decimal) models.BalanceStatus {
	switch {
	case sales.IsZero():
		return models.BalanceStatusNoSales
	case balanceAmount.LessThanOrEqual(decimal.Zero):
		return models.BalanceStatusPaid
	default:
		return models.BalanceStatusPending
	}
}

// Recalculate: verilen dönemlerin MonthlyBalance kayıtlarını kaynak
// satırlardan baştan hesaplar. Artımlı güncelleme YOK; önbellek hiçbir
// zaman kaynaktan sapamaz. Satış/tahsilat yazan her işlem, aynı
// transaction içinde bunu çağırmak zorunda.
func Recalculate(tx *gorm.DB, customerID uint, periods []Period) error {
	for _, p := range Union(periods) {
		sales, payments, err := Totals(tx, customerID, p)
		if err != nil {
			return err
		}

		bal := sales.Sub(payments)
		status := classify(sales, bal)

		var mb models.MonthlyBalance
		err = tx.Where("customer_id = ? AND year = ? AND month = ?", customerID, p.Year, p.Month).
			First(&mb).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			mb = models.MonthlyBalance{
				CustomerID:    customerID,
				Year:          p.Year,
				Month:         p.Month,
				SalesAmount:   sales,
				PaymentAmount: payments,
				Balance:       bal,
				Status:        status,
			}
			if err := tx.Create(&mb).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			mb.SalesAmount = sales
			mb.PaymentAmount = payments
			mb.Balance = bal
			mb.Status = status
			if err := tx.Save(&mb).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// RecalculateAll: müşterinin satış veya tahsilatı olan bütün dönemlerini
// baştan hesaplar (rebuild-balances CLI'ı ve müşteri bazlı onarım için).
func RecalculateAll(tx *gorm.DB, customerID uint) error {
	periods, err := touchedPeriodsOfCustomer(tx, customerID)
	if err != nil {
		return err
	}
	return Recalculate(tx, customerID, periods)
}

func touchedPeriodsOfCustomer(tx *gorm.DB, customerID uint) ([]Period, error) {
	var sales []models.Sale
	if err := tx.Select("date").Where("customer_id = ?", customerID).Find(&sales).Error; err != nil {
		return nil, err
	}

	var payments []models.Payment
	if err := tx.Select("id, month, year").Where("customer_id = ?", customerID).Find(&payments).Error; err != nil {
		return nil, err
	}

	var periods []Period
	for _, s := range sales {
		periods = append(periods, PeriodOf(s.Date))
	}

	var multiIDs []uint
	for _, p := range payments {
		if p.Month != nil && p.Year != nil {
			periods = append(periods, Period{Year: *p.Year, Month: *p.Month})
		} else {
			multiIDs = append(multiIDs, p.ID)
		}
	}

	if len(multiIDs) > 0 {
		var allocs []models.PaymentAllocation
		if err := tx.Where("payment_id IN ?", multiIDs).Find(&allocs).Error; err != nil {
			return nil, err
		}
		for _, a := range allocs {
			periods = append(periods, Period{Year: a.Year, Month: a.Month})
		}
	}

	return Union(periods), nil
}
