package balance

import (
	"fmt"
	"testing"
	"time"

	"mandira-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// test başına izole in-memory veritabanı; cache=shared aynı testin
	// bağlantı havuzunun tek veritabanını görmesi için
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Area{},
		&models.MilkType{},
		&models.Customer{},
		&models.Sale{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.MonthlyBalance{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func newCustomer(t *testing.T, db *gorm.DB, name string) *models.Customer {
	t.Helper()
	cu := models.Customer{Name: name}
	require.NoError(t, db.Create(&cu).Error)
	return &cu
}

func addSale(t *testing.T, db *gorm.DB, customerID uint, date time.Time, amount string) {
	t.Helper()
	amt := decimal.RequireFromString(amount)
	mt := models.MilkType{Name: "Cow", RatePerLiter: decimal.NewFromInt(1)}
	require.NoError(t, db.FirstOrCreate(&mt, models.MilkType{Name: "Cow"}).Error)
	s := models.Sale{
		CustomerID: customerID,
		MilkTypeID: mt.ID,
		Date:       date,
		Quantity:   amt,
		Rate:       decimal.NewFromInt(1),
		Amount:     amt,
	}
	require.NoError(t, db.Create(&s).Error)
}

func addDirectPayment(t *testing.T, db *gorm.DB, customerID uint, p Period, amount string) {
	t.Helper()
	pay := models.Payment{
		CustomerID: customerID,
		Date:       time.Date(p.Year, time.Month(p.Month), 10, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString(amount),
		Month:      &p.Month,
		Year:       &p.Year,
	}
	require.NoError(t, db.Create(&pay).Error)
}

func getBalance(t *testing.T, db *gorm.DB, customerID uint, p Period) *models.MonthlyBalance {
	t.Helper()
	var mb models.MonthlyBalance
	require.NoError(t, db.Where("customer_id = ? AND year = ? AND month = ?",
		customerID, p.Year, p.Month).First(&mb).Error)
	return &mb
}

func TestPeriodBounds(t *testing.T) {
	p := Period{Year: 2026, Month: 12}
	start, end := p.Bounds()
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestUnionDedupesAndSorts(t *testing.T) {
	got := Union(
		[]Period{{2026, 3}, {2026, 1}},
		[]Period{{2026, 1}, {2025, 12}},
	)
	assert.Equal(t, []Period{{2025, 12}, {2026, 1}, {2026, 3}}, got)
}

func TestRecalculateStatuses(t *testing.T) {
	db := openTestDB(t)
	cu := newCustomer(t, db, "Ali")

	jan := Period{Year: 2026, Month: 1}
	feb := Period{Year: 2026, Month: 2}
	mar := Period{Year: 2026, Month: 3}

	addSale(t, db, cu.ID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "100")
	addSale(t, db, cu.ID, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), "50")
	addSale(t, db, cu.ID, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), "200")
	addDirectPayment(t, db, cu.ID, jan, "150")

	require.NoError(t, Recalculate(db, cu.ID, []Period{jan, feb, mar}))

	mbJan := getBalance(t, db, cu.ID, jan)
	assert.True(t, mbJan.SalesAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, mbJan.PaymentAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, mbJan.Balance.IsZero())
	assert.Equal(t, models.BalanceStatusPaid, mbJan.Status)

	mbFeb := getBalance(t, db, cu.ID, feb)
	assert.True(t, mbFeb.Balance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.BalanceStatusPending, mbFeb.Status)

	mbMar := getBalance(t, db, cu.ID, mar)
	assert.True(t, mbMar.SalesAmount.IsZero())
	assert.Equal(t, models.BalanceStatusNoSales, mbMar.Status)
}

func TestRecalculateOverpaidMonthIsPaid(t *testing.T) {
	db := openTestDB(t)
	cu := newCustomer(t, db, "Ayşe")

	jan := Period{Year: 2026, Month: 1}
	addSale(t, db, cu.ID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "100")
	addDirectPayment(t, db, cu.ID, jan, "120")

	require.NoError(t, Recalculate(db, cu.ID, []Period{jan}))

	mb := getBalance(t, db, cu.ID, jan)
	assert.True(t, mb.Balance.Equal(decimal.NewFromInt(-20)))
	assert.Equal(t, models.BalanceStatusPaid, mb.Status)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	cu := newCustomer(t, db, "Veli")

	jan := Period{Year: 2026, Month: 1}
	addSale(t, db, cu.ID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "80")

	require.NoError(t, Recalculate(db, cu.ID, []Period{jan}))
	first := getBalance(t, db, cu.ID, jan)

	require.NoError(t, Recalculate(db, cu.ID, []Period{jan}))
	second := getBalance(t, db, cu.ID, jan)

	assert.Equal(t, first.ID, second.ID) // upsert, yeni satır açılmaz
	assert.True(t, first.Balance.Equal(second.Balance))

	var count int64
	db.Model(&models.MonthlyBalance{}).
		Where("customer_id = ?", cu.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRecalculateCountsAllocations(t *testing.T) {
	db := openTestDB(t)
	cu := newCustomer(t, db, "Fatma")

	jan := Period{Year: 2026, Month: 1}
	addSale(t, db, cu.ID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "100")

	pay := models.Payment{
		CustomerID: cu.ID,
		Date:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(60),
	}
	require.NoError(t, db.Create(&pay).Error)
	require.NoError(t, db.Create(&models.PaymentAllocation{
		PaymentID: pay.ID,
		Year:      jan.Year,
		Month:     jan.Month,
		Amount:    decimal.NewFromInt(60),
	}).Error)

	require.NoError(t, Recalculate(db, cu.ID, []Period{jan}))

	mb := getBalance(t, db, cu.ID, jan)
	assert.True(t, mb.PaymentAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, mb.Balance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, models.BalanceStatusPending, mb.Status)
}

func TestRecalculateAllFindsEveryTouchedPeriod(t *testing.T) {
	db := openTestDB(t)
	cu := newCustomer(t, db, "Hasan")

	addSale(t, db, cu.ID, time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC), "100")
	addSale(t, db, cu.ID, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), "50")
	addDirectPayment(t, db, cu.ID, Period{Year: 2026, Month: 1}, "30")

	require.NoError(t, RecalculateAll(db, cu.ID))

	var count int64
	db.Model(&models.MonthlyBalance{}).
		Where("customer_id = ?", cu.ID).Count(&count)
	assert.EqualValues(t, 3, count)

	// tahsilatı olup satışı olmayan ay no_sales kalır
	mbJan := getBalance(t, db, cu.ID, Period{Year: 2026, Month: 1})
	assert.Equal(t, models.BalanceStatusNoSales, mbJan.Status)
}
