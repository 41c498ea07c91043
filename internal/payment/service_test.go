package payment

import (
	"fmt"
	"testing"
	"time"

	"mandira-backend/internal/balance"
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

func seedCustomerWithSales(t *testing.T, db *gorm.DB, sales map[balance.Period]string) *models.Customer {
	t.Helper()

	cu := models.Customer{Name: "Test Müşteri"}
	require.NoError(t, db.Create(&cu).Error)

	mt := models.MilkType{Name: "Cow", RatePerLiter: decimal.NewFromInt(1)}
	require.NoError(t, db.Create(&mt).Error)

	for p, amount := range sales {
		amt := decimal.RequireFromString(amount)
		s := models.Sale{
			CustomerID: cu.ID,
			MilkTypeID: mt.ID,
			Date:       time.Date(p.Year, time.Month(p.Month), 5, 0, 0, 0, 0, time.UTC),
			Quantity:   amt,
			Rate:       decimal.NewFromInt(1),
			Amount:     amt,
		}
		require.NoError(t, db.Create(&s).Error)
		require.NoError(t, balance.Recalculate(db, cu.ID, []balance.Period{p}))
	}
	return &cu
}

func balanceOf(t *testing.T, db *gorm.DB, customerID uint, p balance.Period) *models.MonthlyBalance {
	t.Helper()
	var mb models.MonthlyBalance
	require.NoError(t, db.Where("customer_id = ? AND year = ? AND month = ?",
		customerID, p.Year, p.Month).First(&mb).Error)
	return &mb
}

func intp(v int) *int { return &v }

func TestCreateSingleMonthPayment(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100"})

	p, err := Create(db, Input{
		CustomerID: cu.ID,
		Date:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(100),
		Month:      intp(1),
		Year:       intp(2026),
	})
	require.NoError(t, err)
	assert.False(t, p.IsMultiMonth())
	assert.Empty(t, p.Allocations)

	mb := balanceOf(t, db, cu.ID, jan)
	assert.True(t, mb.Balance.IsZero())
	assert.Equal(t, models.BalanceStatusPaid, mb.Status)
}

func TestCreateMultiMonthExactCover(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(250),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)
	require.Len(t, p.Allocations, 2)
	assert.True(t, Unallocated(p).IsZero())

	assert.Equal(t, models.BalanceStatusPaid, balanceOf(t, db, cu.ID, jan).Status)
	assert.Equal(t, models.BalanceStatusPaid, balanceOf(t, db, cu.ID, feb).Status)
}

func TestCreateMultiMonthPartial(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(120),
		TargetPeriods: []balance.Period{feb, jan}, // sıra önemsiz
	})
	require.NoError(t, err)
	require.Len(t, p.Allocations, 2)

	// en eski ay tam kapanır, kalan şubata yazılır
	mbJan := balanceOf(t, db, cu.ID, jan)
	assert.Equal(t, models.BalanceStatusPaid, mbJan.Status)

	mbFeb := balanceOf(t, db, cu.ID, feb)
	assert.True(t, mbFeb.Balance.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, models.BalanceStatusPending, mbFeb.Status)
}

func TestCreateMultiMonthOverpayment(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(300),
		TargetPeriods: []balance.Period{jan},
	})
	require.NoError(t, err)
	require.Len(t, p.Allocations, 1)
	assert.True(t, p.Allocations[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, Unallocated(p).Equal(decimal.NewFromInt(200)))

	// fazla ödeme aya taşmaz, ay sadece kapanır
	mb := balanceOf(t, db, cu.ID, jan)
	assert.True(t, mb.PaymentAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.BalanceStatusPaid, mb.Status)
}

func TestUpdateRecreatesAllocations(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(250),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)

	// tutar düşürülür: allocation'lar baştan üretilmeli, şubat yeniden açılmalı
	p, err = Update(db, p.ID, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(100),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)
	require.Len(t, p.Allocations, 1)
	assert.True(t, p.Allocations[0].Amount.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, models.BalanceStatusPaid, balanceOf(t, db, cu.ID, jan).Status)
	mbFeb := balanceOf(t, db, cu.ID, feb)
	assert.True(t, mbFeb.Balance.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, models.BalanceStatusPending, mbFeb.Status)

	// eski satırlardan artık kalmamış olmalı
	var count int64
	db.Model(&models.PaymentAllocation{}).Where("payment_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUpdateSameInputIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	in := Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(120),
		TargetPeriods: []balance.Period{jan, feb},
	}

	p, err := Create(db, in)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err = Update(db, p.ID, in)
		require.NoError(t, err)
	}

	require.Len(t, p.Allocations, 2)
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(120)))

	mbFeb := balanceOf(t, db, cu.ID, feb)
	assert.True(t, mbFeb.Balance.Equal(decimal.NewFromInt(130)))
}

func TestUpdateSingleToMultiMonth(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID: cu.ID,
		Date:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(100),
		Month:      intp(2),
		Year:       intp(2026),
	})
	require.NoError(t, err)
	assert.True(t, balanceOf(t, db, cu.ID, feb).Balance.Equal(decimal.NewFromInt(50)))

	p, err = Update(db, p.ID, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(100),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)
	assert.True(t, p.IsMultiMonth())
	require.Len(t, p.Allocations, 1)
	assert.Equal(t, 1, p.Allocations[0].Month)

	// tek ay bağı kalkınca şubat eski borcuna döner, ocak kapanır
	assert.Equal(t, models.BalanceStatusPaid, balanceOf(t, db, cu.ID, jan).Status)
	assert.True(t, balanceOf(t, db, cu.ID, feb).Balance.Equal(decimal.NewFromInt(150)))
}

func TestUpdateMultiToSingleMonth(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(200),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)
	require.Len(t, p.Allocations, 2)

	p, err = Update(db, p.ID, Input{
		CustomerID: cu.ID,
		Date:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(200),
		Month:      intp(2),
		Year:       intp(2026),
	})
	require.NoError(t, err)

	// tek ay moduna dönüş: month/year dolu, allocation satırı kalmamalı
	assert.False(t, p.IsMultiMonth())
	require.NotNil(t, p.Month)
	assert.Equal(t, 2, *p.Month)
	assert.Empty(t, p.Allocations)

	var count int64
	db.Model(&models.PaymentAllocation{}).Where("payment_id = ?", p.ID).Count(&count)
	assert.Zero(t, count)

	// ocak dağıtım payını kaybeder ve yeniden borçlanır
	mbJan := balanceOf(t, db, cu.ID, jan)
	assert.True(t, mbJan.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.BalanceStatusPending, mbJan.Status)

	// şubat tutarın tamamını alır, fazlası negatif bakiye olarak kalır
	mbFeb := balanceOf(t, db, cu.ID, feb)
	assert.True(t, mbFeb.PaymentAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, mbFeb.Balance.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, models.BalanceStatusPaid, mbFeb.Status)
}

func TestDeleteRestoresBalances(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	feb := balance.Period{Year: 2026, Month: 2}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100", feb: "150"})

	p, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(250),
		TargetPeriods: []balance.Period{jan, feb},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BalanceStatusPaid, balanceOf(t, db, cu.ID, jan).Status)

	require.NoError(t, Delete(db, p.ID))

	assert.True(t, balanceOf(t, db, cu.ID, jan).Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, balanceOf(t, db, cu.ID, feb).Balance.Equal(decimal.NewFromInt(150)))

	var count int64
	db.Model(&models.PaymentAllocation{}).Where("payment_id = ?", p.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSequentialPaymentsSeeLiveOutstanding(t *testing.T) {
	db := openTestDB(t)
	jan := balance.Period{Year: 2026, Month: 1}
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{jan: "100"})

	_, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(60),
		TargetPeriods: []balance.Period{jan},
	})
	require.NoError(t, err)

	// ikinci tahsilat ilkinin payını görmeli, ayı 40 ile kapatmalı
	p2, err := Create(db, Input{
		CustomerID:    cu.ID,
		Date:          time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(100),
		TargetPeriods: []balance.Period{jan},
	})
	require.NoError(t, err)
	require.Len(t, p2.Allocations, 1)
	assert.True(t, p2.Allocations[0].Amount.Equal(decimal.NewFromInt(40)))
	assert.True(t, Unallocated(p2).Equal(decimal.NewFromInt(60)))

	mb := balanceOf(t, db, cu.ID, jan)
	assert.True(t, mb.Balance.IsZero())
	assert.Equal(t, models.BalanceStatusPaid, mb.Status)
}

func TestInputValidation(t *testing.T) {
	db := openTestDB(t)
	cu := seedCustomerWithSales(t, db, map[balance.Period]string{{Year: 2026, Month: 1}: "100"})

	base := Input{
		CustomerID: cu.ID,
		Date:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(50),
	}

	t.Run("ay var yıl yok", func(t *testing.T) {
		in := base
		in.Month = intp(1)
		_, err := Create(db, in)
		assert.Error(t, err)
	})

	t.Run("tek ay ile hedef listesi birlikte", func(t *testing.T) {
		in := base
		in.Month = intp(1)
		in.Year = intp(2026)
		in.TargetPeriods = []balance.Period{{Year: 2026, Month: 2}}
		_, err := Create(db, in)
		assert.Error(t, err)
	})

	t.Run("sıfır tutar", func(t *testing.T) {
		in := base
		in.Amount = decimal.Zero
		in.Month = intp(1)
		in.Year = intp(2026)
		_, err := Create(db, in)
		assert.Error(t, err)
	})

	t.Run("geçersiz hedef ay", func(t *testing.T) {
		in := base
		in.TargetPeriods = []balance.Period{{Year: 2026, Month: 13}}
		_, err := Create(db, in)
		assert.Error(t, err)
	})

	t.Run("olmayan müşteri", func(t *testing.T) {
		in := base
		in.CustomerID = 9999
		in.Month = intp(1)
		in.Year = intp(2026)
		_, err := Create(db, in)
		assert.Error(t, err)
	})
}
