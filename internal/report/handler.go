package report

import (
	"time"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DailyLine struct {
	MilkTypeID   uint            `json:"milk_type_id"`
	MilkTypeName string          `json:"milk_type_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
}

type DailyReportResponse struct {
	Date          string          `json:"date"`
	Lines         []DailyLine     `json:"lines"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	SaleCount     int64           `json:"sale_count"`
}

type MonthlyCustomerRow struct {
	CustomerID    uint                 `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	AreaName      string               `json:"area_name,omitempty"`
	Quantity      decimal.Decimal      `json:"quantity"`
	SalesAmount   decimal.Decimal      `json:"sales_amount"`
	PaymentAmount decimal.Decimal      `json:"payment_amount"`
	Balance       decimal.Decimal      `json:"balance"`
	Status        models.BalanceStatus `json:"status"`
}

type MonthlyReportResponse struct {
	Year          int                  `json:"year"`
	Month         int                  `json:"month"`
	Rows          []MonthlyCustomerRow `json:"rows"`
	TotalQuantity decimal.Decimal      `json:"total_quantity"`
	TotalSales    decimal.Decimal      `json:"total_sales"`
	TotalPayments decimal.Decimal      `json:"total_payments"`
	TotalPending  decimal.Decimal      `json:"total_pending"`
}

type CustomerBalanceRow struct {
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	AreaName     string          `json:"area_name,omitempty"`
	PendingTotal decimal.Decimal `json:"pending_total"`
	PendingCount int             `json:"pending_count"`
	OldestYear   int             `json:"oldest_year,omitempty"`
	OldestMonth  int             `json:"oldest_month,omitempty"`
}

func parsePeriod(c *fiber.Ctx) (balance.Period, error) {
	p := balance.Period{
		Year:  c.QueryInt("year"),
		Month: c.QueryInt("month"),
	}
	if !p.Valid() {
		return p, fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu (ay 1-12)")
	}
	return p, nil
}

// GET /api/reports/daily?date=2026-08-25 — tek günün özeti
// GET /api/reports/daily?from=&to=     — aralıktaki her gün için özet
func DailyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("from") != "" || c.Query("to") != "" {
			return dailyRange(c)
		}

		dateStr := c.Query("date", time.Now().Format("2006-01-02"))
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı YYYY-AA-GG olmalı")
		}

		resp, err := buildDailyReport(day)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}
		return c.JSON(resp)
	}
}

func dailyRange(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "from geçersiz (YYYY-AA-GG)")
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "to geçersiz (YYYY-AA-GG)")
	}
	if to.Before(from) || to.Sub(from) > 92*24*time.Hour {
		return fiber.NewError(fiber.StatusBadRequest, "Aralık en fazla 92 gün olabilir")
	}

	var days []DailyReportResponse
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rep, err := buildDailyReport(d)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}
		days = append(days, *rep)
	}
	return c.JSON(days)
}

func buildDailyReport(day time.Time) (*DailyReportResponse, error) {
	next := day.AddDate(0, 0, 1)

	var sales []models.Sale
	if err := database.DB.Preload("MilkType").
		Where("date >= ? AND date < ?", day, next).
		Find(&sales).Error; err != nil {
		return nil, err
	}

	// SUM/GROUP yerine Go tarafında toplama: decimal hassasiyeti
	// sürücüden bağımsız kalır
	byType := make(map[uint]*DailyLine)
	var order []uint
	totalQty, totalAmount := decimal.Zero, decimal.Zero
	for _, s := range sales {
		line, ok := byType[s.MilkTypeID]
		if !ok {
			line = &DailyLine{MilkTypeID: s.MilkTypeID, MilkTypeName: s.MilkType.Name}
			byType[s.MilkTypeID] = line
			order = append(order, s.MilkTypeID)
		}
		line.Quantity = line.Quantity.Add(s.Quantity)
		line.Amount = line.Amount.Add(s.Amount)
		totalQty = totalQty.Add(s.Quantity)
		totalAmount = totalAmount.Add(s.Amount)
	}

	var payments []models.Payment
	if err := database.DB.Where("date >= ? AND date < ?", day, next).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	paymentsTotal := decimal.Zero
	for _, p := range payments {
		paymentsTotal = paymentsTotal.Add(p.Amount)
	}

	lines := make([]DailyLine, 0, len(order))
	for _, id := range order {
		lines = append(lines, *byType[id])
	}

	return &DailyReportResponse{
		Date:          day.Format("2006-01-02"),
		Lines:         lines,
		TotalQuantity: totalQty,
		TotalAmount:   totalAmount,
		PaymentsTotal: paymentsTotal,
		SaleCount:     int64(len(sales)),
	}, nil
}

func buildMonthlyReport(p balance.Period) (*MonthlyReportResponse, error) {
	var customers []models.Customer
	if err := database.DB.Preload("Area").Order("name asc").Find(&customers).Error; err != nil {
		return nil, err
	}

	var balances []models.MonthlyBalance
	if err := database.DB.Where("year = ? AND month = ?", p.Year, p.Month).
		Find(&balances).Error; err != nil {
		return nil, err
	}
	balanceByCustomer := make(map[uint]*models.MonthlyBalance, len(balances))
	for i := range balances {
		balanceByCustomer[balances[i].CustomerID] = &balances[i]
	}

	start, end := p.Bounds()
	var sales []models.Sale
	if err := database.DB.Select("customer_id, quantity").
		Where("date >= ? AND date < ?", start, end).
		Find(&sales).Error; err != nil {
		return nil, err
	}
	qtyByCustomer := make(map[uint]decimal.Decimal)
	for _, s := range sales {
		qtyByCustomer[s.CustomerID] = qtyByCustomer[s.CustomerID].Add(s.Quantity)
	}

	resp := &MonthlyReportResponse{Year: p.Year, Month: p.Month}
	for _, cu := range customers {
		mb := balanceByCustomer[cu.ID]
		if mb == nil && qtyByCustomer[cu.ID].IsZero() {
			continue // bu ay hiç hareketi olmayan müşteri raporda yer almaz
		}

		row := MonthlyCustomerRow{
			CustomerID:   cu.ID,
			CustomerName: cu.Name,
			Quantity:     qtyByCustomer[cu.ID],
			Status:       models.BalanceStatusNoSales,
		}
		if cu.Area != nil {
			row.AreaName = cu.Area.Name
		}
		if mb != nil {
			row.SalesAmount = mb.SalesAmount
			row.PaymentAmount = mb.PaymentAmount
			row.Balance = mb.Balance
			row.Status = mb.Status
		}

		resp.Rows = append(resp.Rows, row)
		resp.TotalQuantity = resp.TotalQuantity.Add(row.Quantity)
		resp.TotalSales = resp.TotalSales.Add(row.SalesAmount)
		resp.TotalPayments = resp.TotalPayments.Add(row.PaymentAmount)
		if row.Status == models.BalanceStatusPending {
			resp.TotalPending = resp.TotalPending.Add(row.Balance)
		}
	}
	return resp, nil
}

// GET /api/reports/monthly?year=&month=
func MonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePeriod(c)
		if err != nil {
			return err
		}
		resp, err := buildMonthlyReport(p)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}
		return c.JSON(resp)
	}
}

type YearlyMonthRow struct {
	Month         int             `json:"month"`
	Quantity      decimal.Decimal `json:"quantity"`
	SalesAmount   decimal.Decimal `json:"sales_amount"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Balance       decimal.Decimal `json:"balance"`
}

type YearlyReportResponse struct {
	Year   int              `json:"year"`
	Months []YearlyMonthRow `json:"months"`
}

// GET /api/reports/yearly?year= — yılın her ayı için toplamlar
func YearlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year")
		if year < 2000 {
			return fiber.NewError(fiber.StatusBadRequest, "year zorunlu")
		}

		var balances []models.MonthlyBalance
		if err := database.DB.Where("year = ?", year).Find(&balances).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}

		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		var sales []models.Sale
		if err := database.DB.Select("date, quantity").
			Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0)).
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}

		resp := YearlyReportResponse{Year: year, Months: make([]YearlyMonthRow, 12)}
		for m := 1; m <= 12; m++ {
			resp.Months[m-1].Month = m
		}
		for _, mb := range balances {
			row := &resp.Months[mb.Month-1]
			row.SalesAmount = row.SalesAmount.Add(mb.SalesAmount)
			row.PaymentAmount = row.PaymentAmount.Add(mb.PaymentAmount)
			row.Balance = row.Balance.Add(mb.Balance)
		}
		for _, s := range sales {
			row := &resp.Months[int(s.Date.Month())-1]
			row.Quantity = row.Quantity.Add(s.Quantity)
		}

		return c.JSON(resp)
	}
}

// GET /api/reports/customer-balances — müşteri başına bekleyen borç,
// en eski bekleyen ay ile birlikte (tahsilat önceliği için)
func CustomerBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pending []models.MonthlyBalance
		if err := database.DB.Where("status = ?", models.BalanceStatusPending).
			Order("year asc, month asc").
			Find(&pending).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
		}

		rowByCustomer := make(map[uint]*CustomerBalanceRow)
		var order []uint
		for _, mb := range pending {
			row, ok := rowByCustomer[mb.CustomerID]
			if !ok {
				row = &CustomerBalanceRow{
					CustomerID:  mb.CustomerID,
					OldestYear:  mb.Year,
					OldestMonth: mb.Month,
				}
				rowByCustomer[mb.CustomerID] = row
				order = append(order, mb.CustomerID)
			}
			row.PendingTotal = row.PendingTotal.Add(mb.Balance)
			row.PendingCount++
		}

		if len(order) > 0 {
			var customers []models.Customer
			if err := database.DB.Preload("Area").Where("id IN ?", order).
				Find(&customers).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Rapor hazırlanamadı")
			}
			for _, cu := range customers {
				if row := rowByCustomer[cu.ID]; row != nil {
					row.CustomerName = cu.Name
					if cu.Area != nil {
						row.AreaName = cu.Area.Name
					}
				}
			}
		}

		resp := make([]CustomerBalanceRow, 0, len(order))
		for _, id := range order {
			resp = append(resp, *rowByCustomer[id])
		}
		return c.JSON(resp)
	}
}
