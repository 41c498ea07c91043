package dashboard

import (
	"time"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SummaryResponse struct {
	TodayQuantity decimal.Decimal `json:"today_quantity"`
	TodaySales    decimal.Decimal `json:"today_sales"`
	TodayPayments decimal.Decimal `json:"today_payments"`

	MonthSales    decimal.Decimal `json:"month_sales"`
	MonthPayments decimal.Decimal `json:"month_payments"`

	// tüm bekleyen ayların toplamı (alacak)
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	PendingMonths   int64           `json:"pending_months"`

	CustomerCount int64 `json:"customer_count"`
}

type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}

// GET /api/dashboard/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		tomorrow := today.AddDate(0, 0, 1)
		monthStart, monthEnd := balance.PeriodOf(now).Bounds()

		var resp SummaryResponse

		var row sumRow
		if err := database.DB.Model(&models.Sale{}).
			Select("COALESCE(SUM(quantity), 0) as total").
			Where("date >= ? AND date < ?", today, tomorrow).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.TodayQuantity = row.Total

		if err := database.DB.Model(&models.Sale{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("date >= ? AND date < ?", today, tomorrow).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.TodaySales = row.Total

		if err := database.DB.Model(&models.Payment{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("date >= ? AND date < ?", today, tomorrow).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.TodayPayments = row.Total

		if err := database.DB.Model(&models.Sale{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("date >= ? AND date < ?", monthStart, monthEnd).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.MonthSales = row.Total

		if err := database.DB.Model(&models.Payment{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("date >= ? AND date < ?", monthStart, monthEnd).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.MonthPayments = row.Total

		if err := database.DB.Model(&models.MonthlyBalance{}).
			Select("COALESCE(SUM(balance), 0) as total").
			Where("status = ?", models.BalanceStatusPending).
			Scan(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}
		resp.TotalReceivable = row.Total

		if err := database.DB.Model(&models.MonthlyBalance{}).
			Where("status = ?", models.BalanceStatusPending).
			Count(&resp.PendingMonths).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}

		if err := database.DB.Model(&models.Customer{}).Count(&resp.CustomerCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hazırlanamadı")
		}

		return c.JSON(resp)
	}
}
