package balance

import (
	"fmt"

	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type MonthlyBalanceResponse struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	SalesAmount   decimal.Decimal `json:"sales_amount"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
}

type UnpaidMonthResponse struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Remaining decimal.Decimal `json:"remaining"`
}

// GET /api/customers/:id/monthly-balances[?year=2025]
// Liste/detay ekranlarındaki ay rozetleri (paid/pending/no_sales) buradan beslenir
func ListMonthlyBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customerID, err := parseCustomerID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.MonthlyBalance{}).
			Where("customer_id = ?", customerID)

		if yearStr := c.Query("year"); yearStr != "" {
			var year int
			if _, err := fmt.Sscan(yearStr, &year); err != nil || year < 2000 {
				return fiber.NewError(fiber.StatusBadRequest, "year geçersiz")
			}
			dbq = dbq.Where("year = ?", year)
		}

		var rows []models.MonthlyBalance
		if err := dbq.Order("year asc, month asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Aylık bakiyeler listelenemedi")
		}

		resp := make([]MonthlyBalanceResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, MonthlyBalanceResponse{
				Year:          r.Year,
				Month:         r.Month,
				SalesAmount:   r.SalesAmount,
				PaymentAmount: r.PaymentAmount,
				Balance:       r.Balance,
				Status:        string(r.Status),
			})
		}

		return c.JSON(resp)
	}
}

// GET /api/customers/:id/unpaid-months
// Çok aylı tahsilat formu için: borcu kapanmamış aylar, en eski önce
func ListUnpaidMonthsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customerID, err := parseCustomerID(c)
		if err != nil {
			return err
		}

		var rows []models.MonthlyBalance
		if err := database.DB.
			Where("customer_id = ? AND status = ?", customerID, models.BalanceStatusPending).
			Order("year asc, month asc").
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Borçlu aylar listelenemedi")
		}

		resp := make([]UnpaidMonthResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, UnpaidMonthResponse{
				Year:      r.Year,
				Month:     r.Month,
				Remaining: r.Balance,
			})
		}

		return c.JSON(resp)
	}
}

func parseCustomerID(c *fiber.Ctx) (uint, error) {
	var customerID uint
	if _, err := fmt.Sscan(c.Params("id"), &customerID); err != nil || customerID == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz müşteri ID")
	}

	var customer models.Customer
	if err := database.DB.First(&customer, customerID).Error; err != nil {
		return 0, fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
	}

	return customerID, nil
}
