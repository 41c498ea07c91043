package billing

import (
	"errors"
	"fmt"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/config"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GET /api/customers/:id/bill?year=&month= — aylık hesap özeti PDF'i.
// Finansal rakamların tek kaynağı MonthlyBalance kaydıdır.
func MonthlyBillHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		p := balance.Period{Year: c.QueryInt("year"), Month: c.QueryInt("month")}
		if !p.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu (ay 1-12)")
		}

		var cu models.Customer
		if err := database.DB.First(&cu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var mb models.MonthlyBalance
		err := database.DB.Where("customer_id = ? AND year = ? AND month = ?", cu.ID, p.Year, p.Month).
			First(&mb).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bu dönem için bakiye kaydı yok")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura hazırlanamadı")
		}

		start, end := p.Bounds()
		var sales []models.Sale
		if err := database.DB.Preload("MilkType").
			Where("customer_id = ? AND date >= ? AND date < ?", cu.ID, start, end).
			Order("date asc").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fatura hazırlanamadı")
		}

		out, err := RenderBill(&BillData{
			Reference: uuid.NewString(),
			Dairy:     cfg,
			Customer:  &cu,
			Period:    p,
			Balance:   &mb,
			Sales:     sales,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "PDF oluşturulamadı")
		}

		filename := fmt.Sprintf("fatura-%d-%d-%02d.pdf", cu.ID, p.Year, p.Month)
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(out)
	}
}
