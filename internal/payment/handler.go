package payment

import (
	"fmt"
	"time"

	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/balance"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"
	"mandira-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	CustomerID  uint            `json:"customer_id" validate:"required"`
	Date        string          `json:"date" validate:"required"` // "2025-12-09"
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`

	// tek ay hedefi; ikisi birlikte dolu ya da birlikte boş
	Month *int `json:"month"`
	Year  *int `json:"year"`

	// çok aylı dağıtım hedefleri (month/year boşken)
	TargetMonths []balance.Period `json:"target_months"`
}

type AllocationResponse struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type PaymentResponse struct {
	ID           uint            `json:"id"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`

	Month *int `json:"month"`
	Year  *int `json:"year"`

	Allocations       []AllocationResponse `json:"allocations,omitempty"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
}

func toResponse(p *models.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID,
		CustomerID:        p.CustomerID,
		CustomerName:      p.Customer.Name,
		Date:              p.Date.Format("2006-01-02"),
		Amount:            p.Amount,
		Description:       p.Description,
		Month:             p.Month,
		Year:              p.Year,
		UnallocatedAmount: Unallocated(p),
	}
	for _, a := range p.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{
			Year:   a.Year,
			Month:  a.Month,
			Amount: a.Amount,
		})
	}
	return resp
}

// snapshot: audit log için tahsilatın tamamı (allocation'lar dahil)
func snapshot(p *models.Payment) map[string]interface{} {
	allocs := make([]map[string]interface{}, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		allocs = append(allocs, map[string]interface{}{
			"year":   a.Year,
			"month":  a.Month,
			"amount": a.Amount,
		})
	}
	return map[string]interface{}{
		"id":          p.ID,
		"customer_id": p.CustomerID,
		"date":        p.Date.Format("2006-01-02"),
		"amount":      p.Amount,
		"description": p.Description,
		"month":       p.Month,
		"year":        p.Year,
		"allocations": allocs,
	}
}

func parseRequest(c *fiber.Ctx) (*Input, error) {
	var body PaymentRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}

	if err := validation.Validate.Struct(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "customer_id, date ve amount zorunlu")
	}

	d, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
	}

	if !body.Amount.IsPositive() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Tutar sıfırdan büyük olmalı")
	}
	if (body.Month == nil) != (body.Year == nil) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "month ve year birlikte verilmeli")
	}
	if body.Month == nil && len(body.TargetMonths) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Tek ay için month/year, dağıtım için target_months verilmeli")
	}

	return &Input{
		CustomerID:    body.CustomerID,
		Date:          d,
		Amount:        body.Amount,
		Description:   body.Description,
		Month:         body.Month,
		Year:          body.Year,
		TargetPeriods: body.TargetMonths,
	}, nil
}

// POST /api/payments
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseRequest(c)
		if err != nil {
			return err
		}

		p, err := Create(database.DB, *in)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tahsilat kaydedilemedi: "+err.Error())
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			desc := fmt.Sprintf("Tahsilat eklendi: %s - %s TL", p.Customer.Name, p.Amount.StringFixed(2))
			if p.IsMultiMonth() {
				desc = fmt.Sprintf("Tahsilat eklendi (dağıtılmış, %d ay): %s - %s TL",
					len(p.Allocations), p.Customer.Name, p.Amount.StringFixed(2))
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: desc,
				Before:      nil,
				After:       snapshot(p),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}

// GET /api/payments?customer_id=&from=&to=
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Payment{}).
			Preload("Allocations").
			Preload("Customer")

		if cidStr := c.Query("customer_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "customer_id geçersiz")
			}
			dbq = dbq.Where("customer_id = ?", cid)
		}

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from geçersiz")
			}
			dbq = dbq.Where("date >= ?", from)
		}

		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to geçersiz")
			}
			dbq = dbq.Where("date <= ?", to)
		}

		var rows []models.Payment
		if err := dbq.Order("date desc, id desc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilatlar listelenemedi")
		}

		resp := make([]PaymentResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/payments/:id
func GetPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		p, err := reload(database.DB, id)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tahsilat bulunamadı")
		}

		return c.JSON(toResponse(p))
	}
}

// PUT /api/payments/:id
func UpdatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		before, err := reload(database.DB, id)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tahsilat bulunamadı")
		}
		beforeSnap := snapshot(before)

		in, err := parseRequest(c)
		if err != nil {
			return err
		}

		p, err := Update(database.DB, id, *in)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tahsilat güncellenemedi: "+err.Error())
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Tahsilat güncellendi: %s - %s TL", p.Customer.Name, p.Amount.StringFixed(2)),
				Before:      beforeSnap,
				After:       snapshot(p),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(p))
	}
}

// DELETE /api/payments/:id
func DeletePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		before, err := reload(database.DB, id)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tahsilat bulunamadı")
		}
		beforeSnap := snapshot(before)

		if err := Delete(database.DB, id); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tahsilat silinemedi")
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "payment",
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Tahsilat silindi: %s - %s TL", before.Customer.Name, before.Amount.StringFixed(2)),
				Before:      beforeSnap,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz tahsilat ID")
	}
	return id, nil
}
