package sale

import (
	"fmt"
	"time"
	"unicode"

	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/balance"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"
	"mandira-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRequest struct {
	CustomerID uint             `json:"customer_id" validate:"required"`
	MilkTypeID uint             `json:"milk_type_id" validate:"required"`
	Date       string           `json:"date" validate:"required"` // YYYY-MM-DD
	Quantity   decimal.Decimal  `json:"quantity"`
	Rate       *decimal.Decimal `json:"rate"` // boşsa çeşidin güncel fiyatı
	Notes      string           `json:"notes" validate:"max=255"`
}

type SaleResponse struct {
	ID           uint            `json:"id"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	MilkTypeID   uint            `json:"milk_type_id"`
	MilkTypeName string          `json:"milk_type_name,omitempty"`
	Date         string          `json:"date"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes"`
}

type BatchSaleRequest struct {
	CustomerID uint   `json:"customer_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Code       string `json:"code" validate:"required"` // ör: "1-2-CB"
}

func toResponse(s *models.Sale) SaleResponse {
	resp := SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		MilkTypeID: s.MilkTypeID,
		Date:       s.Date.Format("2006-01-02"),
		Quantity:   s.Quantity,
		Rate:       s.Rate,
		Amount:     s.Amount,
		Notes:      s.Notes,
	}
	if s.Customer.ID != 0 {
		resp.CustomerName = s.Customer.Name
	}
	if s.MilkType.ID != 0 {
		resp.MilkTypeName = s.MilkType.Name
	}
	return resp
}

// audit undo bu formattan geri okuyor; alan adları sabit
func snapshot(s *models.Sale) map[string]interface{} {
	return map[string]interface{}{
		"customer_id":  s.CustomerID,
		"milk_type_id": s.MilkTypeID,
		"date":         s.Date.Format("2006-01-02"),
		"quantity":     s.Quantity,
		"rate":         s.Rate,
		"notes":        s.Notes,
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func buildSale(body *SaleRequest) (*models.Sale, error) {
	d, err := parseDate(body.Date)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı YYYY-AA-GG olmalı")
	}
	if !body.Quantity.IsPositive() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Miktar sıfırdan büyük olmalı")
	}

	var cu models.Customer
	if err := database.DB.First(&cu, body.CustomerID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
	}

	var mt models.MilkType
	if err := database.DB.First(&mt, body.MilkTypeID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Süt çeşidi bulunamadı")
	}

	rate := mt.RatePerLiter
	if body.Rate != nil {
		if !body.Rate.IsPositive() {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Fiyat sıfırdan büyük olmalı")
		}
		rate = *body.Rate
	}

	return &models.Sale{
		CustomerID: body.CustomerID,
		MilkTypeID: body.MilkTypeID,
		Date:       d,
		Quantity:   body.Quantity,
		Rate:       rate,
		Amount:     body.Quantity.Mul(rate),
		Notes:      body.Notes,
	}, nil
}

// GET /api/sales?customer_id=&date=&year=&month=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{}).
			Preload("Customer").
			Preload("MilkType")

		if cidStr := c.Query("customer_id"); cidStr != "" {
			var cid uint
			if _, err := fmt.Sscan(cidStr, &cid); err != nil || cid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "customer_id geçersiz")
			}
			dbq = dbq.Where("customer_id = ?", cid)
		}

		if dateStr := c.Query("date"); dateStr != "" {
			d, err := parseDate(dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı YYYY-AA-GG olmalı")
			}
			dbq = dbq.Where("date >= ? AND date < ?", d, d.AddDate(0, 0, 1))
		} else if yearStr := c.Query("year"); yearStr != "" {
			var year, month int
			fmt.Sscan(yearStr, &year)
			fmt.Sscan(c.Query("month"), &month)
			p := balance.Period{Year: year, Month: month}
			if !p.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "year/month geçersiz")
			}
			start, end := p.Bounds()
			dbq = dbq.Where("date >= ? AND date < ?", start, end)
		}

		var rows []models.Sale
		if err := dbq.Order("date desc, id desc").Limit(1000).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		resp := make([]SaleResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/sales
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id, milk_type_id ve date zorunlu")
		}

		s, err := buildSale(&body)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(s).Error; err != nil {
				return err
			}
			return balance.Recalculate(tx, s.CustomerID, []balance.Period{balance.PeriodOf(s.Date)})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış kaydedilemedi")
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    s.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Satış eklendi: %s lt (%s)", s.Quantity.StringFixed(2), s.Date.Format("2006-01-02")),
				After:       snapshot(s),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		database.DB.Preload("Customer").Preload("MilkType").First(s, s.ID)
		return c.Status(fiber.StatusCreated).JSON(toResponse(s))
	}
}

// POST /api/sales/batch — kısa kodla toplu giriş ("1-2-CB").
// Harfler müşterinin abone olduğu çeşitlerin baş harfleriyle eşleşir.
func CreateBatchSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BatchSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id, date ve code zorunlu")
		}

		d, err := parseDate(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı YYYY-AA-GG olmalı")
		}

		entries, err := ParseBatchCode(body.Code)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var cu models.Customer
		if err := database.DB.Preload("MilkTypes").First(&cu, body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}
		if len(cu.MilkTypes) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Müşterinin abone olduğu süt çeşidi yok")
		}

		byInitial := make(map[rune]*models.MilkType)
		for i := range cu.MilkTypes {
			initial := []rune(cu.MilkTypes[i].Name)[0]
			byInitial[normalizeInitial(initial)] = &cu.MilkTypes[i]
		}

		sales := make([]*models.Sale, 0, len(entries))
		for _, e := range entries {
			mt, ok := byInitial[normalizeInitial(e.Initial)]
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("%q harfiyle eşleşen abonelik yok", string(e.Initial)))
			}
			sales = append(sales, &models.Sale{
				CustomerID: cu.ID,
				MilkTypeID: mt.ID,
				Date:       d,
				Quantity:   e.Quantity,
				Rate:       mt.RatePerLiter,
				Amount:     e.Quantity.Mul(mt.RatePerLiter),
			})
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, s := range sales {
				if err := tx.Create(s).Error; err != nil {
					return err
				}
			}
			return balance.Recalculate(tx, cu.ID, []balance.Period{balance.PeriodOf(d)})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar kaydedilemedi")
		}

		userID, userName, uerr := auth.GetUserInfo(c)
		resp := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			if uerr == nil {
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      userID,
					UserName:    userName,
					EntityType:  "sale",
					EntityID:    s.ID,
					Action:      models.AuditActionCreate,
					Description: fmt.Sprintf("Satış eklendi (toplu %s): %s lt", body.Code, s.Quantity.StringFixed(2)),
					After:       snapshot(s),
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
			resp = append(resp, toResponse(s))
		}

		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// PUT /api/sales/:id
func UpdateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var existing models.Sale
		if err := database.DB.First(&existing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}
		before := snapshot(&existing)
		oldPeriod := balance.PeriodOf(existing.Date)
		oldCustomer := existing.CustomerID

		var body SaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id, milk_type_id ve date zorunlu")
		}

		s, err := buildSale(&body)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"customer_id":  s.CustomerID,
				"milk_type_id": s.MilkTypeID,
				"date":         s.Date,
				"quantity":     s.Quantity,
				"rate":         s.Rate,
				"amount":       s.Amount,
				"notes":        s.Notes,
			}).Error; err != nil {
				return err
			}

			newPeriod := balance.PeriodOf(s.Date)
			if oldCustomer != s.CustomerID {
				if err := balance.Recalculate(tx, oldCustomer, []balance.Period{oldPeriod}); err != nil {
					return err
				}
				return balance.Recalculate(tx, s.CustomerID, []balance.Period{newPeriod})
			}
			return balance.Recalculate(tx, s.CustomerID, []balance.Period{oldPeriod, newPeriod})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış güncellenemedi")
		}

		database.DB.Preload("Customer").Preload("MilkType").First(&existing, existing.ID)

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    existing.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Satış güncellendi: #%d", existing.ID),
				Before:      before,
				After:       snapshot(&existing),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(&existing))
	}
}

// DELETE /api/sales/:id
func DeleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var s models.Sale
		if err := database.DB.First(&s, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&s).Error; err != nil {
				return err
			}
			return balance.Recalculate(tx, s.CustomerID, []balance.Period{balance.PeriodOf(s.Date)})
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış silinemedi")
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "sale",
				EntityID:    s.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Satış silindi: %s lt (%s)", s.Quantity.StringFixed(2), s.Date.Format("2006-01-02")),
				Before:      snapshot(&s),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// normalizeInitial: Türkçe noktalı/noktasız I ayrımını tek harfe
// indirger, yoksa "İnek" ile "i" kodu eşleşmez
func normalizeInitial(r rune) rune {
	r = unicode.ToUpper(r)
	if r == 'İ' {
		return 'I'
	}
	return r
}
