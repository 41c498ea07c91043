package milktype

import (
	"fmt"
	"strings"

	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type MilkTypeResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	RatePerLiter decimal.Decimal `json:"rate_per_liter"`
}

type CreateMilkTypeRequest struct {
	Name         string          `json:"name"`
	RatePerLiter decimal.Decimal `json:"rate_per_liter"`
}

type UpdateMilkTypeRequest struct {
	Name         *string          `json:"name"`
	RatePerLiter *decimal.Decimal `json:"rate_per_liter"`
}

func toResponse(mt *models.MilkType) MilkTypeResponse {
	return MilkTypeResponse{
		ID:           mt.ID,
		Name:         mt.Name,
		RatePerLiter: mt.RatePerLiter,
	}
}

func snapshot(mt *models.MilkType) map[string]interface{} {
	return map[string]interface{}{
		"id":             mt.ID,
		"name":           mt.Name,
		"rate_per_liter": mt.RatePerLiter,
	}
}

// GET /api/milk-types (auth olan herkes)
func ListMilkTypesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var types []models.MilkType
		if err := database.DB.Order("name asc").Find(&types).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Süt çeşitleri listelenemedi")
		}

		res := make([]MilkTypeResponse, 0, len(types))
		for i := range types {
			res = append(res, toResponse(&types[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/milk-types (admin)
func CreateMilkTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMilkTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}
		if !body.RatePerLiter.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "Litre fiyatı sıfırdan büyük olmalı")
		}

		mt := models.MilkType{Name: body.Name, RatePerLiter: body.RatePerLiter}
		if err := database.DB.Create(&mt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Süt çeşidi oluşturulamadı")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "milk_type",
				EntityID:    mt.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Süt çeşidi eklendi: %s - %s TL/lt", mt.Name, mt.RatePerLiter.StringFixed(2)),
				After:       snapshot(&mt),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&mt))
	}
}

// PUT /api/admin/milk-types/:id
// Fiyat değişikliği eski satışları ETKİLEMEZ; satışlar kendi rate
// kopyasını taşır.
func UpdateMilkTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var mt models.MilkType
		if err := database.DB.First(&mt, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Süt çeşidi bulunamadı")
		}
		before := snapshot(&mt)

		var body UpdateMilkTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			mt.Name = name
		}
		if body.RatePerLiter != nil {
			if !body.RatePerLiter.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "Litre fiyatı sıfırdan büyük olmalı")
			}
			mt.RatePerLiter = *body.RatePerLiter
		}

		if err := database.DB.Save(&mt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Süt çeşidi güncellenemedi")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "milk_type",
				EntityID:    mt.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Süt çeşidi güncellendi: %s", mt.Name),
				Before:      before,
				After:       snapshot(&mt),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(&mt))
	}
}

// DELETE /api/admin/milk-types/:id
func DeleteMilkTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var mt models.MilkType
		if err := database.DB.First(&mt, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Süt çeşidi bulunamadı")
		}

		// satış kaydı olan çeşit silinemez, tarihsel raporlar bozulur
		var saleCount int64
		database.DB.Model(&models.Sale{}).Where("milk_type_id = ?", mt.ID).Count(&saleCount)
		if saleCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu çeşitle kayıtlı satışlar var, silinemez")
		}

		if err := database.DB.Delete(&mt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Süt çeşidi silinemedi")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "milk_type",
				EntityID:    mt.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Süt çeşidi silindi: %s", mt.Name),
				Before:      snapshot(&mt),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
