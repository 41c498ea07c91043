package area

import (
	"fmt"
	"strings"

	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AreaResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	CustomerCount int64  `json:"customer_count"`
}

type CreateAreaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateAreaRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func snapshot(a *models.Area) map[string]interface{} {
	return map[string]interface{}{
		"id":          a.ID,
		"name":        a.Name,
		"description": a.Description,
	}
}

// GET /api/areas
func ListAreasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var areas []models.Area
		if err := database.DB.Order("name asc").Find(&areas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölgeler listelenemedi")
		}

		res := make([]AreaResponse, 0, len(areas))
		for _, a := range areas {
			var count int64
			database.DB.Model(&models.Customer{}).Where("area_id = ?", a.ID).Count(&count)
			res = append(res, AreaResponse{
				ID:            a.ID,
				Name:          a.Name,
				Description:   a.Description,
				CustomerCount: count,
			})
		}
		return c.JSON(res)
	}
}

// POST /api/admin/areas (admin)
func CreateAreaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAreaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name zorunlu")
		}

		a := models.Area{Name: body.Name, Description: body.Description}
		if err := database.DB.Create(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölge oluşturulamadı")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "area",
				EntityID:    a.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Bölge eklendi: %s", a.Name),
				After:       snapshot(&a),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(AreaResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
		})
	}
}

// PUT /api/admin/areas/:id
func UpdateAreaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var a models.Area
		if err := database.DB.First(&a, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bölge bulunamadı")
		}
		before := snapshot(&a)

		var body UpdateAreaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			a.Name = name
		}
		if body.Description != nil {
			a.Description = *body.Description
		}

		if err := database.DB.Save(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölge güncellenemedi")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "area",
				EntityID:    a.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Bölge güncellendi: %s", a.Name),
				Before:      before,
				After:       snapshot(&a),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(AreaResponse{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
		})
	}
}

// DELETE /api/admin/areas/:id
// Bölge silinince müşterileri SİLİNMEZ; "atanmamış" durumuna düşer
func DeleteAreaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var a models.Area
		if err := database.DB.First(&a, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bölge bulunamadı")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Customer{}).
				Where("area_id = ?", a.ID).
				Update("area_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&a).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölge silinemedi")
		}

		if userID, userName, err := auth.GetUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "area",
				EntityID:    a.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Bölge silindi: %s (müşterileri atanmamışa taşındı)", a.Name),
				Before:      snapshot(&a),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
