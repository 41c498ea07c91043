package customer

import (
	"fmt"
	"strings"

	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"
	"mandira-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Address     string `json:"address" validate:"max=255"`
	Phone       string `json:"phone" validate:"max=20"`
	AreaID      *uint  `json:"area_id"`
	MilkTypeIDs []uint `json:"milk_type_ids"`
}

type CustomerResponse struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	AreaID    *uint    `json:"area_id"`
	AreaName  string   `json:"area_name,omitempty"`
	MilkTypes []string `json:"milk_types"`
}

type CustomerDetailResponse struct {
	CustomerResponse
	// Tüm zamanlar bakiyesi: toplam satış - toplam tahsilat.
	// Fazla ödemeler burada negatif bakiye olarak görünür.
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	Balance       decimal.Decimal `json:"balance"`
}

func toResponse(cu *models.Customer) CustomerResponse {
	resp := CustomerResponse{
		ID:        cu.ID,
		Name:      cu.Name,
		Address:   cu.Address,
		Phone:     cu.Phone,
		AreaID:    cu.AreaID,
		MilkTypes: make([]string, 0, len(cu.MilkTypes)),
	}
	if cu.Area != nil {
		resp.AreaName = cu.Area.Name
	}
	for _, mt := range cu.MilkTypes {
		resp.MilkTypes = append(resp.MilkTypes, mt.Name)
	}
	return resp
}

func snapshot(cu *models.Customer) map[string]interface{} {
	return map[string]interface{}{
		"id":      cu.ID,
		"name":    cu.Name,
		"address": cu.Address,
		"phone":   cu.Phone,
		"area_id": cu.AreaID,
	}
}

func loadMilkTypes(ids []uint) ([]models.MilkType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var types []models.MilkType
	if err := database.DB.Where("id IN ?", ids).Find(&types).Error; err != nil {
		return nil, err
	}
	if len(types) != len(ids) {
		return nil, fmt.Errorf("geçersiz süt çeşidi")
	}
	return types, nil
}

// GET /api/customers?area_id=&q=
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{}).
			Preload("Area").
			Preload("MilkTypes")

		if aidStr := c.Query("area_id"); aidStr != "" {
			if aidStr == "unassigned" {
				dbq = dbq.Where("area_id IS NULL")
			} else {
				var aid uint
				if _, err := fmt.Sscan(aidStr, &aid); err != nil || aid == 0 {
					return fiber.NewError(fiber.StatusBadRequest, "area_id geçersiz")
				}
				dbq = dbq.Where("area_id = ?", aid)
			}
		}

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("name LIKE ?", "%"+q+"%")
		}

		var rows []models.Customer
		if err := dbq.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		resp := make([]CustomerResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/customers/:id — detay + tüm zamanlar bakiyesi
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cu models.Customer
		if err := database.DB.Preload("Area").Preload("MilkTypes").
			First(&cu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		type row struct {
			Total decimal.Decimal `gorm:"column:total"`
		}
		var sales, payments row

		if err := database.DB.Model(&models.Sale{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("customer_id = ?", cu.ID).
			Scan(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hesaplanamadı")
		}
		if err := database.DB.Model(&models.Payment{}).
			Select("COALESCE(SUM(amount), 0) as total").
			Where("customer_id = ?", cu.ID).
			Scan(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye hesaplanamadı")
		}

		return c.JSON(CustomerDetailResponse{
			CustomerResponse: toResponse(&cu),
			TotalSales:       sales.Total,
			TotalPayments:    payments.Total,
			Balance:          sales.Total.Sub(payments.Total),
		})
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu (2-200 karakter)")
		}

		if body.AreaID != nil {
			var a models.Area
			if err := database.DB.First(&a, *body.AreaID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bölge bulunamadı")
			}
		}

		types, err := loadMilkTypes(body.MilkTypeIDs)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Süt çeşidi listesi geçersiz")
		}

		cu := models.Customer{
			Name:      strings.TrimSpace(body.Name),
			Address:   body.Address,
			Phone:     body.Phone,
			AreaID:    body.AreaID,
			MilkTypes: types,
		}

		if err := database.DB.Create(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    cu.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Müşteri eklendi: %s", cu.Name),
				After:       snapshot(&cu),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		database.DB.Preload("Area").Preload("MilkTypes").First(&cu, cu.ID)
		return c.Status(fiber.StatusCreated).JSON(toResponse(&cu))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cu models.Customer
		if err := database.DB.Preload("MilkTypes").First(&cu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}
		before := snapshot(&cu)

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validation.Validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "İsim zorunlu (2-200 karakter)")
		}

		if body.AreaID != nil {
			var a models.Area
			if err := database.DB.First(&a, *body.AreaID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Bölge bulunamadı")
			}
		}

		types, err := loadMilkTypes(body.MilkTypeIDs)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Süt çeşidi listesi geçersiz")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"name":    strings.TrimSpace(body.Name),
				"address": body.Address,
				"phone":   body.Phone,
				"area_id": body.AreaID,
			}
			// boş model: preload edilmiş MilkTypes'ın otomatik
			// association kaydını tetiklememek için
			if err := tx.Model(&models.Customer{}).Where("id = ?", cu.ID).
				Updates(updates).Error; err != nil {
				return err
			}
			return tx.Model(&cu).Association("MilkTypes").Replace(types)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		database.DB.Preload("Area").Preload("MilkTypes").First(&cu, cu.ID)

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    cu.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Müşteri güncellendi: %s", cu.Name),
				Before:      before,
				After:       snapshot(&cu),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(&cu))
	}
}

// DELETE /api/customers/:id (admin)
// Satışları, tahsilatları (allocation'larıyla) ve aylık bakiyeleri
// birlikte silinir — tek transaction
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cu models.Customer
		if err := database.DB.First(&cu, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(
				"DELETE FROM payment_allocations WHERE payment_id IN (SELECT id FROM payments WHERE customer_id = ?)",
				cu.ID).Error; err != nil {
				return err
			}
			if err := tx.Where("customer_id = ?", cu.ID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("customer_id = ?", cu.ID).Delete(&models.Sale{}).Error; err != nil {
				return err
			}
			if err := tx.Where("customer_id = ?", cu.ID).Delete(&models.MonthlyBalance{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&cu).Association("MilkTypes").Clear(); err != nil {
				return err
			}
			return tx.Delete(&cu).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		if userID, userName, uerr := auth.GetUserInfo(c); uerr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    cu.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Müşteri silindi (satış ve tahsilatlarıyla): %s", cu.Name),
				Before:      snapshot(&cu),
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
