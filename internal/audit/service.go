package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - Bir audit log'u geri al. Satış ve tahsilat geri alımları
// dokundukları ayların bakiyelerini de aynı transaction içinde düzeltir.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		switch log.Action {
		case models.AuditActionCreate:
			// Create ise entity'yi sil
			if err := deleteEntity(tx, log.EntityType, log.EntityID); err != nil {
				return fmt.Errorf("entity silinemedi: %w", err)
			}

		case models.AuditActionUpdate:
			// Update ise önceki haline geri döndür
			if err := restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData); err != nil {
				return fmt.Errorf("entity geri yüklenemedi: %w", err)
			}

		case models.AuditActionDelete:
			// Delete ise entity'yi before snapshot'ından geri oluştur
			if err := recreateEntity(tx, log.EntityType, log.BeforeData); err != nil {
				return fmt.Errorf("entity geri oluşturulamadı: %w", err)
			}

		default:
			return fmt.Errorf("bu işlem türü geri alınamaz")
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &userID
		log.UndoneAt = &now

		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("log güncellenemedi: %w", err)
		}

		undoLog := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  log.EntityType,
			EntityID:    log.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Geri alındı: %s", log.Description),
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			Undone:      true,
			IsUndone:    false,
		}

		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("undo log kaydedilemedi: %w", err)
		}

		return nil
	})

	return err
}

// saleSnapshot / paymentSnapshot: handler'ların yazdığı JSON formatı
type saleSnapshot struct {
	CustomerID uint            `json:"customer_id"`
	MilkTypeID uint            `json:"milk_type_id"`
	Date       string          `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	Rate       decimal.Decimal `json:"rate"`
	Notes      string          `json:"notes"`
}

type paymentSnapshot struct {
	CustomerID  uint            `json:"customer_id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Month       *int            `json:"month"`
	Year        *int            `json:"year"`
	Allocations []struct {
		Year   int             `json:"year"`
		Month  int             `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"allocations"`
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case "sale":
		var sale models.Sale
		if err := tx.First(&sale, "id = ?", entityID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&sale).Error; err != nil {
			return err
		}
		return balance.Recalculate(tx, sale.CustomerID, []balance.Period{balance.PeriodOf(sale.Date)})

	case "payment":
		var p models.Payment
		if err := tx.Preload("Allocations").First(&p, "id = ?", entityID).Error; err != nil {
			return err
		}
		periods := paymentPeriods(&p)
		if err := tx.Where("payment_id = ?", p.ID).Delete(&models.PaymentAllocation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return balance.Recalculate(tx, p.CustomerID, periods)

	case "customer":
		return tx.Delete(&models.Customer{}, "id = ?", entityID).Error
	case "area":
		return tx.Delete(&models.Area{}, "id = ?", entityID).Error
	case "milk_type":
		return tx.Delete(&models.MilkType{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case "sale":
		var snap saleSnapshot
		if err := json.Unmarshal([]byte(dataJSON), &snap); err != nil {
			return err
		}
		d, err := time.Parse("2006-01-02", snap.Date)
		if err != nil {
			return err
		}
		sale := models.Sale{
			CustomerID: snap.CustomerID,
			MilkTypeID: snap.MilkTypeID,
			Date:       d,
			Quantity:   snap.Quantity,
			Rate:       snap.Rate,
			Amount:     snap.Quantity.Mul(snap.Rate),
			Notes:      snap.Notes,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
		return balance.Recalculate(tx, sale.CustomerID, []balance.Period{balance.PeriodOf(sale.Date)})

	case "payment":
		var snap paymentSnapshot
		if err := json.Unmarshal([]byte(dataJSON), &snap); err != nil {
			return err
		}
		d, err := time.Parse("2006-01-02", snap.Date)
		if err != nil {
			return err
		}
		p := models.Payment{
			CustomerID:  snap.CustomerID,
			Date:        d,
			Amount:      snap.Amount,
			Description: snap.Description,
			Month:       snap.Month,
			Year:        snap.Year,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		// allocation satırları snapshot'taki haliyle geri yazılır;
		// bakiyeler zaten kaynaktan yeniden hesaplanacak
		var periods []balance.Period
		for _, a := range snap.Allocations {
			row := models.PaymentAllocation{
				PaymentID: p.ID,
				Month:     a.Month,
				Year:      a.Year,
				Amount:    a.Amount,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			periods = append(periods, balance.Period{Year: a.Year, Month: a.Month})
		}
		if p.Month != nil && p.Year != nil {
			periods = append(periods, balance.Period{Year: *p.Year, Month: *p.Month})
		}
		return balance.Recalculate(tx, p.CustomerID, periods)

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		customer.ID = 0
		return tx.Create(&customer).Error

	case "area":
		var area models.Area
		if err := json.Unmarshal([]byte(dataJSON), &area); err != nil {
			return err
		}
		area.ID = 0
		return tx.Create(&area).Error

	case "milk_type":
		var mt models.MilkType
		if err := json.Unmarshal([]byte(dataJSON), &mt); err != nil {
			return err
		}
		mt.ID = 0
		return tx.Create(&mt).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "sale":
		var current models.Sale
		if err := tx.First(&current, "id = ?", entityID).Error; err != nil {
			return err
		}

		var snap saleSnapshot
		if err := json.Unmarshal([]byte(dataJSON), &snap); err != nil {
			return err
		}
		d, err := time.Parse("2006-01-02", snap.Date)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Sale{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"customer_id":  snap.CustomerID,
			"milk_type_id": snap.MilkTypeID,
			"date":         d,
			"quantity":     snap.Quantity,
			"rate":         snap.Rate,
			"amount":       snap.Quantity.Mul(snap.Rate),
			"notes":        snap.Notes,
		}).Error; err != nil {
			return err
		}

		// eski ve yeni dönem farklı olabilir, ikisi de düzeltilir
		return balance.Recalculate(tx, snap.CustomerID, []balance.Period{
			balance.PeriodOf(current.Date),
			balance.PeriodOf(d),
		})

	case "payment":
		var current models.Payment
		if err := tx.Preload("Allocations").First(&current, "id = ?", entityID).Error; err != nil {
			return err
		}
		oldPeriods := paymentPeriods(&current)

		var snap paymentSnapshot
		if err := json.Unmarshal([]byte(dataJSON), &snap); err != nil {
			return err
		}
		d, err := time.Parse("2006-01-02", snap.Date)
		if err != nil {
			return err
		}

		// mevcut allocation'lar silinir, snapshot'takiler geri yazılır
		if err := tx.Where("payment_id = ?", entityID).Delete(&models.PaymentAllocation{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"customer_id": snap.CustomerID,
			"date":        d,
			"amount":      snap.Amount,
			"description": snap.Description,
			"month":       snap.Month,
			"year":        snap.Year,
		}).Error; err != nil {
			return err
		}

		var newPeriods []balance.Period
		for _, a := range snap.Allocations {
			row := models.PaymentAllocation{
				PaymentID: entityID,
				Month:     a.Month,
				Year:      a.Year,
				Amount:    a.Amount,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			newPeriods = append(newPeriods, balance.Period{Year: a.Year, Month: a.Month})
		}
		if snap.Month != nil && snap.Year != nil {
			newPeriods = append(newPeriods, balance.Period{Year: *snap.Year, Month: *snap.Month})
		}

		if err := balance.Recalculate(tx, current.CustomerID, oldPeriods); err != nil {
			return err
		}
		return balance.Recalculate(tx, snap.CustomerID, newPeriods)

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		return tx.Model(&models.Customer{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":    customer.Name,
			"address": customer.Address,
			"phone":   customer.Phone,
			"area_id": customer.AreaID,
		}).Error

	case "area":
		var area models.Area
		if err := json.Unmarshal([]byte(dataJSON), &area); err != nil {
			return err
		}
		return tx.Model(&models.Area{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        area.Name,
			"description": area.Description,
		}).Error

	case "milk_type":
		var mt models.MilkType
		if err := json.Unmarshal([]byte(dataJSON), &mt); err != nil {
			return err
		}
		return tx.Model(&models.MilkType{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":           mt.Name,
			"rate_per_liter": mt.RatePerLiter,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func paymentPeriods(p *models.Payment) []balance.Period {
	if p.Month != nil && p.Year != nil {
		return []balance.Period{{Year: *p.Year, Month: *p.Month}}
	}
	var periods []balance.Period
	for _, a := range p.Allocations {
		periods = append(periods, balance.Period{Year: a.Year, Month: a.Month})
	}
	return periods
}
