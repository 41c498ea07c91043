package database

import (
	"log"

	"mandira-backend/internal/config"
	"mandira-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	// Sale.amount migration: eski kayıtlarda amount kolonu yok,
	// AutoMigrate ekledikten sonra quantity * rate ile doldurulacak
	needsAmountBackfill := false
	if DB.Migrator().HasTable(&models.Sale{}) && !DB.Migrator().HasColumn(&models.Sale{}, "amount") {
		needsAmountBackfill = true
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Area{},
		&models.MilkType{},
		&models.Customer{},
		&models.Sale{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.MonthlyBalance{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	if needsAmountBackfill {
		log.Println("Sale.amount kolonu yeni eklendi, quantity * rate ile dolduruluyor...")
		if err := DB.Exec("UPDATE sales SET amount = quantity * rate WHERE amount IS NULL OR amount = 0").Error; err != nil {
			log.Printf("amount backfill sırasında hata: %v", err)
		} else {
			log.Println("Sale.amount backfill tamamlandı")
		}
	}

	// Tahsilat tutarlılık kontrolü: month/year alanlarından sadece biri dolu
	// kayıt kalmış olabilir (eski bug). Bunlar çok-aylı moda çevriliyor.
	var badCount int64
	DB.Model(&models.Payment{}).
		Where("(month IS NULL) <> (year IS NULL)").
		Count(&badCount)
	if badCount > 0 {
		log.Printf("UYARI: %d tahsilatta month/year alanlarından sadece biri dolu, ikisi de NULL yapılıyor", badCount)
		DB.Model(&models.Payment{}).
			Where("(month IS NULL) <> (year IS NULL)").
			Updates(map[string]interface{}{"month": nil, "year": nil})
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
