package main

import (
	"flag"
	"log"

	"mandira-backend/internal/balance"
	"mandira-backend/internal/config"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Bütün müşterilerin aylık bakiyelerini kaynak satırlardan baştan
// hesaplar. Önbellek şüpheli göründüğünde veya elle veri düzeltmesinden
// sonra çalıştırılır; işlem idempotenttir.
func main() {
	customerID := flag.Uint("customer", 0, "sadece bu müşteriyi hesapla (0 = hepsi)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env bulunamadı, environment değişkenleri kullanılacak")
	}

	cfg := config.Load()
	database.Init(cfg)

	dbq := database.DB
	if *customerID > 0 {
		dbq = dbq.Where("id = ?", *customerID)
	}

	var customers []models.Customer
	if err := dbq.Find(&customers).Error; err != nil {
		log.Fatal("Müşteriler okunamadı:", err)
	}
	if len(customers) == 0 {
		log.Fatal("Müşteri bulunamadı")
	}

	log.Printf("%d müşterinin bakiyeleri yeniden hesaplanıyor", len(customers))

	failed := 0
	for _, cu := range customers {
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return balance.RecalculateAll(tx, cu.ID)
		})
		if err != nil {
			failed++
			log.Printf("HATA müşteri #%d (%s): %v", cu.ID, cu.Name, err)
			continue
		}
		log.Printf("OK müşteri #%d (%s)", cu.ID, cu.Name)
	}

	if failed > 0 {
		log.Fatalf("%d müşteri hatayla tamamlandı", failed)
	}
	log.Println("Tamamlandı")
}
