package main

import (
	"log"
	"os"

	"mandira-backend/internal/config"
	"mandira-backend/internal/database"
	"mandira-backend/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Boş bir kurulum için başlangıç verisi: admin kullanıcı, temel süt
// çeşitleri ve bir bölge. Var olan kayıtlara dokunmaz.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env bulunamadı, environment değişkenleri kullanılacak")
	}

	cfg := config.Load()
	database.Init(cfg)

	seedAdmin()
	seedMilkTypes()
	seedArea()

	log.Println("Seed tamamlandı")
}

func seedAdmin() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Kullanıcı zaten var, admin atlandı")
		return
	}

	email := getEnv("SEED_ADMIN_EMAIL", "admin@mandira.local")
	password := getEnv("SEED_ADMIN_PASSWORD", "")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD tanımlanmalı")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Şifre hashlenemedi:", err)
	}

	admin := models.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatal("Admin oluşturulamadı:", err)
	}
	log.Println("Admin oluşturuldu:", email)
}

func seedMilkTypes() {
	defaults := []models.MilkType{
		{Name: "Cow", RatePerLiter: decimal.NewFromInt(50)},
		{Name: "Buffalo", RatePerLiter: decimal.NewFromInt(80)},
	}

	for _, mt := range defaults {
		var existing models.MilkType
		if err := database.DB.Where("name = ?", mt.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := database.DB.Create(&mt).Error; err != nil {
			log.Fatal("Süt çeşidi oluşturulamadı:", err)
		}
		log.Printf("Süt çeşidi eklendi: %s (%s TL/lt)", mt.Name, mt.RatePerLiter.StringFixed(2))
	}
}

func seedArea() {
	var count int64
	database.DB.Model(&models.Area{}).Count(&count)
	if count > 0 {
		return
	}

	a := models.Area{Name: "Merkez", Description: "Varsayılan dağıtım bölgesi"}
	if err := database.DB.Create(&a).Error; err != nil {
		log.Fatal("Bölge oluşturulamadı:", err)
	}
	log.Println("Bölge eklendi: Merkez")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
