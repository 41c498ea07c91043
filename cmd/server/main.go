package main

import (
	"log"
	"strings"

	"mandira-backend/internal/area"
	"mandira-backend/internal/audit"
	"mandira-backend/internal/auth"
	"mandira-backend/internal/balance"
	"mandira-backend/internal/billing"
	"mandira-backend/internal/config"
	"mandira-backend/internal/customer"
	"mandira-backend/internal/dashboard"
	"mandira-backend/internal/database"
	"mandira-backend/internal/milktype"
	"mandira-backend/internal/models"
	"mandira-backend/internal/payment"
	"mandira-backend/internal/report"
	"mandira-backend/internal/sale"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env bulunamadı, environment değişkenleri kullanılacak")
	}

	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Personel yönetimi
	adminRoutes.Post("/users", auth.CreateStaffHandler())

	// Süt çeşidi yönetimi
	adminRoutes.Post("/milk-types", milktype.CreateMilkTypeHandler())
	adminRoutes.Put("/milk-types/:id", milktype.UpdateMilkTypeHandler())
	adminRoutes.Delete("/milk-types/:id", milktype.DeleteMilkTypeHandler())

	// Bölge yönetimi
	adminRoutes.Post("/areas", area.CreateAreaHandler())
	adminRoutes.Put("/areas/:id", area.UpdateAreaHandler())
	adminRoutes.Delete("/areas/:id", area.DeleteAreaHandler())

	// Ortak (auth gerektiren) route'lar

	protected.Get("/milk-types", milktype.ListMilkTypesHandler())
	protected.Get("/areas", area.ListAreasHandler())

	// Müşteriler
	protected.Get("/customers", customer.ListCustomersHandler())
	protected.Post("/customers", customer.CreateCustomerHandler())
	protected.Get("/customers/:id", customer.GetCustomerHandler())
	protected.Put("/customers/:id", customer.UpdateCustomerHandler())
	protected.Delete("/customers/:id", auth.RequireRole(models.RoleAdmin), customer.DeleteCustomerHandler())

	// Aylık bakiyeler
	protected.Get("/customers/:id/monthly-balances", balance.ListMonthlyBalancesHandler())
	protected.Get("/customers/:id/unpaid-months", balance.ListUnpaidMonthsHandler())
	protected.Get("/customers/:id/bill", billing.MonthlyBillHandler(cfg))

	// Satışlar
	protected.Post("/sales", sale.CreateSaleHandler())
	protected.Post("/sales/batch", sale.CreateBatchSalesHandler())
	protected.Get("/sales", sale.ListSalesHandler())
	protected.Put("/sales/:id", sale.UpdateSaleHandler())
	protected.Delete("/sales/:id", sale.DeleteSaleHandler())

	// Tahsilatlar
	protected.Post("/payments", payment.CreatePaymentHandler())
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Get("/payments/:id", payment.GetPaymentHandler())
	protected.Put("/payments/:id", payment.UpdatePaymentHandler())
	protected.Delete("/payments/:id", payment.DeletePaymentHandler())

	// Raporlar
	protected.Get("/reports/daily", report.DailyReportHandler())
	protected.Get("/reports/monthly", report.MonthlyReportHandler())
	protected.Get("/reports/yearly", report.YearlyReportHandler())
	protected.Get("/reports/monthly/export", report.ExportMonthlyReportHandler())
	protected.Get("/reports/customer-balances", report.CustomerBalancesHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", auth.RequireRole(models.RoleAdmin), audit.UndoAuditLogHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
