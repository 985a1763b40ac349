package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/config"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/database"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/handlers"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/gateway/middleware"
	accounts "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/accounts/handler"
	catalog "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/catalog/handler"
	loyalty "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/loyalty/handler"
	sales "github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/services/sales/handler"
	"github.com/Central-University-IT-prod/2025-final-command-team-23-hnz-back/internal/utils"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Hour, redisClient)

	accountsHandler := accounts.NewAccountsHandler(db, redisClient, tokens)
	catalogHandler := catalog.NewCatalogHandler(db, redisClient)
	loyaltyHandler := loyalty.NewLoyaltyHandler(db, redisClient)
	salesHandler := sales.NewSalesHandler(db, redisClient)

	companyHandler := handlers.NewCompanyHTTPHandler(accountsHandler, salesHandler, tokens)
	cashierHandler := handlers.NewCashierHTTPHandler(accountsHandler, loyaltyHandler, salesHandler, tokens)
	clientHandler := handlers.NewClientHTTPHandler(loyaltyHandler, salesHandler)
	itemHandler := handlers.NewItemHTTPHandler(catalogHandler)

	r := gin.New()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("100-S"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public API Group ---
	public := r.Group("/api")
	{
		public.POST("/company", companyHandler.Register)
		public.POST("/company/login", companyHandler.Login)
		public.POST("/cashier/login", cashierHandler.Login)

		public.POST("/client/register", clientHandler.Register)
		public.GET("/client/:client_id", clientHandler.ListLoyalty)
		public.GET("/client/:client_id/company", clientHandler.ListCompanies)
		public.POST("/client/:client_id/company/:company_id/subscribe", clientHandler.Subscribe)
		public.DELETE("/client/:client_id/company/:company_id/unsubscribe", clientHandler.Unsubscribe)

		public.GET("/company/:company_id/item", itemHandler.List)
		public.GET("/company/:company_id/item/:id", itemHandler.Get)
	}

	// --- Company API Group ---
	company := r.Group("/api")
	company.Use(middleware.JWTAuth(tokens), middleware.CompanyOnly())
	{
		company.POST("/company/logout", companyHandler.Logout)
		company.GET("/company/:company_id", companyHandler.GetCompany)
		company.PATCH("/company/:company_id", companyHandler.UpdateCompany)

		company.POST("/company/:company_id/cashier", companyHandler.CreateCashier)
		company.GET("/company/:company_id/cashier", companyHandler.ListCashiers)
		company.GET("/company/:company_id/cashier/:id", companyHandler.GetCashier)
		company.DELETE("/company/:company_id/cashier/:id", companyHandler.DeactivateCashier)

		company.POST("/company/:company_id/item", itemHandler.Create)
		company.PATCH("/company/:company_id/item/:id", itemHandler.Update)

		company.POST("/company/stats/money", companyHandler.HourlyMoneyStats)
		company.POST("/company/stats/money/daily", companyHandler.DailyMoneyStats)
		company.POST("/company/stats/money/cashier/daily", companyHandler.CashierDailyMoneyStats)
		company.POST("/client/stats/amount", clientHandler.LoyalStats)
	}

	// --- Cashier API Group ---
	cashier := r.Group("/api/cashier")
	cashier.Use(middleware.JWTAuth(tokens), middleware.CashierOnly())
	{
		cashier.POST("/logout", cashierHandler.Logout)
		cashier.POST("/pre-sale", cashierHandler.PreSale)
		cashier.POST("/sell", cashierHandler.Sell)
	}

	log.Printf("Server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
