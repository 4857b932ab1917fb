package main

import (
	"os"

	"github.com/dinewell/tableside/config"
	"github.com/dinewell/tableside/database"
	"github.com/dinewell/tableside/fanout"
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/router"
	"github.com/dinewell/tableside/services"
	"github.com/dinewell/tableside/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Explicit service objects with injected dependencies; nothing hangs
	// off package globals.
	hub := fanout.NewHub()
	provider := services.NewHTTPPaymentProvider(&services.ProviderConfig{
		BaseURL:   cfg.ProviderBaseURL,
		ServerKey: cfg.ProviderServerKey,
		Timeout:   cfg.ProviderTimeout,
	})
	orders := services.NewOrderStore(db)

	sessions := services.NewSessionService(db, hub, orders)
	calls := services.NewCallService(db, hub)
	splits := services.NewSplitService(db, hub, provider, orders)
	bills := services.NewBillService(db, orders)

	reconciler := services.NewReconciler(db, provider, splits)
	reconciler.Interval = cfg.ReconcileInterval
	reconciler.StaleAge = cfg.ReconcileStale
	reconciler.Start()
	defer reconciler.Stop()

	r := router.SetupRouter(router.Deps{
		DB:                db,
		Hub:               hub,
		Sessions:          sessions,
		Calls:             calls,
		Splits:            splits,
		Bills:             bills,
		ProviderServerKey: cfg.ProviderServerKey,
		AllowOrigin:       cfg.AllowOrigin,
	})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.SessionParticipant{},
		&models.WaiterCall{},
		&models.CallResponse{},
		&models.WaiterStatus{},
		&models.SplitPaymentSession{},
		&models.SplitContribution{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	if err := database.ApplySchema(db); err != nil {
		utils.ErrorLogger.Printf("Error applying schema extras: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
