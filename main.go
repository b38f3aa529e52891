package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/samuelmt/detran-fines/client"
	"github.com/samuelmt/detran-fines/config"
	"github.com/samuelmt/detran-fines/handler"
	"github.com/samuelmt/detran-fines/service"
	"github.com/samuelmt/detran-fines/store"
	"github.com/samuelmt/detran-fines/utils"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Result store: redis when configured, in-memory otherwise
	var resultStore store.Store
	if cfg.RedisAddr != "" {
		resultStore = store.NewRedisStore(cfg.RedisAddr)
		log.Printf("Using redis result store at %s", cfg.RedisAddr)
	} else {
		resultStore = store.NewMemoryStore()
		log.Println("Using in-memory result store")
	}

	// Receipt reading pipeline
	ocrClient := client.NewOCRClient(cfg.TessdataPrefix)
	defer ocrClient.Close()
	pdfProcessor := service.NewPDFProcessor()
	receiptService := service.NewReceiptService(pdfProcessor, ocrClient)

	// Each run gets an independent browser instance
	portalFactory := func() (service.Portal, error) {
		return client.NewBrowserPortal(cfg.PortalURL, cfg.Headless)
	}

	// Initialize service layer
	fineParser := utils.NewFineParser(cfg.DateOrderPolicy)
	exportService := service.NewExportService()
	consultationService := service.NewConsultationService(
		resultStore,
		portalFactory,
		receiptService,
		exportService,
		fineParser,
		cfg.DownloadDir,
		cfg.ExportDir,
		cfg.ConsultationDelay,
		cfg.VehicleTimeout,
	)

	// Initialize handler layer
	consultationHandler := handler.NewConsultationHandler(consultationService, resultStore, cfg.DownloadDir)

	// Setup Gin router
	router := gin.Default()

	router.GET("/health", consultationHandler.Health)

	consultations := router.Group("/consultations")
	{
		consultations.POST("", consultationHandler.Start)
		consultations.GET("", consultationHandler.History)
		consultations.GET("/:id/status", consultationHandler.Status)
		consultations.GET("/:id/result", consultationHandler.Result)
		consultations.GET("/:id/excel", consultationHandler.Excel)
		consultations.GET("/:id/pdf/:filename", consultationHandler.Receipt)
	}

	// Start server
	log.Printf("Starting DETRAN fines service on port %s (date order policy: %s)",
		cfg.ServerPort, cfg.DateOrderPolicy)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
