package main

import (
	"fmt"
	"os"

	"github.com/nurpe/haken-contracts/internal/auth"
	"github.com/nurpe/haken-contracts/internal/config"
	"github.com/nurpe/haken-contracts/internal/db"
	"github.com/nurpe/haken-contracts/internal/excel"
	httphandler "github.com/nurpe/haken-contracts/internal/http"
	"github.com/nurpe/haken-contracts/internal/http/middleware"
	"github.com/nurpe/haken-contracts/internal/logger"
	"github.com/nurpe/haken-contracts/internal/pdf"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/service"
	"github.com/nurpe/haken-contracts/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	repo := repository.New(database)

	pdfGenerator, err := pdf.NewGenerator(cfg.PDF.FontPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	if cfg.PDF.FontPath == "" {
		log.Warn().Msg("PDF_FONT_PATH is not set; Japanese text will not render")
	}
	blobs, err := storage.NewFileStore(cfg.PDF.StorageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init print storage")
	}

	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)
	auditor := service.NewAuditor(repo, log)
	teishokubi := service.NewTeishokubiCalculator(repo, auditor, log)

	handler := httphandler.NewHandler(httphandler.Services{
		Auth:         service.NewAuthService(repo, issuer, auditor, log),
		Contracts:    service.NewContractService(repo, service.NewNumberAllocator(log), service.NewMinimumWageChecker(), auditor, cfg, log),
		Assignments:  service.NewAssignmentService(repo, teishokubi, auditor, log),
		Issuance:     service.NewIssuanceService(repo, pdfGenerator, blobs, teishokubi, auditor, log),
		Teishokubi:   teishokubi,
		Confirmation: service.NewConfirmationService(repo, auditor, log),
		Ledger:       service.NewLedgerService(repo, excel.NewGenerator(), teishokubi, log),
		Auditor:      auditor,
	}, log)
	authMiddleware := middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	router := httphandler.NewRouter(handler, authMiddleware, cfg.HTTP.AllowedOrigins, cfg.Environment, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
