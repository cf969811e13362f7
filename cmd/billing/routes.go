package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getcontracts "fieldcrm-billing/http-server/contracts/get"
	generate_excel "fieldcrm-billing/http-server/generate-report/generate-excel"
	getinterventions "fieldcrm-billing/http-server/interventions/get"
	saveintervention "fieldcrm-billing/http-server/interventions/save"
	upintervention "fieldcrm-billing/http-server/interventions/update"
	getinvoices "fieldcrm-billing/http-server/invoices/get"
	saveinvoice "fieldcrm-billing/http-server/invoices/save"
	gettariffs "fieldcrm-billing/http-server/tariffs/get"
	savetariff "fieldcrm-billing/http-server/tariffs/save"
	uptariff "fieldcrm-billing/http-server/tariffs/update"
	"fieldcrm-billing/internal/config"
	"fieldcrm-billing/internal/middleware/auth"
	"fieldcrm-billing/internal/service/export"
	"fieldcrm-billing/internal/service/intervention"
	"fieldcrm-billing/internal/service/invoice"
	"fieldcrm-billing/internal/service/ledger"
	"fieldcrm-billing/internal/storage/mysql"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage,
	contractLedger *ledger.Ledger, interventionService *intervention.Service,
	invoiceBuilder *invoice.Builder, excelService *export.ExcelService) *chi.Mux {

	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Rate catalogue, read-only for operators.
	router.Get("/api/tariffs", gettariffs.GetTariffs(log, storage))

	// Contract balances shown when an intervention is logged.
	router.Get("/api/contracts", getcontracts.GetActiveContracts(log, contractLedger))
	router.Get("/api/contracts/{id}", getcontracts.GetContract(log, contractLedger))

	// Intervention lifecycle.
	router.Post("/api/interventions", saveintervention.SaveIntervention(log, interventionService))
	router.Get("/api/interventions/{id}", getinterventions.GetIntervention(log, storage))
	router.Get("/api/tickets/{ticketId}/interventions", getinterventions.GetTicketInterventions(log, storage))
	router.Put("/api/interventions/update/{id}", upintervention.UpdateIntervention(log, interventionService))
	router.Delete("/api/interventions/{id}", upintervention.DeleteIntervention(log, interventionService))

	// Invoicing.
	router.Post("/api/invoices", saveinvoice.SaveInvoice(log, invoiceBuilder))
	router.Get("/api/invoices", getinvoices.GetInvoices(log, storage))
	router.Get("/api/invoices/{id}", getinvoices.GetInvoice(log, storage))

	router.Get("/api/report/excel", generate_excel.GenerateInvoiceRegister(log, excelService))

	// Tariff maintenance, behind basic auth.
	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))
	adminRouter.Get("/tariffs", gettariffs.GetTariffs(log, storage))
	adminRouter.Post("/tariffs/new", savetariff.SaveTariffAdmin(log, storage))
	adminRouter.Put("/tariffs/update/{code}", uptariff.UpdateTariffAdmin(log, storage))

	router.Mount("/api/admin", adminRouter)

	return router
}
