package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-bookstore-ws/internal/bootstrap"
	"go-bookstore-ws/internal/config"
	"go-bookstore-ws/internal/handler"
	applog "go-bookstore-ws/internal/logger"
	"go-bookstore-ws/internal/middleware"
	"go-bookstore-ws/internal/model"
	"go-bookstore-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		applog.Get().WithError(err).Fatal("invalid configuration")
	}
	log := applog.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 3. Database, event bus, storage, services
	deps, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Hub: wsHub})
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer deps.Close()

	// 4. Seed akun OWNER pertama
	deps.SeedOwner()

	// 5. Handlers
	svc := deps.Services
	authHandler := handler.NewAuthHandler(svc.Auth)
	bookHandler := handler.NewBookHandler(svc.Inventory)
	customerHandler := handler.NewCustomerHandler(svc.Customers)
	invoiceHandler := handler.NewInvoiceHandler(svc.Invoices)
	reconHandler := handler.NewReconciliationHandler(svc.Reconciliation)
	ledgerHandler := handler.NewLedgerHandler(svc.Ledger)
	proofHandler := handler.NewProofHandler(deps.Blobs)
	dashHandler := handler.NewDashboardHandler(svc.Dashboard)
	userRepo := deps.Store.Users

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Bookstore Back Office v1.0",
		BodyLimit: 6 << 20,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	if dir := deps.LocalUploadDir(); dir != "" {
		app.Static("/uploads", dir)
	}

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/change-password", authHandler.ChangePassword)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))
	priv := middleware.RequirePrivilege

	// Dashboard
	protected.Get("/dashboard/stats", priv(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", priv(model.PrivDashboardView), dashHandler.GetStockMovement)

	// Buku & stok
	protected.Get("/books", priv(model.PrivBookView), bookHandler.GetBooks)
	protected.Get("/books/audit", priv(model.PrivStockAdjust), bookHandler.AuditStock)
	protected.Get("/books/:id", priv(model.PrivBookView), bookHandler.GetBook)
	protected.Post("/books", priv(model.PrivBookManage), bookHandler.CreateBook)
	protected.Put("/books/:id", priv(model.PrivBookManage), bookHandler.UpdateBook)
	protected.Post("/books/:id/adjust-stock", priv(model.PrivStockAdjust), bookHandler.AdjustStock)
	protected.Get("/books/:id/stock-logs", priv(model.PrivBookView), bookHandler.GetStockLogs)

	// Customer
	protected.Get("/customers", middleware.RequireAnyPrivilege(model.PrivCustomerManage, model.PrivInvoiceCreate), customerHandler.GetCustomers)
	protected.Post("/customers", priv(model.PrivCustomerManage), customerHandler.CreateCustomer)
	protected.Put("/customers/:id", priv(model.PrivCustomerManage), customerHandler.UpdateCustomer)

	// Faktur, pembayaran, retur
	protected.Get("/invoices", priv(model.PrivInvoiceView), invoiceHandler.SearchInvoices)
	protected.Get("/invoices/:id", priv(model.PrivInvoiceView), invoiceHandler.GetInvoice)
	protected.Post("/invoices", priv(model.PrivInvoiceCreate), invoiceHandler.CreateInvoice)
	protected.Post("/invoices/:id/returns", priv(model.PrivReturnCreate), reconHandler.ApplyReturn)
	protected.Post("/payments", priv(model.PrivPaymentCreate), reconHandler.ApplyPayment)

	// Mutasi
	protected.Get("/ledger", priv(model.PrivLedgerView), ledgerHandler.GetLedger)
	protected.Post("/ledger", priv(model.PrivLedgerCreate), ledgerHandler.CreateEntry)
	protected.Get("/ledger/summary", priv(model.PrivLedgerView), ledgerHandler.GetSummary)
	protected.Get("/ledger/export", priv(model.PrivLedgerView), ledgerHandler.Export)
	protected.Delete("/ledger/:id", priv(model.PrivLedgerReverse), reconHandler.Reverse)

	// Bukti transfer / nota retur
	protected.Post("/proofs", middleware.RequireAnyPrivilege(model.PrivPaymentCreate, model.PrivReturnCreate, model.PrivLedgerCreate), proofHandler.Upload)

	// WebSocket Route (token lewat ?token=)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireAuth(userRepo))
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	wsHub.Stop()

	log.Info("Server exited")
}
