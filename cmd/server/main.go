package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"optikcare_api/internal/config"
	"optikcare_api/internal/handlers"
	appmw "optikcare_api/internal/middleware"
	"optikcare_api/internal/repository"
	"optikcare_api/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := services.AutoMigrate(db); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	// Firebase auth. The API still serves webhooks without it; only the
	// authenticated routes stop working.
	authClient, err := services.InitFirebase(cfg.FirebaseCredentialsPath)
	if err != nil {
		logger.Warn("firebase initialization failed, authenticated routes disabled", zap.Error(err))
	}

	// Optional infrastructure. Each one degrades to a safe fallback so a
	// missing broker or bucket never blocks payment reconciliation.
	var notifier services.Notifier = services.NewNoopNotifier(logger)
	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Warn("rabbitmq connection failed, notifications disabled", zap.Error(err))
		} else if rabbit, err := services.NewRabbitNotifier(conn, logger); err != nil {
			logger.Warn("rabbitmq channel setup failed, notifications disabled", zap.Error(err))
		} else {
			notifier = rabbit
		}
	}

	var locker services.ProcessingLocker
	if cfg.RedisURL != "" {
		redisLocker, err := services.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis connection failed, webhook locking disabled", zap.Error(err))
		} else {
			locker = redisLocker
		}
	}

	var storage services.ProofStorage
	if cfg.MinioEndpoint != "" {
		minioStorage, err := services.NewMinioProofStorage(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioUseSSL, cfg.MinioBucket, cfg.MinioPublicURL,
		)
		if err != nil {
			logger.Warn("minio setup failed, proof file uploads disabled", zap.Error(err))
		} else {
			storage = minioStorage
		}
	}

	var rooms services.RoomProvider
	if cfg.RoomProviderAPIKey != "" {
		rooms = services.NewRoomClient(cfg.RoomProviderBaseURL, cfg.RoomProviderAPIKey)
	}

	// Repositories and services
	payments := repository.NewPaymentRepository(db)
	orders := repository.NewOrderRepository(db)
	appointments := repository.NewAppointmentRepository(db)
	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)
	withdraws := repository.NewWithdrawRepository(db)
	webhookEvents := repository.NewWebhookEventRepository(db)

	walletSvc := services.NewWalletService(wallets, logger)
	appointmentSvc := services.NewAppointmentService(appointments, walletSvc, rooms, logger)
	paymentSvc := services.NewPaymentService(payments, orders, appointments, users, appointmentSvc, storage, notifier, logger)
	withdrawSvc := services.NewWithdrawService(withdraws, users, walletSvc, notifier, cfg.WithdrawMinimum, logger)
	gatewaySvc := services.NewGatewayService(
		cfg.MidtransServerKey, cfg.MidtransClientKey, cfg.MidtransIsProduction,
		payments, orders, appointments, logger,
	)
	verifier := services.NewSignatureVerifier(cfg.WebhookSecret, cfg.WebhookAllowUnsigned, logger)
	reconciliationSvc := services.NewReconciliationService(verifier, payments, webhookEvents, paymentSvc, locker, logger)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(reconciliationSvc)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, gatewaySvc)
	withdrawHandler := handlers.NewWithdrawHandler(withdrawSvc, walletSvc)
	adminHandler := handlers.NewAdminHandler(paymentSvc, withdrawSvc)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appmw.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	// Gateway callbacks authenticate by signature, not by user
	e.POST("/webhooks/payments/orders", webhookHandler.HandleOrderWebhook)
	e.POST("/webhooks/payments/appointments", webhookHandler.HandleAppointmentWebhook)

	authed := e.Group("/api", appmw.RequireAuth(authClient, users))
	authed.POST("/payments/checkout", paymentHandler.CreateCheckout)
	authed.POST("/payments/bank-transfer", paymentHandler.CreateBankTransfer)
	authed.POST("/payments/:id/proof", paymentHandler.SubmitProof)
	authed.GET("/wallet", withdrawHandler.GetWallet)
	authed.POST("/withdraws", withdrawHandler.CreateWithdraw)
	authed.GET("/withdraws", withdrawHandler.ListWithdraws)

	admin := authed.Group("/admin", appmw.RequireAdmin())
	admin.GET("/payments/pending", adminHandler.ListPendingPayments)
	admin.POST("/payments/:id/verify", adminHandler.VerifyPayment)
	admin.POST("/payments/:id/reject", adminHandler.RejectPayment)
	admin.GET("/withdraws/pending", adminHandler.ListPendingWithdraws)
	admin.POST("/withdraws/:id/approve", adminHandler.ApproveWithdraw)
	admin.POST("/withdraws/:id/reject", adminHandler.RejectWithdraw)
	admin.POST("/withdraws/:id/paid", adminHandler.MarkWithdrawPaid)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
