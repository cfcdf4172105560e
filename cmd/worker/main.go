package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"optikcare_api/internal/config"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
	"optikcare_api/internal/services"
	"optikcare_api/internal/tasks"
)

const tickInterval = 5 * time.Minute

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

	// The worker only walks payments into expiry; it never confirms
	// them, so it runs without gateway, storage or room dependencies.
	payments := repository.NewPaymentRepository(db)
	orders := repository.NewOrderRepository(db)
	appointments := repository.NewAppointmentRepository(db)
	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)

	walletSvc := services.NewWalletService(wallets, logger)
	appointmentSvc := services.NewAppointmentService(appointments, walletSvc, nil, logger)
	paymentSvc := services.NewPaymentService(
		payments, orders, appointments, users, appointmentSvc,
		nil, services.NewNoopNotifier(logger), logger,
	)

	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.NewExpireStalePaymentsTask(payments, paymentSvc, logger))

	if err := tasks.EnsureExpirySweep(db); err != nil {
		logger.Fatal("failed to seed expiry sweep task", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down worker")
		cancel()
	}()

	logger.Info("worker started", zap.Duration("tick", tickInterval))

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// Run once at start, then on every tick.
	processScheduledTasks(ctx, db, registry, logger)
	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, db, registry, logger)
		case <-ctx.Done():
			return
		}
	}
}

func processScheduledTasks(ctx context.Context, db *gorm.DB, registry *tasks.Registry, logger *zap.Logger) {
	var pending []models.ScheduledTask
	now := time.Now()
	if err := db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pending).Error; err != nil {
		logger.Error("failed to fetch pending tasks", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	logger.Info("processing scheduled tasks", zap.Int("count", len(pending)))
	for _, task := range pending {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, db, registry, task, logger)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, registry *tasks.Registry, task models.ScheduledTask, logger *zap.Logger) {
	handler, found := registry.Get(task.TaskName)
	if !found {
		logger.Error("task handler not found", zap.String("task", task.TaskName), zap.Uint("id", task.ID))
		now := time.Now()
		db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		recordHistory(db, task, now, 0, "handler_not_found", map[string]interface{}{"error": "handler not found"}, logger)
		return
	}

	start := time.Now()
	result, err := handler(ctx, task)
	runtime := time.Since(start)

	status := "success"
	if err != nil {
		status = "failure"
		logger.Error("task execution failed",
			zap.String("task", task.TaskName), zap.Uint("id", task.ID), zap.Error(err))
		if result == nil {
			result = map[string]interface{}{"error": err.Error()}
		}
	}
	recordHistory(db, task, start, runtime, status, result, logger)

	updates := map[string]interface{}{"last_run": &start}
	if task.TaskType == models.ScheduledTaskTypeRecurring {
		// Recurring tasks stay active and roll their due date forward
		// even after a failed run; the next sweep retries naturally.
		updates["due"] = task.NextDue()
	} else if err != nil {
		updates["status"] = models.ScheduledTaskStatusFailure
	} else {
		updates["status"] = models.ScheduledTaskStatusDone
	}
	if err := db.Model(&task).Updates(updates).Error; err != nil {
		logger.Error("failed to update task", zap.Uint("id", task.ID), zap.Error(err))
	}
}

func recordHistory(db *gorm.DB, task models.ScheduledTask, runAt time.Time, runtime time.Duration, status string, result map[string]interface{}, logger *zap.Logger) {
	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           runAt,
		RuntimeMS:       int(runtime.Milliseconds()),
		Status:          status,
		Arguments:       task.Arguments,
		Result:          result,
	}
	if err := db.Create(&history).Error; err != nil {
		logger.Error("failed to record task history", zap.Uint("task_id", task.ID), zap.Error(err))
	}
}
