package tasks

import (
	"time"

	"gorm.io/gorm"

	"optikcare_api/internal/models"
)

// expirySweepRule is an RFC 5545 RRULE run every 15 minutes
const expirySweepRule = "FREQ=MINUTELY;INTERVAL=15"

// DefineTasks registers all available task handlers
func DefineTasks(registry *Registry, expireTask *ExpireStalePaymentsTask) {
	registry.Register(ExpireStalePaymentsTaskName, expireTask.HandleExecution)
}

// EnsureExpirySweep seeds the recurring expiry sweep task if no active
// one exists yet. Safe to call on every worker start.
func EnsureExpirySweep(db *gorm.DB) error {
	var count int64
	err := db.Model(&models.ScheduledTask{}).
		Where("task_name = ? AND status = ?", ExpireStalePaymentsTaskName, models.ScheduledTaskStatusActive).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rule := expirySweepRule
	task, err := BuildScheduledTask(ExpireStalePaymentsTaskName, nil, time.Now(), &rule, models.ScheduledTaskTypeRecurring)
	if err != nil {
		return err
	}
	return db.Create(task).Error
}
