package tasks

import (
	"context"
	"testing"
	"time"

	"optikcare_api/internal/models"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Get("missing"); ok {
		t.Error("Get on empty registry returned a handler")
	}

	called := false
	registry.Register("sweep", func(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
		called = true
		return map[string]interface{}{"status": "success"}, nil
	})

	handler, ok := registry.Get("sweep")
	if !ok {
		t.Fatal("registered handler not found")
	}
	if _, err := handler(context.Background(), models.ScheduledTask{}); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !called {
		t.Error("handler was not invoked")
	}
}

func TestBuildScheduledTask(t *testing.T) {
	due := time.Now().Add(time.Hour)
	rule := "FREQ=MINUTELY;INTERVAL=15"

	task, err := BuildScheduledTask("sweep", map[string]interface{}{"limit": 10}, due, &rule, models.ScheduledTaskTypeRecurring)
	if err != nil {
		t.Fatalf("BuildScheduledTask: %v", err)
	}

	if task.TaskName != "sweep" {
		t.Errorf("task name = %q; want sweep", task.TaskName)
	}
	if task.Status != models.ScheduledTaskStatusActive {
		t.Errorf("status = %q; want active", task.Status)
	}
	if task.TaskType != models.ScheduledTaskTypeRecurring {
		t.Errorf("task type = %q; want recurring", task.TaskType)
	}
	if got, ok := task.Arguments["limit"].(float64); !ok || got != 10 {
		t.Errorf("arguments = %v; want limit 10", task.Arguments)
	}
	if !task.Due.Equal(due) {
		t.Errorf("due = %v; want %v", task.Due, due)
	}
}

func TestBuildScheduledTaskNilArgs(t *testing.T) {
	task, err := BuildScheduledTask(ExpireStalePaymentsTaskName, nil, time.Now(), nil, models.ScheduledTaskTypeOneTime)
	if err != nil {
		t.Fatalf("BuildScheduledTask: %v", err)
	}
	if task.Arguments != nil {
		t.Errorf("arguments = %v; want nil", task.Arguments)
	}
}
