package app

import (
	"github.com/akovalyov/go-taskboard/internal/config"
	"github.com/akovalyov/go-taskboard/internal/reminder"
	"github.com/akovalyov/go-taskboard/internal/services"
)

var globalSweeper *reminder.Sweeper

func MustStartReminderSweep() {
	cfg := config.Global().Reminder

	taskService := services.NewTaskService(globalLogger, globalPostgresPool)
	globalSweeper = reminder.NewSweeper(globalLogger, taskService, globalMailer)

	err := globalSweeper.Start(cfg.Interval)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to start reminder sweep")
		panic(err)
	}
}

func StopReminderSweep() {
	globalSweeper.Stop()
}
