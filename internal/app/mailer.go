package app

import (
	"github.com/akovalyov/go-taskboard/internal/config"
	"github.com/akovalyov/go-taskboard/internal/mailer"
)

var globalMailer *mailer.SMTPMailer

func InitMailer() {
	cfg := config.Global().SMTP
	globalMailer = mailer.NewSMTP(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From)

	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("from", cfg.From).
		Msg("initialized smtp mailer")
}
