package main

import "github.com/akovalyov/go-taskboard/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.InitMailer()
	app.MustStartReminderSweep()
	defer app.StopReminderSweep()

	app.MustListenAndServeHTTP()
}
