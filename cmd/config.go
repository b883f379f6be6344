package main

import "time"

type Config struct {
	BotToken            string        `env:"BOT_TOKEN,required=true"`
	HTTPAddr            string        `env:"HTTP_ADDR,default=:8080"`
	WebhookURL          string        `env:"WEBHOOK_URL"`
	WebhookSecret       string        `env:"WEBHOOK_SECRET"` // required with WEBHOOK_URL
	Verbose             bool          `env:"VERBOSE,default=false"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY,default=8"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT,default=10s"`
	RoomTTL             time.Duration `env:"ROOM_TTL,default=0s"` // 0 keeps rooms forever
	JanitorInterval     time.Duration `env:"JANITOR_INTERVAL,default=10m"`
	BadgerPath          string        `env:"BADGER_PATH"` // empty keeps state in memory only
}
