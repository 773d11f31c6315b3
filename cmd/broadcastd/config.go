package main

// appConfig selects the wiring of the daemon; the components it names carry
// their own Config structs loaded separately.
type appConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"broadcastd"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`

	// StorageDriver selects the authoritative store: "mongo" or "postgres".
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"mongo"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"broadcastkit"`

	// RedisCache toggles the shared Redis listing cache; without it the
	// daemon falls back to an in-process cache.
	RedisCache bool `env:"REDIS_CACHE_ENABLED" envDefault:"true"`

	// EmailProvider selects the notification channel: "postmark", "smtp",
	// or "dev" (writes messages to DevEmailDir instead of sending).
	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"dev"`
	DevEmailDir   string `env:"DEV_EMAIL_DIR" envDefault:"./dev_emails"`

	// NotifyRecipient receives all join-request notifications. The daemon
	// has no user directory of its own; the surrounding platform owns user
	// identities, so deployments route notifications to a monitored inbox.
	NotifyRecipient string `env:"NOTIFY_RECIPIENT,required"`
}
