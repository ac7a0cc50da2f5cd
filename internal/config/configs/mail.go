package configs

// Mail selects and configures the send gateway. Mode "mock" records a stub
// provider id without delivering anything; "smtp" delivers through Host.
// With DryRun every message goes to TestRecipient instead of the creator.
// ReplyDomain, when set, makes replies route to replies+<thread>@ReplyDomain.
type Mail struct {
	Mode          string `env:"MODE" envDefault:"mock"`
	Host          string `env:"HOST"`
	Port          int    `env:"PORT" envDefault:"587"`
	User          string `env:"USER"`
	Password      string `env:"PASSWORD"`
	From          string `env:"FROM" envDefault:"outreach@example.com"`
	FromName      string `env:"FROM_NAME"`
	ReplyDomain   string `env:"REPLY_DOMAIN"`
	DryRun        bool   `env:"DRY_RUN" envDefault:"false"`
	TestRecipient string `env:"TEST_RECIPIENT"`
}
