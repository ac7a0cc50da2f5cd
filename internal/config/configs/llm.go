package configs

// LLM selects the draft generator. Mode "mock" produces deterministic
// template text; "live" calls the OpenAI API and requires APIKey.
type LLM struct {
	Mode    string `env:"MODE" envDefault:"mock"`
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"BASE_URL"`
}
