package resend

// Config is parsed from the environment with caarlos0/env.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL" envDefault:"no-reply@localhost"`
	SenderName  string `env:"RESEND_FROM_NAME"`
}
