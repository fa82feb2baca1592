package postmark

// Config holds Postmark credentials and sender identity.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`

	// SenderEmail is the From address; it must match a verified Postmark
	// sender signature.
	SenderEmail string `env:"POSTMARK_SENDER_EMAIL,required"`

	// SupportEmail receives replies to outcome notifications.
	SupportEmail string `env:"POSTMARK_SUPPORT_EMAIL,required"`
}
