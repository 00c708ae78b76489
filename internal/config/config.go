package config

import "os"

// Config carries server-side settings resolved from the environment.
//
// Provider credentials stay server-side; nothing in here is ever echoed back
// to clients or written to logs.
type Config struct {
	Port string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	// DynamoDBEndpoint points the client at a local DynamoDB when set.
	DynamoDBEndpoint string

	PayHeroBaseURL     string
	PayHeroBasicAuth   string
	PayHeroCallbackURL string

	IntaSendBaseURL    string
	IntaSendSecretKey  string
	IntaSendPublicKey  string
	IntaSendWebhookURL string

	JWTSecret string

	// KafkaBrokers is optional; lifecycle events are dropped when empty.
	KafkaBrokers string
}

func Load() *Config {
	return &Config{
		Port:               getenvDefault("PORT", "8080"),
		AWSRegion:          getenvDefault("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getenvDefault("AWS_ACCESS_KEY_ID", "local"),
		AWSSecretAccessKey: getenvDefault("AWS_SECRET_ACCESS_KEY", "local"),
		DynamoDBEndpoint:   os.Getenv("DYNAMODB_ENDPOINT"),
		PayHeroBaseURL:     getenvDefault("PAYHERO_BASE_URL", "https://backend.payhero.co.ke/api/v2"),
		PayHeroBasicAuth:   os.Getenv("PAYHERO_BASIC_AUTH"),
		PayHeroCallbackURL: os.Getenv("PAYHERO_CALLBACK_URL"),
		IntaSendBaseURL:    getenvDefault("INTASEND_BASE_URL", "https://api.intasend.com/api/v1"),
		IntaSendSecretKey:  os.Getenv("INTASEND_SECRET_KEY"),
		IntaSendPublicKey:  os.Getenv("INTASEND_PUBLIC_KEY"),
		IntaSendWebhookURL: os.Getenv("INTASEND_WEBHOOK_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
