package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config collects every environment-driven setting the process needs.
// Load once in main and pass down; services never read the environment
// themselves.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	RabbitURL   string

	MidtransServerKey    string
	MidtransClientKey    string
	MidtransIsProduction bool

	// WebhookSecret is the shared secret for HMAC verification of gateway
	// callbacks. An empty secret only bypasses verification when
	// WebhookAllowUnsigned is explicitly set; that mode is for local
	// development and is logged as a warning on every request.
	WebhookSecret        string
	WebhookAllowUnsigned bool

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioPublicURL string

	RoomProviderBaseURL string
	RoomProviderAPIKey  string

	FirebaseCredentialsPath string

	WithdrawMinimum decimal.Decimal
}

// Load reads the configuration from the environment
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		RabbitURL:   os.Getenv("RABBITMQ_URL"),

		MidtransServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:    os.Getenv("MIDTRANS_CLIENT_KEY"),
		MidtransIsProduction: getEnvBool("MIDTRANS_IS_PRODUCTION"),

		WebhookSecret:        os.Getenv("WEBHOOK_SECRET"),
		WebhookAllowUnsigned: getEnvBool("WEBHOOK_ALLOW_UNSIGNED"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL"),
		MinioBucket:    getEnv("MINIO_BUCKET", "payment-proofs"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		RoomProviderBaseURL: getEnv("ROOM_PROVIDER_BASE_URL", "http://rooms:3000"),
		RoomProviderAPIKey:  os.Getenv("ROOM_PROVIDER_API_KEY"),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),

		WithdrawMinimum: getEnvDecimal("WITHDRAW_MINIMUM", decimal.NewFromInt(50000)),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return fallback
	}
	return d
}
