package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// PushEndpointURL is the external push-sending gateway. Dispatch is
	// skipped entirely when this is unset, left at the placeholder default,
	// or not served over HTTPS.
	PushEndpointURL  string
	PushDispatchMode string // "identity" (default) or "tokens"
	PushTimeout      time.Duration

	SNSRegion         string
	SNSPlatformAppARN string // platform application for device registrations

	AttestURL string // optional app-integrity token endpoint

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	CacheDir       string
	CacheCapacity  int
	NotifCacheTTL  time.Duration
	MemberCacheTTL time.Duration
	TokenCacheTTL  time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	GroupMembers  string
	UserTokens    string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			GroupMembers:  getEnv("DYNAMO_TABLE_GROUP_MEMBERS", "group_members"),
			UserTokens:    getEnv("DYNAMO_TABLE_USER_TOKENS", "user_tokens"),
		},

		PushEndpointURL:  getEnv("PUSH_ENDPOINT_URL", "https://your-push-gateway.example.com/send"),
		PushDispatchMode: getEnv("PUSH_DISPATCH_MODE", "identity"),
		PushTimeout:      time.Duration(getEnvInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,

		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SNSPlatformAppARN: getEnv("SNS_PLATFORM_APP_ARN", ""),

		AttestURL: getEnv("ATTEST_URL", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		CacheDir:       getEnv("CACHE_DIR", "./.cache"),
		CacheCapacity:  getEnvInt("CACHE_CAPACITY", 100),
		NotifCacheTTL:  time.Duration(getEnvInt("NOTIF_CACHE_TTL_SECONDS", 60)) * time.Second,
		MemberCacheTTL: time.Duration(getEnvInt("MEMBER_CACHE_TTL_SECONDS", 120)) * time.Second,
		TokenCacheTTL:  time.Duration(getEnvInt("TOKEN_CACHE_TTL_SECONDS", 300)) * time.Second,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
