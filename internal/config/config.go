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

	RedisURL string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPFromName string
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string
	SNSTopicARN string // secondary mail channel: topic with email subscribers

	S3BucketName string
	S3LogoKey    string

	GA4PropertyID     string
	GA4ServiceAccount string // client_email of the service account
	GA4PrivateKeyPath string // PEM path for the RS256 assertion
	GA4TokenURL       string

	DashboardURL   string // pre-built login redirect base, token appended as query param
	AllowedOrigins []string

	// Edge proxy settings
	OriginURL        string
	CacheTTL         time.Duration
	EdgePort         string
	CacheableActions []string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users    string
	Sessions string
	Versions string
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
			Users:    getEnv("DYNAMO_TABLE_USERS", "dashboard_users"),
			Sessions: getEnv("DYNAMO_TABLE_SESSIONS", "dashboard_sessions"),
			Versions: getEnv("DYNAMO_TABLE_VERSIONS", "app_versions"),
		},

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Analytics Dashboard"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		S3BucketName: getEnv("S3_BUCKET_NAME", "dashboard-assets"),
		S3LogoKey:    getEnv("S3_LOGO_KEY", "img/logo.png"),

		GA4PropertyID:     getEnv("GA4_PROPERTY_ID", ""),
		GA4ServiceAccount: getEnv("GA4_SERVICE_ACCOUNT", ""),
		GA4PrivateKeyPath: getEnv("GA4_PRIVATE_KEY_PATH", "./ga4_key.pem"),
		GA4TokenURL:       getEnv("GA4_TOKEN_URL", "https://oauth2.googleapis.com/token"),

		DashboardURL:   getEnv("DASHBOARD_URL", "http://localhost:8788"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		OriginURL:        getEnv("ORIGIN_URL", "http://localhost:3000/v1/actions"),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_SECONDS", 360)) * time.Second,
		EdgePort:         getEnv("EDGE_PORT", "8788"),
		CacheableActions: strings.Split(getEnv("CACHEABLE_ACTIONS", "fetchAllDashboardData"), ","),
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
