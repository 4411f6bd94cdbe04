package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ListenAddr        = "LISTEN_ADDR"
	FlushInterval     = "FLUSH_INTERVAL"
	KeepAliveInterval = "KEEPALIVE_INTERVAL"
	WriteTimeout      = "WRITE_TIMEOUT"
	MaxMessageSize    = "MAX_MESSAGE_SIZE"
	OutboxLimit       = "OUTBOX_LIMIT"
	AllowedOrigins    = "ALLOWED_ORIGINS"
	QueueSize         = "QUEUE_SIZE"
	QueueWorkers      = "QUEUE_WORKERS"
	LogLevel          = "LOG_LEVEL"
	LogFormat         = "LOG_FORMAT"
	PresenceRedisURL  = "PRESENCE_REDIS_URL"
	PresenceRedisPass = "PRESENCE_REDIS_PASS"
	PresenceTable     = "PRESENCE_TABLE"
	AWSRegion         = "AWS_REGION"
	AWSID             = "AWS_ID"
	AWSSecret         = "AWS_SECRET"
	AWSToken          = "AWS_TOKEN"
	DynamoDBEndpoint  = "DYNAMODB_ENDPOINT"
)

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// GetInt returns defaultVal when the variable is unset or not a
// non-negative integer.
func GetInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || parsed < 0 {
		return defaultVal
	}
	return parsed
}

// GetDuration accepts Go duration strings ("10ms", "30s") and falls back to
// defaultVal for anything unparsable or non-positive.
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil || parsed <= 0 {
		return defaultVal
	}
	return parsed
}

// GetList splits a comma separated variable, dropping empty entries.
func GetList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
