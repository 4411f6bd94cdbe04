package env

import "time"

// Config is the process configuration of the presence server.
type Config struct {
	ListenAddr        string
	FlushInterval     time.Duration
	KeepAliveInterval time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	OutboxLimit       int
	AllowedOrigins    []string
	QueueSize         int
	QueueWorkers      int
	LogLevel          string
	LogFormat         string

	RedisURL  string
	RedisPass string

	PresenceTable    string
	AWSRegion        string
	AWSID            string
	AWSSecret        string
	AWSToken         string
	DynamoDBEndpoint string
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		FlushInterval:     10 * time.Millisecond,
		KeepAliveInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageSize:    4096,
		OutboxLimit:       4096,
		AllowedOrigins:    []string{"*"},
		QueueSize:         256,
		QueueWorkers:      4,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads the environment on top of DefaultConfig.
func Load() Config {
	def := DefaultConfig()

	cfg := Config{
		ListenAddr:        GetOrDefault(ListenAddr, def.ListenAddr),
		FlushInterval:     GetDuration(FlushInterval, def.FlushInterval),
		KeepAliveInterval: GetDuration(KeepAliveInterval, def.KeepAliveInterval),
		WriteTimeout:      GetDuration(WriteTimeout, def.WriteTimeout),
		MaxMessageSize:    int64(GetInt(MaxMessageSize, int(def.MaxMessageSize))),
		OutboxLimit:       GetInt(OutboxLimit, def.OutboxLimit),
		AllowedOrigins:    GetList(AllowedOrigins, def.AllowedOrigins),
		QueueSize:         GetInt(QueueSize, def.QueueSize),
		QueueWorkers:      GetInt(QueueWorkers, def.QueueWorkers),
		LogLevel:          GetOrDefault(LogLevel, def.LogLevel),
		LogFormat:         GetOrDefault(LogFormat, def.LogFormat),

		RedisURL:  Get(PresenceRedisURL),
		RedisPass: Get(PresenceRedisPass),

		PresenceTable:    Get(PresenceTable),
		AWSRegion:        Get(AWSRegion),
		AWSID:            Get(AWSID),
		AWSSecret:        Get(AWSSecret),
		AWSToken:         Get(AWSToken),
		DynamoDBEndpoint: Get(DynamoDBEndpoint),
	}

	return sanitize(cfg)
}

func sanitize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.QueueWorkers <= 0 {
		cfg.QueueWorkers = def.QueueWorkers
	}
	return cfg
}

func (c Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func (c Config) LedgerEnabled() bool {
	return c.PresenceTable != "" && c.AWSRegion != ""
}
