package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// IngestConfig configures the ingest gateway service.
type IngestConfig struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr           string        `env:"INGEST_HTTP_ADDR" envDefault:":8081"`
	AdminAddr          string        `env:"INGEST_ADMIN_ADDR" envDefault:":9091"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS,required"`
	KafkaTopic         string        `env:"KAFKA_LOGS_TOPIC" envDefault:"audit-logs"`
	MaxEventSize       int64         `env:"MAX_EVENT_SIZE_BYTES" envDefault:"1048576"` // 1MB
	TenantRatePerSec   float64       `env:"TENANT_RATE_PER_SEC" envDefault:"500"`
	TenantRateBurst    int           `env:"TENANT_RATE_BURST" envDefault:"1000"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// ProcessorConfig configures the indexing processor service.
type ProcessorConfig struct {
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
	AdminAddr     string   `env:"PROCESSOR_ADMIN_ADDR" envDefault:":9092"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS,required"`
	KafkaTopic    string   `env:"KAFKA_LOGS_TOPIC" envDefault:"audit-logs"`
	KafkaGroupID  string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"log-processors"`
	KafkaDLQTopic string   `env:"KAFKA_DLQ_TOPIC" envDefault:"audit-logs-dlq"`

	// ProcessorID is the producer component of every derived document id.
	// It must be stable across restarts and identical for all members of
	// the consumer group, otherwise a redelivered record would compute a
	// different id and be indexed twice.
	ProcessorID string `env:"PROCESSOR_ID" envDefault:"log-processors"`

	OpenSearchAddrs    []string      `env:"OPENSEARCH_ADDRS,required"`
	OpenSearchUsername string        `env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword string        `env:"OPENSEARCH_PASSWORD"`
	IndexShards        int           `env:"INDEX_SHARDS" envDefault:"3"`
	IndexReplicas      int           `env:"INDEX_REPLICAS" envDefault:"1"`
	MaxRetries         int           `env:"INDEX_MAX_RETRIES" envDefault:"5"`
	RetryBackoff       time.Duration `env:"INDEX_RETRY_BACKOFF" envDefault:"200ms"`
	MaxRetryBackoff    time.Duration `env:"INDEX_MAX_RETRY_BACKOFF" envDefault:"5s"`
	WorkerQueueSize    int           `env:"WORKER_QUEUE_SIZE" envDefault:"64"`
}

// QueryConfig configures the query service.
type QueryConfig struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr           string        `env:"QUERY_HTTP_ADDR" envDefault:":8082"`
	AdminAddr          string        `env:"QUERY_ADMIN_ADDR" envDefault:":9093"`
	OpenSearchAddrs    []string      `env:"OPENSEARCH_ADDRS,required"`
	OpenSearchUsername string        `env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword string        `env:"OPENSEARCH_PASSWORD"`
	MaxIndexSpanDays   int           `env:"MAX_INDEX_SPAN_DAYS" envDefault:"30"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
}

// NotifierConfig configures the alert monitor service.
type NotifierConfig struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr           string        `env:"NOTIFIER_HTTP_ADDR" envDefault:":8083"`
	AdminAddr          string        `env:"NOTIFIER_ADMIN_ADDR" envDefault:":9094"`
	RedisAddr          string        `env:"REDIS_ADDR,required"`
	OpenSearchAddrs    []string      `env:"OPENSEARCH_ADDRS,required"`
	OpenSearchUsername string        `env:"OPENSEARCH_USERNAME"`
	OpenSearchPassword string        `env:"OPENSEARCH_PASSWORD"`
	MaxIndexSpanDays   int           `env:"MAX_INDEX_SPAN_DAYS" envDefault:"30"`
	EvaluationInterval time.Duration `env:"ALERT_EVALUATION_INTERVAL" envDefault:"30s"`
	WebhookTimeout     time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	SeedSampleRule     bool          `env:"SEED_SAMPLE_RULE" envDefault:"true"`
	SampleRuleTenant   string        `env:"SAMPLE_RULE_TENANT" envDefault:"demo"`
	SampleRuleWebhook  string        `env:"SAMPLE_RULE_WEBHOOK"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadIngest reads ingest service configuration from the environment.
func LoadIngest() (*IngestConfig, error) {
	_ = godotenv.Load()
	cfg := &IngestConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProcessor reads processor service configuration from the environment.
func LoadProcessor() (*ProcessorConfig, error) {
	_ = godotenv.Load()
	cfg := &ProcessorConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadQuery reads query service configuration from the environment.
func LoadQuery() (*QueryConfig, error) {
	_ = godotenv.Load()
	cfg := &QueryConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadNotifier reads notifier service configuration from the environment.
func LoadNotifier() (*NotifierConfig, error) {
	_ = godotenv.Load()
	cfg := &NotifierConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
