package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Slack      SlackConfig      `yaml:"slack"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ClassifierConfig holds triage classifier settings.
//
// Backend selects the classifier implementation:
//
//	http — JSON-over-HTTP analysis service at BaseURL
//	llm  — LLM API using Model
type ClassifierConfig struct {
	Backend             string        `yaml:"backend"              env:"CLASSIFIER_BACKEND"              env-default:"http"`
	BaseURL             string        `yaml:"base_url"             env:"CLASSIFIER_BASE_URL"             env-default:"http://localhost:8000"`
	Model               string        `yaml:"model"                env:"CLASSIFIER_MODEL"                env-default:"claude-3-5-haiku-latest"`
	Timeout             time.Duration `yaml:"timeout"              env:"CLASSIFIER_TIMEOUT"              env-default:"10s"`
	RetryBackoff        time.Duration `yaml:"retry_backoff"        env:"CLASSIFIER_RETRY_BACKOFF"        env-default:"2s"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold" env:"CLASSIFIER_CONFIDENCE_THRESHOLD" env-default:"0.6"`
}

// SlackConfig holds the outbound notification webhook. An empty WebhookURL
// selects the no-op sink.
type SlackConfig struct {
	WebhookURL string        `yaml:"webhook_url" env:"SLACK_WEBHOOK_URL"`
	Timeout    time.Duration `yaml:"timeout"     env:"SLACK_TIMEOUT" env-default:"5s"`
	Channel    string        `yaml:"channel"     env:"SLACK_CHANNEL" env-default:"#voc-alerts"`
}

// SchedulerConfig holds the daily KPI snapshot trigger.
type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"       env:"SCHEDULER_ENABLED"       env-default:"true"`
	SnapshotCron string `yaml:"snapshot_cron" env:"SCHEDULER_SNAPSHOT_CRON" env-default:"0 1 * * *"`
}
