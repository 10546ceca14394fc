package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Redis struct {
		Addr         string        `yaml:"addr"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"redis"`
	Channels struct {
		InferenceRequests string `yaml:"inference_requests"`
		InferenceSignals  string `yaml:"inference_signals"`
		OpsEvents         string `yaml:"ops_events"`
	} `yaml:"channels"`
	Keys struct {
		OpsFlags         string `yaml:"ops_flags"`
		WorkerHeartbeats string `yaml:"worker_heartbeats"`
	} `yaml:"keys"`
	Timeouts struct {
		SubscribeTimeout time.Duration `yaml:"subscribe_timeout" default:"5s"`
		HeartbeatTTL     time.Duration `yaml:"heartbeat_ttl" default:"60s"`
	} `yaml:"timeouts"`
	Worker struct {
		ID                string        `yaml:"id"`
		PollInterval      time.Duration `yaml:"poll_interval" default:"100ms"`
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval" default:"30s"`
	} `yaml:"worker"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Archive struct {
		Kafka struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Enabled      bool          `yaml:"enabled"`
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"signalops"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			Table        string        `yaml:"table" default:"signal_envelopes"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Notifications struct {
		Slack struct {
			Enabled    bool          `yaml:"enabled"`
			WebhookURL string        `yaml:"webhook_url"`
			Channel    string        `yaml:"channel" default:"#ops"`
			Username   string        `yaml:"username" default:"signalops"`
			Timeout    time.Duration `yaml:"timeout" default:"5s"`
		} `yaml:"slack"`
		PagerDuty struct {
			Enabled    bool          `yaml:"enabled"`
			RoutingKey string        `yaml:"routing_key"`
			Severity   string        `yaml:"severity" default:"critical"`
			Source     string        `yaml:"source" default:"signalops"`
			Timeout    time.Duration `yaml:"timeout" default:"5s"`
		} `yaml:"pagerduty"`
	} `yaml:"notifications"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("WORKER_ID"); v != "" {
		c.Worker.ID = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Archive.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Notifications.Slack.WebhookURL = v
	}
	if v := os.Getenv("PAGERDUTY_ROUTING_KEY"); v != "" {
		c.Notifications.PagerDuty.RoutingKey = v
	}

	return c, nil
}

// Validate checks if the configuration is valid. Channel and key names are
// deployment-critical and never defaulted.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Channels.InferenceRequests == "" {
		return fmt.Errorf("channels.inference_requests is required")
	}
	if c.Channels.InferenceSignals == "" {
		return fmt.Errorf("channels.inference_signals is required")
	}
	if c.Channels.OpsEvents == "" {
		return fmt.Errorf("channels.ops_events is required")
	}
	if c.Keys.OpsFlags == "" {
		return fmt.Errorf("keys.ops_flags is required")
	}
	if c.Keys.WorkerHeartbeats == "" {
		return fmt.Errorf("keys.worker_heartbeats is required")
	}
	if c.Timeouts.SubscribeTimeout <= 0 {
		return fmt.Errorf("timeouts.subscribe_timeout must be positive")
	}
	if c.Timeouts.HeartbeatTTL <= 0 {
		return fmt.Errorf("timeouts.heartbeat_ttl must be positive")
	}
	if c.Archive.Kafka.Enabled {
		if len(c.Archive.Kafka.Brokers) == 0 {
			return fmt.Errorf("archive.kafka.brokers is required when enabled")
		}
		if c.Archive.Kafka.Topic == "" {
			return fmt.Errorf("archive.kafka.topic is required when enabled")
		}
	}
	if c.Archive.ClickHouse.Enabled && c.Archive.ClickHouse.Host == "" {
		return fmt.Errorf("archive.clickhouse.host is required when enabled")
	}
	if c.Notifications.Slack.Enabled && c.Notifications.Slack.WebhookURL == "" {
		return fmt.Errorf("notifications.slack.webhook_url is required when enabled")
	}
	if c.Notifications.PagerDuty.Enabled && c.Notifications.PagerDuty.RoutingKey == "" {
		return fmt.Errorf("notifications.pagerduty.routing_key is required when enabled")
	}
	return nil
}

// ValidateWorker checks the fields only worker processes need.
func (c *Config) ValidateWorker() error {
	if c.Worker.ID == "" {
		return fmt.Errorf("worker.id is required")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker.poll_interval must be positive")
	}
	if c.Worker.HeartbeatInterval <= 0 {
		return fmt.Errorf("worker.heartbeat_interval must be positive")
	}
	return nil
}
