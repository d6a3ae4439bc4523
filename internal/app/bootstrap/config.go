package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	IdentityGRPCURL     string
	ProfileGRPCURL      string
	JobsGRPCURL         string
	ApplicationsGRPCURL string

	KafkaBrokers       []string
	KafkaConsumerGroup string

	TopicJobPosted           string
	TopicApplicationReviewed string
	TopicProfileUpdated      string
	TopicUserRegistered      string
	TopicTierChanged         string
	TopicOverrideApplied     string

	MaxDBConns           int32
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	EventDedupTTL   time.Duration
	HistoryPageSize int

	JWTPublicKeyPEM string
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL         string   `yaml:"postgres_url"`
		RedisURL            string   `yaml:"redis_url"`
		IdentityGRPCURL     string   `yaml:"identity_grpc_url"`
		ProfileGRPCURL      string   `yaml:"profile_grpc_url"`
		JobsGRPCURL         string   `yaml:"jobs_grpc_url"`
		ApplicationsGRPCURL string   `yaml:"applications_grpc_url"`
		KafkaBrokers        []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup  string   `yaml:"kafka_consumer_group"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTPublicKeyPEM string `yaml:"jwt_public_key_pem"`
	} `yaml:"auth"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "trust-engine",
		HTTPPort:                 8080,
		GRPCPort:                 9090,
		MaxDBConns:               20,
		KafkaConsumerGroup:       "trust-engine",
		TopicJobPosted:           "casting.job_posted",
		TopicApplicationReviewed: "casting.application_reviewed",
		TopicProfileUpdated:      "user.profile_updated",
		TopicUserRegistered:      "user.registered",
		TopicTierChanged:         "trust.tier_changed",
		TopicOverrideApplied:     "trust.override_applied",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		ConsumerPollInterval:     2 * time.Second,
		EventDedupTTL:            7 * 24 * time.Hour,
		HistoryPageSize:          50,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.IdentityGRPCURL != "" {
			cfg.IdentityGRPCURL = f.Dependencies.IdentityGRPCURL
		}
		if f.Dependencies.ProfileGRPCURL != "" {
			cfg.ProfileGRPCURL = f.Dependencies.ProfileGRPCURL
		}
		if f.Dependencies.JobsGRPCURL != "" {
			cfg.JobsGRPCURL = f.Dependencies.JobsGRPCURL
		}
		if f.Dependencies.ApplicationsGRPCURL != "" {
			cfg.ApplicationsGRPCURL = f.Dependencies.ApplicationsGRPCURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		cfg.JWTPublicKeyPEM = f.Auth.JWTPublicKeyPEM
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.IdentityGRPCURL = envOrDefault("IDENTITY_GRPC_URL", cfg.IdentityGRPCURL)
	cfg.ProfileGRPCURL = envOrDefault("PROFILE_GRPC_URL", cfg.ProfileGRPCURL)
	cfg.JobsGRPCURL = envOrDefault("JOBS_GRPC_URL", cfg.JobsGRPCURL)
	cfg.ApplicationsGRPCURL = envOrDefault("APPLICATIONS_GRPC_URL", cfg.ApplicationsGRPCURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.TopicJobPosted = envOrDefault("KAFKA_TOPIC_JOB_POSTED", cfg.TopicJobPosted)
	cfg.TopicApplicationReviewed = envOrDefault("KAFKA_TOPIC_APPLICATION_REVIEWED", cfg.TopicApplicationReviewed)
	cfg.TopicProfileUpdated = envOrDefault("KAFKA_TOPIC_PROFILE_UPDATED", cfg.TopicProfileUpdated)
	cfg.TopicUserRegistered = envOrDefault("KAFKA_TOPIC_USER_REGISTERED", cfg.TopicUserRegistered)
	cfg.TopicTierChanged = envOrDefault("KAFKA_TOPIC_TIER_CHANGED", cfg.TopicTierChanged)
	cfg.TopicOverrideApplied = envOrDefault("KAFKA_TOPIC_OVERRIDE_APPLIED", cfg.TopicOverrideApplied)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.HistoryPageSize = envInt("HISTORY_PAGE_SIZE", cfg.HistoryPageSize)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
