package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent bookvec configuration stored as config.toml
// in the .bookvec/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	DB        DBConfig        `toml:"db"`
	Query     QueryConfig     `toml:"query"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Tracing   TracingConfig   `toml:"tracing"`
	Events    EventsConfig    `toml:"events"`
}

// DBConfig holds vector store backend settings.
type DBConfig struct {
	Provider       string `toml:"provider,omitempty"`
	Target         string `toml:"target,omitempty"`
	WalletPath     string `toml:"wallet_path,omitempty"`
	WalletPassword string `toml:"wallet_password,omitempty"`
	PrecisionBits  uint   `toml:"precision_bits,omitempty"`
	Dimensions     uint   `toml:"dimensions,omitempty"`
}

// QueryConfig holds retrieval defaults applied when a command does not
// override them with flags.
type QueryConfig struct {
	TopK            uint    `toml:"top_k,omitempty"`
	SimilarityFloor float64 `toml:"similarity_floor,omitempty"`
	Approximate     bool    `toml:"approximate,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// TracingConfig holds OTLP trace export settings.
type TracingConfig struct {
	Enabled  bool   `toml:"enabled,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
}

// EventsConfig holds persistence event publishing settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"db.provider": {
		get: func(c *Config) string { return c.DB.Provider },
		set: func(c *Config, v string) error { c.DB.Provider = v; return nil },
	},
	"db.target": {
		get: func(c *Config) string { return c.DB.Target },
		set: func(c *Config, v string) error { c.DB.Target = v; return nil },
	},
	"db.wallet_path": {
		get: func(c *Config) string { return c.DB.WalletPath },
		set: func(c *Config, v string) error { c.DB.WalletPath = v; return nil },
	},
	"db.precision_bits": {
		get: func(c *Config) string { return formatUint(c.DB.PrecisionBits) },
		set: func(c *Config, v string) error {
			n, err := parseUint("db.precision_bits", v)
			if err != nil {
				return err
			}
			c.DB.PrecisionBits = n
			return nil
		},
	},
	"db.dimensions": {
		get: func(c *Config) string { return formatUint(c.DB.Dimensions) },
		set: func(c *Config, v string) error {
			n, err := parseUint("db.dimensions", v)
			if err != nil {
				return err
			}
			c.DB.Dimensions = n
			return nil
		},
	},
	"query.top_k": {
		get: func(c *Config) string { return formatUint(c.Query.TopK) },
		set: func(c *Config, v string) error {
			n, err := parseUint("query.top_k", v)
			if err != nil {
				return err
			}
			c.Query.TopK = n
			return nil
		},
	},
	"query.similarity_floor": {
		get: func(c *Config) string {
			if c.Query.SimilarityFloor == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Query.SimilarityFloor, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for query.similarity_floor: %w", err)
			}
			c.Query.SimilarityFloor = f
			return nil
		},
	},
	"query.approximate": {
		get: func(c *Config) string { return strconv.FormatBool(c.Query.Approximate) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for query.approximate: %w", err)
			}
			c.Query.Approximate = b
			return nil
		},
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"tracing.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Tracing.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for tracing.enabled: %w", err)
			}
			c.Tracing.Enabled = b
			return nil
		},
	},
	"tracing.endpoint": {
		get: func(c *Config) string { return c.Tracing.Endpoint },
		set: func(c *Config, v string) error { c.Tracing.Endpoint = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = ParseBrokerList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func parseUint(key, v string) (uint, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return uint(n), nil
}

// ParseBrokerList splits a comma-separated broker list, dropping empty
// entries and surrounding whitespace.
func ParseBrokerList(v string) []string {
	parts := strings.Split(v, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
