package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --provider
// on both "bookvec seed" and "bookvec search").
type Flag struct {
	// Name is the long flag name (e.g. "provider").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "db.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddFloat64Flag,
// AddBoolFlag, and BindRegisteredFlags to avoid typos or drift from one
// command to another.
const (
	FlagDBProvider      = "db-provider"
	FlagDBTarget        = "db-target"
	FlagWalletPath      = "wallet"
	FlagPrecisionBits   = "precision-bits"
	FlagDimensions      = "dimensions"
	FlagTopK            = "top-k"
	FlagSimilarityFloor = "similarity-floor"
	FlagApproximate     = "approximate"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagTraceEndpoint   = "trace-endpoint"
	FlagEventBrokers    = "event-brokers"
	FlagEventTopic      = "event-topic"
)

// DefaultFlagSet returns the canonical flag definitions shared across
// commands. Commands pick the subset they need by registry key.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagDBProvider: {
			Name:        "db-provider",
			Shorthand:   "p",
			ViperKey:    "db.provider",
			Description: "Vector store backend (oracle, postgres, sqlite, qdrant)",
		},
		FlagDBTarget: {
			Name:        "db-target",
			Shorthand:   "t",
			ViperKey:    "db.target",
			Description: "Vector store connection target (DSN, URL, or file path)",
		},
		FlagWalletPath: {
			Name:        "wallet",
			ViperKey:    "db.wallet_path",
			Description: "Oracle wallet directory for mTLS connections",
		},
		FlagPrecisionBits: {
			Name:        "precision-bits",
			ViperKey:    "db.precision_bits",
			Description: "Vector element width in bits (32 or 64)",
		},
		FlagDimensions: {
			Name:        "dimensions",
			ViperKey:    "db.dimensions",
			Description: "Embedding vector width",
		},
		FlagTopK: {
			Name:        "top-k",
			Shorthand:   "k",
			ViperKey:    "query.top_k",
			Description: "Number of nearest chunks to fetch",
		},
		FlagSimilarityFloor: {
			Name:        "similarity-floor",
			ViperKey:    "query.similarity_floor",
			Description: "Minimum cosine similarity for a match to be kept",
		},
		FlagApproximate: {
			Name:        "approximate",
			ViperKey:    "query.approximate",
			Description: "Use approximate index search instead of exact",
		},
		FlagEmbeddingTgt: {
			Name:        "embedding-target",
			ViperKey:    "embedding.target",
			Description: "Embedding provider URL",
		},
		FlagEmbeddingModel: {
			Name:        "embedding-model",
			ViperKey:    "embedding.model",
			Description: "Embedding model name",
		},
		FlagTraceEndpoint: {
			Name:        "trace-endpoint",
			ViperKey:    "tracing.endpoint",
			Description: "OTLP HTTP endpoint for trace export",
		},
		FlagEventBrokers: {
			Name:        "event-brokers",
			ViperKey:    "events.brokers",
			Description: "Comma-separated Kafka bootstrap brokers for persist events",
		},
		FlagEventTopic: {
			Name:        "event-topic",
			ViperKey:    "events.topic",
			Description: "Kafka topic for persist events",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat64Flag registers a float64 flag on cmd from the given FlagSet.
func AddFloat64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultFloat64 returns the default float64 value for a viper key from NewDefaultConfig.
func defaultFloat64(viperKey string) float64 {
	v := viper.New()
	setViperDefaults(v)
	return v.GetFloat64(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
