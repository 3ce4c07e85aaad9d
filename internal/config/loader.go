package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/sonarbridge/internal/render"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// configName is the config file name without extension.
const configName = ".sonarbridge"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for sonarbridge settings.
const envPrefix = "SONARBRIDGE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values.
const (
	DefaultCurrency        = "USD"
	DefaultFormat          = render.FormatText
	DefaultCodec           = "json"
	DefaultLogLevel        = "info"
	DefaultHistoryDatabase = ".sonarbridge/history.db"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Sonargraph: SonargraphConfig{ReportPath: report.DefaultReportPath, Currency: DefaultCurrency},
		Rules:      RulesConfig{Active: metrics.RuleKeys()},
		Output:     OutputConfig{Format: DefaultFormat},
		Snapshot:   SnapshotConfig{Codec: DefaultCodec},
		Logging:    LoggingConfig{Level: DefaultLogLevel},
		History:    HistoryConfig{Database: DefaultHistoryDatabase},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	def := Default()

	viperCfg.SetDefault("sonargraph.report_path", def.Sonargraph.ReportPath)
	viperCfg.SetDefault("sonargraph.cost_per_index_point", "")
	viperCfg.SetDefault("sonargraph.currency", def.Sonargraph.Currency)

	viperCfg.SetDefault("rules.active", def.Rules.Active)

	viperCfg.SetDefault("output.format", def.Output.Format)
	viperCfg.SetDefault("output.no_color", false)

	viperCfg.SetDefault("snapshot.codec", def.Snapshot.Codec)

	viperCfg.SetDefault("logging.level", def.Logging.Level)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)

	viperCfg.SetDefault("history.enabled", false)
	viperCfg.SetDefault("history.database", def.History.Database)
}
