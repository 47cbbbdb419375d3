package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lienwise/bidengine/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig points at the indicator/jurisdiction registry file. An
// empty path means the embedded default registry.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EngineConfig holds every tunable the decision engine reads. Constants
// live here, not in code, so fee schedules and thresholds can change
// without a release.
type EngineConfig struct {
	Weights    WeightsConfig    `yaml:"weights" mapstructure:"weights"`
	Thresholds ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
	Valuation  ValuationConfig  `yaml:"valuation" mapstructure:"valuation"`

	// MLMinConfidence is the floor below which the ML category is excluded
	// and its weight redistributed.
	MLMinConfidence float64 `yaml:"ml_min_confidence" mapstructure:"ml_min_confidence"`

	// HighValueThresholdDollars marks records for the manual-approval queue
	// when the max bid exceeds it.
	HighValueThresholdDollars int64 `yaml:"high_value_threshold_dollars" mapstructure:"high_value_threshold_dollars"`
}

// WeightsConfig is the composite category split.
type WeightsConfig struct {
	HBU float64 `yaml:"hbu" mapstructure:"hbu"`
	CMA float64 `yaml:"cma" mapstructure:"cma"`
	ML  float64 `yaml:"ml" mapstructure:"ml"`
}

// ThresholdsConfig holds the decision bands.
type ThresholdsConfig struct {
	RatioFloor     float64 `yaml:"ratio_floor" mapstructure:"ratio_floor"`         // below: SKIP
	RatioBid       float64 `yaml:"ratio_bid" mapstructure:"ratio_bid"`             // at/above, with composite: BID
	CompositeBid   float64 `yaml:"composite_bid" mapstructure:"composite_bid"`     // BID requires composite >= this
	CompositeFloor float64 `yaml:"composite_floor" mapstructure:"composite_floor"` // REVIEW band lower edge
}

// ValuationConfig parameterizes the max-bid formula:
//
//	max_bid = ARV*arv_multiplier - repairs - fixed_fee - min(capped_fee, pct_of_arv)
//
// Percentages are basis points so the formula stays in integer math.
type ValuationConfig struct {
	ARVMultiplierBP  int64 `yaml:"arv_multiplier_bp" mapstructure:"arv_multiplier_bp"`
	FixedFeeDollars  int64 `yaml:"fixed_fee_dollars" mapstructure:"fixed_fee_dollars"`
	CappedFeeDollars int64 `yaml:"capped_fee_dollars" mapstructure:"capped_fee_dollars"`
	CappedFeePctBP   int64 `yaml:"capped_fee_pct_bp" mapstructure:"capped_fee_pct_bp"`
}

// FixedFee returns the fixed fee as Money.
func (v ValuationConfig) FixedFee() model.Money { return model.Dollars(v.FixedFeeDollars) }

// CappedFee returns the fee cap as Money.
func (v ValuationConfig) CappedFee() model.Money { return model.Dollars(v.CappedFeeDollars) }

// HighValueThreshold returns the manual-approval bid ceiling as Money.
func (e EngineConfig) HighValueThreshold() model.Money {
	return model.Dollars(e.HighValueThresholdDollars)
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"` // sqlite file
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures concurrent batch evaluation.
type BatchConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	EvaluationsPerSec float64 `yaml:"evaluations_per_sec" mapstructure:"evaluations_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BIDENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "bidengine.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.evaluations_per_sec", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.weights.hbu", 0.30)
	v.SetDefault("engine.weights.cma", 0.30)
	v.SetDefault("engine.weights.ml", 0.40)
	v.SetDefault("engine.thresholds.ratio_floor", 0.60)
	v.SetDefault("engine.thresholds.ratio_bid", 0.75)
	v.SetDefault("engine.thresholds.composite_bid", 80)
	v.SetDefault("engine.thresholds.composite_floor", 60)
	v.SetDefault("engine.valuation.arv_multiplier_bp", 7000)
	v.SetDefault("engine.valuation.fixed_fee_dollars", 10_000)
	v.SetDefault("engine.valuation.capped_fee_dollars", 25_000)
	v.SetDefault("engine.valuation.capped_fee_pct_bp", 1500)
	v.SetDefault("engine.ml_min_confidence", 0.40)
	v.SetDefault("engine.high_value_threshold_dollars", 250_000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the engine configuration is internally consistent.
// Like registry validation, failure here is fatal at startup.
func (e EngineConfig) Validate() error {
	var errs []string

	sum := e.Weights.HBU + e.Weights.CMA + e.Weights.ML
	if math.Abs(sum-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("category weights sum to %.6f, want 1.0", sum))
	}
	for name, w := range map[string]float64{"hbu": e.Weights.HBU, "cma": e.Weights.CMA, "ml": e.Weights.ML} {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("weight %s must be >= 0", name))
		}
	}

	t := e.Thresholds
	if t.RatioFloor < 0 || t.RatioFloor > t.RatioBid {
		errs = append(errs, "ratio_floor must be in [0, ratio_bid]")
	}
	if t.CompositeFloor < 0 || t.CompositeFloor > t.CompositeBid || t.CompositeBid > 100 {
		errs = append(errs, "composite thresholds must satisfy 0 <= floor <= bid <= 100")
	}

	val := e.Valuation
	if val.ARVMultiplierBP <= 0 || val.ARVMultiplierBP > 10_000 {
		errs = append(errs, "arv_multiplier_bp must be in (0, 10000]")
	}
	if val.FixedFeeDollars < 0 || val.CappedFeeDollars < 0 || val.CappedFeePctBP < 0 {
		errs = append(errs, "fees must be >= 0")
	}

	if e.MLMinConfidence < 0 || e.MLMinConfidence > 1 {
		errs = append(errs, "ml_min_confidence must be in [0,1]")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: engine validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
