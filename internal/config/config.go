package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Matcher MatcherConfig `yaml:"matcher" mapstructure:"matcher"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig identifies one retail source and its input file.
type SourceConfig struct {
	ID    string `yaml:"id" mapstructure:"id"`
	Name  string `yaml:"name" mapstructure:"name"`
	Input string `yaml:"input" mapstructure:"input"`
}

// SourcesConfig holds the two sources being reconciled. Order fixes the
// field-merge priority.
type SourcesConfig struct {
	A SourceConfig `yaml:"a" mapstructure:"a"`
	B SourceConfig `yaml:"b" mapstructure:"b"`
}

// OutputConfig holds the artifact paths.
type OutputConfig struct {
	Matched   string `yaml:"matched" mapstructure:"matched"`
	Unmatched string `yaml:"unmatched" mapstructure:"unmatched"`
	Catalog   string `yaml:"catalog" mapstructure:"catalog"`
}

// MatcherConfig tunes the matching cascade. The thresholds are semantic;
// the pool caps only bound fuzzy-stage cost.
type MatcherConfig struct {
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	EarlyExitScore    float64 `yaml:"early_exit_score" mapstructure:"early_exit_score"`
	CategoryThreshold float64 `yaml:"category_threshold" mapstructure:"category_threshold"`
	TitleWeight       float64 `yaml:"title_weight" mapstructure:"title_weight"`
	BrandWeight       float64 `yaml:"brand_weight" mapstructure:"brand_weight"`
	BrandPoolMin      int     `yaml:"brand_pool_min" mapstructure:"brand_pool_min"`
	BrandlessPool     int     `yaml:"brandless_pool" mapstructure:"brandless_pool"`
	GlobalPool        int     `yaml:"global_pool" mapstructure:"global_pool"`
	MinTitleLength    int     `yaml:"min_title_length" mapstructure:"min_title_length"`
	TablesFile        string  `yaml:"tables_file" mapstructure:"tables_file"`
}

// StoreConfig configures the price-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the catalog server.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	StaticDir string  `yaml:"static_dir" mapstructure:"static_dir"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
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
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.a.id", "walmart")
	v.SetDefault("sources.a.name", "Walmart")
	v.SetDefault("sources.a.input", "data/raw/walmart_product_info.jsonl")
	v.SetDefault("sources.b.id", "superstore")
	v.SetDefault("sources.b.name", "Real Canadian Superstore")
	v.SetDefault("sources.b.input", "data/raw/superstore_product_info.jsonl")
	v.SetDefault("output.matched", "data/raw/total_products.jsonl")
	v.SetDefault("output.unmatched", "data/raw/unmatched_products.jsonl")
	v.SetDefault("output.catalog", "data/processed/products.json")
	v.SetDefault("matcher.fuzzy_threshold", 0.85)
	v.SetDefault("matcher.early_exit_score", 0.98)
	v.SetDefault("matcher.category_threshold", 0.7)
	v.SetDefault("matcher.title_weight", 0.7)
	v.SetDefault("matcher.brand_weight", 0.3)
	v.SetDefault("matcher.brand_pool_min", 100)
	v.SetDefault("matcher.brandless_pool", 50)
	v.SetDefault("matcher.global_pool", 500)
	v.SetDefault("matcher.min_title_length", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "products.db")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.static_dir", ".")
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
}

// Validate checks the fields a command depends on. Mode is the
// subcommand family: "match" covers match/catalog/stats, "import" and
// "serve" their namesakes.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "match":
		check(c.Sources.A.ID != "", "sources.a.id is required")
		check(c.Sources.B.ID != "", "sources.b.id is required")
		check(c.Sources.A.ID != c.Sources.B.ID, "sources.a.id and sources.b.id must differ")
		check(c.Sources.A.Input != "", "sources.a.input is required")
		check(c.Sources.B.Input != "", "sources.b.input is required")
		check(c.Matcher.FuzzyThreshold >= 0 && c.Matcher.FuzzyThreshold <= 1,
			"matcher.fuzzy_threshold must be between 0 and 1")
		check(c.Matcher.CategoryThreshold >= 0 && c.Matcher.CategoryThreshold <= 1,
			"matcher.category_threshold must be between 0 and 1")
		check(c.Matcher.TitleWeight >= 0 && c.Matcher.BrandWeight >= 0,
			"matcher weights must be >= 0")
	case "import":
		check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres",
			"store.driver must be sqlite or postgres")
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Server.RateLimit > 0, "server.rate_limit must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
