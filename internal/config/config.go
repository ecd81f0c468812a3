package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/hypelist/internal/normalize"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Sheet   SheetConfig   `yaml:"sheet" mapstructure:"sheet"`
	Forms   FormsConfig   `yaml:"forms" mapstructure:"forms"`
	TMDB    TMDBConfig    `yaml:"tmdb" mapstructure:"tmdb"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Links   LinksConfig   `yaml:"links" mapstructure:"links"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the watchlist exports on disk.
type SourcesConfig struct {
	Dir      string   `yaml:"dir" mapstructure:"dir"`
	Encoding string   `yaml:"encoding" mapstructure:"encoding"`
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
}

// SheetConfig configures the shared spreadsheet read as CSV.
type SheetConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	TitleColumn   string `yaml:"title_column" mapstructure:"title_column"`
	KindColumn    string `yaml:"kind_column" mapstructure:"kind_column"`
	PayloadColumn string `yaml:"payload_column" mapstructure:"payload_column"`
	ManualMarker  string `yaml:"manual_marker" mapstructure:"manual_marker"`
	WatchedMarker string `yaml:"watched_marker" mapstructure:"watched_marker"`
	ManualTag     string `yaml:"manual_tag" mapstructure:"manual_tag"`
}

// FormsConfig configures the form endpoint that appends to the sheet.
type FormsConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	IDField      string `yaml:"id_field" mapstructure:"id_field"`
	TitleField   string `yaml:"title_field" mapstructure:"title_field"`
	KindField    string `yaml:"kind_field" mapstructure:"kind_field"`
	PayloadField string `yaml:"payload_field" mapstructure:"payload_field"`
}

// TMDBConfig configures metadata enrichment. Empty key disables it.
type TMDBConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	ImageBaseURL  string `yaml:"image_base_url" mapstructure:"image_base_url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// StoreConfig configures the local SQLite cache.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the in-memory catalog cache.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	// RefreshSecs rebuilds the catalog in the background. 0 disables it.
	RefreshSecs int `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// LinksConfig configures outbound links.
type LinksConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
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
	v.SetEnvPrefix("HYPELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.dir", ".")
	v.SetDefault("sources.encoding", "auto")
	v.SetDefault("sources.patterns", []string{"*.csv", "*.xlsx"})
	v.SetDefault("sheet.url", "")
	v.SetDefault("sheet.timeout_secs", 5)
	v.SetDefault("sheet.title_column", "Title")
	v.SetDefault("sheet.kind_column", "Type")
	v.SetDefault("sheet.payload_column", "Details")
	v.SetDefault("sheet.manual_marker", "MANUAL")
	v.SetDefault("sheet.watched_marker", "WATCHED")
	v.SetDefault("sheet.manual_tag", "Manual")
	v.SetDefault("forms.url", "")
	v.SetDefault("forms.timeout_secs", 5)
	v.SetDefault("forms.id_field", "entry.details")
	v.SetDefault("forms.title_field", "entry.title")
	v.SetDefault("forms.kind_field", "entry.type")
	v.SetDefault("forms.payload_field", "entry.details")
	v.SetDefault("tmdb.key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.timeout_secs", 4)
	v.SetDefault("tmdb.cache_ttl_hours", 168)
	v.SetDefault("store.path", "hypelist.db")
	v.SetDefault("cache.ttl_secs", 600)
	v.SetDefault("cache.refresh_secs", 0)
	v.SetDefault("links.region", "uk")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_min", 30)
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

// Validate checks the settings a command needs. mode is the command name:
// "serve", "catalog" or "watched".
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(msg string) { errs = append(errs, msg) }

	switch mode {
	case "serve", "catalog", "watched":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if _, err := normalize.ParseEncoding(c.Sources.Encoding); err != nil {
		add("sources.encoding must be auto, utf-8 or latin-1")
	}
	if c.Sheet.TimeoutSecs < 0 {
		add("sheet.timeout_secs must be >= 0")
	}
	if c.Forms.TimeoutSecs < 0 {
		add("forms.timeout_secs must be >= 0")
	}
	if c.TMDB.TimeoutSecs < 0 {
		add("tmdb.timeout_secs must be >= 0")
	}
	if c.Cache.TTLSecs < 0 {
		add("cache.ttl_secs must be >= 0")
	}
	if c.Cache.RefreshSecs < 0 {
		add("cache.refresh_secs must be >= 0")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitPerMin < 0 {
			add("server.rate_limit_per_min must be >= 0")
		}
	case "watched":
		if strings.TrimSpace(c.Forms.URL) == "" {
			add("forms.url is required")
		}
		if strings.TrimSpace(c.Forms.IDField) == "" {
			add("forms.id_field is required")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
