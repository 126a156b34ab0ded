package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Quote   QuoteConfig   `yaml:"quote" mapstructure:"quote"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CatalogConfig says where the price master, tax table and currency rates
// come from. Source is "file", "postgres" or "sqlite".
type CatalogConfig struct {
	Source      string `yaml:"source" mapstructure:"source"`
	ItemsPath   string `yaml:"items_path" mapstructure:"items_path"`
	TaxesPath   string `yaml:"taxes_path" mapstructure:"taxes_path"`
	RatesPath   string `yaml:"rates_path" mapstructure:"rates_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QuoteConfig configures quote pricing.
type QuoteConfig struct {
	BaseCurrency     string  `yaml:"base_currency" mapstructure:"base_currency"`
	BuyerID          string  `yaml:"buyer_id" mapstructure:"buyer_id"`
	FreightThreshold float64 `yaml:"freight_threshold" mapstructure:"freight_threshold"`
	FreightCharge    float64 `yaml:"freight_charge" mapstructure:"freight_charge"`
	FreightTaxable   bool    `yaml:"freight_taxable" mapstructure:"freight_taxable"`
	DefaultTaxPct    float64 `yaml:"default_tax_pct" mapstructure:"default_tax_pct"`
}

// MatchConfig holds catalog matching thresholds.
type MatchConfig struct {
	AutoMatchScore  float64 `yaml:"auto_match_score" mapstructure:"auto_match_score"`
	AutoMatchDelta  float64 `yaml:"auto_match_delta" mapstructure:"auto_match_delta"`
	SizeToleranceMM float64 `yaml:"size_tolerance_mm" mapstructure:"size_tolerance_mm"`
	TopN            int     `yaml:"top_n" mapstructure:"top_n"`
}

// OCRConfig configures text extraction from scanned RFQs.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// BatchConfig configures batch quoting.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
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
	v.SetEnvPrefix("QUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.items_path", "data/catalog.csv")
	v.SetDefault("catalog.taxes_path", "data/taxes.csv")
	v.SetDefault("catalog.rates_path", "data/rates.yaml")
	v.SetDefault("quote.base_currency", "INR")
	v.SetDefault("quote.buyer_id", "BUYER-001")
	v.SetDefault("quote.freight_threshold", 50000.0)
	v.SetDefault("quote.freight_charge", 1000.0)
	v.SetDefault("quote.freight_taxable", true)
	v.SetDefault("quote.default_tax_pct", 18.0)
	v.SetDefault("match.auto_match_score", 85.0)
	v.SetDefault("match.auto_match_delta", 15.0)
	v.SetDefault("match.size_tolerance_mm", 1.0)
	v.SetDefault("match.top_n", 5)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("batch.max_concurrent", 4)
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

// Validate checks the settings a command needs. Mode is "quote", "serve" or
// "import".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "quote", "serve":
		errs = append(errs, c.validateCatalogSource()...)
		errs = append(errs, c.validateQuote()...)
		errs = append(errs, c.validateOCR()...)
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 64 {
			errs = append(errs, "batch.max_concurrent must be between 1 and 64")
		}
		if mode == "serve" {
			errs = append(errs, c.validateServer()...)
		}
	case "import":
		if c.Catalog.Source != "postgres" && c.Catalog.Source != "sqlite" {
			errs = append(errs, fmt.Sprintf("catalog.source must be postgres or sqlite for import, got %q", c.Catalog.Source))
		}
		if c.Catalog.DatabaseURL == "" {
			errs = append(errs, "catalog.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCatalogSource() []string {
	var errs []string
	switch c.Catalog.Source {
	case "file":
		if c.Catalog.ItemsPath == "" {
			errs = append(errs, "catalog.items_path is required")
		}
		if c.Catalog.TaxesPath == "" {
			errs = append(errs, "catalog.taxes_path is required")
		}
	case "postgres", "sqlite":
		if c.Catalog.DatabaseURL == "" {
			errs = append(errs, "catalog.database_url is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.source %q is not one of file, postgres, sqlite", c.Catalog.Source))
	}
	return errs
}

func (c *Config) validateQuote() []string {
	var errs []string
	if len(strings.TrimSpace(c.Quote.BaseCurrency)) != 3 {
		errs = append(errs, "quote.base_currency must be a 3-letter code")
	}
	if c.Quote.FreightThreshold < 0 || c.Quote.FreightCharge < 0 {
		errs = append(errs, "quote.freight_threshold and quote.freight_charge must be >= 0")
	}
	if c.Quote.DefaultTaxPct < 0 || c.Quote.DefaultTaxPct > 100 {
		errs = append(errs, "quote.default_tax_pct must be between 0 and 100")
	}
	return errs
}

func (c *Config) validateOCR() []string {
	switch c.OCR.Provider {
	case "local":
		return nil
	case "mistral":
		if c.OCR.MistralKey == "" {
			return []string{"ocr.mistral_api_key is required for the mistral provider"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("ocr.provider %q is not one of local, mistral", c.OCR.Provider)}
	}
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		errs = append(errs, "server.rate_limit must be > 0 and server.rate_burst >= 1")
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, "server.max_upload_mb must be >= 1")
	}
	return errs
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
