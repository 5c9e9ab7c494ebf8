package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/basket-allowance/internal/absence"
	"github.com/garyjia/basket-allowance/internal/eligibility"
	"github.com/garyjia/basket-allowance/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Review     ReviewConfig     `mapstructure:"review"`
	Report     ReportConfig     `mapstructure:"report"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// RulesConfig holds the allowance rules. Amounts are strings so they are
// read as exact decimals.
type RulesConfig struct {
	BaseAmount             string            `mapstructure:"base_amount"`
	SalaryLimit            string            `mapstructure:"salary_limit"`
	AmountCeiling          string            `mapstructure:"amount_ceiling"`
	PeriodDays             int               `mapstructure:"period_days"`
	PartTime               PartTimeConfig    `mapstructure:"part_time"`
	Certificate            CertificateConfig `mapstructure:"certificate"`
	LateArrival            string            `mapstructure:"late_arrival"`
	EnforceCategoryClasses bool              `mapstructure:"enforce_category_classes"`
}

// PartTimeConfig holds the reduced-schedule proration
type PartTimeConfig struct {
	MaxHours float64 `mapstructure:"max_hours"`
	Factor   string  `mapstructure:"factor"`
}

// CertificateConfig holds both certificate ladders and which one is active
type CertificateConfig struct {
	Scheme      string            `mapstructure:"scheme"`
	ForfeitDays int               `mapstructure:"forfeit_days"`
	Fixed       map[string]string `mapstructure:"fixed"`
	Percentage  map[string]string `mapstructure:"percentage"`
}

// NormalizerConfig holds absence keyword lists
type NormalizerConfig struct {
	Keywords absence.Keywords `mapstructure:"keywords"`
}

// ReviewConfig holds review session settings
type ReviewConfig struct {
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ReportConfig holds export settings
type ReportConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	CompanyTaxID string `mapstructure:"company_tax_id"`
}

// Load reads configPath (optional) and the environment. A .env file in the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_size", 20<<20)

	// Database defaults
	v.SetDefault("database.path", "data/allowance.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Rule defaults
	v.SetDefault("rules.base_amount", "315.00")
	v.SetDefault("rules.salary_limit", "2720.86")
	v.SetDefault("rules.amount_ceiling", "1000.00")
	v.SetDefault("rules.period_days", 30)
	v.SetDefault("rules.part_time.max_hours", 120)
	v.SetDefault("rules.part_time.factor", "0.5")
	v.SetDefault("rules.certificate.scheme", string(eligibility.SchemeFixed))
	v.SetDefault("rules.certificate.forfeit_days", 3)
	v.SetDefault("rules.certificate.fixed", map[string]interface{}{"1": "240.00", "2": "140.00"})
	v.SetDefault("rules.certificate.percentage", map[string]interface{}{"1": "0.50", "2": "0.25"})
	v.SetDefault("rules.late_arrival", string(eligibility.LatePendingDecision))
	v.SetDefault("rules.enforce_category_classes", false)

	// Normalizer defaults
	kw := absence.DefaultKeywords()
	v.SetDefault("normalizer.keywords.certificate", kw.Certificate)
	v.SetDefault("normalizer.keywords.unexcused", kw.Unexcused)
	v.SetDefault("normalizer.keywords.late", kw.Late)
	v.SetDefault("normalizer.keywords.vacation", kw.Vacation)
	v.SetDefault("normalizer.keywords.statutory_leave", kw.StatutoryLeave)

	// Review and report defaults
	v.SetDefault("review.session_ttl", 12*time.Hour)
	v.SetDefault("review.cleanup_interval", 10*time.Minute)
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.company_tax_id", "65035552000180")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "ALLOWANCE_PORT")
	_ = v.BindEnv("database.path", "ALLOWANCE_DB_PATH")
	_ = v.BindEnv("logger.level", "ALLOWANCE_LOG_LEVEL")
	_ = v.BindEnv("rules.certificate.scheme", "ALLOWANCE_CERTIFICATE_SCHEME")
	_ = v.BindEnv("rules.late_arrival", "ALLOWANCE_LATE_ARRIVAL")
	_ = v.BindEnv("report.output_dir", "ALLOWANCE_REPORT_DIR")
	_ = v.BindEnv("report.company_tax_id", "COMPANY_TAX_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}
	if err := utils.ValidateCNPJ(c.Report.CompanyTaxID); err != nil {
		return fmt.Errorf("report.company_tax_id: %w", err)
	}

	rules, err := c.Rules.ToRules()
	if err != nil {
		return err
	}
	return rules.Validate()
}

// ToRules converts the configured rules into calculator rules
func (rc RulesConfig) ToRules() (eligibility.Rules, error) {
	var (
		r   eligibility.Rules
		err error
	)

	if r.BaseAmount, err = amount("rules.base_amount", rc.BaseAmount); err != nil {
		return r, err
	}
	if r.SalaryLimit, err = amount("rules.salary_limit", rc.SalaryLimit); err != nil {
		return r, err
	}
	if r.AmountCeiling, err = amount("rules.amount_ceiling", rc.AmountCeiling); err != nil {
		return r, err
	}
	if r.PartTimeFactor, err = amount("rules.part_time.factor", rc.PartTime.Factor); err != nil {
		return r, err
	}
	if r.FixedLadder, err = ladder("rules.certificate.fixed", rc.Certificate.Fixed); err != nil {
		return r, err
	}
	if r.PercentageLadder, err = ladder("rules.certificate.percentage", rc.Certificate.Percentage); err != nil {
		return r, err
	}

	r.PeriodDays = rc.PeriodDays
	r.PartTimeMaxHours = rc.PartTime.MaxHours
	r.CertificateScheme = eligibility.CertificateScheme(strings.ToLower(rc.Certificate.Scheme))
	r.CertificateForfeitDays = rc.Certificate.ForfeitDays
	r.LatePolicy = eligibility.LatePolicy(strings.ToLower(rc.LateArrival))
	r.EnforceCategoryClasses = rc.EnforceCategoryClasses
	return r, nil
}

func amount(key, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", key, s)
	}
	return d, nil
}

func ladder(key string, entries map[string]string) (map[int]decimal.Decimal, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[int]decimal.Decimal, len(entries))
	for _, k := range keys {
		days, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || days < 1 {
			return nil, fmt.Errorf("%s: invalid day count %q", key, k)
		}
		value, err := amount(fmt.Sprintf("%s.%s", key, k), entries[k])
		if err != nil {
			return nil, err
		}
		out[days] = value
	}
	return out, nil
}
