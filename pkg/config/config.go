package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when the configuration cannot drive a run.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. MIRROR_TARGET_URL.
const EnvPrefix = "MIRROR"

// Config holds the application configuration.
type Config struct {
	TargetURL           string   `mapstructure:"target_url"`
	RateLimitRPS        float64  `mapstructure:"rate_limit_rps"`
	MaxPages            int      `mapstructure:"max_pages"`
	MaxDepth            int      `mapstructure:"max_depth"` // accepted, traversal is bounded by MaxPages only
	IncludePaths        []string `mapstructure:"include_paths"`
	ExcludePaths        []string `mapstructure:"exclude_paths"`
	Breakpoints         []int    `mapstructure:"breakpoints"`
	VisualDiffThreshold float64  `mapstructure:"visual_diff_threshold"`
	MaxFailRatio        float64  `mapstructure:"max_fail_ratio"`
	PreserveFragments   bool     `mapstructure:"preserve_fragments"`

	OutputDir    string `mapstructure:"output_dir"`
	LocalBaseURL string `mapstructure:"local_base_url"`
	ServeAddr    string `mapstructure:"serve_addr"`

	ViewportHeight        int           `mapstructure:"viewport_height"`
	PageLoadTimeout       time.Duration `mapstructure:"page_load_timeout"`
	DiffLoadTimeout       time.Duration `mapstructure:"diff_load_timeout"`
	SettleDelay           time.Duration `mapstructure:"settle_delay"`
	BreakpointSettleDelay time.Duration `mapstructure:"breakpoint_settle_delay"`
	DiffSettleDelay       time.Duration `mapstructure:"diff_settle_delay"`
	RootRetries           int           `mapstructure:"root_retries"`
	RootRetryDelay        time.Duration `mapstructure:"root_retry_delay"`
	TraceLimit            int           `mapstructure:"trace_limit"`
	UserAgent             string        `mapstructure:"user_agent"`
	AssetTimeout          time.Duration `mapstructure:"asset_timeout"`
	ChromeHeadless        bool          `mapstructure:"chrome_headless"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	PostgresURL   string `mapstructure:"postgres_url"`
	MetricsAddr   string `mapstructure:"metrics_addr"`
}

// Load reads the configuration file at path, applies defaults and MIRROR_*
// environment overrides, and validates the result. A missing or malformed
// file is an error: no partial run is attempted.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target_url", "")
	v.SetDefault("rate_limit_rps", 2.0)
	v.SetDefault("max_pages", 0)
	v.SetDefault("max_depth", 0)
	v.SetDefault("include_paths", []string{})
	v.SetDefault("exclude_paths", []string{})
	v.SetDefault("breakpoints", []int{375, 768, 1440})
	v.SetDefault("visual_diff_threshold", 5.0)
	v.SetDefault("max_fail_ratio", 0.25)
	v.SetDefault("preserve_fragments", false)

	v.SetDefault("output_dir", ".")
	v.SetDefault("local_base_url", "http://localhost:4173")
	v.SetDefault("serve_addr", ":4173")

	v.SetDefault("viewport_height", 1080)
	v.SetDefault("page_load_timeout", 30*time.Second)
	v.SetDefault("diff_load_timeout", 15*time.Second)
	v.SetDefault("settle_delay", 2*time.Second)
	v.SetDefault("breakpoint_settle_delay", 500*time.Millisecond)
	v.SetDefault("diff_settle_delay", time.Second)
	v.SetDefault("root_retries", 3)
	v.SetDefault("root_retry_delay", 2*time.Second)
	v.SetDefault("trace_limit", 100)
	v.SetDefault("user_agent", "Mozilla/5.0 (compatible; WebsiteMirror/1.0)")
	v.SetDefault("asset_timeout", 30*time.Second)
	v.SetDefault("chrome_headless", true)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("postgres_url", "")
	v.SetDefault("metrics_addr", "")
}

// Validate checks the options every stage relies on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.TargetURL)
	if c.TargetURL == "" || err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: target_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.TargetURL)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("%w: rate_limit_rps must be positive", ErrInvalidConfig)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages must not be negative", ErrInvalidConfig)
	}
	if len(c.Breakpoints) == 0 {
		return fmt.Errorf("%w: at least one breakpoint is required", ErrInvalidConfig)
	}
	for _, w := range c.Breakpoints {
		if w <= 0 {
			return fmt.Errorf("%w: breakpoint width %d", ErrInvalidConfig, w)
		}
	}
	if c.VisualDiffThreshold < 0 || c.VisualDiffThreshold > 100 {
		return fmt.Errorf("%w: visual_diff_threshold must be within [0,100]", ErrInvalidConfig)
	}
	if c.RootRetries < 1 {
		return fmt.Errorf("%w: root_retries must be at least 1", ErrInvalidConfig)
	}
	if c.ViewportHeight <= 0 {
		return fmt.Errorf("%w: viewport_height must be positive", ErrInvalidConfig)
	}
	return nil
}
