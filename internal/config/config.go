package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/mind-engage/motorskill/internal/norms"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. MOTORSKILL_HTTP_ADDR.
const EnvPrefix = "MOTORSKILL"

const devSecret = "supersecret-dev-key"

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"` // sqlite|postgres|memory
	DBDSN    string `mapstructure:"db_dsn"`

	BlobBasePath string `mapstructure:"blob_base_path"` // archived reports
	ProtocolFile string `mapstructure:"protocol_file"`  // empty = built-in TGMD-3

	AgeBandWidth int    `mapstructure:"age_band_width"`
	BandScheme   string `mapstructure:"band_scheme"`
	ExcludeSelf  bool   `mapstructure:"exclude_self"`
	NameLocale   string `mapstructure:"name_locale"`

	AuthHMACSecret string `mapstructure:"auth_hmac_secret"`
	AdminUser      string `mapstructure:"admin_user"`
	AdminPassHash  string `mapstructure:"admin_pass_hash"` // bcrypt

	CORSOrigins []string `mapstructure:"cors_origins"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json|console
}

// SetDefaults registers every key with its default so that environment
// overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("protocol_file", "")
	v.SetDefault("age_band_width", 3)
	v.SetDefault("band_scheme", norms.SchemeFiveBand)
	v.SetDefault("exclude_self", false)
	v.SetDefault("name_locale", "tr")
	v.SetDefault("auth_hmac_secret", devSecret)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("cors_origins", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load resolves configuration from defaults, an optional config file, and
// MOTORSKILL_* environment variables. Flags bound on v by the caller win.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = csv(v.GetString("cors_origins"), v.GetStringSlice("cors_origins"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultOrigins(cfg.Mode)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("mode: unknown %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("db_driver: unknown %q", c.DBDriver)
	}
	if c.AgeBandWidth < 1 {
		return fmt.Errorf("age_band_width: must be >= 1, got %d", c.AgeBandWidth)
	}
	if _, ok := norms.LookupScheme(c.BandScheme); !ok {
		return fmt.Errorf("band_scheme: unknown %q (have %s)", c.BandScheme, strings.Join(norms.SchemeNames(), ", "))
	}
	if _, err := language.Parse(c.NameLocale); err != nil {
		return fmt.Errorf("name_locale: %w", err)
	}
	if c.Mode == ModeOnline && (c.AuthHMACSecret == "" || c.AuthHMACSecret == devSecret) {
		return errors.New("auth_hmac_secret: must be set in online mode")
	}
	return nil
}

// Locale returns the parsed name locale; Validate guarantees it parses.
func (c Config) Locale() language.Tag {
	tag, err := language.Parse(c.NameLocale)
	if err != nil {
		return language.Turkish
	}
	return tag
}

func defaultOrigins(m Mode) []string {
	if m == ModeOnline {
		return []string{"https://motorskill.mindengage.ai"}
	}
	return []string{"http://localhost:3000", "http://localhost:3010"}
}

// csv accepts both "a,b" strings from the environment and YAML lists.
func csv(raw string, list []string) []string {
	if len(list) > 1 {
		raw = strings.Join(list, ",")
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
