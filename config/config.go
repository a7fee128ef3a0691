/*
Package config loads server configuration from flags, environment and an
optional config file.

PRECEDENCE (highest first):
  1. Command-line flags
  2. Environment variables, prefixed TAPROOM_ (store.dsn -> TAPROOM_STORE_DSN)
  3. .env in the working directory (loaded into the environment)
  4. Config file given with --config (yaml, toml or json)
  5. Defaults

KEYS:
  port               HTTP port (8080)
  store.driver       memory | sqlite | postgres | badger (memory)
  store.dsn          Database path or connection string
  timezone           IANA zone defining the business day (Local)
  staff              Shortage roster, comma separated in env
  log.level          debug | info | warn | error (info)
  log.format         text | json (text)
  rollover.interval  How often the scheduler checks for a new day (1m)
  cors.origins       Allowed CORS origins (*)
  demo               Load the demo bar on startup (false)
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/warp/taproom/logger"
)

const EnvPrefix = "TAPROOM"

var Drivers = []string{"memory", "sqlite", "postgres", "badger"}

type Config struct {
	Port     int            `mapstructure:"port"`
	Store    StoreConfig    `mapstructure:"store"`
	Timezone string         `mapstructure:"timezone"`
	Staff    []string       `mapstructure:"staff"`
	Log      logger.Config  `mapstructure:"log"`
	Rollover RolloverConfig `mapstructure:"rollover"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Demo     bool           `mapstructure:"demo"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RolloverConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !slices.Contains(Drivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q (want one of %s)", c.Store.Driver, strings.Join(Drivers, ", "))
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return errors.New("store.dsn is required for postgres")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Rollover.Interval <= 0 {
		return fmt.Errorf("rollover.interval must be positive, got %s", c.Rollover.Interval)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("staff", []string{"Ada", "Bayo", "Chioma", "Emeka"})
	logDefaults := logger.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("rollover.interval", time.Minute)
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("demo", false)
}

// Load parses args (without the program name) and returns the merged,
// validated configuration.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	flags := pflag.NewFlagSet("taproom", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a config file")
	flags.Int("port", 8080, "HTTP server port")
	flags.String("store", "memory", "store driver: "+strings.Join(Drivers, ", "))
	flags.String("dsn", "", "database path or connection string")
	flags.String("timezone", "Local", "IANA time zone of the business day")
	flags.StringSlice("staff", nil, "staff roster for shortages")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "text", "log format: text or json")
	flags.Duration("rollover-interval", time.Minute, "how often to check for a new business day")
	flags.StringSlice("cors-origins", nil, "allowed CORS origins")
	flags.Bool("demo", false, "load the demo bar on startup")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"port":              "port",
		"store.driver":      "store",
		"store.dsn":         "dsn",
		"timezone":          "timezone",
		"staff":             "staff",
		"log.level":         "log-level",
		"log.format":        "log-format",
		"rollover.interval": "rollover-interval",
		"cors.origins":      "cors-origins",
		"demo":              "demo",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
