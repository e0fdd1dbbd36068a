package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	JWTAccessSecret     string
	JWTRefreshSecret    string
	JWTResetSecret      string
	JWTAccessTTL        time.Duration
	JWTRefreshTTL       time.Duration
	ResetTokenTTL       time.Duration
	Issuer              string
	PasswordAlgorithm   string
	BcryptCost          int
	MinPasswordLength   int
	RotateRefreshTokens bool
}

type RevocationConfig struct {
	Backend       string
	SweepInterval time.Duration
}

type EventsConfig struct {
	Brokers []string
	Topic   string
}

type AdminConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Revocation       RevocationConfig
	Events           EventsConfig
	Admin            AdminConfig
	AllowCORSOrigins []string
}

// Load reads config.yaml (or the explicit path when non-empty) and overlays
// FILEMATE_* environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
	}

	v.SetEnvPrefix("FILEMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	sec := c.Security
	if sec.JWTAccessSecret == "" || sec.JWTRefreshSecret == "" {
		return errors.New("config: security.jwtaccesssecret and security.jwtrefreshsecret are required")
	}
	if sec.JWTAccessSecret == sec.JWTRefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	if sec.JWTAccessTTL <= 0 || sec.JWTRefreshTTL <= 0 || sec.ResetTokenTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}

	switch sec.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("config: unknown password algorithm %q", sec.PasswordAlgorithm)
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}

	switch c.Revocation.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown revocation backend %q", c.Revocation.Backend)
	}
	if c.Revocation.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("config: revocation.backend redis requires redis.addr")
	}
	if c.Revocation.SweepInterval < time.Second {
		return errors.New("config: revocation.sweepinterval must be at least 1s")
	}
	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8030)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.maxopen", 30)
	v.SetDefault("database.maxidle", 10)
	v.SetDefault("database.connmaxlifetime", "30m")
	v.SetDefault("database.automigrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtrefreshsecret", "")
	v.SetDefault("security.jwtresetsecret", "")
	v.SetDefault("security.jwtaccessttl", "1h")
	v.SetDefault("security.jwtrefreshttl", "168h") // 7 days
	v.SetDefault("security.resettokenttl", "1h")
	v.SetDefault("security.issuer", "filemate")
	v.SetDefault("security.passwordalgorithm", "bcrypt")
	v.SetDefault("security.bcryptcost", 12)
	v.SetDefault("security.minpasswordlength", 6)
	v.SetDefault("security.rotaterefreshtokens", false)

	v.SetDefault("revocation.backend", "memory")
	v.SetDefault("revocation.sweepinterval", "24h")

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", "user_events")

	v.SetDefault("admin.email", "admin@gmail.com")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.firstname", "Admin")
	v.SetDefault("admin.lastname", "User")

	v.SetDefault("allowcorsorigins", []string{})
}
