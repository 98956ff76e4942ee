package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// EnvPrefix marks environment variables that override config keys. A double
// underscore separates nesting levels: OTPGATE_HTTP__PORT sets http.port.
const EnvPrefix = "OTPGATE_"

type Config struct {
	Env        string `koanf:"env"` // dev, staging, prod
	PepperFile string `koanf:"pepper_file"`

	Log      LogConfig      `koanf:"log"`
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	OTP      OTPConfig      `koanf:"otp"`
	Sessions SessionsConfig `koanf:"sessions"`
	Notify   NotifyConfig   `koanf:"notify"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

type HTTPConfig struct {
	Port                int                   `koanf:"port"`
	ReadHeaderTimeout   time.Duration         `koanf:"read_header_timeout"`
	ShutdownGracePeriod time.Duration         `koanf:"shutdown_grace_period"`
	CredentialLimit     httpx.RateLimitConfig `koanf:"credential_limit"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type OTPConfig struct {
	SweepInterval       time.Duration `koanf:"sweep_interval"`
	MaxGenerateAttempts int           `koanf:"max_generate_attempts"`
}

type SessionsConfig struct {
	Backend string              `koanf:"backend"` // memory or redis
	TTL     time.Duration       `koanf:"ttl"`
	Redis   session.RedisConfig `koanf:"redis"`
}

type NotifyConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Subject string        `koanf:"subject"`
	Body    string        `koanf:"body"`

	Email    EmailChannel    `koanf:"email"`
	SMS      SMSChannel      `koanf:"sms"`
	Telegram TelegramChannel `koanf:"telegram"`
	File     FileChannel     `koanf:"file"`
}

type EmailChannel struct {
	Enabled            bool `koanf:"enabled"`
	notify.EmailConfig `koanf:",squash"`
}

type SMSChannel struct {
	Enabled          bool `koanf:"enabled"`
	notify.SMSConfig `koanf:",squash"`
}

type TelegramChannel struct {
	Enabled               bool `koanf:"enabled"`
	notify.TelegramConfig `koanf:",squash"`
}

type FileChannel struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func DefaultConfig() Config {
	return Config{
		Env:        "dev",
		PepperFile: "pepper",
		Log:        LogConfig{Level: "info", Format: "json"},
		HTTP: HTTPConfig{
			Port:                8080,
			ReadHeaderTimeout:   3 * time.Second,
			ShutdownGracePeriod: 10 * time.Second,
			CredentialLimit:     httpx.CredentialLimit,
		},
		Database: DatabaseConfig{Path: "otp.db"},
		OTP: OTPConfig{
			SweepInterval:       service.DefaultSweepInterval,
			MaxGenerateAttempts: service.DefaultMaxGenerateAttempts,
		},
		Sessions: SessionsConfig{
			Backend: "memory",
			TTL:     session.DefaultTTL,
			Redis: session.RedisConfig{
				Addr:      "localhost:6379",
				Timeout:   3 * time.Second,
				KeyPrefix: "otpgate",
			},
		},
		Notify: NotifyConfig{
			Timeout: notify.DefaultTimeout,
			Subject: notify.DefaultSubject,
			Body:    notify.DefaultBody,
			Email: EmailChannel{EmailConfig: notify.EmailConfig{
				Port:         587,
				AuthProtocol: "login",
				MaxConns:     5,
				Timeout:      10 * time.Second,
				TLSType:      "STARTTLS",
			}},
			SMS: SMSChannel{SMSConfig: notify.SMSConfig{
				Region:      "us-east-1",
				MessageType: "TRANSACTIONAL",
			}},
			Telegram: TelegramChannel{TelegramConfig: notify.TelegramConfig{
				APIURL:  notify.DefaultTelegramAPI,
				Timeout: 10 * time.Second,
			}},
			File: FileChannel{Enabled: true, Path: "otp_codes.txt"},
		},
	}
}

// Flags returns the command-line flag set. Flags carry the same dotted names
// as config keys and take precedence over files and the environment.
func Flags() *flag.FlagSet {
	def := DefaultConfig()

	f := flag.NewFlagSet("otp", flag.ContinueOnError)
	f.StringSlice("config", nil, "path to one or more TOML config files, loaded in order")
	f.Bool("version", false, "print the build version and exit")
	f.String("env", def.Env, "deployment environment")
	f.String("log.level", def.Log.Level, "log level: debug, info, warn or error")
	f.String("log.format", def.Log.Format, "log format: json or text")
	f.Int("http.port", def.HTTP.Port, "HTTP listen port")
	f.String("database.path", def.Database.Path, "SQLite database file")
	f.String("pepper_file", def.PepperFile, "file holding the password pepper")
	f.String("sessions.backend", def.Sessions.Backend, "session backend: memory or redis")
	f.Duration("otp.sweep_interval", def.OTP.SweepInterval, "how often stale codes are expired")
	return f
}

// LoadConfig layers TOML files, then OTPGATE_ environment variables, then
// flags over DefaultConfig. f must already be parsed.
func LoadConfig(f *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	files, _ := f.GetStringSlice("config")
	for _, path := range files {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("config: flags: %w", err)
	}
	k.Delete("config")
	k.Delete("version")

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if err := c.HTTP.CredentialLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("http.credential_limit: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	switch c.Sessions.Backend {
	case "memory":
	case "redis":
		if c.Sessions.Redis.Addr == "" {
			errs = append(errs, errors.New("sessions.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("sessions.backend %q must be memory or redis", c.Sessions.Backend))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("sessions.ttl must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Notify.File.Enabled && c.Notify.File.Path == "" {
		errs = append(errs, errors.New("notify.file.path is required when the file channel is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
