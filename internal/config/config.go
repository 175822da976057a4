package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds all configuration required by the API process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	HTTP  HTTPConfig
	Auth  AuthConfig
	Users UsersConfig
	DB    DBConfig
	Redis RedisConfig
	Kafka KafkaConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type HTTPConfig struct {
	// CORSOrigins defaults to "*" (the mock is meant to be called from dashboards).
	CORSOrigins []string
	// RateLimitPerMinute is a per-IP request budget; 0 disables limiting.
	RateLimitPerMinute int
}

// Session backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type AuthConfig struct {
	// Required gates the reporting routes behind a bearer session.
	Required bool

	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	SessionStore  string
	SweepInterval time.Duration
}

// User sources.
const (
	UserSourceInline   = "inline"
	UserSourceFile     = "file"
	UserSourceEnv      = "env"
	UserSourcePostgres = "postgres"
)

type UsersConfig struct {
	Source string
	// File is a YAML users file (USER_SOURCE=file).
	File string
	// Encoded is "user:password:account,..." (USER_SOURCE=env).
	Encoded string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool sizing for the api_users lookups.
	MaxConns        int
	ConnMaxLifetime time.Duration
	LookupTimeout   time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers     []string
	Topic       string
	Compression string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = optionalInt(parseErrs, "APP_PORT")

	c.HTTP.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	c.HTTP.RateLimitPerMinute, parseErrs = optionalInt(parseErrs, "RATE_LIMIT_RPM")

	c.Auth.Required, parseErrs = optionalBool(parseErrs, "AUTH_REQUIRED")
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.SessionTTL, parseErrs = optionalDuration(parseErrs, "SESSION_TTL")
	c.Auth.SessionStore = strings.TrimSpace(os.Getenv("SESSION_STORE"))
	c.Auth.SweepInterval, parseErrs = optionalDuration(parseErrs, "SESSION_SWEEP_INTERVAL")

	c.Users.Source = strings.TrimSpace(os.Getenv("USER_SOURCE"))
	c.Users.File = strings.TrimSpace(os.Getenv("USERS_FILE"))
	c.Users.Encoded = os.Getenv("USERS")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optionalInt(parseErrs, "DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.MaxConns, parseErrs = optionalInt(parseErrs, "DB_MAX_CONNS")
	c.DB.ConnMaxLifetime, parseErrs = optionalDuration(parseErrs, "DB_CONN_MAX_LIFETIME")
	c.DB.LookupTimeout, parseErrs = optionalDuration(parseErrs, "DB_LOOKUP_TIMEOUT")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optionalInt(parseErrs, "REDIS_PORT")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	c.Redis.DB, parseErrs = optionalInt(parseErrs, "REDIS_DB")

	c.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	c.Kafka.Topic = strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	c.Kafka.Compression = strings.TrimSpace(os.Getenv("KAFKA_COMPRESSION"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate applies defaults in place and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port == 0 {
		c.App.Port = 5000
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPM must be >= 0, got %d", c.HTTP.RateLimitPerMinute))
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else {
			// Tokens do not survive a restart anyway; a per-process secret is enough locally.
			c.Auth.JWTSecret = uuid.NewString()
		}
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = time.Hour
	}
	if c.Auth.SweepInterval <= 0 {
		c.Auth.SweepInterval = time.Minute
	}
	switch c.Auth.SessionStore {
	case "":
		c.Auth.SessionStore = SessionStoreMemory
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when SESSION_STORE=redis"))
		}
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be one of memory, redis, got %q", c.Auth.SessionStore))
	}

	switch c.Users.Source {
	case "":
		c.Users.Source = UserSourceInline
	case UserSourceInline:
	case UserSourceFile:
		if c.Users.File == "" {
			errs = append(errs, errors.New("USERS_FILE is required when USER_SOURCE=file"))
		}
	case UserSourceEnv:
		if strings.TrimSpace(c.Users.Encoded) == "" {
			errs = append(errs, errors.New("USERS is required when USER_SOURCE=env"))
		}
	case UserSourcePostgres:
		errs = append(errs, c.DB.validate(c.IsProduction())...)
	default:
		errs = append(errs, fmt.Errorf("USER_SOURCE must be one of inline, file, env, postgres, got %q", c.Users.Source))
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		c.Kafka.Topic = "telephony.cdr"
	}

	return joinErrors(errs)
}

func (d *DBConfig) validate(production bool) []error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required when USER_SOURCE=postgres"))
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.Port < 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, errors.New("DB_USER is required when USER_SOURCE=postgres"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required when USER_SOURCE=postgres"))
	}
	if d.SSLMode == "" {
		if production {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			d.SSLMode = "disable"
		}
	}
	if d.SSLMode != "" && !isValidSSLMode(d.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", d.SSLMode))
	}

	switch {
	case d.MaxConns == 0:
		d.MaxConns = 5
	case d.MaxConns < 0:
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", d.MaxConns))
	}
	switch {
	case d.ConnMaxLifetime == 0:
		d.ConnMaxLifetime = 30 * time.Minute
	case d.ConnMaxLifetime < 0:
		errs = append(errs, fmt.Errorf("DB_CONN_MAX_LIFETIME must be positive, got %s", d.ConnMaxLifetime))
	}
	switch {
	case d.LookupTimeout == 0:
		d.LookupTimeout = 3 * time.Second
	case d.LookupTimeout < 0:
		errs = append(errs, fmt.Errorf("DB_LOOKUP_TIMEOUT must be positive, got %s", d.LookupTimeout))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c Config) BrokerEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func optionalInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalBool(errs []error, key string) (bool, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, errs
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, append(errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	}
	return b, errs
}

func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
