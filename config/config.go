package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Schedule  ScheduleConfig
	Booking   BookingConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string

	// CORSAllowedOrigins holds "*" or explicit origins
	CORSAllowedOrigins []string
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	TimeZone    string
	AutoMigrate bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// AdminConfig holds the credentials of the admin account seeded on startup.
type AdminConfig struct {
	Username string
	Password string
}

// ScheduleConfig describes the clinic's working hours used to generate slots.
type ScheduleConfig struct {
	WorkStart        string   // Format: HH:MM
	WorkEnd          string   // Format: HH:MM, exclusive
	SlotMinutes      int
	WeekendDays      []string // lower-case weekday names
	DefaultRangeDays int
}

type BookingConfig struct {
	LockTTL           time.Duration
	StrictTransitions bool
}

type RateLimitConfig struct {
	LoginRPS   float64
	LoginBurst int

	// TrustedProxies lists peers whose X-Forwarded-For is believed, as IPs or CIDRs.
	TrustedProxies []string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	lockTTL, err := time.ParseDuration(v.GetString("BOOKING_LOCK_TTL"))
	if err != nil {
		lockTTL = 5 * time.Second
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		connMaxLifetime = time.Hour
	}

	redisTimeout, err := time.ParseDuration(v.GetString("REDIS_TIMEOUT"))
	if err != nil {
		redisTimeout = 3 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),

			CORSAllowedOrigins: splitOrigins(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			TimeZone:    v.GetString("DB_TIMEZONE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),

			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
			Timeout:  redisTimeout,
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Schedule: ScheduleConfig{
			WorkStart:        v.GetString("SCHEDULE_WORK_START"),
			WorkEnd:          v.GetString("SCHEDULE_WORK_END"),
			SlotMinutes:      v.GetInt("SCHEDULE_SLOT_MINUTES"),
			WeekendDays:      splitList(v.GetString("SCHEDULE_WEEKEND_DAYS")),
			DefaultRangeDays: v.GetInt("SCHEDULE_DEFAULT_RANGE_DAYS"),
		},
		Booking: BookingConfig{
			LockTTL:           lockTTL,
			StrictTransitions: v.GetBool("BOOKING_STRICT_TRANSITIONS"),
		},
		RateLimit: RateLimitConfig{
			LoginRPS:   v.GetFloat64("RATE_LIMIT_LOGIN_RPS"),
			LoginBurst: v.GetInt("RATE_LIMIT_LOGIN_BURST"),

			TrustedProxies: splitOrigins(v.GetString("RATE_LIMIT_TRUSTED_PROXIES")),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_TIMEOUT", "3s")
	v.SetDefault("JWT_ACCESS_EXPIRY", "30m")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("SCHEDULE_WORK_START", "09:00")
	v.SetDefault("SCHEDULE_WORK_END", "18:00")
	v.SetDefault("SCHEDULE_SLOT_MINUTES", 30)
	v.SetDefault("SCHEDULE_WEEKEND_DAYS", "saturday,sunday")
	v.SetDefault("SCHEDULE_DEFAULT_RANGE_DAYS", 7)
	v.SetDefault("BOOKING_LOCK_TTL", "5s")
	v.SetDefault("BOOKING_STRICT_TRANSITIONS", false)
	v.SetDefault("RATE_LIMIT_LOGIN_RPS", 1)
	v.SetDefault("RATE_LIMIT_LOGIN_BURST", 5)
	v.SetDefault("RATE_LIMIT_TRUSTED_PROXIES", "")
}

// splitList splits a comma separated value; viper's own slice cast splits on whitespace.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitOrigins keeps the case of each origin, unlike splitList.
func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
