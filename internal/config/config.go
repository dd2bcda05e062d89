package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Receipts  ReceiptsConfig
	JWT       JWTConfig
	Staff     StaffConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Printer   PrinterConfig
	Notify    NotifyConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Debug    bool
	LogLevel string
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	Timezone   string
	SQLitePath string
}

type ReceiptsConfig struct {
	Store     string // database or memory
	AutoPrint bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

// StaffConfig holds the single counter staff account
type StaffConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type PrinterConfig struct {
	Type      string // usb, network or none
	USBPath   string
	Address   string
	Width     int
	StoreName string
}

type NotifyConfig struct {
	NatsURL       string
	SubjectPrefix string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Warn(".env file not found, using environment variables", "error", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "recibo-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "recibo")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_SQLITE_PATH", "recibo.db")
	viper.SetDefault("RECEIPT_STORE", "database")
	viper.SetDefault("RECEIPT_AUTO_PRINT", false)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("STAFF_USERNAME", "admin")
	viper.SetDefault("STAFF_PASSWORD", "")
	viper.SetDefault("STAFF_PASSWORD_HASH", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_WIDTH", 32)
	viper.SetDefault("PRINTER_STORE_NAME", "Recibo")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("NATS_SUBJECT_PREFIX", "recibo")

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			Debug:    viper.GetBool("APP_DEBUG"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			Name:       viper.GetString("DB_NAME"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASSWORD"),
			SSLMode:    viper.GetString("DB_SSL_MODE"),
			Timezone:   viper.GetString("DB_TIMEZONE"),
			SQLitePath: viper.GetString("DB_SQLITE_PATH"),
		},
		Receipts: ReceiptsConfig{
			Store:     viper.GetString("RECEIPT_STORE"),
			AutoPrint: viper.GetBool("RECEIPT_AUTO_PRINT"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Staff: StaffConfig{
			Username:     viper.GetString("STAFF_USERNAME"),
			Password:     viper.GetString("STAFF_PASSWORD"),
			PasswordHash: viper.GetString("STAFF_PASSWORD_HASH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			Width:     viper.GetInt("PRINTER_WIDTH"),
			StoreName: viper.GetString("PRINTER_STORE_NAME"),
		},
		Notify: NotifyConfig{
			NatsURL:       viper.GetString("NATS_URL"),
			SubjectPrefix: viper.GetString("NATS_SUBJECT_PREFIX"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
