package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	// MasterEmail is the one address allowed to hold the master role.
	MasterEmail string

	// AccountSecret keys the sealing of stored operating-account passwords.
	AccountSecret string

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIBase  string
	TaskBaseURL      string

	LogLevel string
	LogFile  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		JWTSecret:   mustGetenv("JWT_SECRET"),
		MasterEmail: strings.ToLower(mustGetenv("MASTER_EMAIL")),

		AccountSecret: mustGetenv("ACCOUNT_SECRET"),

		TelegramBotToken: getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getenv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIBase:  getenv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		TaskBaseURL:      getenv("TASK_BASE_URL", ""),

		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  getenv("LOG_FILE", ""),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
