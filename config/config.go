package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting, loaded from the environment with an
// optional .env file for local development.
type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"./data/hisho.db"`
	TimezoneName  string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
	HolidayRegion string `env:"HOLIDAY_REGION" envDefault:"JP"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Calendar provider. CalDAV wins when both are configured.
	CalDAVURL      string `env:"CALDAV_URL"`
	CalDAVUsername string `env:"CALDAV_USERNAME"`
	CalDAVPassword string `env:"CALDAV_PASSWORD"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleTokenFile    string `env:"GOOGLE_TOKEN_FILE" envDefault:"./data/google_token.json"`

	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`
	OpenWeatherLang   string `env:"OPENWEATHER_LANG" envDefault:"ja"`

	// Optional Telegram briefing bot.
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`
	BriefingCity   string `env:"BRIEFING_CITY"`

	RefreshCron string `env:"REFRESH_CRON" envDefault:"*/15 * * * *"`
	MorningTime string `env:"MORNING_TIME" envDefault:"07:00"`

	Timezone *time.Location `env:"-"`
}

// Load reads the environment into a Config. A missing .env file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	tz, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimezoneName, err)
	}
	cfg.Timezone = tz

	return cfg, nil
}

// HasCalDAV reports whether CalDAV credentials are configured.
func (c *Config) HasCalDAV() bool {
	return c.CalDAVUsername != "" && c.CalDAVPassword != ""
}

// HasGoogle reports whether Google Calendar OAuth credentials are configured.
func (c *Config) HasGoogle() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// HasTelegram reports whether the briefing bot is configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
