package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Upload   UploadConfig
	Poll     PollConfig
	Login    LoginConfig
	Checkout CheckoutConfig
	Prefs    PrefsConfig
}

type AppConfig struct {
	BaseURL     string
	LogFilePath string
	StateDir    string
	HTTPTimeout time.Duration
}

type UploadConfig struct {
	MaxBytes int64
}

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	MaxDuration time.Duration
}

type LoginConfig struct {
	RedirectDelay time.Duration
	NoticeTTL     time.Duration
}

type CheckoutConfig struct {
	ListenAddr  string
	Timeout     time.Duration
	DisplayName string
}

type PrefsConfig struct {
	Backend  string // "file" or "redis"
	FilePath string
	RedisURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	stateDir := getEnv("SHABDSETU_STATE_DIR", defaultStateDir())

	return &Config{
		App: AppConfig{
			BaseURL:     getEnv("SHABDSETU_BASE_URL", "http://localhost:5000"),
			LogFilePath: getEnv("LOG_FILE_PATH", filepath.Join(stateDir, "client.log")),
			StateDir:    stateDir,
			HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 2*time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", 50*1024*1024),
		},
		Poll: PollConfig{
			Interval:    getEnvAsDuration("POLL_INTERVAL", time.Second),
			MaxAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 1800),
			MaxDuration: getEnvAsDuration("POLL_MAX_DURATION", 30*time.Minute),
		},
		Login: LoginConfig{
			RedirectDelay: getEnvAsDuration("LOGIN_REDIRECT_DELAY", time.Second),
			NoticeTTL:     getEnvAsDuration("NOTICE_TTL", 5*time.Second),
		},
		Checkout: CheckoutConfig{
			ListenAddr:  getEnv("CHECKOUT_LISTEN_ADDR", "127.0.0.1:0"),
			Timeout:     getEnvAsDuration("CHECKOUT_TIMEOUT", 15*time.Minute),
			DisplayName: getEnv("CHECKOUT_DISPLAY_NAME", "ShabdSetu"),
		},
		Prefs: PrefsConfig{
			Backend:  getEnv("PREFS_BACKEND", "file"),
			FilePath: getEnv("PREFS_FILE_PATH", filepath.Join(stateDir, "prefs.gob")),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
	}
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shabdsetu"
	}
	return filepath.Join(dir, "shabdsetu")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
