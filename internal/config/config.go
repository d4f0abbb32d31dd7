package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Варианты страницы
const (
	PageStatic = "static"
	PageShaded = "shaded"
)

// Форматы отображения сообщения
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Config содержит настройки всех сервисов репозитория
type Config struct {
	WebPort   string
	ProxyPort string
	StubPort  string

	BackendURL string
	WebURL     string

	PageVariant  string
	GridRows     int
	GridCols     int
	GridSeed     int64
	FetchOnMount bool

	MessageFormat string

	DiagDriver string
	DiagDSN    string

	SessionTTL time.Duration
}

// EnvFiles — где ищется файл .env, по порядку
var EnvFiles = []string{".env", "../.env", "../../.env"}

// LoadEnvFiles загружает первый найденный файл .env
func LoadEnvFiles() {
	for _, file := range EnvFiles {
		if err := godotenv.Load(file); err == nil {
			log.Printf("Загружен файл с переменными окружения: %s", file)
			return
		}
	}
}

// Load читает .env и переменные окружения
func Load() (*Config, error) {
	LoadEnvFiles()
	return FromEnv()
}

// FromEnv собирает конфигурацию только из окружения процесса
func FromEnv() (*Config, error) {
	cfg := &Config{
		WebPort:       getEnvOrDefault("WEB_HTTP_PORT", "8080"),
		ProxyPort:     getEnvOrDefault("PROXY_HTTP_PORT", "3000"),
		StubPort:      getEnvOrDefault("STUB_HTTP_PORT", "5000"),
		BackendURL:    strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://127.0.0.1:5000"), "/"),
		WebURL:        strings.TrimRight(getEnvOrDefault("WEB_URL", "http://127.0.0.1:8080"), "/"),
		PageVariant:   strings.ToLower(getEnvOrDefault("PAGE_VARIANT", PageShaded)),
		MessageFormat: strings.ToLower(getEnvOrDefault("MESSAGE_FORMAT", FormatText)),
		DiagDriver:    strings.ToLower(os.Getenv("DIAG_DB_DRIVER")),
		DiagDSN:       getEnvOrDefault("DIAG_DB_DSN", "./diagnostics.db"),
	}

	switch cfg.PageVariant {
	case PageStatic:
		cfg.GridRows, cfg.GridCols, cfg.FetchOnMount = 3, 3, true
	case PageShaded:
		cfg.GridRows, cfg.GridCols, cfg.FetchOnMount = 20, 20, false
	default:
		return nil, fmt.Errorf("%w: PAGE_VARIANT=%q", ErrInvalidConfig, cfg.PageVariant)
	}

	var err error
	if cfg.GridRows, err = getEnvInt("GRID_ROWS", cfg.GridRows); err != nil {
		return nil, err
	}
	if cfg.GridCols, err = getEnvInt("GRID_COLS", cfg.GridCols); err != nil {
		return nil, err
	}
	if cfg.GridRows < 1 || cfg.GridCols < 1 {
		return nil, fmt.Errorf("%w: размер сетки %dx%d", ErrInvalidConfig, cfg.GridRows, cfg.GridCols)
	}

	seed, err := getEnvInt("GRID_SEED", 0)
	if err != nil {
		return nil, err
	}
	cfg.GridSeed = int64(seed)

	if value := os.Getenv("FETCH_ON_MOUNT"); value != "" {
		cfg.FetchOnMount, err = strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: FETCH_ON_MOUNT=%q", ErrInvalidConfig, value)
		}
	}

	switch cfg.MessageFormat {
	case FormatText, FormatMarkdown:
	default:
		return nil, fmt.Errorf("%w: MESSAGE_FORMAT=%q", ErrInvalidConfig, cfg.MessageFormat)
	}

	switch cfg.DiagDriver {
	case "", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("%w: DIAG_DB_DRIVER=%q", ErrInvalidConfig, cfg.DiagDriver)
	}

	ttl, err := getEnvInt("SESSION_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if ttl < 1 {
		return nil, fmt.Errorf("%w: SESSION_TTL_MINUTES=%d", ErrInvalidConfig, ttl)
	}
	cfg.SessionTTL = time.Duration(ttl) * time.Minute

	return cfg, nil
}

// JournalEnabled сообщает, включен ли журнал диагностики
func (c *Config) JournalEnabled() bool {
	return c.DiagDriver != ""
}

func getEnvOrDefault(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		log.Printf("Переменная %s не задана, используем значение по умолчанию: %s", envVar, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, value)
	}
	return n, nil
}
