package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv  string
	Port    string
	ArkKey  string
	ArkBase string

	DefaultModelID string
	PollInterval   time.Duration
	MaxWait        time.Duration

	StorageDir     string
	KeepVideoFiles bool

	VideoRatio      string
	VideoDuration   int
	Watermark       bool
	GenerateAudio   bool
	Draft           bool
	ReturnLastFrame bool

	NapcatPort  string
	NapcatToken string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		ArkKey:  os.Getenv("ARK_API_KEY"),
		ArkBase: getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com"),

		DefaultModelID: getEnv("ARK_MODEL_ID", "doubao-seedance-1-0-pro-250528"),
		PollInterval:   time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 30)),
		MaxWait:        time.Second * time.Duration(getEnvInt("MAX_WAIT_SECONDS", 600)),

		StorageDir:     getEnv("STORAGE_DIR", "./videos"),
		KeepVideoFiles: getEnvBool("KEEP_VIDEO_FILES", true),

		VideoRatio:      getEnv("VIDEO_RATIO", "16:9"),
		VideoDuration:   getEnvInt("VIDEO_DURATION", 5),
		Watermark:       getEnvBool("VIDEO_WATERMARK", false),
		GenerateAudio:   getEnvBool("VIDEO_GENERATE_AUDIO", true),
		Draft:           getEnvBool("VIDEO_DRAFT", false),
		ReturnLastFrame: getEnvBool("VIDEO_RETURN_LAST_FRAME", false),

		NapcatPort:  getEnv("NAPCAT_PORT", "8090"),
		NapcatToken: os.Getenv("NAPCAT_TOKEN"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.ArkKey == "" {
		return nil, fmt.Errorf("ARK_API_KEY is required")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	if cfg.MaxWait <= 0 {
		return nil, fmt.Errorf("MAX_WAIT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
