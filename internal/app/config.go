package app

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	GatewayBaseURL   string
	GatewayTimeout   time.Duration
	GatewayUserAgent string
	SearchResultCap  int
	SearchMinQuery   int
	RedisURL         string
	SearchGateTTL    time.Duration
	HeroInterval     time.Duration
	HeroSize         int
	SectionSize      int
	CoverProxy       bool
	AnimeResolution  string
	ComicType        string
	MeloloSearchSize int
	OTLPEndpoint     string
	// EnvFile is the dotenv file that was loaded, empty when none was found.
	EnvFile string
}

// LoadConfig reads the environment. Values from an optional dotenv file
// (ENV_FILE, default .env) fill in variables that are not already set.
func LoadConfig() (Config, error) {
	envFile, err := loadEnvFile(getEnv("ENV_FILE", ".env"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8095"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		GatewayBaseURL:   strings.TrimRight(getEnv("GATEWAY_BASE_URL", "https://api.sansekai.my.id/api"), "/"),
		GatewayTimeout:   time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 20)) * time.Second,
		GatewayUserAgent: getEnv("GATEWAY_USER_AGENT", "streamverse-gateway/1.0"),
		SearchResultCap:  getEnvInt("SEARCH_RESULT_CAP", 8),
		SearchMinQuery:   getEnvInt("SEARCH_MIN_QUERY", 2),
		RedisURL:         getEnv("REDIS_URL", ""),
		SearchGateTTL:    time.Duration(getEnvInt("SEARCH_GATE_TTL_SECONDS", 60)) * time.Second,
		HeroInterval:     time.Duration(getEnvInt("HERO_INTERVAL_SECONDS", 8)) * time.Second,
		HeroSize:         getEnvInt("HERO_SIZE", 5),
		SectionSize:      getEnvInt("SECTION_SIZE", 12),
		CoverProxy:       getEnvBool("COVER_PROXY", false),
		AnimeResolution:  getEnv("ANIME_RESOLUTION", "720p"),
		ComicType:        getEnv("KOMIK_TYPE", "manhwa"),
		MeloloSearchSize: getEnvInt("MELOLO_SEARCH_LIMIT", 10),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnvFile:          envFile,
	}, nil
}

// loadEnvFile loads path when it exists. A missing file is not an error; a
// malformed one is.
func loadEnvFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
