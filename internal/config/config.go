package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	TTS       TTSConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TTSConfig struct {
	Backend         string // "azure", "openai", "google" or "local"
	Voice           string
	OutputDir       string
	ProviderTimeout time.Duration
	Azure           AzureConfig
	OpenAI          OpenAIConfig
	Google          GoogleConfig
	Local           LocalConfig
}

type AzureConfig struct {
	Key     string
	Region  string
	BaseURL string // overrides the region endpoint when set
}

type OpenAIConfig struct {
	Key     string
	BaseURL string
	Model   string
}

type GoogleConfig struct {
	CredentialsFile string // empty uses application default credentials
}

type LocalConfig struct {
	BinPath string // default: "piper"
	Model   string // required when backend=local
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type WorkerConfig struct {
	Concurrency int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8001)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	timeout, err := getEnvDuration("TTS_PROVIDER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_PROVIDER_TIMEOUT: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TTS: TTSConfig{
			Backend:         strings.ToLower(getEnv("TTS_BACKEND", "azure")),
			Voice:           getEnv("TTS_VOICE", "ja-JP-NanamiNeural"),
			OutputDir:       getEnv("TTS_OUTPUT_DIR", filepath.Join(os.TempDir(), "tts_output")),
			ProviderTimeout: timeout,
			Azure: AzureConfig{
				Key:     getEnv("AZURE_SPEECH_KEY", ""),
				Region:  getEnv("AZURE_SPEECH_REGION", "japaneast"),
				BaseURL: getEnv("AZURE_SPEECH_BASE_URL", ""),
			},
			OpenAI: OpenAIConfig{
				Key:     getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
				Model:   getEnv("TTS_OPENAI_MODEL", ""),
			},
			Google: GoogleConfig{
				CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			},
			Local: LocalConfig{
				BinPath: getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
				Model:   getEnv("TTS_LOCAL_PIPER_MODEL", ""),
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports configuration that would make every synthesis fail.
func (c *Config) Validate() error {
	var missing []string
	if c.TTS.OutputDir == "" {
		missing = append(missing, "TTS_OUTPUT_DIR")
	}
	if c.TTS.Voice == "" {
		missing = append(missing, "TTS_VOICE")
	}

	switch c.TTS.Backend {
	case "azure":
		if c.TTS.Azure.Key == "" {
			missing = append(missing, "AZURE_SPEECH_KEY")
		}
		if c.TTS.Azure.Region == "" && c.TTS.Azure.BaseURL == "" {
			missing = append(missing, "AZURE_SPEECH_REGION")
		}
	case "openai":
		if c.TTS.OpenAI.Key == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "google":
	case "local":
		if c.TTS.Local.Model == "" {
			missing = append(missing, "TTS_LOCAL_PIPER_MODEL")
		}
	default:
		return fmt.Errorf("unknown TTS_BACKEND %q", c.TTS.Backend)
	}

	if c.TTS.ProviderTimeout <= 0 {
		return fmt.Errorf("TTS_PROVIDER_TIMEOUT must be positive")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
