package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"github.com/joho/godotenv"
)

// Chunk window bounds in minutes.
const (
	MinChunkMinutes     = audio.MinWindowMinutes
	MaxChunkMinutes     = audio.MaxWindowMinutes
	DefaultChunkMinutes = audio.DefaultWindowMinutes
)

// minAPIKeyLen rejects obviously truncated provider keys.
const minAPIKeyLen = 10

type Config struct {
	Port string

	// Auth
	APIKey string

	// Capability providers
	TranscriptionProvider string
	GenerationProvider    string
	MistralAPIKey         string
	OpenAIAPIKey          string
	AnthropicAPIKey       string
	TranscriptionModel    string
	GenerationModel       string
	GenerationMaxTokens   int

	// Caller retry policy around a single chunk. Zero disables retries.
	TranscribeMaxRetries int

	// Segmentation
	MaxChunkMinutes int
	FFmpegPath      string
	FFprobePath     string

	// Rendering
	ReportLanguage          string
	RenderMultiDigitNumbers bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Tracing
	TracesExporter string // none, console or otlp
	ServiceName    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("CRGEN_API_KEY"),

		TranscriptionProvider: strings.ToLower(envOr("TRANSCRIPTION_PROVIDER", "mistral")),
		GenerationProvider:    strings.ToLower(envOr("GENERATION_PROVIDER", "mistral")),
		MistralAPIKey:         os.Getenv("MISTRAL_API_KEY"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		TranscriptionModel:    os.Getenv("TRANSCRIPTION_MODEL"),
		GenerationModel:       os.Getenv("GENERATION_MODEL"),
		GenerationMaxTokens:   envInt("GENERATION_MAX_TOKENS", 4000),

		TranscribeMaxRetries: envInt("TRANSCRIBE_MAX_RETRIES", 0),

		MaxChunkMinutes: envInt("MAX_CHUNK_MINUTES", DefaultChunkMinutes),
		FFmpegPath:      envOr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:     envOr("FFPROBE_PATH", "ffprobe"),

		ReportLanguage:          strings.ToLower(envOr("REPORT_LANGUAGE", "en")),
		RenderMultiDigitNumbers: envBool("RENDER_MULTIDIGIT_NUMBERS", false),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 524288000), // 500MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		TracesExporter: strings.ToLower(envOr("OTEL_TRACES_EXPORTER", "none")),
		ServiceName:    envOr("OTEL_SERVICE_NAME", "crgen"),
	}

	if cfg.GenerationMaxTokens <= 0 {
		cfg.GenerationMaxTokens = 4000
	}
	if cfg.TranscribeMaxRetries < 0 {
		cfg.TranscribeMaxRetries = 0
	}
	cfg.MaxChunkMinutes = ClampChunkMinutes(cfg.MaxChunkMinutes)
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 524288000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// ClampChunkMinutes bounds a window to [MinChunkMinutes, MaxChunkMinutes].
func ClampChunkMinutes(m int) int {
	return audio.ClampWindowMinutes(m)
}

// Validate checks the settings needed by the providers that were selected.
// Server-only settings are checked by ValidateServer.
func (c Config) Validate() error {
	switch c.TranscriptionProvider {
	case "mistral", "openai":
	default:
		return fmt.Errorf("TRANSCRIPTION_PROVIDER %q is not supported (mistral, openai)", c.TranscriptionProvider)
	}
	switch c.GenerationProvider {
	case "mistral", "openai", "anthropic":
	default:
		return fmt.Errorf("GENERATION_PROVIDER %q is not supported (mistral, openai, anthropic)", c.GenerationProvider)
	}
	for _, p := range []string{c.TranscriptionProvider, c.GenerationProvider} {
		if err := c.checkKey(p); err != nil {
			return err
		}
	}
	switch c.ReportLanguage {
	case "en", "fr":
	default:
		return fmt.Errorf("REPORT_LANGUAGE %q is not supported (en, fr)", c.ReportLanguage)
	}
	switch c.TracesExporter {
	case "", "none", "console", "otlp":
	default:
		return fmt.Errorf("OTEL_TRACES_EXPORTER %q is not supported (none, console, otlp)", c.TracesExporter)
	}
	return nil
}

// ValidateServer additionally requires the HTTP API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("CRGEN_API_KEY is required")
	}
	return nil
}

// ProviderKey returns the API key configured for a provider.
func (c Config) ProviderKey(provider string) string {
	switch provider {
	case "mistral":
		return c.MistralAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}

func (c Config) checkKey(provider string) error {
	name := strings.ToUpper(provider) + "_API_KEY"
	key := c.ProviderKey(provider)
	if key == "" {
		return fmt.Errorf("%s is required", name)
	}
	if len(key) < minAPIKeyLen {
		return fmt.Errorf("%s looks invalid (too short)", name)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
