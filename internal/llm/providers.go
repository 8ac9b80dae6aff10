package llm

import (
	"fmt"

	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
)

var defaultTranscriptionModels = map[string]string{
	"mistral": "voxtral-mini-latest",
	"openai":  "whisper-1",
}

var defaultGenerationModels = map[string]string{
	"mistral":   "mistral-medium-latest",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5-20250929",
}

// Providers holds the capability clients selected by configuration.
type Providers struct {
	Transcriber *OpenAIClient
	Generator   compose.Generator
	Stats       *Stats

	closers []func()
}

// NewProviders builds the transcription and generation clients. cfg must
// already have passed Validate.
func NewProviders(cfg config.Config, stats *Stats) (*Providers, error) {
	if stats == nil {
		stats = NewStats(0)
	}
	p := &Providers{Stats: stats}

	tmodel := modelOr(cfg.TranscriptionModel, defaultTranscriptionModels[cfg.TranscriptionProvider])
	if tmodel == "" {
		return nil, fmt.Errorf("unsupported transcription provider %q", cfg.TranscriptionProvider)
	}
	p.Transcriber = openAICompatible(cfg, cfg.TranscriptionProvider, tmodel, "", stats)
	p.closers = append(p.closers, p.Transcriber.Close)

	gmodel := modelOr(cfg.GenerationModel, defaultGenerationModels[cfg.GenerationProvider])
	switch cfg.GenerationProvider {
	case "anthropic":
		claude := NewClaudeClient(cfg.AnthropicAPIKey, gmodel, stats)
		p.Generator = claude
		p.closers = append(p.closers, claude.Close)
	case "mistral", "openai":
		if cfg.GenerationProvider == cfg.TranscriptionProvider {
			p.Transcriber.generateModel = gmodel
			p.Generator = p.Transcriber
			break
		}
		gen := openAICompatible(cfg, cfg.GenerationProvider, "", gmodel, stats)
		p.Generator = gen
		p.closers = append(p.closers, gen.Close)
	default:
		return nil, fmt.Errorf("unsupported generation provider %q", cfg.GenerationProvider)
	}
	return p, nil
}

// Close releases every client's idle connections.
func (p *Providers) Close() {
	for _, c := range p.closers {
		c()
	}
}

func openAICompatible(cfg config.Config, provider, transcribeModel, generateModel string, stats *Stats) *OpenAIClient {
	opts := OpenAIOptions{
		Provider:        provider,
		APIKey:          cfg.ProviderKey(provider),
		TranscribeModel: transcribeModel,
		GenerateModel:   generateModel,
		Stats:           stats,
	}
	if provider == "mistral" {
		opts.BaseURL = MistralBaseURL
	}
	return NewOpenAIClient(opts)
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
