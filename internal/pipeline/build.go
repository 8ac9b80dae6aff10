package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
	"github.com/NoeFlandre/meeting-report-mistral/internal/llm"
	"github.com/NoeFlandre/meeting-report-mistral/internal/render"
	"github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"
)

// RenderOptions maps the rendering settings onto render.Options.
func RenderOptions(cfg config.Config) render.Options {
	opts := render.Options{Labels: render.LabelsFor(cfg.ReportLanguage), Rules: render.DefaultRules}
	if cfg.RenderMultiDigitNumbers {
		opts.Rules = render.MultiDigitRules
	}
	return opts
}

// NewRunnerFromConfig wires the ffmpeg codec and the configured providers
// into a Runner. The caller closes the returned providers.
func NewRunnerFromConfig(cfg config.Config, stats *llm.Stats, log *slog.Logger) (*Runner, *llm.Providers, error) {
	providers, err := llm.NewProviders(cfg, stats)
	if err != nil {
		return nil, nil, fmt.Errorf("init providers: %w", err)
	}

	transcriber := transcribe.WithRetry(providers.Transcriber, transcribe.RetryPolicy{
		MaxRetries: cfg.TranscribeMaxRetries,
		Retryable:  llm.IsRetryable,
		Backoff:    llm.Backoff,
	}, log)

	runner := NewRunner(
		audio.NewSegmenter(audio.NewFFmpegCodec(cfg.FFmpegPath, cfg.FFprobePath)),
		transcribe.NewOrchestrator(transcriber, log),
		compose.NewComposer(providers.Generator, compose.LanguageFor(cfg.ReportLanguage), cfg.GenerationMaxTokens, log),
		RenderOptions(cfg),
		log,
	)
	return runner, providers, nil
}
