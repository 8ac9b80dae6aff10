package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxTokens is the completion budget of one report.
const DefaultMaxTokens = 4000

// GenerateRequest is a single system+user exchange with a token ceiling.
type GenerateRequest struct {
	System    string
	User      string
	MaxTokens int
}

// Generator produces text from a prompt. Output is not assumed deterministic.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Composer turns a transcript into the markdown report.
type Composer struct {
	gen       Generator
	lang      Language
	maxTokens int
	log       *slog.Logger
}

func NewComposer(gen Generator, lang Language, maxTokens int, log *slog.Logger) *Composer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if log == nil {
		log = slog.Default()
	}
	return &Composer{gen: gen, lang: lang, maxTokens: maxTokens, log: log}
}

// Compose makes exactly one generation call. There is no retry and no cache.
func (c *Composer) Compose(ctx context.Context, transcript, organization, agenda string) (string, error) {
	ctx, span := tracer.Start(ctx, "compose.report")
	defer span.End()

	req := GenerateRequest{
		System:    c.lang.SystemInstruction,
		User:      BuildUserMessage(c.lang, transcript, organization, agenda),
		MaxTokens: c.maxTokens,
	}
	span.SetAttributes(
		attribute.String("report.language", c.lang.Code),
		attribute.Int("transcript.words", WordCount(transcript)),
		attribute.Int("request.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	md, err := c.gen.Generate(ctx, req)
	if err == nil && strings.TrimSpace(md) == "" {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		gerr := &GenerationError{Err: err}
		span.RecordError(gerr)
		span.SetStatus(codes.Error, gerr.Error())
		return "", gerr
	}

	c.log.Info("report generated",
		"transcript_words", WordCount(transcript),
		"est_tokens", EstimateTokens(transcript),
		"report_chars", len(md),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return md, nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EstimateTokens gives a rough token count (~1.33 tokens per word).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(WordCount(text)) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// GenerationError reports a failed report-composition call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate report: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
