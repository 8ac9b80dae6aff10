package llm

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
)

// MistralBaseURL is Mistral's OpenAI-compatible endpoint root.
const MistralBaseURL = "https://api.mistral.ai/v1"

// OpenAIClient speaks the OpenAI wire protocol for both speech-to-text and
// chat completions. Pointed at MistralBaseURL it serves Mistral models.
type OpenAIClient struct {
	provider        string
	client          *openai.Client
	httpClient      *http.Client
	transcribeModel string
	generateModel   string
	transcribeStats *CallStats
	generateStats   *CallStats
}

// OpenAIOptions configures an OpenAIClient. Empty BaseURL means api.openai.com.
type OpenAIOptions struct {
	Provider        string
	APIKey          string
	BaseURL         string
	TranscribeModel string
	GenerateModel   string
	Stats           *Stats
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	httpClient := &http.Client{
		Timeout:   5 * time.Minute,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = httpClient

	c := &OpenAIClient{
		provider:        opts.Provider,
		client:          openai.NewClientWithConfig(cfg),
		httpClient:      httpClient,
		transcribeModel: opts.TranscribeModel,
		generateModel:   opts.GenerateModel,
	}
	if c.provider == "" {
		c.provider = "openai"
	}
	if opts.Stats != nil {
		c.transcribeStats = opts.Stats.Transcription
		c.generateStats = opts.Stats.Generation
	}
	return c
}

// Transcribe uploads one audio clip and returns the recognized text verbatim.
func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.transcribe")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.transcribeModel),
		attribute.Int("audio.bytes", len(audio)),
	)

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	c.transcribeStats.Observe(time.Since(start), err)
	if err != nil {
		err = classifyOpenAI(c.provider+" transcription", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return resp.Text, nil
}

// Generate runs one chat completion with a system and a user message.
func (c *OpenAIClient) Generate(ctx context.Context, req compose.GenerateRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider),
		attribute.String("llm.model", c.generateModel),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.generateModel,
		MaxTokens: req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("no choices in response")
	}
	c.generateStats.Observe(time.Since(start), err)
	if err != nil {
		err = classifyOpenAI(c.provider+" chat completion", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Close releases resources.
func (c *OpenAIClient) Close() {
	c.httpClient.CloseIdleConnections()
}
