package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
)

func TestOpenAIClientGenerate(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key-123" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"## Report"}}],"usage":{"prompt_tokens":10,"completion_tokens":2}}`)
	}))
	defer srv.Close()

	stats := NewStats(time.Hour)
	c := NewOpenAIClient(OpenAIOptions{
		Provider:      "mistral",
		APIKey:        "test-key-123",
		BaseURL:       srv.URL + "/v1/",
		GenerateModel: "mistral-medium-latest",
		Stats:         stats,
	})
	defer c.Close()

	text, err := c.Generate(context.Background(), compose.GenerateRequest{System: "sys", User: "usr", MaxTokens: 4000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "## Report" {
		t.Errorf("expected report text, got %q", text)
	}
	if got.Model != "mistral-medium-latest" || got.MaxTokens != 4000 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if snap := stats.Generation.Snapshot(); snap.Calls != 1 {
		t.Errorf("expected one recorded generation call, got %+v", snap)
	}
}

func TestOpenAIClientTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if m := r.FormValue("model"); m != "voxtral-mini-latest" {
			t.Errorf("unexpected model %q", m)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "chunk_1.mp3" || string(data) != "ID3fake" {
			t.Errorf("unexpected file %q (%q)", hdr.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"Bonjour à tous."}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIOptions{
		Provider:        "mistral",
		APIKey:          "test-key-123",
		BaseURL:         srv.URL + "/v1",
		TranscribeModel: "voxtral-mini-latest",
	})
	text, err := c.Transcribe(context.Background(), "chunk_1.mp3", []byte("ID3fake"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Bonjour à tous." {
		t.Errorf("expected verbatim text, got %q", text)
	}
}

func TestOpenAIClientRetryableStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"error":{"message":"nope","type":"error"}}`)
			}))
			defer srv.Close()

			c := NewOpenAIClient(OpenAIOptions{APIKey: "test-key-123", BaseURL: srv.URL, TranscribeModel: "whisper-1"})
			_, err := c.Transcribe(context.Background(), "chunk_0.wav", []byte("RIFF"))
			if err == nil {
				t.Fatal("expected error")
			}
			if IsRetryable(err) != tc.retryable {
				t.Errorf("expected retryable=%v, got error %v", tc.retryable, err)
			}
			if !strings.Contains(err.Error(), "openai transcription") {
				t.Errorf("expected operation in message, got %q", err.Error())
			}
		})
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}
