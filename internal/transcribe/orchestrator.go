package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FragmentSeparator joins consecutive fragments. The blank line marks a
// possible time discontinuity between chunks for the report generator.
const FragmentSeparator = "\n\n"

// Transcriber turns one self-contained audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Fragment is the text of one chunk.
type Fragment struct {
	Index int
	Text  string
}

// Progress is reported after every transcribed chunk.
type Progress struct {
	Completed    int
	Total        int
	StartMinutes float64
	EndMinutes   float64
}

type ProgressFunc func(Progress)

// Orchestrator drives chunks through a Transcriber one at a time.
type Orchestrator struct {
	transcriber Transcriber
	log         *slog.Logger
}

func NewOrchestrator(t Transcriber, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{transcriber: t, log: log}
}

// Run transcribes chunks in Index order and returns one fragment per chunk.
// The first failure aborts the run; no partial result is returned.
// Cancellation is checked between chunks, never inside a call.
func (o *Orchestrator) Run(ctx context.Context, chunks []audio.Chunk, ext string, progress ProgressFunc) ([]Fragment, error) {
	ordered := slices.Clone(chunks)
	slices.SortFunc(ordered, func(a, b audio.Chunk) int { return a.Index - b.Index })

	total := len(ordered)
	fragments := make([]Fragment, 0, total)

	for i, chunk := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, o.chunkError(chunk, total, err)
		}

		text, err := o.transcribeChunk(ctx, chunk, total, ext)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, Fragment{Index: chunk.Index, Text: text})

		if progress != nil {
			progress(Progress{
				Completed:    i + 1,
				Total:        total,
				StartMinutes: chunk.StartMinutes(),
				EndMinutes:   chunk.EndMinutes(),
			})
		}
	}
	return fragments, nil
}

func (o *Orchestrator) transcribeChunk(ctx context.Context, chunk audio.Chunk, total int, ext string) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe.chunk")
	defer span.End()
	span.SetAttributes(
		attribute.Int("chunk.index", chunk.Index),
		attribute.Int("chunk.total", total),
		attribute.Int64("chunk.start_ms", chunk.StartMs),
		attribute.Int64("chunk.end_ms", chunk.EndMs),
	)

	start := time.Now()
	data, err := chunk.Clip.Encode(ctx)
	if err != nil {
		err = o.chunkError(chunk, total, fmt.Errorf("encode: %w", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text, err := o.transcriber.Transcribe(ctx, ChunkFilename(chunk.Index, ext), data)
	if err != nil {
		err = o.chunkError(chunk, total, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	o.log.Info("transcribed chunk",
		"chunk", chunk.Index+1,
		"total", total,
		"start_min", chunk.StartMinutes(),
		"end_min", chunk.EndMinutes(),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (o *Orchestrator) chunkError(chunk audio.Chunk, total int, err error) *TranscriptionError {
	return &TranscriptionError{
		Index:        chunk.Index,
		Total:        total,
		StartMinutes: chunk.StartMinutes(),
		EndMinutes:   chunk.EndMinutes(),
		Err:          err,
	}
}

// ChunkFilename is the synthetic upload name of a chunk.
func ChunkFilename(index int, ext string) string {
	return fmt.Sprintf("chunk_%d.%s", index, ext)
}

// Join concatenates fragment texts in Index order.
func Join(fragments []Fragment) string {
	ordered := slices.Clone(fragments)
	slices.SortStableFunc(ordered, func(a, b Fragment) int { return a.Index - b.Index })

	texts := make([]string, len(ordered))
	for i, f := range ordered {
		texts[i] = f.Text
	}
	return strings.Join(texts, FragmentSeparator)
}

// TranscriptionError identifies the chunk whose transcription failed.
type TranscriptionError struct {
	Index        int
	Total        int
	StartMinutes float64
	EndMinutes   float64
	Err          error
}

// Number is the 1-based chunk position shown to users.
func (e *TranscriptionError) Number() int { return e.Index + 1 }

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("chunk %d/%d (%.1f-%.1f min): %v", e.Number(), e.Total, e.StartMinutes, e.EndMinutes, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
