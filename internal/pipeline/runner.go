package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
	"github.com/NoeFlandre/meeting-report-mistral/internal/render"
	"github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"
)

// Stage names one step of a report run.
type Stage string

const (
	StageSegment    Stage = "segmentation"
	StageTranscribe Stage = "transcription"
	StageCompose    Stage = "composition"
	StageRender     Stage = "rendering"
)

// StageError is the single user-facing failure of a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage of a StageError, or "" for other errors.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Request is everything one report needs. It is not retained after the run.
type Request struct {
	Filename        string
	Audio           []byte
	Meeting         render.Meeting
	MaxChunkMinutes int
}

// Stats summarises the recording and transcript of a run.
type Stats struct {
	Words           int     `json:"words"`
	Chunks          int     `json:"chunks"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Result holds the final artifacts. It only exists for a fully successful run.
type Result struct {
	Transcript     string
	Markdown       string
	Document       render.Document
	Docx           []byte
	DocumentName   string
	TranscriptName string
	Stats          Stats
}

// Hooks observe a run. Any of them may be nil.
type Hooks struct {
	Stage     func(Stage)
	Segmented func(chunks int, duration time.Duration)
	Progress  transcribe.ProgressFunc
}

func (h Hooks) stage(s Stage) {
	if h.Stage != nil {
		h.Stage(s)
	}
}

// Runner executes segmentation, transcription, composition and rendering in
// sequence for one request.
type Runner struct {
	segmenter    *audio.Segmenter
	orchestrator *transcribe.Orchestrator
	composer     *compose.Composer
	render       render.Options
	log          *slog.Logger
}

func NewRunner(seg *audio.Segmenter, orch *transcribe.Orchestrator, comp *compose.Composer, opts render.Options, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		segmenter:    seg,
		orchestrator: orch,
		composer:     comp,
		render:       opts,
		log:          log,
	}
}

// Run produces the report for req. Any stage failure aborts the run with a
// StageError and no artifacts.
func (r *Runner) Run(ctx context.Context, req Request, hooks Hooks) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("audio.filename", req.Filename),
		attribute.Int("audio.bytes", len(req.Audio)),
	)

	res, err := r.run(ctx, req, hooks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, req Request, hooks Hooks) (*Result, error) {
	log := r.log.With("filename", req.Filename, "organization", req.Meeting.Organization)
	start := time.Now()

	hooks.stage(StageSegment)
	seg, err := r.segmenter.Segment(ctx, req.Filename, req.Audio, req.MaxChunkMinutes)
	if err != nil {
		return nil, &StageError{Stage: StageSegment, Err: err}
	}
	defer seg.Close()

	stats := Stats{Chunks: len(seg.Chunks), DurationMinutes: seg.DurationMinutes()}
	log.Info("segmented recording", "chunks", stats.Chunks, "duration_min", stats.DurationMinutes)
	if hooks.Segmented != nil {
		hooks.Segmented(stats.Chunks, seg.Duration)
	}

	hooks.stage(StageTranscribe)
	fragments, err := r.orchestrator.Run(ctx, seg.Chunks, seg.Ext, hooks.Progress)
	if err != nil {
		return nil, &StageError{Stage: StageTranscribe, Err: err}
	}
	seg.Close()

	transcript := transcribe.Join(fragments)
	stats.Words = compose.WordCount(transcript)
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageCompose, Err: err}
	}

	hooks.stage(StageCompose)
	m := req.Meeting
	markdown, err := r.composer.Compose(ctx, transcript, m.Organization, m.Agenda)
	if err != nil {
		return nil, &StageError{Stage: StageCompose, Err: err}
	}

	hooks.stage(StageRender)
	doc := render.Render(markdown, m, r.render)
	var buf bytes.Buffer
	if err := render.WriteDOCX(&buf, doc); err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	log.Info("report ready",
		"words", stats.Words,
		"blocks", len(doc.Content),
		"docx_bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{
		Transcript:     transcript,
		Markdown:       markdown,
		Document:       doc,
		Docx:           buf.Bytes(),
		DocumentName:   render.ReportFilename(m.Organization, m.Date, "docx"),
		TranscriptName: render.TranscriptFilename(m.Date),
		Stats:          stats,
	}, nil
}

// ProbeInfo describes an uploaded recording before a run.
type ProbeInfo struct {
	Filename        string  `json:"filename"`
	DurationMinutes float64 `json:"duration_minutes"`
	SizeMB          float64 `json:"size_mb"`
	Chunks          int     `json:"chunks"`
}

// Probe reads a recording's duration and the chunk count a run would use.
func (r *Runner) Probe(ctx context.Context, filename string, data []byte, maxChunkMinutes int) (ProbeInfo, error) {
	d, err := r.segmenter.Probe(ctx, filename, data)
	if err != nil {
		return ProbeInfo{}, err
	}
	windowMs := int64(audio.ClampWindowMinutes(maxChunkMinutes)) * 60 * 1000
	chunks := len(audio.Windows(d.Milliseconds(), windowMs))
	if chunks == 0 {
		chunks = 1
	}
	return ProbeInfo{
		Filename:        filename,
		DurationMinutes: d.Minutes(),
		SizeMB:          float64(len(data)) / (1024 * 1024),
		Chunks:          chunks,
	}, nil
}
