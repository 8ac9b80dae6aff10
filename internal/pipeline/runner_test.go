package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"github.com/NoeFlandre/meeting-report-mistral/internal/compose"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
	"github.com/NoeFlandre/meeting-report-mistral/internal/render"
	"github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var meetingDate = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

// fakeCodec serves a source of a fixed duration whose clips encode to their range.
type fakeCodec struct {
	duration time.Duration
	err      error
}

func (c *fakeCodec) Open(context.Context, []byte, string) (audio.Source, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &fakeSource{duration: c.duration}, nil
}

type fakeSource struct{ duration time.Duration }

func (s *fakeSource) Duration() time.Duration { return s.duration }
func (s *fakeSource) Close() error            { return nil }
func (s *fakeSource) Clip(startMs, endMs int64) audio.Clip {
	return fakeClip(fmt.Sprintf("%d-%d", startMs/60000, endMs/60000))
}

type fakeClip string

func (c fakeClip) Encode(context.Context) ([]byte, error) { return []byte(c), nil }

type fakeTranscriber struct {
	mu     sync.Mutex
	failOn string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filename == f.failOn {
		return "", errors.New("503 service unavailable")
	}
	return "minutes " + string(data), nil
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(context.Context, compose.GenerateRequest) (string, error) {
	g.calls++
	return g.reply, g.err
}

const generatedReport = "## 1. GENERAL INFORMATION\n- Date: Not specified\n## 4. DECISIONS\n1. Budget approved\n"

func newTestRunner(codec audio.Codec, tr transcribe.Transcriber, gen compose.Generator) *Runner {
	return NewRunner(
		audio.NewSegmenter(codec),
		transcribe.NewOrchestrator(tr, quietLog),
		compose.NewComposer(gen, compose.LanguageFor("en"), 0, quietLog),
		render.Options{Labels: render.LabelsFor("en"), Rules: render.DefaultRules},
		quietLog,
	)
}

func testRequest(filename string) Request {
	return Request{
		Filename: filename,
		Audio:    []byte("audio-bytes"),
		Meeting: render.Meeting{
			Organization: "Town of Springfield",
			Date:         meetingDate,
			Agenda:       "Budget",
		},
		MaxChunkMinutes: 10,
	}
}

func TestRunner_Success(t *testing.T) {
	gen := &fakeGenerator{reply: generatedReport}
	r := newTestRunner(&fakeCodec{duration: 25 * time.Minute}, &fakeTranscriber{}, gen)

	var stages []Stage
	var progress []transcribe.Progress
	segmented := 0
	res, err := r.Run(context.Background(), testRequest("council.mp3"), Hooks{
		Stage:     func(s Stage) { stages = append(stages, s) },
		Segmented: func(n int, d time.Duration) { segmented = n },
		Progress:  func(p transcribe.Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTranscript := "minutes 0-10\n\nminutes 10-20\n\nminutes 20-25"
	if res.Transcript != wantTranscript {
		t.Errorf("expected transcript %q, got %q", wantTranscript, res.Transcript)
	}
	if res.Markdown != generatedReport {
		t.Errorf("unexpected markdown %q", res.Markdown)
	}
	if res.Stats != (Stats{Words: 6, Chunks: 3, DurationMinutes: 25}) {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if res.DocumentName != "CR_Town_of_Springfield_20250314.docx" || res.TranscriptName != "Transcription_20250314.txt" {
		t.Errorf("unexpected names %q %q", res.DocumentName, res.TranscriptName)
	}
	if len(res.Docx) == 0 {
		t.Error("expected docx bytes")
	}
	if len(res.Document.Content) != 4 {
		t.Errorf("expected 4 content blocks, got %+v", res.Document.Content)
	}

	if strings.Join([]string{string(stages[0]), string(stages[1]), string(stages[2]), string(stages[3])}, ",") != "segmentation,transcription,composition,rendering" {
		t.Errorf("unexpected stage order %v", stages)
	}
	if segmented != 3 || len(progress) != 3 || progress[2].Completed != 3 {
		t.Errorf("unexpected progress: segmented=%d reports=%+v", segmented, progress)
	}
}

func TestRunner_StageFailures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		codec    *fakeCodec
		tr       *fakeTranscriber
		gen      *fakeGenerator
		stage    Stage
		target   any
	}{
		{
			name:     "unsupported format",
			filename: "council.ogg",
			codec:    &fakeCodec{duration: time.Minute},
			tr:       &fakeTranscriber{},
			gen:      &fakeGenerator{reply: "x"},
			stage:    StageSegment,
			target:   new(*audio.DecodeError),
		},
		{
			name:     "corrupt audio",
			filename: "council.mp3",
			codec:    &fakeCodec{err: errors.New("invalid data")},
			tr:       &fakeTranscriber{},
			gen:      &fakeGenerator{reply: "x"},
			stage:    StageSegment,
			target:   new(*audio.DecodeError),
		},
		{
			name:     "chunk two of three",
			filename: "council.mp3",
			codec:    &fakeCodec{duration: 25 * time.Minute},
			tr:       &fakeTranscriber{failOn: "chunk_1.mp3"},
			gen:      &fakeGenerator{reply: "x"},
			stage:    StageTranscribe,
			target:   new(*transcribe.TranscriptionError),
		},
		{
			name:     "generation failure",
			filename: "council.wav",
			codec:    &fakeCodec{duration: 5 * time.Minute},
			tr:       &fakeTranscriber{},
			gen:      &fakeGenerator{err: errors.New("401 unauthorized")},
			stage:    StageCompose,
			target:   new(*compose.GenerationError),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newTestRunner(tc.codec, tc.tr, tc.gen).Run(context.Background(), testRequest(tc.filename), Hooks{})
			if res != nil {
				t.Errorf("expected no artifacts, got %+v", res)
			}
			if FailedStage(err) != tc.stage {
				t.Fatalf("expected stage %q, got %v", tc.stage, err)
			}
			if !errors.As(err, tc.target) {
				t.Errorf("expected %T in chain, got %v", tc.target, err)
			}
			if tc.stage != StageCompose && tc.gen.calls != 0 {
				t.Error("generation must not run after an earlier failure")
			}
		})
	}
}

func TestRunner_TranscriptionErrorCitesChunk(t *testing.T) {
	r := newTestRunner(&fakeCodec{duration: 25 * time.Minute}, &fakeTranscriber{failOn: "chunk_1.mp3"}, &fakeGenerator{reply: "x"})
	_, err := r.Run(context.Background(), testRequest("council.mp3"), Hooks{})

	var te *transcribe.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if te.Number() != 2 || te.StartMinutes != 10 || te.EndMinutes != 20 {
		t.Errorf("expected chunk 2 at [10,20), got %d at [%v,%v)", te.Number(), te.StartMinutes, te.EndMinutes)
	}
	if !strings.HasPrefix(err.Error(), "transcription failed: chunk 2/3 (10.0-20.0 min)") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRunner_Probe(t *testing.T) {
	r := newTestRunner(&fakeCodec{duration: 25 * time.Minute}, &fakeTranscriber{}, &fakeGenerator{})
	info, err := r.Probe(context.Background(), "council.m4a", make([]byte, 1024*1024), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ProbeInfo{Filename: "council.m4a", DurationMinutes: 25, SizeMB: 1, Chunks: 3}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 2, JobTTL: time.Hour}
	r := newTestRunner(&fakeCodec{duration: 5 * time.Minute}, &fakeTranscriber{}, &fakeGenerator{reply: generatedReport})
	o := NewOrchestrator(cfg, r, quietLog)
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob(testRequest("council.mp3"))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last status %q", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if snap := job.Snapshot(); snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", snap)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable by ID")
	}
	if res := job.Result(); res == nil || len(res.Docx) == 0 {
		t.Error("expected document artifact")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestRunner(&fakeCodec{}, &fakeTranscriber{}, &fakeGenerator{}), quietLog)
	// Workers are not started, so the second submission cannot be queued.
	if err := o.Submit(NewJob(testRequest("a.mp3"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := NewJob(testRequest("b.mp3"))
	if err := o.Submit(job); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Error("expected rejected job to be marked failed")
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 2, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestRunner(&fakeCodec{}, &fakeTranscriber{}, &fakeGenerator{}), quietLog)
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := NewJob(testRequest("late.mp3"))
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Error("expected rejected job to be marked failed")
	}
}

func TestOrchestrator_ConcurrentSubmitAndStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 64, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestRunner(&fakeCodec{duration: time.Minute}, &fakeTranscriber{}, &fakeGenerator{reply: generatedReport}), quietLog)
	o.Start(context.Background())

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := o.Submit(NewJob(testRequest(fmt.Sprintf("c%d.mp3", i))))
			if err != nil && !errors.Is(err, ErrStopped) && !errors.Is(err, ErrQueueFull) {
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	o.Stop()
	wg.Wait()
}
