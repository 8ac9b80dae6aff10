package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/NoeFlandre/meeting-report-mistral/internal/agenda"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
	"github.com/NoeFlandre/meeting-report-mistral/internal/llm"
	"github.com/NoeFlandre/meeting-report-mistral/internal/pipeline"
	"github.com/NoeFlandre/meeting-report-mistral/internal/render"
	"github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"
)

var (
	infoTag = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render("[info]")
	okTag   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[ok]")
	failTag = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render("[error]")
	dim     = lipgloss.NewStyle().Faint(true)
)

func info(msg string, a ...any) {
	fmt.Fprintln(os.Stderr, infoTag, fmt.Sprintf(msg, a...))
}

func ok(msg string, a ...any) {
	fmt.Fprintln(os.Stderr, okTag, fmt.Sprintf(msg, a...))
}

func fail(msg string, a ...any) {
	fmt.Fprintln(os.Stderr, failTag, fmt.Sprintf(msg, a...))
}

func main() {
	var (
		inPath       string
		organization string
		dateStr      string
		agendaText   string
		agendaFile   string
		outDir       string
		chunkMinutes int
	)

	flag.StringVar(&inPath, "input", "", "Input audio file: mp3, wav or m4a (-i)")
	flag.StringVar(&inPath, "i", "", "Input audio file")
	flag.StringVar(&organization, "org", "", "Organization holding the meeting")
	flag.StringVar(&dateStr, "date", time.Now().Format(time.DateOnly), "Meeting date (YYYY-MM-DD)")
	flag.StringVar(&agendaText, "agenda", "", "Planned agenda items")
	flag.StringVar(&agendaFile, "agenda-file", "", "Agenda document (txt, md, html, pdf, docx)")
	flag.StringVar(&outDir, "out", ".", "Output directory")
	flag.IntVar(&chunkMinutes, "chunk-minutes", 0, "Chunk window in minutes, 5-15 (default MAX_CHUNK_MINUTES)")
	flag.Parse()

	if inPath == "" || organization == "" {
		fail("missing -input/-i or -org")
		flag.Usage()
		os.Exit(2)
	}
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		fail("invalid -date %q (YYYY-MM-DD)", dateStr)
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fail("invalid configuration: %v", err)
		os.Exit(1)
	}
	if chunkMinutes == 0 {
		chunkMinutes = cfg.MaxChunkMinutes
	}
	chunkMinutes = config.ClampChunkMinutes(chunkMinutes)

	if agendaFile != "" {
		fromFile, err := readAgendaFile(agendaFile)
		if err != nil {
			fail("agenda file: %v", err)
			os.Exit(1)
		}
		agendaText = agenda.Merge(agendaText, fromFile)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		fail("read input: %v", err)
		os.Exit(1)
	}
	if int64(len(data)) > cfg.MaxUploadBytes {
		fail("input exceeds max size (%d bytes)", cfg.MaxUploadBytes)
		os.Exit(1)
	}

	// Library logs stay quiet unless something goes wrong.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	runner, providers, err := pipeline.NewRunnerFromConfig(cfg, llm.NewStats(0), log)
	if err != nil {
		fail("%v", err)
		os.Exit(1)
	}
	defer providers.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info("Transcription: %s, generation: %s", cfg.TranscriptionProvider, cfg.GenerationProvider)
	start := time.Now()
	res, err := runner.Run(ctx, pipeline.Request{
		Filename:        filepath.Base(inPath),
		Audio:           data,
		Meeting:         render.Meeting{Organization: organization, Date: date, Agenda: agendaText},
		MaxChunkMinutes: chunkMinutes,
	}, pipeline.Hooks{
		Stage: func(s pipeline.Stage) { info("%s...", stageLabel(s)) },
		Segmented: func(n int, d time.Duration) {
			ok("%.1f min of audio, %d chunk(s) of up to %d min", d.Minutes(), n, chunkMinutes)
		},
		Progress: func(p transcribe.Progress) {
			ok("Chunk %d/%d %s", p.Completed, p.Total, dim.Render(fmt.Sprintf("(%.1f-%.1f min)", p.StartMinutes, p.EndMinutes)))
		},
	})
	if err != nil {
		// Stage errors read "<stage> failed: <cause>".
		fail("%v", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fail("create output directory: %v", err)
		os.Exit(1)
	}
	docPath := filepath.Join(outDir, res.DocumentName)
	if err := os.WriteFile(docPath, res.Docx, 0o644); err != nil {
		fail("write report: %v", err)
		os.Exit(1)
	}
	transcriptPath := filepath.Join(outDir, res.TranscriptName)
	if err := os.WriteFile(transcriptPath, []byte(res.Transcript), 0o644); err != nil {
		fail("write transcript: %v", err)
		os.Exit(1)
	}

	ok("Report written: %s", docPath)
	ok("Transcript written: %s", transcriptPath)
	info("%d words, %d chunk(s), %.1f min in %s",
		res.Stats.Words, res.Stats.Chunks, res.Stats.DurationMinutes, time.Since(start).Round(time.Second))
}

func readAgendaFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return agenda.FromFile(f, filepath.Base(path))
}

func stageLabel(s pipeline.Stage) string {
	switch s {
	case pipeline.StageSegment:
		return "Segmenting audio"
	case pipeline.StageTranscribe:
		return "Transcribing"
	case pipeline.StageCompose:
		return "Composing report"
	case pipeline.StageRender:
		return "Rendering document"
	}
	return string(s)
}
