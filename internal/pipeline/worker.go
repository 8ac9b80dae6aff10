package pipeline

import (
	"context"
	"errors"
	"log/slog"
)

// Worker processes a single report job.
type Worker struct {
	runner *Runner
	log    *slog.Logger
}

func NewWorker(runner *Runner, log *slog.Logger) *Worker {
	return &Worker{runner: runner, log: log}
}

// Process runs the full report pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	req := job.TakeRequest()
	if req == nil {
		log.Error("job has no request")
		job.Fail(errors.New("job has already been processed"))
		return
	}

	hooks := Hooks{
		Stage:     job.EnterStage,
		Segmented: job.SetSegmented,
		Progress:  job.RecordChunk,
	}
	res, err := w.runner.Run(ctx, *req, hooks)
	if err != nil {
		log.Error("report failed", "stage", FailedStage(err), "error", err)
		job.Fail(err)
		return
	}

	log.Info("report completed",
		"document", res.DocumentName,
		"chunks", res.Stats.Chunks,
		"words", res.Stats.Words,
	)
	job.Complete(res)
}
