package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NoeFlandre/meeting-report-mistral/internal/transcribe"
)

// JobStatus represents the state of a report job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusSegmenting   JobStatus = "segmenting"
	StatusTranscribing JobStatus = "transcribing"
	StatusComposing    JobStatus = "composing"
	StatusRendering    JobStatus = "rendering"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

var stageStatus = map[Stage]JobStatus{
	StageSegment:    StatusSegmenting,
	StageTranscribe: StatusTranscribing,
	StageCompose:    StatusComposing,
	StageRender:     StatusRendering,
}

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single report generation.
type Job struct {
	mu sync.Mutex

	ID           string
	Status       JobStatus
	Phase        string
	Filename     string
	Organization string
	MeetingDate  time.Time

	Progress Progress
	Error    string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: the request is handed to a worker once and then dropped so
	// the audio is not retained; result is set only on success.
	request *Request
	result  *Result
}

// Progress tracks transcription progress.
type Progress struct {
	TotalChunks         int     `json:"total_chunks"`
	ChunksTranscribed   int     `json:"chunks_transcribed"`
	CurrentStartMinutes float64 `json:"current_start_minutes"`
	CurrentEndMinutes   float64 `json:"current_end_minutes"`
	DurationMinutes     float64 `json:"duration_minutes"`
}

// NewJob wraps req in a queued job with a fresh ID.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     req.Filename,
		Organization: req.Meeting.Organization,
		MeetingDate:  req.Meeting.Date,
		CreatedAt:    now,
		UpdatedAt:    now,
		request:      &req,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// EnterStage moves the job to the status of a pipeline stage.
func (j *Job) EnterStage(s Stage) {
	j.SetStatus(stageStatus[s], string(s))
}

// SetSegmented records the chunk count and recording length.
func (j *Job) SetSegmented(chunks int, duration time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = chunks
	j.Progress.DurationMinutes = duration.Minutes()
	j.UpdatedAt = time.Now()
}

// RecordChunk records one transcribed chunk.
func (j *Job) RecordChunk(p transcribe.Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = p.Total
	j.Progress.ChunksTranscribed = p.Completed
	j.Progress.CurrentStartMinutes = p.StartMinutes
	j.Progress.CurrentEndMinutes = p.EndMinutes
	j.UpdatedAt = time.Now()
}

// TakeRequest hands the request to the caller and forgets it. It returns nil
// on every call after the first.
func (j *Job) TakeRequest() *Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	req := j.request
	j.request = nil
	return req
}

// Complete stores the artifacts of a successful run.
func (j *Job) Complete(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.request = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Fail records the run's single error. No artifacts are kept.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = nil
	j.request = nil
	j.Error = err.Error()
	if s := FailedStage(err); s != "" {
		j.Phase = string(s)
	}
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// Result returns the artifacts, or nil until the job has completed.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// expired reports whether a finished job has been idle for longer than ttl.
// Queued and running jobs never expire.
func (j *Job) expired(now time.Time, ttl time.Duration) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status.Done() && now.Sub(j.UpdatedAt) > ttl
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID             string    `json:"job_id"`
	Status         JobStatus `json:"status"`
	Phase          string    `json:"phase"`
	Filename       string    `json:"filename"`
	Organization   string    `json:"organization"`
	MeetingDate    string    `json:"meeting_date"`
	Progress       Progress  `json:"progress"`
	Error          string    `json:"error,omitempty"`
	Stats          *Stats    `json:"stats,omitempty"`
	DocumentName   string    `json:"document_name,omitempty"`
	TranscriptName string    `json:"transcript_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:           j.ID,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		Organization: j.Organization,
		MeetingDate:  j.MeetingDate.Format(time.DateOnly),
		Progress:     j.Progress,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.result != nil {
		stats := j.result.Stats
		snap.Stats = &stats
		snap.DocumentName = j.result.DocumentName
		snap.TranscriptName = j.result.TranscriptName
	}
	return snap
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs idle for longer than the TTL and returns how many.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		if job.expired(now, s.ttl) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
