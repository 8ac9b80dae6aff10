package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NoeFlandre/meeting-report-mistral/internal/agenda"
	"github.com/NoeFlandre/meeting-report-mistral/internal/audio"
	"github.com/NoeFlandre/meeting-report-mistral/internal/config"
	"github.com/NoeFlandre/meeting-report-mistral/internal/pipeline"
	"github.com/NoeFlandre/meeting-report-mistral/internal/render"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxAgendaFileBytes bounds an attached agenda document.
const maxAgendaFileBytes = 10 << 20

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	organization := strings.TrimSpace(r.FormValue("organization"))
	if organization == "" {
		jsonError(w, "organization is required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.FormValue("date")))
	if err != nil {
		jsonError(w, "date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	chunkMinutes, err := parseChunkMinutes(r.FormValue("max_chunk_minutes"), s.cfg.MaxChunkMinutes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	agendaText, err := readAgenda(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename, data, ok := s.readAudio(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(pipeline.Request{
		Filename: filename,
		Audio:    data,
		Meeting: render.Meeting{
			Organization: organization,
			Date:         date,
			Agenda:       agendaText,
		},
		MaxChunkMinutes: chunkMinutes,
	})
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("report queued", "job_id", job.ID, "filename", filename, "bytes", len(data), "chunk_minutes", chunkMinutes)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/reports/%s/status", job.ID),
	})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	chunkMinutes, err := parseChunkMinutes(r.FormValue("max_chunk_minutes"), s.cfg.MaxChunkMinutes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	filename, data, ok := s.readAudio(w, r)
	if !ok {
		return
	}

	info, err := s.orchestrator.Runner().Probe(r.Context(), filename, data, chunkMinutes)
	if err != nil {
		var de *audio.DecodeError
		if errors.As(err, &de) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleReportDocument(w http.ResponseWriter, r *http.Request) {
	res, ok := s.completedResult(w, r)
	if !ok {
		return
	}
	writeAttachment(w, res.DocumentName, docxContentType, res.Docx)
}

func (s *Server) handleReportTranscript(w http.ResponseWriter, r *http.Request) {
	res, ok := s.completedResult(w, r)
	if !ok {
		return
	}
	writeAttachment(w, res.TranscriptName, "text/plain; charset=utf-8", []byte(res.Transcript))
}

func (s *Server) handleReportPreview(w http.ResponseWriter, r *http.Request) {
	res, ok := s.completedResult(w, r)
	if !ok {
		return
	}
	page, err := render.PreviewPage(strings.TrimSuffix(res.DocumentName, ".docx"), res.Markdown)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

// completedResult writes a 404 unless the job exists and has completed.
func (s *Server) completedResult(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	res := job.Result()
	if res == nil {
		snap := job.Snapshot()
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":  "report not available",
			"status": snap.Status,
			"detail": snap.Error,
		})
		return nil, false
	}
	return res, true
}

func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	// Extra room for the agenda file and form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxAgendaFileBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// readAudio reads the "audio" part and checks its extension and size.
func (s *Server) readAudio(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	file, header, err := r.FormFile("audio")
	if err != nil {
		jsonError(w, "audio file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if _, err := audio.NormalizeExt(filepath.Ext(filename)); err != nil {
		jsonError(w, fmt.Sprintf("unsupported audio type: %q (mp3, wav, m4a)", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := readLimited(file, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

// readAgenda merges the typed agenda with an optional attached document.
func readAgenda(r *http.Request) (string, error) {
	typed := r.FormValue("agenda")

	file, header, err := r.FormFile("agenda_file")
	if errors.Is(err, http.ErrMissingFile) {
		return agenda.Merge(typed, ""), nil
	}
	if err != nil {
		return "", fmt.Errorf("agenda_file: %w", err)
	}
	defer file.Close()

	fromFile, err := extractAgenda(file, header)
	if err != nil {
		return "", err
	}
	return agenda.Merge(typed, fromFile), nil
}

func extractAgenda(file multipart.File, header *multipart.FileHeader) (string, error) {
	data, err := readLimited(file, maxAgendaFileBytes)
	if err != nil {
		return "", fmt.Errorf("agenda_file: %w", err)
	}
	text, err := agenda.FromFile(bytes.NewReader(data), sanitizeFilename(header.Filename))
	if err != nil {
		return "", fmt.Errorf("agenda_file: %w", err)
	}
	return text, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", limit)
	}
	return data, nil
}

// parseChunkMinutes reads an optional integer window, clamped to the allowed range.
func parseChunkMinutes(v string, fallback int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("max_chunk_minutes must be an integer between %d and %d", config.MinChunkMinutes, config.MaxChunkMinutes)
	}
	return config.ClampChunkMinutes(n), nil
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
