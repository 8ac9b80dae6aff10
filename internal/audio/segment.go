package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Window bounds in minutes.
const (
	MinWindowMinutes     = 5
	MaxWindowMinutes     = 15
	DefaultWindowMinutes = 10
)

// SupportedExtensions lists the containers accepted as input.
var SupportedExtensions = map[string]bool{
	"mp3": true,
	"wav": true,
	"m4a": true,
}

// Clip is a time range of a source that can be encoded into a standalone file.
type Clip interface {
	Encode(ctx context.Context) ([]byte, error)
}

// Source is a decoded recording held open while its clips are encoded.
type Source interface {
	Duration() time.Duration
	Clip(startMs, endMs int64) Clip
	Close() error
}

// Codec opens raw audio bytes of a given container.
type Codec interface {
	Open(ctx context.Context, data []byte, ext string) (Source, error)
}

// Chunk is one bounded slice of the recording.
type Chunk struct {
	Clip    Clip
	Index   int
	StartMs int64
	EndMs   int64
}

func (c Chunk) StartMinutes() float64 { return msToMinutes(c.StartMs) }
func (c Chunk) EndMinutes() float64   { return msToMinutes(c.EndMs) }

// Segmentation is the ordered chunk list of one recording. Close releases the
// decoded source once every chunk has been encoded.
type Segmentation struct {
	Chunks   []Chunk
	Ext      string
	Duration time.Duration

	source Source
}

// Close releases the underlying source. Safe to call more than once.
func (s *Segmentation) Close() error {
	if s == nil || s.source == nil {
		return nil
	}
	err := s.source.Close()
	s.source = nil
	return err
}

// DurationMinutes returns the total duration in minutes.
func (s *Segmentation) DurationMinutes() float64 {
	return msToMinutes(s.Duration.Milliseconds())
}

// Window is a half-open [StartMs, EndMs) range.
type Window struct {
	StartMs int64
	EndMs   int64
}

// Windows partitions [0, totalMs) into contiguous windows of windowMs. The last
// window is shorter when totalMs is not a multiple of windowMs.
func Windows(totalMs, windowMs int64) []Window {
	if totalMs <= 0 || windowMs <= 0 {
		return nil
	}
	if totalMs <= windowMs {
		return []Window{{StartMs: 0, EndMs: totalMs}}
	}
	out := make([]Window, 0, (totalMs+windowMs-1)/windowMs)
	for start := int64(0); start < totalMs; start += windowMs {
		out = append(out, Window{StartMs: start, EndMs: min(start+windowMs, totalMs)})
	}
	return out
}

// ClampWindowMinutes bounds a window to [MinWindowMinutes, MaxWindowMinutes].
// Zero or negative selects the default.
func ClampWindowMinutes(m int) int {
	switch {
	case m <= 0:
		return DefaultWindowMinutes
	case m < MinWindowMinutes:
		return MinWindowMinutes
	case m > MaxWindowMinutes:
		return MaxWindowMinutes
	}
	return m
}

// NormalizeExt lowercases an extension, strips the dot and checks it against
// SupportedExtensions.
func NormalizeExt(ext string) (string, error) {
	e := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if !SupportedExtensions[e] {
		return "", fmt.Errorf("unsupported audio format %q (mp3, wav, m4a)", ext)
	}
	return e, nil
}

// Segmenter splits recordings into chunks through a Codec.
type Segmenter struct {
	codec Codec
}

func NewSegmenter(codec Codec) *Segmenter {
	return &Segmenter{codec: codec}
}

// Segment opens the recording and returns its chunks. A recording no longer
// than the window yields one chunk carrying the original bytes, so short files
// are never re-encoded. The caller must Close the result.
func (s *Segmenter) Segment(ctx context.Context, filename string, data []byte, maxChunkMinutes int) (*Segmentation, error) {
	ext, err := NormalizeExt(filepath.Ext(filename))
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Filename: filename, Err: fmt.Errorf("empty file")}
	}

	src, err := s.codec.Open(ctx, data, ext)
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}

	duration := src.Duration()
	totalMs := duration.Milliseconds()
	if totalMs <= 0 {
		src.Close()
		return nil, &DecodeError{Filename: filename, Err: fmt.Errorf("no audio content")}
	}

	windowMs := int64(ClampWindowMinutes(maxChunkMinutes)) * 60 * 1000
	seg := &Segmentation{Ext: ext, Duration: duration}

	if totalMs <= windowMs {
		src.Close()
		seg.Chunks = []Chunk{{Clip: rawClip(data), Index: 0, StartMs: 0, EndMs: totalMs}}
		return seg, nil
	}

	seg.source = src
	for i, w := range Windows(totalMs, windowMs) {
		seg.Chunks = append(seg.Chunks, Chunk{
			Clip:    src.Clip(w.StartMs, w.EndMs),
			Index:   i,
			StartMs: w.StartMs,
			EndMs:   w.EndMs,
		})
	}
	return seg, nil
}

// Probe reports the duration of a recording without segmenting it.
func (s *Segmenter) Probe(ctx context.Context, filename string, data []byte) (time.Duration, error) {
	ext, err := NormalizeExt(filepath.Ext(filename))
	if err != nil {
		return 0, &DecodeError{Filename: filename, Err: err}
	}
	if len(data) == 0 {
		return 0, &DecodeError{Filename: filename, Err: fmt.Errorf("empty file")}
	}
	src, err := s.codec.Open(ctx, data, ext)
	if err != nil {
		return 0, &DecodeError{Filename: filename, Err: err}
	}
	defer src.Close()
	return src.Duration(), nil
}

// rawClip hands back the source bytes untouched.
type rawClip []byte

func (r rawClip) Encode(context.Context) ([]byte, error) { return r, nil }

func msToMinutes(ms int64) float64 {
	return float64(ms) / 1000 / 60
}

// DecodeError reports an unreadable or unsupported recording.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
