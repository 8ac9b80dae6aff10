package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FFmpegCodec decodes and re-encodes audio by shelling out to ffprobe/ffmpeg.
// The source is written to a private temp directory once and each clip is cut
// from it on demand, so only one encoded clip is held in memory at a time.
type FFmpegCodec struct {
	FFmpegPath  string
	FFprobePath string
	TmpDir      string // empty means os.TempDir()
}

func NewFFmpegCodec(ffmpegPath, ffprobePath string) *FFmpegCodec {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegCodec{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

func (c *FFmpegCodec) Open(ctx context.Context, data []byte, ext string) (Source, error) {
	dir, err := os.MkdirTemp(c.TmpDir, "crgen-audio-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(dir, "source."+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	d, err := c.probe(ctx, path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &ffmpegSource{codec: c, dir: dir, path: path, ext: ext, duration: d}, nil
}

func (c *FFmpegCodec) probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, c.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParseProbeDuration(string(out))
}

// ParseProbeDuration parses the seconds value printed by ffprobe.
func ParseProbeDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("non-positive duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

type ffmpegSource struct {
	codec    *FFmpegCodec
	dir      string
	path     string
	ext      string
	duration time.Duration
}

func (s *ffmpegSource) Duration() time.Duration { return s.duration }

func (s *ffmpegSource) Clip(startMs, endMs int64) Clip {
	return &ffmpegClip{src: s, startMs: startMs, endMs: endMs}
}

func (s *ffmpegSource) Close() error {
	return os.RemoveAll(s.dir)
}

type ffmpegClip struct {
	src     *ffmpegSource
	startMs int64
	endMs   int64
}

func (c *ffmpegClip) Encode(ctx context.Context) ([]byte, error) {
	out := filepath.Join(c.src.dir, fmt.Sprintf("clip_%d_%d.%s", c.startMs, c.endMs, c.src.ext))
	cmd := exec.CommandContext(ctx, c.src.codec.FFmpegPath, encodeArgs(c.src.path, out, c.src.ext, c.startMs, c.endMs)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	defer os.Remove(out)

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read clip: %w", err)
	}
	return data, nil
}

// encodeArgs builds the ffmpeg arguments that cut [startMs, endMs) from in and
// write it to out in the container named by ext.
func encodeArgs(in, out, ext string, startMs, endMs int64) []string {
	args := []string{
		"-y", "-v", "error",
		"-ss", formatSeconds(startMs),
		"-t", formatSeconds(endMs - startMs),
		"-i", in,
		"-vn",
	}
	switch ext {
	case "mp3":
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2", "-f", "mp3")
	case "wav":
		args = append(args, "-c:a", "pcm_s16le", "-f", "wav")
	case "m4a":
		// ffmpeg has no "m4a" muxer; ipod writes an .m4a-compatible MP4.
		args = append(args, "-c:a", "aac", "-b:a", "128k", "-f", "ipod")
	}
	return append(args, out)
}

func formatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
