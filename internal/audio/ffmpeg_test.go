package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"1500.250000\n", 1500*time.Second + 250*time.Millisecond, false},
		{"  60  ", time.Minute, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"0.000", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseProbeDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseProbeDuration(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProbeDuration(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseProbeDuration(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestEncodeArgs_CutsWindowIntoSameContainer(t *testing.T) {
	args := encodeArgs("/tmp/in.mp3", "/tmp/out.mp3", "mp3", 600000, 1200000)

	wantPrefix := []string{"-y", "-v", "error", "-ss", "600.000", "-t", "600.000", "-i", "/tmp/in.mp3", "-vn"}
	if !slices.Equal(args[:len(wantPrefix)], wantPrefix) {
		t.Fatalf("unexpected args prefix: %v", args)
	}
	if args[len(args)-1] != "/tmp/out.mp3" {
		t.Errorf("expected output last, got %v", args)
	}
	if !slices.Contains(args, "libmp3lame") {
		t.Errorf("expected mp3 encoder, got %v", args)
	}
}

func TestEncodeArgs_Containers(t *testing.T) {
	tests := map[string]string{
		"mp3": "mp3",
		"wav": "wav",
		"m4a": "ipod",
	}
	for ext, format := range tests {
		args := encodeArgs("in", "out", ext, 0, 1000)
		i := slices.Index(args, "-f")
		if i < 0 || args[i+1] != format {
			t.Errorf("%s: expected -f %s, got %v", ext, format, args)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[int64]string{
		0:       "0.000",
		7:       "0.007",
		1500:    "1.500",
		1500000: "1500.000",
	}
	for ms, want := range tests {
		if got := formatSeconds(ms); got != want {
			t.Errorf("formatSeconds(%d) = %q, want %q", ms, got, want)
		}
	}
}

// generateTone writes a mono sine wave of the given length using ffmpeg's lavfi input.
func generateTone(t *testing.T, ffmpeg string, d time.Duration) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	cmd := exec.Command(ffmpeg, "-v", "error", "-f", "lavfi",
		"-i", "sine=frequency=440:sample_rate=8000:duration="+formatSeconds(d.Milliseconds()),
		"-ac", "1", "-c:a", "pcm_s16le", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("generate tone: %v: %s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tone: %v", err)
	}
	return data
}

func TestFFmpegCodec_SegmentsIntoDecodableClips(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not installed")
	}

	ctx := context.Background()
	data := generateTone(t, ffmpeg, 11*time.Minute)

	codec := NewFFmpegCodec(ffmpeg, ffprobe)
	codec.TmpDir = t.TempDir()

	seg, err := NewSegmenter(codec).Segment(ctx, "tone.wav", data, 5)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	defer seg.Close()

	if d := seg.Duration; d < 11*time.Minute-time.Second || d > 11*time.Minute+time.Second {
		t.Errorf("expected ~11m duration, got %s", d)
	}
	if len(seg.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(seg.Chunks))
	}

	clipDir := t.TempDir()
	for _, c := range seg.Chunks {
		clip, err := c.Clip.Encode(ctx)
		if err != nil {
			t.Fatalf("encode chunk %d: %v", c.Index, err)
		}
		path := filepath.Join(clipDir, "clip.wav")
		if err := os.WriteFile(path, clip, 0o600); err != nil {
			t.Fatalf("write clip: %v", err)
		}
		got, err := codec.probe(ctx, path)
		if err != nil {
			t.Fatalf("chunk %d does not decode on its own: %v", c.Index, err)
		}
		want := time.Duration(c.EndMs-c.StartMs) * time.Millisecond
		if diff := got - want; diff < -200*time.Millisecond || diff > 200*time.Millisecond {
			t.Errorf("chunk %d: expected ~%s, got %s", c.Index, want, got)
		}
	}

	if entries, _ := os.ReadDir(codec.TmpDir); len(entries) != 1 {
		t.Fatalf("expected one source temp dir while open, got %d", len(entries))
	}
	if err := seg.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if entries, _ := os.ReadDir(codec.TmpDir); len(entries) != 0 {
		t.Errorf("expected temp dir removed after Close, found %d entries", len(entries))
	}
}

func TestFFmpegCodec_OpenRejectsGarbage(t *testing.T) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not installed")
	}
	codec := NewFFmpegCodec("ffmpeg", ffprobe)
	codec.TmpDir = t.TempDir()

	if _, err := codec.Open(context.Background(), []byte("not audio"), "mp3"); err == nil {
		t.Fatal("expected probe error for garbage input")
	}
	if entries, _ := os.ReadDir(codec.TmpDir); len(entries) != 0 {
		t.Errorf("expected temp dir removed after failed open, found %d entries", len(entries))
	}
}
