package media

import (
	"math"
	"os/exec"
	"path/filepath"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func TestStrideFor(t *testing.T) {
	cases := []struct {
		name   string
		native float64
		target float64
		want   int
	}{
		{"30fps to 1fps", 30, 1, 30},
		{"29.97fps to 1fps", 29.97, 1, 30},
		{"24fps to 1fps", 24, 1, 24},
		{"60fps to 2fps", 60, 2, 30},
		{"native below target", 0.5, 1, 1},
		{"equal rates", 25, 25, 1},
		{"unprobed native rate", 0, 1, 1},
		{"negative native rate", -5, 1, 1},
		{"zero target", 30, 0, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StrideFor(c.native, c.target); got != c.want {
				t.Errorf("StrideFor(%v, %v) = %d, want %d", c.native, c.target, got, c.want)
			}
		})
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97},
		{"25", 0}, // ffprobe always emits a rational
		{"", 0},
		{"30/0", 0},
		{"bogus", 0},
	}
	for _, c := range cases {
		got := parseFrameRate(c.in)
		if math.Abs(got-c.want) > 0.01 {
			t.Errorf("parseFrameRate(%q) = %v, want ~%v", c.in, got, c.want)
		}
	}
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}

// synthesizeClip renders a 2s 10fps test pattern (20 frames total).
func synthesizeClip(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "clip.mp4")
	err := ffmpeg.Input("testsrc=duration=2:size=192x108:rate=10", ffmpeg.KwArgs{"f": "lavfi"}).
		Output(src, ffmpeg.KwArgs{"pix_fmt": "yuv420p"}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		t.Skipf("cannot synthesize test clip: %v", err)
	}
	return src
}

func TestExtractFramesSamplesEveryKth(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	src := synthesizeClip(t, dir)

	d := NewDecomposer()
	frames := d.ExtractFrames(src, filepath.Join(dir, "frames"), 5)

	// 20 source frames at stride round(10/5)=2 keeps n=0,2,...,18
	if len(frames) != 10 {
		t.Fatalf("got %d frames, want 10", len(frames))
	}
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frames[%d].Index = %d, want %d", i, f.Index, i)
		}
		if i > 0 {
			if frames[i-1].Path >= f.Path {
				t.Errorf("frame paths out of order at %d: %q then %q", i, frames[i-1].Path, f.Path)
			}
			if frames[i-1].Timestamp >= f.Timestamp {
				t.Errorf("timestamps not increasing at %d", i)
			}
		}
	}
	// stride 2 at 10fps puts consecutive samples 0.2s apart
	if math.Abs(frames[1].Timestamp-0.2) > 1e-9 {
		t.Errorf("frames[1].Timestamp = %v, want 0.2", frames[1].Timestamp)
	}
}

func TestExtractFramesDefaultRateKeepsEveryTenth(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	src := synthesizeClip(t, dir)

	d := NewDecomposer()
	frames := d.ExtractFrames(src, filepath.Join(dir, "frames"), 1)

	// stride round(10/1)=10 keeps n=0 and n=10
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func TestExtractFramesBadSourceDegrades(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	d := NewDecomposer()
	frames := d.ExtractFrames("/nonexistent/video.mp4", t.TempDir(), 1.0)
	if frames != nil {
		t.Errorf("expected nil frames for missing source, got %d", len(frames))
	}
}

func TestExtractAudioBadSourceDegrades(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	d := NewDecomposer()
	if got := d.ExtractAudio("/nonexistent/video.mp4", t.TempDir()+"/out.wav"); got != "" {
		t.Errorf("expected empty path for missing source, got %q", got)
	}
}
