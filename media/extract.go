package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"cybershield/config"
	"cybershield/logging"
	"cybershield/types"
)

// Decomposer splits a media file into analyzable units: sampled frames and a
// mono audio track. Both operations degrade to empty results instead of
// failing, so a corrupt source still yields a (zero-confidence) report.
type Decomposer interface {
	Probe(path string) (*VideoInfo, error)
	ExtractFrames(source, outDir string, targetFPS float64) []types.Frame
	ExtractAudio(source, outPath string) string
}

// FFmpegDecomposer implements Decomposer on top of the ffmpeg/ffprobe binaries.
type FFmpegDecomposer struct{}

func NewDecomposer() *FFmpegDecomposer {
	return &FFmpegDecomposer{}
}

func (d *FFmpegDecomposer) Probe(path string) (*VideoInfo, error) {
	return Probe(path)
}

// StrideFor returns the frame sampling stride for a native rate and a target
// rate. An unreadable or non-positive native rate falls back to stride 1
// (sample every frame) rather than failing.
func StrideFor(nativeFPS, targetFPS float64) int {
	if nativeFPS <= 0 || targetFPS <= 0 {
		return 1
	}
	stride := int(math.Round(nativeFPS / targetFPS))
	if stride < 1 {
		return 1
	}
	return stride
}

// ExtractFrames materializes every k-th frame of the source into outDir as
// zero-padded sequential JPEGs, preserving original order. Returns an empty
// slice (not an error) when the source cannot be decoded or has no frames.
func (d *FFmpegDecomposer) ExtractFrames(source, outDir string, targetFPS float64) []types.Frame {
	logger := logging.WithComponent("decomposer")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Warn().Err(err).Str("dir", outDir).Msg("cannot create frame directory")
		return nil
	}

	nativeFPS := 0.0
	if info, err := d.Probe(source); err == nil {
		nativeFPS = info.FPS
	} else {
		logger.Warn().Err(err).Str("source", source).Msg("probe failed, sampling every frame")
	}
	stride := StrideFor(nativeFPS, targetFPS)

	pattern := filepath.Join(outDir, "frame_%06d.jpg")
	err := ffmpeg.Input(source).
		Output(pattern, ffmpeg.KwArgs{
			"vf":    fmt.Sprintf(`select=not(mod(n\,%d))`, stride),
			"vsync": "vfr",
			"q:v":   config.FrameQuality,
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("frame extraction failed")
		return nil
	}

	paths, err := filepath.Glob(filepath.Join(outDir, "frame_*.jpg"))
	if err != nil || len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)

	frames := make([]types.Frame, 0, len(paths))
	for i, p := range paths {
		ts := 0.0
		if nativeFPS > 0 {
			ts = float64(i*stride) / nativeFPS
		}
		frames = append(frames, types.Frame{Path: p, Index: i, Timestamp: ts})
	}
	logger.Info().Int("frames", len(frames)).Int("stride", stride).Msg("frames extracted")
	return frames
}

// ExtractAudio transcodes the source's audio stream to a mono 16kHz PCM WAV.
// Any failure (no audio stream, corrupt container, tool crash) surfaces as an
// empty path: audio is an optional evidence source.
func (d *FFmpegDecomposer) ExtractAudio(source, outPath string) string {
	logger := logging.WithComponent("decomposer")

	err := ffmpeg.Input(source).
		Output(outPath, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "pcm_s16le",
			"ac":     1,
			"ar":     config.AudioSampleRate,
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("no audio track available")
		return ""
	}
	if _, err := os.Stat(outPath); err != nil {
		return ""
	}
	return outPath
}
