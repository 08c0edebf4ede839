package config

import "time"

// Frame Extraction Constants
const (
	// TargetFrameRate is the sampling rate for frame extraction in frames per second
	TargetFrameRate = 1.0

	// FrameQuality is the JPEG quality factor passed to ffmpeg (2 = visually lossless)
	FrameQuality = 2

	// AudioSampleRate is the sample rate for the extracted mono audio track
	AudioSampleRate = 16000
)

// Scoring Constants
const (
	// MaxScoringWorkers limits the number of frames scored concurrently.
	// Sized to stay under the hosted inference API's rate limits.
	MaxScoringWorkers = 4

	// RemoteTimeout bounds a single call to the hosted inference endpoint
	RemoteTimeout = 25 * time.Second

	// LaplacianScale normalizes Laplacian edge variance into a [0,1] score
	LaplacianScale = 1000.0
)

// Aggregation Constants
const (
	// RemoteWeight is the share of the resolved fake probability in the combined frame score
	RemoteWeight = 0.6

	// ArtifactWeight is the share of the heuristic artifact score in the combined frame score
	ArtifactWeight = 0.3

	// NoFacePenalty is added when no face is detected in a frame
	NoFacePenalty = 0.1

	// FakeThreshold is the overall score above which media is flagged as fake
	FakeThreshold = 50.0
)

// Report Constants
const (
	// FramesSampleCap bounds the number of per-frame results embedded in a stored report
	FramesSampleCap = 20

	// HeatmapTopFrames is the number of highest-scoring frames shown in the heatmap grid
	HeatmapTopFrames = 6
)

// Directory Constants
const (
	// DefaultUploadDir is where uploaded media and run workspaces live
	DefaultUploadDir = "./uploads"
)
