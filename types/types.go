package types

import "time"

// MediaKind declares what an uploaded file claims to be.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
	KindAudio MediaKind = "audio"
)

// Frame is one still image sampled from a video, ordered by Index.
type Frame struct {
	Path      string  `json:"path"`
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"` // seconds from the start of the source
}

// Method identifies which scoring tier produced a unit's score.
type Method string

const (
	MethodRemoteAPI      Method = "remote_api"
	MethodHeuristic      Method = "heuristic"
	MethodAudioHeuristic Method = "audio_heuristic"
)

// UnitScore is the result of scoring one frame. Never mutated after creation;
// a rerun produces a new set.
type UnitScore struct {
	FrameIndex    int     `json:"frame_index"`
	FakeProb      float64 `json:"fake_prob"`
	Method        Method  `json:"method"`
	HasFace       bool    `json:"has_face"`
	ArtifactScore float64 `json:"artifact_score"`
}

// AudioFeatures summarizes the extracted waveform for the report.
type AudioFeatures struct {
	Energy   float64   `json:"energy"`
	ZCR      float64   `json:"zcr"`
	MFCCMean []float64 `json:"mfcc_mean"`
}

// RunStatus tracks a pipeline run through its state machine.
type RunStatus string

const (
	StatusPending     RunStatus = "pending"
	StatusExtracting  RunStatus = "extracting"
	StatusScoring     RunStatus = "scoring"
	StatusAggregating RunStatus = "aggregating"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
)

// PipelineRun is one invocation of the full pipeline against one source file.
// Mutated in place only by the pipeline runner; Completed and Failed are terminal.
type PipelineRun struct {
	ID           string      `json:"id"`
	Kind         MediaKind   `json:"kind"`
	SourcePath   string      `json:"source_path"`
	Filename     string      `json:"filename"`
	User         string      `json:"user"`
	StartedAt    time.Time   `json:"started_at"`
	UnitScores   []UnitScore `json:"unit_scores"`
	OverallScore float64     `json:"overall_score"` // [0,100]
	Verdict      bool        `json:"verdict"`
	HeatmapPath  string      `json:"heatmap_path,omitempty"`
	GridPath     string      `json:"grid_path,omitempty"`
	Status       RunStatus   `json:"status"`
}

// ReportBody is the structured JSON blob stored inside a report.
type ReportBody struct {
	Audio         string         `json:"audio,omitempty"`
	AudioFeatures *AudioFeatures `json:"audio_features,omitempty"`
	AudioScore    float64        `json:"audio_score,omitempty"`
	FramesSample  []UnitScore    `json:"frames_sample"`
	Heatmap       string         `json:"heatmap,omitempty"`
	HeatmapGrid   string         `json:"heatmap_grid,omitempty"`
	FrameScores   []float64      `json:"frame_scores"`
}

// Report is the persisted projection of a completed run.
type Report struct {
	ID                int64      `json:"id"`
	Filename          string     `json:"filename"`
	User              string     `json:"user"`
	CreatedAt         time.Time  `json:"created_at"`
	AuthenticityScore float64    `json:"authenticity_score"`
	IsFake            int        `json:"is_fake"` // 0 or 1
	Report            ReportBody `json:"report"`
}

// AnalyzeRequest is the message enqueued for background video analysis.
type AnalyzeRequest struct {
	RunID    string `json:"run_id"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	User     string `json:"user"`
}
