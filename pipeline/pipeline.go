// Package pipeline orchestrates one analysis run: decomposition, per-unit
// scoring through the fallback chain, aggregation, and report persistence.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cybershield/archive"
	"cybershield/config"
	"cybershield/logging"
	"cybershield/media"
	"cybershield/scoring"
	"cybershield/storage"
	"cybershield/store"
	"cybershield/types"
)

// Runner drives the per-run state machine:
// pending → extracting → scoring → aggregating → completed | failed.
// Scoring failures on individual frames degrade to the heuristic tier; only
// decomposition-layer I/O, aggregation, or persistence failures are run-fatal.
type Runner struct {
	decomposer media.Decomposer
	resolver   *scoring.Resolver
	heuristic  *scoring.HeuristicScorer
	faces      *scoring.FaceDetector
	audio      *scoring.AudioScorer
	uploads    *storage.Store
	reports    store.ReportStore
	archiver   *archive.Archiver
	workers    int
	logger     zerolog.Logger
}

// NewRunner wires the pipeline's collaborators. archiver may be nil.
func NewRunner(
	decomposer media.Decomposer,
	resolver *scoring.Resolver,
	heuristic *scoring.HeuristicScorer,
	faces *scoring.FaceDetector,
	audio *scoring.AudioScorer,
	uploads *storage.Store,
	reports store.ReportStore,
	archiver *archive.Archiver,
) *Runner {
	workers := config.GetEnvIntOrDefault("SCORING_WORKERS", config.MaxScoringWorkers)
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		decomposer: decomposer,
		resolver:   resolver,
		heuristic:  heuristic,
		faces:      faces,
		audio:      audio,
		uploads:    uploads,
		reports:    reports,
		archiver:   archiver,
		workers:    workers,
		logger:     logging.WithComponent("pipeline"),
	}
}

// NewRun creates a pending run for an uploaded file.
func (r *Runner) NewRun(sourcePath, filename, user string) *types.PipelineRun {
	if user == "" {
		user = "anonymous"
	}
	return &types.PipelineRun{
		ID:         uuid.NewString(),
		Kind:       types.KindVideo,
		SourcePath: sourcePath,
		Filename:   filename,
		User:       user,
		StartedAt:  time.Now().UTC(),
		Status:     types.StatusPending,
	}
}

// RunFromRequest reconstructs a pending run from a queued analysis request.
func RunFromRequest(req types.AnalyzeRequest) *types.PipelineRun {
	user := req.User
	if user == "" {
		user = "anonymous"
	}
	return &types.PipelineRun{
		ID:         req.RunID,
		Kind:       types.KindVideo,
		SourcePath: req.Path,
		Filename:   req.Filename,
		User:       user,
		StartedAt:  time.Now().UTC(),
		Status:     types.StatusPending,
	}
}

// Run executes the full pipeline for one run. The returned error is the
// run-fatal cause, if any; the run's terminal status is always set.
func (r *Runner) Run(ctx context.Context, run *types.PipelineRun) error {
	logger := r.logger.With().Str("run", run.ID).Str("kind", string(run.Kind)).Str("file", run.Filename).Logger()
	logger.Info().Msg("pipeline started")

	report, err := r.execute(ctx, run, logger)
	if err != nil {
		run.Status = types.StatusFailed
		logger.Error().Err(err).Msg("pipeline failed")
		return err
	}

	run.Status = types.StatusCompleted
	logger.Info().
		Float64("score", run.OverallScore).
		Bool("verdict", run.Verdict).
		Int("units", len(run.UnitScores)).
		Msg("pipeline completed")

	if r.archiver != nil {
		r.archiver.ArchiveRun(ctx, run, report)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, run *types.PipelineRun, logger zerolog.Logger) (types.Report, error) {
	workspace, err := r.uploads.RunWorkspace(run.ID)
	if err != nil {
		return types.Report{}, fmt.Errorf("run workspace: %w", err)
	}
	defer r.uploads.CleanupWorkspace(run.ID)

	// Extraction. An empty frame set is a degraded condition, not a fatal
	// one: the run continues and produces a zero-confidence report.
	// The audio track lands outside the workspace because the stored report
	// references it and the workspace is deleted when the run ends.
	run.Status = types.StatusExtracting
	frames := r.decomposer.ExtractFrames(run.SourcePath, filepath.Join(workspace, "frames"), config.TargetFrameRate)
	audioPath := r.decomposer.ExtractAudio(run.SourcePath, r.uploads.AudioPath(run.ID))

	// Per-frame scoring on a bounded worker pool. Frames share no mutable
	// state, so each result slot is written exactly once by one goroutine.
	run.Status = types.StatusScoring
	run.UnitScores = r.scoreFrames(ctx, frames)

	var audioFeats *types.AudioFeatures
	audioScore := 0.0
	if audioPath != "" {
		feats, res := r.audio.Analyze(audioPath)
		if res.Available {
			audioFeats = feats
			audioScore = res.Prob
		}
	}

	// Aggregation.
	run.Status = types.StatusAggregating
	combined := CombineScores(run.UnitScores)
	run.OverallScore = Aggregate(combined)
	run.Verdict = Verdict(run.OverallScore)

	heatmapPath := r.uploads.HeatmapPath(run.ID)
	rendered, err := RenderStrip(combined, heatmapPath)
	if err != nil {
		logger.Warn().Err(err).Msg("heatmap render failed, continuing without artifact")
	} else if rendered {
		run.HeatmapPath = heatmapPath
	}

	// The grid reads frame files, so it must render before workspace cleanup.
	gridPath := r.uploads.GridPath(run.ID)
	rendered, err = RenderTopFramesGrid(frames, combined, gridPath)
	if err != nil {
		logger.Warn().Err(err).Msg("grid render failed, continuing without artifact")
	} else if rendered {
		run.GridPath = gridPath
	}

	// Persistence: exactly one report per successful run, none on failure.
	report := BuildReport(run, audioPath, audioFeats, audioScore, combined)
	id, err := r.reports.Create(ctx, report)
	if err != nil {
		return types.Report{}, fmt.Errorf("persist report: %w", err)
	}
	report.ID = id
	return report, nil
}

// scoreFrames resolves each frame through the fallback chain, computes the
// secondary artifact signal, and runs face detection, concurrently up to the
// worker bound. Results keep original frame order.
func (r *Runner) scoreFrames(ctx context.Context, frames []types.Frame) []types.UnitScore {
	scores := make([]types.UnitScore, len(frames))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.workers)

	for i, frame := range frames {
		wg.Add(1)
		go func(idx int, f types.Frame) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				scores[idx] = types.UnitScore{FrameIndex: f.Index, FakeProb: 0.5, Method: types.MethodHeuristic}
				return
			}

			resolved := r.resolver.Resolve(f.Path)

			// The artifact score is always computed as a secondary
			// signal, even when the remote score wins.
			artifact := r.heuristic.Score(f.Path)

			scores[idx] = types.UnitScore{
				FrameIndex:    f.Index,
				FakeProb:      resolved.Prob,
				Method:        resolved.Method,
				HasFace:       r.faces.HasFace(f.Path),
				ArtifactScore: artifact.Prob,
			}
		}(i, frame)
	}

	wg.Wait()
	return scores
}

// BuildReport projects a run into its persisted form. The embedded frame
// sample is capped so the stored payload size stays predictable.
func BuildReport(run *types.PipelineRun, audioPath string, feats *types.AudioFeatures, audioScore float64, combined []float64) types.Report {
	sample := run.UnitScores
	if len(sample) > config.FramesSampleCap {
		sample = sample[:config.FramesSampleCap]
	}

	isFake := 0
	if run.Verdict {
		isFake = 1
	}

	return types.Report{
		Filename:          run.Filename,
		User:              run.User,
		CreatedAt:         time.Now().UTC(),
		AuthenticityScore: run.OverallScore,
		IsFake:            isFake,
		Report: types.ReportBody{
			Audio:         audioPath,
			AudioFeatures: feats,
			AudioScore:    audioScore,
			FramesSample:  sample,
			Heatmap:       run.HeatmapPath,
			HeatmapGrid:   run.GridPath,
			FrameScores:   combined,
		},
	}
}
