package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cybershield/dedupe"
	"cybershield/logging"
	"cybershield/media"
	"cybershield/pipeline"
	"cybershield/scoring"
	"cybershield/shared/kafka"
	"cybershield/storage"
	"cybershield/types"
)

// AnalyzeController exposes the media analysis endpoints. Video analysis runs
// in the background (in-process or via Kafka when a producer is configured);
// image and audio analysis are synchronous, lighter-weight paths with no
// persistence.
type AnalyzeController struct {
	runner     *pipeline.Runner
	uploads    *storage.Store
	resolver   *scoring.Resolver
	heuristic  *scoring.HeuristicScorer
	faces      *scoring.FaceDetector
	audio      *scoring.AudioScorer
	decomposer media.Decomposer
	producer   *kafka.Producer
	dupes      *dedupe.Filter
	logger     zerolog.Logger
}

// NewAnalyzeController wires the controller. producer may be nil, in which
// case video runs execute in-process.
func NewAnalyzeController(
	runner *pipeline.Runner,
	uploads *storage.Store,
	resolver *scoring.Resolver,
	heuristic *scoring.HeuristicScorer,
	faces *scoring.FaceDetector,
	audio *scoring.AudioScorer,
	decomposer media.Decomposer,
	producer *kafka.Producer,
	dupes *dedupe.Filter,
) *AnalyzeController {
	return &AnalyzeController{
		runner:     runner,
		uploads:    uploads,
		resolver:   resolver,
		heuristic:  heuristic,
		faces:      faces,
		audio:      audio,
		decomposer: decomposer,
		producer:   producer,
		dupes:      dupes,
		logger:     logging.WithComponent("analyze-api"),
	}
}

// Register registers the analyze routes.
func (ac *AnalyzeController) Register(r *gin.Engine) {
	g := r.Group("/api/analyze")
	g.POST("/video", ac.handleAnalyzeVideo)
	g.POST("/image", ac.handleAnalyzeImage)
	g.POST("/audio", ac.handleAnalyzeAudio)
}

// UploadResponse acknowledges a background video run. Duplicate is advisory:
// the bloom check can false-positive, so the run still executes.
type UploadResponse struct {
	Message   string `json:"message"`
	RunID     string `json:"run_id"`
	Path      string `json:"path"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// handleAnalyzeVideo accepts a video upload and starts the pipeline in the
// background. The caller gets an immediate acknowledgment; results land in
// the report history.
func (ac *AnalyzeController) handleAnalyzeVideo(c *gin.Context) {
	path, filename, ok := ac.saveUpload(c)
	if !ok {
		return
	}
	user := c.PostForm("user")

	duplicate := false
	if hash, err := dedupe.FileHash(path); err == nil {
		duplicate = ac.dupes.Seen(c.Request.Context(), hash)
		ac.dupes.Mark(c.Request.Context(), hash)
	}

	run := ac.runner.NewRun(path, filename, user)

	if ac.producer != nil {
		req := types.AnalyzeRequest{RunID: run.ID, Path: path, Filename: filename, User: user}
		if err := ac.producer.Publish(run.ID, req); err != nil {
			ac.logger.Error().Err(err).Str("run", run.ID).Msg("enqueue failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis queue unavailable"})
			return
		}
	} else {
		go func() {
			if err := ac.runner.Run(context.Background(), run); err != nil {
				ac.logger.Error().Err(err).Str("run", run.ID).Msg("background run failed")
			}
		}()
	}

	c.JSON(http.StatusAccepted, UploadResponse{
		Message:   "Uploaded and processing in background",
		RunID:     run.ID,
		Path:      path,
		Duplicate: duplicate,
	})
}

// ImageScoreResponse is the synchronous single-image result.
type ImageScoreResponse struct {
	FakeProb      float64      `json:"fake_prob"`
	Method        types.Method `json:"method"`
	HasFace       bool         `json:"has_face"`
	ArtifactScore float64      `json:"artifact_score"`
	CombinedScore float64      `json:"combined_score"`
}

func (ac *AnalyzeController) handleAnalyzeImage(c *gin.Context) {
	path, _, ok := ac.saveUpload(c)
	if !ok {
		return
	}

	resolved := ac.resolver.Resolve(path)
	artifact := ac.heuristic.Score(path)
	hasFace := ac.faces.HasFace(path)

	c.JSON(http.StatusOK, ImageScoreResponse{
		FakeProb:      resolved.Prob,
		Method:        resolved.Method,
		HasFace:       hasFace,
		ArtifactScore: artifact.Prob,
		CombinedScore: pipeline.CombineFrame(resolved.Prob, artifact.Prob, hasFace),
	})
}

// AudioScoreResponse is the synchronous single-track result.
type AudioScoreResponse struct {
	Score    float64              `json:"score"`
	Method   types.Method         `json:"method"`
	Features *types.AudioFeatures `json:"features,omitempty"`
}

func (ac *AnalyzeController) handleAnalyzeAudio(c *gin.Context) {
	path, _, ok := ac.saveUpload(c)
	if !ok {
		return
	}

	// Normalize whatever container was uploaded to the mono 16kHz track the
	// feature extractor expects.
	wavPath := ac.decomposer.ExtractAudio(path, path+".wav")
	if wavPath == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no decodable audio track in upload"})
		return
	}

	feats, res := ac.audio.Analyze(wavPath)
	if !res.Available {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "audio analysis failed: " + res.Reason})
		return
	}

	c.JSON(http.StatusOK, AudioScoreResponse{
		Score:    res.Prob,
		Method:   res.Method,
		Features: feats,
	})
}

// saveUpload streams the multipart "file" field to durable storage. On
// failure it writes the client-facing error itself and returns ok=false.
func (ac *AnalyzeController) saveUpload(c *gin.Context) (path, filename string, ok bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field: " + err.Error()})
		return "", "", false
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload: " + err.Error()})
		return "", "", false
	}
	defer src.Close()

	path, err = ac.uploads.SaveUpload(src, header.Filename)
	if err != nil {
		ac.logger.Error().Err(err).Msg("upload write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return "", "", false
	}
	return path, filepath.Base(header.Filename), true
}
