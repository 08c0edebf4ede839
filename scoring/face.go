package scoring

import (
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/rs/zerolog"

	"cybershield/config"
	"cybershield/logging"
)

// FaceDetector reports whether a frame contains a detectable face. It is a
// prior for the aggregator, independent of fake-probability scoring: absence
// of a face is weak evidence of manipulation or non-human content, not proof.
type FaceDetector struct {
	classifier *pigo.Pigo
	logger     zerolog.Logger
}

// NewFaceDetector loads the pigo cascade from FACE_CASCADE_PATH. When the
// cascade cannot be loaded the detector constructs into a never-available
// state (every frame reports no face) instead of failing process startup.
func NewFaceDetector() *FaceDetector {
	logger := logging.WithComponent("face-detector")
	d := &FaceDetector{logger: logger}

	cascadePath := config.GetEnvOrDefault("FACE_CASCADE_PATH", "./cascade/facefinder")
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cascadePath).
			Msg("face cascade not loaded, face detection disabled")
		return d
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		logger.Warn().Err(err).Msg("face cascade unpack failed, face detection disabled")
		return d
	}

	d.classifier = classifier
	logger.Info().Str("path", cascadePath).Msg("face cascade loaded")
	return d
}

// Available reports whether the cascade loaded.
func (d *FaceDetector) Available() bool {
	return d.classifier != nil
}

// HasFace runs the cascade over the frame. Returns false for unreadable
// frames and when the detector is disabled.
func (d *FaceDetector) HasFace(framePath string) bool {
	if d.classifier == nil {
		return false
	}

	src, err := pigo.GetImage(framePath)
	if err != nil {
		return false
	}

	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	maxSize := rows
	if cols < rows {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     40,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.18)
	for _, det := range dets {
		if det.Q >= 5.0 {
			return true
		}
	}
	return false
}
