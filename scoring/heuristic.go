package scoring

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"cybershield/config"
	"cybershield/types"
)

// HeuristicScorer computes a no-reference sharpness statistic (variance of the
// Laplacian edge response) as a fake-probability proxy. Deterministic and
// offline: this is the guaranteed-success tier that terminates the fallback
// chain.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score maps Laplacian variance into [0,1] via 1 - tanh(var/scale). Overly
// smooth frames (low edge variance) score closer to 1. An undecodable frame
// scores the neutral 0.5, never an error.
func (h *HeuristicScorer) Score(framePath string) Result {
	gray, w, hgt, err := loadGrayscale(framePath)
	if err != nil {
		return Scored(0.5, types.MethodHeuristic)
	}

	variance := laplacianVariance(gray, w, hgt)
	score := clamp01(1 - math.Tanh(variance/config.LaplacianScale))
	return Scored(score, types.MethodHeuristic)
}

// loadGrayscale decodes an image file into a flat luminance buffer.
func loadGrayscale(path string) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Rec. 601 luma, 16-bit channels scaled to 8-bit range
			gray[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
	}
	return gray, w, h, nil
}

// laplacianVariance convolves the 4-neighbor Laplacian kernel over the image
// interior and returns the variance of the response.
func laplacianVariance(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	sum := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := gray[(y-1)*w+x] + gray[(y+1)*w+x] +
				gray[y*w+x-1] + gray[y*w+x+1] - 4*gray[y*w+x]
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	variance := 0.0
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(n)
}
