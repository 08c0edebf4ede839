package scoring

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/fourier"

	"cybershield/types"
)

// MFCC extraction parameters for 16kHz speech-band audio.
const (
	mfccFrameSize  = 400 // 25ms at 16kHz
	mfccHopSize    = 160 // 10ms at 16kHz
	mfccFFTSize    = 512
	mfccNumFilters = 26
	mfccNumCoeffs  = 13
)

// AudioScorer computes waveform features (energy, zero-crossing rate, mean
// MFCCs) and a bounded heuristic fake indicator. The features are report-only
// evidence; the indicator is not folded into the primary authenticity score.
type AudioScorer struct{}

func NewAudioScorer() *AudioScorer {
	return &AudioScorer{}
}

// Analyze loads a WAV track and returns its feature summary plus the
// heuristic score. A missing or undecodable track yields an unavailable
// result, never an error.
func (a *AudioScorer) Analyze(wavPath string) (*types.AudioFeatures, Result) {
	samples, _, err := loadWAV(wavPath)
	if err != nil || len(samples) == 0 {
		return nil, Unavailable(fmt.Sprintf("audio load: %v", err))
	}

	feats := &types.AudioFeatures{
		Energy:   meanEnergy(samples),
		ZCR:      zeroCrossingRate(samples),
		MFCCMean: mfccMeans(samples),
	}
	return feats, Scored(audioFakeIndicator(feats), types.MethodAudioHeuristic)
}

// loadWAV decodes a PCM WAV file into normalized [-1,1] samples.
func loadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("empty pcm buffer")
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float64(s) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

func meanEnergy(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return sum / float64(len(samples))
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// mfccMeans returns the per-coefficient mean of the MFCCs across all frames.
func mfccMeans(samples []float64) []float64 {
	means := make([]float64, mfccNumCoeffs)
	if len(samples) < mfccFrameSize {
		return means
	}

	fft := fourier.NewFFT(mfccFFTSize)
	filterbank := melFilterbank(mfccNumFilters, mfccFFTSize, 16000)
	window := hannWindow(mfccFrameSize)

	frameCount := 0
	frame := make([]float64, mfccFFTSize)
	for start := 0; start+mfccFrameSize <= len(samples); start += mfccHopSize {
		for i := 0; i < mfccFrameSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		for i := mfccFrameSize; i < mfccFFTSize; i++ {
			frame[i] = 0
		}

		spectrum := fft.Coefficients(nil, frame)
		power := make([]float64, len(spectrum))
		for i, c := range spectrum {
			power[i] = real(c)*real(c) + imag(c)*imag(c)
		}

		logMel := make([]float64, mfccNumFilters)
		for m, filter := range filterbank {
			e := 0.0
			for i, w := range filter {
				e += w * power[i]
			}
			logMel[m] = math.Log(e + 1e-10)
		}

		for k := 0; k < mfccNumCoeffs; k++ {
			means[k] += dctII(logMel, k)
		}
		frameCount++
	}

	if frameCount > 0 {
		for k := range means {
			means[k] /= float64(frameCount)
		}
	}
	return means
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// dctII computes the k-th DCT-II coefficient of x.
func dctII(x []float64, k int) float64 {
	n := len(x)
	sum := 0.0
	for i, v := range x {
		sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
	}
	return sum
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank builds triangular filters over the FFT bins, spaced evenly on
// the mel scale between 0Hz and Nyquist.
func melFilterbank(numFilters, fftSize, sampleRate int) [][]float64 {
	numBins := fftSize/2 + 1
	low := hzToMel(0)
	high := hzToMel(float64(sampleRate) / 2)

	centers := make([]int, numFilters+2)
	for i := range centers {
		mel := low + (high-low)*float64(i)/float64(numFilters+1)
		hz := melToHz(mel)
		centers[i] = int(math.Floor((float64(fftSize) + 1) * hz / float64(sampleRate)))
		if centers[i] >= numBins {
			centers[i] = numBins - 1
		}
	}

	filters := make([][]float64, numFilters)
	for m := 1; m <= numFilters; m++ {
		filter := make([]float64, numBins)
		left, center, right := centers[m-1], centers[m], centers[m+1]
		for bin := left; bin < center; bin++ {
			if center > left {
				filter[bin] = float64(bin-left) / float64(center-left)
			}
		}
		for bin := center; bin <= right && bin < numBins; bin++ {
			if right > center {
				filter[bin] = float64(right-bin) / float64(right-center)
			}
		}
		filters[m-1] = filter
	}
	return filters
}

// audioFakeIndicator maps features into a bounded suspicion score. Unnaturally
// flat, low-energy audio scores higher. Purely informational.
func audioFakeIndicator(f *types.AudioFeatures) float64 {
	energyTerm := 1 - math.Tanh(f.Energy*25)
	zcrTerm := 1 - math.Min(1, f.ZCR*8)
	return clamp01(0.6*energyTerm + 0.4*zcrTerm)
}
