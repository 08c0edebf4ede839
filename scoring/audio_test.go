package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeSineWAV writes one second of a mono 16kHz 16-bit sine tone.
func writeSineWAV(t *testing.T, freq float64) string {
	t.Helper()
	const sampleRate = 16000

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, sampleRate)
	for i := range data {
		data[i] = int(0.5 * 32767 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav encoder: %v", err)
	}
	return path
}

func TestAnalyzeSineTone(t *testing.T) {
	const freq = 440.0
	path := writeSineWAV(t, freq)

	feats, res := NewAudioScorer().Analyze(path)
	if !res.Available {
		t.Fatalf("expected available result, got reason %q", res.Reason)
	}
	if res.Method != "audio_heuristic" {
		t.Errorf("method = %q, want audio_heuristic", res.Method)
	}
	if feats == nil {
		t.Fatal("expected features")
	}

	// a sine crosses zero twice per period
	wantZCR := 2 * freq / 16000
	if math.Abs(feats.ZCR-wantZCR) > 0.01 {
		t.Errorf("ZCR = %v, want ~%v", feats.ZCR, wantZCR)
	}

	// mean energy of a 0.5-amplitude sine is ~0.125
	if feats.Energy < 0.1 || feats.Energy > 0.15 {
		t.Errorf("energy = %v, want ~0.125", feats.Energy)
	}

	if len(feats.MFCCMean) != 13 {
		t.Errorf("got %d MFCC coefficients, want 13", len(feats.MFCCMean))
	}

	if res.Prob < 0 || res.Prob > 1 {
		t.Errorf("indicator out of [0,1]: %v", res.Prob)
	}
}

func TestAnalyzeMissingFileUnavailable(t *testing.T) {
	feats, res := NewAudioScorer().Analyze(filepath.Join(t.TempDir(), "missing.wav"))
	if res.Available {
		t.Error("missing track must be unavailable")
	}
	if res.Reason == "" {
		t.Error("unavailable result must carry a reason")
	}
	if feats != nil {
		t.Error("no features expected for a missing track")
	}
}

func TestAnalyzeGarbageFileUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, res := NewAudioScorer().Analyze(path)
	if res.Available {
		t.Error("undecodable track must be unavailable")
	}
}

func TestZeroCrossingRateEdgeCases(t *testing.T) {
	if got := zeroCrossingRate(nil); got != 0 {
		t.Errorf("zcr of empty input = %v, want 0", got)
	}
	if got := zeroCrossingRate([]float64{1, -1, 1, -1}); math.Abs(got-1) > 1e-9 {
		t.Errorf("zcr of alternating signal = %v, want 1", got)
	}
}
