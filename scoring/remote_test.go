package scoring

import (
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cybershield/types"
)

func writeFrame(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClassifier(t *testing.T, endpoint, token string) *RemoteClassifier {
	t.Helper()
	t.Setenv("HF_ENDPOINT", endpoint)
	t.Setenv("HF_TOKEN", token)
	return NewRemoteClassifier()
}

func TestRemoteScoreWithoutTokenUnavailable(t *testing.T) {
	rc := newTestClassifier(t, "http://unused.invalid", "")
	res := rc.Score(writeFrame(t))
	if res.Available {
		t.Errorf("tokenless classifier must be unavailable, got %+v", res)
	}
}

func TestRemoteScoreExtractsFakeLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("bad auth header %q", auth)
		}
		w.Write([]byte(`[{"label":"REAL","score":0.13},{"label":"FAKE","score":0.87}]`))
	}))
	defer srv.Close()

	rc := newTestClassifier(t, srv.URL, "test-token")
	res := rc.Score(writeFrame(t))
	if !res.Available || res.Method != types.MethodRemoteAPI {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Prob != 0.87 {
		t.Errorf("prob = %v, want 0.87", res.Prob)
	}
}

func TestRemoteScoreHandlesNestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[{"label":"deepfake","score":0.42},{"label":"real","score":0.58}]]`))
	}))
	defer srv.Close()

	rc := newTestClassifier(t, srv.URL, "test-token")
	res := rc.Score(writeFrame(t))
	if !res.Available || res.Prob != 0.42 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRemoteScoreErrorStatusUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rc := newTestClassifier(t, srv.URL, "test-token")
	res := rc.Score(writeFrame(t))
	if res.Available {
		t.Errorf("non-200 response must be unavailable, got %+v", res)
	}
	if res.Reason == "" {
		t.Error("unavailable result must carry a reason")
	}
}

func TestRemoteScoreCustomPredicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"synthetic","score":0.77},{"label":"authentic","score":0.23}]`))
	}))
	defer srv.Close()

	rc := newTestClassifier(t, srv.URL, "test-token").
		WithLabelPredicate(func(label string) bool { return strings.Contains(label, "synthetic") })
	res := rc.Score(writeFrame(t))
	if res.Prob != 0.77 {
		t.Errorf("prob = %v, want 0.77 via custom predicate", res.Prob)
	}
}

func TestFakeProbabilityFallsBackToMax(t *testing.T) {
	labels := []labelScore{
		{Label: "cat", Score: 0.3},
		{Label: "dog", Score: 0.6},
	}
	if got := fakeProbability(labels, DefaultLabelPredicate); got != 0.6 {
		t.Errorf("got %v, want max-score fallback 0.6", got)
	}
}

func TestDecodeLabelScoresRejectsGarbage(t *testing.T) {
	if _, err := decodeLabelScores(strings.NewReader(`{"error":"loading"}`)); err == nil {
		t.Error("object response must be rejected")
	}
	if _, err := decodeLabelScores(strings.NewReader(`not json`)); err == nil {
		t.Error("non-JSON response must be rejected")
	}
}
