package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"cybershield/config"
	"cybershield/logging"
	"cybershield/types"
)

// LabelPredicate decides whether a returned class label is the "fake" class.
// The matching rule is model-specific, so it is injectable rather than a
// hardcoded string compare.
type LabelPredicate func(label string) bool

// DefaultLabelPredicate matches any label containing "fake", case-insensitive.
func DefaultLabelPredicate(label string) bool {
	return strings.Contains(strings.ToLower(label), "fake")
}

// RemoteClassifier scores frames through a hosted inference endpoint. A
// missing token, non-200 response, timeout or network error are all expected
// failure modes and surface as Unavailable, never as an error.
type RemoteClassifier struct {
	endpoint string
	token    string
	client   *http.Client
	isFake   LabelPredicate
	logger   zerolog.Logger
}

// NewRemoteClassifier reads HF_DEEPFAKE_MODEL and HF_TOKEN from the
// environment. Without a token the classifier constructs normally but reports
// every unit as unavailable.
func NewRemoteClassifier() *RemoteClassifier {
	model := config.GetEnvOrDefault("HF_DEEPFAKE_MODEL", "umarbutler/deepfake-detection")
	return &RemoteClassifier{
		endpoint: config.GetEnvOrDefault("HF_ENDPOINT",
			"https://api-inference.huggingface.co/models/"+model),
		token:  strings.TrimSpace(os.Getenv("HF_TOKEN")),
		client: &http.Client{Timeout: config.RemoteTimeout},
		isFake: DefaultLabelPredicate,
		logger: logging.WithComponent("remote-classifier"),
	}
}

// WithLabelPredicate overrides the fake-class matching rule.
func (rc *RemoteClassifier) WithLabelPredicate(p LabelPredicate) *RemoteClassifier {
	rc.isFake = p
	return rc
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score sends the raw frame bytes to the inference endpoint and extracts the
// fake-class probability from the returned label/score list.
func (rc *RemoteClassifier) Score(framePath string) Result {
	if rc.token == "" {
		return Unavailable("no inference token configured")
	}

	imgBytes, err := os.ReadFile(framePath)
	if err != nil {
		return Unavailable(fmt.Sprintf("read frame: %v", err))
	}

	req, err := http.NewRequest(http.MethodPost, rc.endpoint, bytes.NewReader(imgBytes))
	if err != nil {
		return Unavailable(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+rc.token)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := rc.client.Do(req)
	if err != nil {
		rc.logger.Warn().Err(err).Msg("inference call failed")
		return Unavailable(fmt.Sprintf("inference call: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unavailable(fmt.Sprintf("inference status %d", resp.StatusCode))
	}

	labels, err := decodeLabelScores(resp.Body)
	if err != nil || len(labels) == 0 {
		return Unavailable("no labels in inference response")
	}

	return Scored(fakeProbability(labels, rc.isFake), types.MethodRemoteAPI)
}

// decodeLabelScores accepts both the flat and the nested list shapes the
// inference API returns.
func decodeLabelScores(r io.Reader) ([]labelScore, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	return nil, fmt.Errorf("unrecognized inference response shape")
}

// fakeProbability locates the fake-class score via the predicate; if no label
// matches, the maximum score across all labels is used as a conservative
// stand-in.
func fakeProbability(labels []labelScore, isFake LabelPredicate) float64 {
	maxScore := 0.0
	for _, ls := range labels {
		if isFake(ls.Label) {
			return clamp01(ls.Score)
		}
		if ls.Score > maxScore {
			maxScore = ls.Score
		}
	}
	return clamp01(maxScore)
}
