// Package classifier adapts a local inference sidecar to the fixed
// Predict(text) -> (label, confidence) interface. The JSON contract is
// pinned here at construction; nothing is discovered per call.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/playdex/playdex-chat/internal/domain"
)

type HTTPClassifier struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func (c *HTTPClassifier) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return domain.Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return domain.Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("classifier request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return domain.Prediction{}, fmt.Errorf("classifier returned status %d", res.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return domain.Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}

	return domain.Prediction{Label: out.Label, Confidence: out.Confidence}, nil
}
