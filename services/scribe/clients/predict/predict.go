// Package predict wraps the clinical entity-extraction model behind a single
// HTTP call. No retries; a failed attempt surfaces immediately.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/medscribe/backend/config/scribe"
	"github.com/medscribe/backend/pkg/logger"
)

const defaultTimeout = 120 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type predictRequest struct {
	Conversation string `json:"conversation"`
}

// Response is the model output: a clinical summary and the structured
// prescription payload. The payload is carried opaquely; the caller decides
// how much of it to interpret.
type Response struct {
	Summary      string          `json:"summary"`
	Prescription json.RawMessage `json:"prescription"`
}

func New(cfg *config.PredictConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict sends the transcription and returns the extracted entities.
func (c *Client) Predict(ctx context.Context, conversation string) (*Response, error) {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(predictRequest{Conversation: conversation})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/predict", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Info("requesting entity extraction", "conversation_len", len(conversation))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("prediction service returned error", "status_code", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	log.Debug("entity extraction completed", "summary_len", len(out.Summary))

	return &out, nil
}
