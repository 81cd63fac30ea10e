// Package speech wraps the external speech-to-text service. The service is
// asynchronous: a transcript job is submitted for an audio URL and polled
// until it completes or reports an error. One call here is one attempt; the
// client never retries a failed job.
package speech

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

const (
	defaultTimeout      = 180 * time.Second
	defaultPollInterval = 3 * time.Second
)

type Client struct {
	baseURL      string
	apiKey       string
	timeout      time.Duration
	pollInterval time.Duration
	httpClient   *http.Client
}

// Result is a completed transcript.
type Result struct {
	ID   string
	Text string
}

type submitRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResource struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusError      = "error"
)

func New(cfg *config.SpeechConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pollInterval := time.Duration(cfg.PollIntervalSec) * time.Second
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &Client{
		baseURL:      cfg.URL,
		apiKey:       cfg.APIKey,
		timeout:      timeout,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Transcribe submits the audio at audioURL and polls until the transcript
// completes. The whole exchange is bounded by the configured timeout.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*Result, error) {
	log := logger.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Info("submitting transcript job", "audio_url", audioURL)
	job, err := c.submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	log.Debug("transcript job submitted", "transcript_id", job.ID, "status", job.Status)

	for {
		switch job.Status {
		case statusCompleted:
			log.Info("transcript completed", "transcript_id", job.ID)
			return &Result{ID: job.ID, Text: job.Text}, nil
		case statusError:
			log.Error("transcript failed", "transcript_id", job.ID, "upstream_error", job.Error)
			return nil, fmt.Errorf("transcription failed: %s", job.Error)
		case statusQueued, statusProcessing:
		default:
			return nil, fmt.Errorf("unexpected transcript status %q", job.Status)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for transcript %s: %w", job.ID, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		job, err = c.get(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		log.Debug("polled transcript", "transcript_id", job.ID, "status", job.Status)
	}
}

func (c *Client) submit(ctx context.Context, audioURL string) (*transcriptResource, error) {
	body, err := json.Marshal(submitRequest{AudioURL: audioURL})
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}

	return c.send(req)
}

func (c *Client) get(ctx context.Context, id string) (*transcriptResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}

	return c.send(req)
}

func (c *Client) send(req *http.Request) (*transcriptResource, error) {
	req.Header.Set("Authorization", c.apiKey)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, string(body))
	}

	var res transcriptResource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode speech response: %w", err)
	}

	return &res, nil
}
