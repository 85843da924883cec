package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/astowny/monteur-ia/internal/transcript"
)

const (
	DefaultAPITimeout = 30 * time.Second
	apiConfidence     = 0.85
)

// APIClient calls a remote whisper-compatible HTTP endpoint.
type APIClient struct {
	url    string
	apiKey string
	client *http.Client
	retry  RetryConfig
}

type APIOption func(*APIClient)

func WithTimeout(d time.Duration) APIOption {
	return func(c *APIClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithHTTPClient(client *http.Client) APIOption {
	return func(c *APIClient) {
		if client != nil {
			c.client = client
		}
	}
}

func WithRetry(cfg RetryConfig) APIOption {
	return func(c *APIClient) {
		c.retry = cfg
	}
}

func NewAPIClient(url, apiKey string, opts ...APIOption) *APIClient {
	c := &APIClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: DefaultAPITimeout},
		retry:  RetryConfig{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiRequest struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language"`
}

type apiSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Speaker    string   `json:"speaker"`
}

type apiResponse struct {
	Segments []apiSegment `json:"segments"`
}

func (c *APIClient) Transcribe(ctx context.Context, mediaPath, language string) ([]transcript.Segment, error) {
	if c.url == "" {
		return nil, fmt.Errorf("whisper api url is not configured")
	}
	body, err := json.Marshal(apiRequest{AudioPath: mediaPath, Language: language})
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	err = Retry(ctx, c.retry, func() error {
		resp = apiResponse{}
		return c.post(ctx, body, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("whisper api failed after retries: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		out := transcript.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Text:       seg.Text,
			Confidence: apiConfidence,
			Speaker:    seg.Speaker,
		}
		if seg.Confidence != nil {
			out.Confidence = *seg.Confidence
		}
		if out.Speaker == "" {
			out.Speaker = defaultSpeaker
		}
		segments = append(segments, out)
	}
	return segments, nil
}

func (c *APIClient) post(ctx context.Context, body []byte, into *apiResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		err := fmt.Errorf("whisper api status %d: %s", res.StatusCode, bytes.TrimSpace(msg))
		if res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
			return permanent(err)
		}
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(into); err != nil {
		return fmt.Errorf("decode whisper api response: %w", err)
	}
	return nil
}
