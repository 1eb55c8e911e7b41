// Package sink forwards validated submissions to a remote HTTP endpoint.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yyvfuruta/intake/internal/models"
)

// HTTPSink posts each submission as JSON to URL.
type HTTPSink struct {
	URL    string
	Client *http.Client
}

func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{URL: url, Client: client}
}

// Forward sends ev.Submission to the sink. The event id travels in the
// X-Request-ID header. Any non-2xx response is an error.
func (s *HTTPSink) Forward(ctx context.Context, ev *models.SubmissionEvent) error {
	body, err := json.Marshal(ev.Submission)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", ev.ID.String())

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach sink: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sink responded with status %d", resp.StatusCode)
	}
	return nil
}
