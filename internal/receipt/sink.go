package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/noah-isme/backend-pos/internal/resilience"
)

// Sink delivers a rendered receipt to wherever it gets printed.
type Sink interface {
	Print(ctx context.Context, body []byte) error
}

// HTTPSink POSTs the rendered receipt to the printer bridge, a small LAN
// service in front of the thermal printer. Retries and circuit breaking sit
// in the resilience client; the bridge is the flakiest dependency in the
// whole system.
type HTTPSink struct {
	URL    string
	Client *resilience.HTTPClient
}

func (s *HTTPSink) Print(ctx context.Context, body []byte) error {
	if s == nil || s.Client == nil {
		return errors.New("printer sink not configured")
	}
	if s.URL == "" {
		return errors.New("printer url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build printer request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("deliver receipt: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("printer bridge responded %s", resp.Status)
	}
	return nil
}
