// Package transport holds the HTTP plumbing shared by the AI service
// adapters and maps transport failures onto domain errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx response.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Service, e.Code, e.Body)
}

// NewClient returns an HTTP client. A zero timeout leaves requests bounded
// only by their context.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// PostJSON sends in as JSON and decodes a 2xx response into out.
func PostJSON(ctx context.Context, client *http.Client, service, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, Classify(ctx, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(service, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %w", service, domain.ErrMalformedResponse, err)
	}
	return nil
}

// Get issues a GET and discards a 2xx body. It backs health checks.
func Get(ctx context.Context, client *http.Client, service, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, Classify(ctx, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(service, resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func checkStatus(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Service: service,
		Code:    resp.StatusCode,
		Body:    strings.TrimSpace(string(body)),
	}
}

// Classify wraps a failed request with the matching domain error.
// Caller cancellation wins over everything else.
func Classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	case IsTimeout(err):
		return fmt.Errorf("%w: %w", domain.ErrGenerationTimeout, err)
	case IsConnectionRefused(err):
		return fmt.Errorf("%w: %w", domain.ErrConnectionRefused, err)
	default:
		return err
	}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectionRefused reports whether nothing was listening at the address.
func IsConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout()
}
