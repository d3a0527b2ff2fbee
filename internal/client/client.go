package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/roomstay/booking-orders/internal/domain"
)

// ServiceConfig describes one dependent service: where it lives and how long
// a single call may take. Resolved once at startup, never from globals.
type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// doJSON issues one outbound call with the per-call deadline and decodes the
// JSON response into out. Error mapping is uniform for every dependent
// service: transport failures, timeouts and 5xx responses become
// ErrDependencyUnavailable (the caller decides whether a fallback applies),
// 404 becomes ErrNotFound and any other 4xx becomes ErrInvalidInput.
func doJSON(ctx context.Context, hc *http.Client, timeout time.Duration, method, url string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(domain.ErrDependencyUnavailable, "%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(domain.ErrNotFound, "%s %s", method, url)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return errors.Wrapf(domain.ErrInvalidInput, "%s %s: status %d", method, url, resp.StatusCode)
	case resp.StatusCode >= 500:
		return errors.Wrapf(domain.ErrDependencyUnavailable, "%s %s: status %d", method, url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(domain.ErrDependencyUnavailable, "%s %s: decode: %v", method, url, err)
	}
	return nil
}

// fallbackApplies reports whether an outbound call error is the kind a typed
// fallback value substitutes for. Client errors (4xx) are surfaced instead.
func fallbackApplies(err error) bool {
	return errors.Is(err, domain.ErrDependencyUnavailable)
}
