package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"romdata/internal/logging"
	"romdata/internal/services"
)

// client issues APIcalypse queries against the IGDB v4 API. One retry is
// spent on an expired token (after a forced refresh) and one on a timeout;
// every other API-side failure degrades to an empty result so a flaky
// provider never fails a whole lookup. Only an unreachable network is
// surfaced as an error.
type client struct {
	baseURL string
	tokens  *TokenManager
	http    *http.Client
	logger  *slog.Logger
}

func newClient(baseURL string, tokens *TokenManager, httpClient *http.Client, logger *slog.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:  tokens,
		http:    httpClient,
		logger:  logger.With(logging.String(logging.FieldComponent, "igdb")),
	}
}

// query posts an APIcalypse query to the endpoint and decodes the JSON array
// response into out. A nil return with an untouched out value means the
// request degraded to an empty result.
func (c *client) query(ctx context.Context, endpoint, body string, out any) error {
	logger := logging.WithContext(ctx, c.logger)
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	refreshed := false
	retriedTimeout := false
	for {
		status, payload, err := c.post(ctx, endpoint, body, token)
		switch {
		case err == nil && status == http.StatusOK:
			if decodeErr := json.Unmarshal(payload, out); decodeErr != nil {
				logger.WarnContext(ctx, "malformed response",
					logging.String("endpoint", endpoint),
					logging.Error(decodeErr),
				)
			}
			return nil
		case err == nil && status == http.StatusUnauthorized && !refreshed:
			refreshed = true
			c.tokens.Invalidate()
			token, err = c.tokens.Token(ctx)
			if err != nil {
				return err
			}
			continue
		case err == nil:
			logger.WarnContext(ctx, "request degraded to empty result",
				logging.String("endpoint", endpoint),
				logging.Int("status", status),
			)
			return nil
		case isTimeout(err) && !retriedTimeout:
			retriedTimeout = true
			logger.DebugContext(ctx, "request timed out, retrying",
				logging.String("endpoint", endpoint),
			)
			continue
		case isTimeout(err):
			logger.WarnContext(ctx, "request timed out twice, returning empty result",
				logging.String("endpoint", endpoint),
			)
			return nil
		default:
			return services.Wrap(services.ErrUnavailable, "igdb", endpoint, "connect", err)
		}
	}
}

func (c *client) post(ctx context.Context, endpoint, body, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewBufferString(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Client-ID", c.tokens.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
