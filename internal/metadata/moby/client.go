package moby

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"romdata/internal/logging"
	"romdata/internal/services"
)

// client issues GET requests against the MobyGames v1 API. The API key rides
// along as a query parameter. A timeout earns one retry; a rejected key is a
// configuration error; other API-side failures degrade to an empty result.
// Only an unreachable network is surfaced as unavailable.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func newClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    httpClient,
		logger:  logger.With(logging.String(logging.FieldComponent, "mobygames")),
	}
}

func (c *client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "mobygames", endpoint, "api key is required", nil)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()

	logger := logging.WithContext(ctx, c.logger)
	retriedTimeout := false
	for {
		status, payload, err := c.fetch(ctx, target)
		switch {
		case err == nil && status == http.StatusOK:
			if decodeErr := json.Unmarshal(payload, out); decodeErr != nil {
				logger.WarnContext(ctx, "malformed response",
					logging.String("endpoint", endpoint),
					logging.Error(decodeErr),
				)
			}
			return nil
		case err == nil && status == http.StatusUnauthorized:
			return services.Wrap(services.ErrConfiguration, "mobygames", endpoint, "api key rejected", nil)
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
			return services.Wrap(services.ErrUnavailable, "mobygames", endpoint, "connect", err)
		}
	}
}

func (c *client) fetch(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
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
