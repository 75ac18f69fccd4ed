package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/logging"
)

// PrometheusClient executes instant queries against a Prometheus server.
type PrometheusClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPrometheusClient creates a Prometheus executor for the given base URL.
func NewPrometheusClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PrometheusClient {
	return &PrometheusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("prometheus"),
	}
}

// Query forwards an instant query to /api/v1/query and returns the raw
// response body.
func (c *PrometheusClient) Query(ctx context.Context, query string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/query", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build prometheus request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prometheus response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Prometheus returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.String("query", logging.TruncateQuery(query)))
		return nil, fmt.Errorf("prometheus returned status %d", resp.StatusCode)
	}

	return json.RawMessage(body), nil
}

// Ensure PrometheusClient implements Executor at compile time.
var _ Executor = (*PrometheusClient)(nil)
