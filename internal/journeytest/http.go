package journeytest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairtouch/fairtouch/pkg/logger"
	"golang.org/x/time/rate"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitJourneys submits journeys concurrently through a shared rate
// limiter. Responses are collected for law verification.
func submitJourneys(ctx context.Context, config *Config, journeys []Journey, stats *Stats) ([]Attribution, error) {
	logger.Get().Info(ctx, "submitting journeys",
		logger.Int("count", len(journeys)),
		logger.Int("workers", config.Workers),
		logger.Float64("ratePerSecond", config.RatePerSecond))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/attributions"
	limiter := rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Workers)

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	journeyChan := make(chan Journey, config.Workers*2)
	resultChan := make(chan Attribution, len(journeys))
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for journey := range journeyChan {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				attribution, err := submitSingleJourney(ctx, client, url, journey)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "journey submission failed",
							logger.String("outcomeID", journey.OutcomeID),
							logger.Error(err))
					}
					continue
				}

				atomic.AddInt64(&successful, 1)
				resultChan <- attribution
			}
		}()
	}

	go func() {
		defer close(journeyChan)
		for _, journey := range journeys {
			select {
			case <-ctx.Done():
				return
			case journeyChan <- journey:
			}
		}
	}()

	wg.Wait()
	close(resultChan)

	attributions := make([]Attribution, 0, len(journeys))
	for attribution := range resultChan {
		attributions = append(attributions, attribution)
	}

	stats.JourneysSubmitted = int(atomic.LoadInt64(&submitted))
	stats.JourneysSuccessful = int(atomic.LoadInt64(&successful))
	stats.JourneysFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "journey submission completed",
		logger.Int("successful", stats.JourneysSuccessful),
		logger.Int("failed", stats.JourneysFailed))

	return attributions, nil
}

// submitSingleJourney posts one journey and decodes the attribution.
func submitSingleJourney(ctx context.Context, client *HTTPClient, url string, journey Journey) (Attribution, error) {
	resp, err := client.Post(ctx, url, journey)
	if err != nil {
		return Attribution{}, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Attribution{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Attribution{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var attribution Attribution
	if err := json.Unmarshal(body, &attribution); err != nil {
		return Attribution{}, fmt.Errorf("failed to decode attribution: %w", err)
	}
	return attribution, nil
}
