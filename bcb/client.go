/*
Package bcb is a client for the Banco Central do Brasil SGS time-series API.

PURPOSE:
  Fetches the latest observation of a published series. The planner uses two:
    - 432:   Selic target rate, % per year
    - 13522: IPCA accumulated over 12 months, %

ENDPOINT:
  GET {base}/dados/serie/bcdata.sgs.{code}/dados/ultimos/1?formato=json

  [{"data": "17/09/2025", "valor": "15.00"}]

VALUES:
  "valor" is a percentage string. It is parsed with decimal so that "10.50"
  stays exactly 10.50; conversion to a fraction happens in the planning package.

ERRORS:
  *StatusError          Non-2xx response
  ErrNoObservations     Empty array
  ErrMalformedResponse  Body is not the expected JSON shape, or value/date unparsable

SEE ALSO:
  - indicators/service.go: Combines the two series into yield figures
*/
package bcb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SeriesCode identifies an SGS series.
type SeriesCode int

const (
	SeriesSelic   SeriesCode = 432
	SeriesIPCA12M SeriesCode = 13522
)

const (
	DefaultBaseURL        = "https://api.bcb.gov.br"
	DefaultTimeout        = 10 * time.Second
	observationDateLayout = "02/01/2006"
)

func (c SeriesCode) String() string {
	switch c {
	case SeriesSelic:
		return "selic"
	case SeriesIPCA12M:
		return "ipca_12m"
	default:
		return fmt.Sprintf("sgs_%d", int(c))
	}
}

var (
	// ErrNoObservations is returned when the series has no data points.
	ErrNoObservations = errors.New("series returned no observations")

	// ErrMalformedResponse is returned when the payload cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed series response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Series     SeriesCode
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sgs series %d: unexpected status %d: %s", int(e.Series), e.StatusCode, e.Body)
}

// Observation is a single published data point.
type Observation struct {
	Series SeriesCode
	Date   time.Time
	Value  decimal.Decimal // Percent, as published
}

type rawObservation struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// Client is an SGS API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new SGS client. An empty baseURL uses DefaultBaseURL;
// a non-positive timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("client", "bcb").Logger(),
	}
}

// Latest fetches the most recent observation of a series.
func (c *Client) Latest(ctx context.Context, series SeriesCode) (*Observation, error) {
	url := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados/ultimos/1?formato=json", c.baseURL, int(series))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series %d: %w", int(series), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read series %d: %w", int(series), err)
	}

	c.log.Debug().
		Str("series", series.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched series")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Series: series, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	return parseLatest(series, body)
}

func parseLatest(series SeriesCode, body []byte) (*Observation, error) {
	var raw []rawObservation
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: series %d: %v", ErrMalformedResponse, int(series), err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("series %d: %w", int(series), ErrNoObservations)
	}

	// The endpoint returns oldest first; with ultimos/1 there is one element.
	latest := raw[len(raw)-1]

	value, err := decimal.NewFromString(strings.TrimSpace(latest.Valor))
	if err != nil {
		return nil, fmt.Errorf("%w: series %d: value %q: %v", ErrMalformedResponse, int(series), latest.Valor, err)
	}
	date, err := time.Parse(observationDateLayout, strings.TrimSpace(latest.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: series %d: date %q: %v", ErrMalformedResponse, int(series), latest.Data, err)
	}

	return &Observation{Series: series, Date: date, Value: value}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
