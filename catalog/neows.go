package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/signalsfoundry/asteroid-defense/core"
	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/model"
)

const (
	// DefaultFeedURL is the NASA NeoWs feed endpoint.
	DefaultFeedURL = "https://api.nasa.gov/neo/rest/v1/feed"
	// MaxFeedDays is the longest range the feed accepts.
	MaxFeedDays = 7
	// DateLayout is the feed's date format.
	DateLayout = "2006-01-02"

	defaultMaxTries = 4
	maxFeedBytes    = 8 << 20
)

var (
	// ErrDateRange indicates an empty or too-long query range.
	ErrDateRange = errors.New("invalid date range")
	// ErrUpstream indicates the feed answered with a non-retryable error.
	ErrUpstream = errors.New("catalog upstream error")
)

// Source supplies close-approach candidates for a date range, in feed
// order, capped at limit when limit > 0.
type Source interface {
	Candidates(ctx context.Context, start, end time.Time, limit int) ([]model.Record, error)
}

// FetchObserver receives fetch outcomes and retry notices.
// observability.CatalogCollector satisfies it.
type FetchObserver interface {
	ObserveFetch(d time.Duration, candidates int, err error)
	IncRetries()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithBaseURL points the client at another feed endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = u
		}
	}
}

// WithBackOff replaces the retry policy.
func WithBackOff(b backoff.BackOff, maxTries uint) Option {
	return func(cl *Client) {
		if b != nil {
			cl.backoff = func() backoff.BackOff { return b }
		}
		if maxTries > 0 {
			cl.maxTries = maxTries
		}
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(l logging.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// WithObserver attaches a fetch observer.
func WithObserver(o FetchObserver) Option {
	return func(cl *Client) {
		cl.observer = o
	}
}

// Client queries the NeoWs feed.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	backoff  func() backoff.BackOff
	maxTries uint
	log      logging.Logger
	observer FetchObserver
}

// NewClient returns a feed client using apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultFeedURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		backoff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		maxTries: defaultMaxTries,
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateRange checks start <= end and that the range spans at most
// MaxFeedDays.
func ValidateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", ErrDateRange, end.Format(DateLayout), start.Format(DateLayout))
	}
	if days := int(end.Sub(start).Hours() / 24); days > MaxFeedDays {
		return fmt.Errorf("%w: %d days exceeds %d", ErrDateRange, days, MaxFeedDays)
	}
	return nil
}

// Candidates fetches the feed for [start, end] and flattens it into
// records ordered by approach date.
func (c *Client) Candidates(ctx context.Context, start, end time.Time, limit int) ([]model.Record, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("start_date", start.Format(DateLayout))
	q.Set("end_date", end.Format(DateLayout))
	q.Set("api_key", c.apiKey)
	target := c.baseURL + "?" + q.Encode()

	began := time.Now()
	records, err := c.candidates(ctx, target, limit)
	if c.observer != nil {
		c.observer.ObserveFetch(time.Since(began), len(records), err)
	}
	return records, err
}

func (c *Client) candidates(ctx context.Context, target string, limit int) ([]model.Record, error) {
	feed, err := backoff.Retry(ctx, func() (*feedResponse, error) {
		return c.fetch(ctx, target)
	},
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if c.observer != nil {
				c.observer.IncRetries()
			}
			c.log.Warn(ctx, "catalog fetch failed, retrying",
				logging.String("error", err.Error()),
				logging.Any("wait", wait),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	records := feed.records(ctx, c.log)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, target string) (*feedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
	}

	var feed feedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&feed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decode feed: %v", ErrUpstream, err))
	}
	return &feed, nil
}

type feedResponse struct {
	ElementCount     int                  `json:"element_count"`
	NearEarthObjects map[string][]feedNEO `json:"near_earth_objects"`
}

type feedNEO struct {
	Name              string   `json:"name"`
	AbsoluteMagnitude *float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter struct {
		Kilometers struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	IsHazardous       bool `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []struct {
		Date             string `json:"close_approach_date"`
		RelativeVelocity struct {
			KmPerSecond string `json:"kilometers_per_second"`
		} `json:"relative_velocity"`
		MissDistance struct {
			Kilometers string `json:"kilometers"`
		} `json:"miss_distance"`
	} `json:"close_approach_data"`
}

// records flattens the per-day lists. Days are visited in date order and
// objects without close-approach data are skipped. An unparseable velocity
// falls back to core.DefaultVelocityKmS and an unparseable miss distance
// to 0.
func (f *feedResponse) records(ctx context.Context, log logging.Logger) []model.Record {
	days := make([]string, 0, len(f.NearEarthObjects))
	for d := range f.NearEarthObjects {
		days = append(days, d)
	}
	sort.Strings(days)

	var out []model.Record
	for _, d := range days {
		for _, neo := range f.NearEarthObjects[d] {
			if len(neo.CloseApproachData) == 0 {
				continue
			}
			ca := neo.CloseApproachData[0]
			velocity, err := strconv.ParseFloat(ca.RelativeVelocity.KmPerSecond, 64)
			if err != nil || !(velocity > 0) {
				log.Warn(ctx, "catalog record velocity defaulted",
					logging.String("name", neo.Name),
					logging.String("value", ca.RelativeVelocity.KmPerSecond),
				)
				velocity = core.DefaultVelocityKmS
			}
			miss, err := strconv.ParseFloat(ca.MissDistance.Kilometers, 64)
			if err != nil || miss < 0 {
				log.Warn(ctx, "catalog record miss distance defaulted",
					logging.String("name", neo.Name),
					logging.String("value", ca.MissDistance.Kilometers),
				)
				miss = 0
			}
			out = append(out, model.Record{
				Name:              neo.Name,
				DiameterMinKm:     neo.EstimatedDiameter.Kilometers.Min,
				DiameterMaxKm:     neo.EstimatedDiameter.Kilometers.Max,
				AbsoluteMagnitude: neo.AbsoluteMagnitude,
				IsHazardous:       neo.IsHazardous,
				VelocityKmS:       velocity,
				MissDistanceKm:    miss,
				CloseApproachDate: ca.Date,
			})
		}
	}
	if f.ElementCount > 0 && len(out) > f.ElementCount {
		out = out[:f.ElementCount]
	}
	return out
}
