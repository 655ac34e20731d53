package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/xpts/pkg/logger"
	"github.com/okian/xpts/pkg/metrics"
	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public FPL API root.
const DefaultBaseURL = "https://fantasy.premierleague.com/api"

const (
	defaultRPS       = 5
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "xpts/1.0"
	maxBodyBytes     = 32 << 20
)

// Fetch outcomes recorded in metrics.
const (
	outcomeCache = "cache"
	outcomeOK    = "ok"
	outcomeError = "error"
)

// FetchOption applies a configuration option to the Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) FetchOption {
	return func(f *Fetcher) {
		if u != "" {
			f.baseURL = u
		}
	}
}

// WithRate limits requests to rps per second. Non-positive values disable
// throttling.
func WithRate(rps float64) FetchOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			f.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// WithForce refetches documents even when they are cached.
func WithForce(force bool) FetchOption {
	return func(f *Fetcher) {
		f.force = force
	}
}

// WithFetchLogger sets a custom logger for the fetcher.
func WithFetchLogger(l logger.Logger) FetchOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// FetchReport summarises a FetchAll run.
type FetchReport struct {
	Players    int
	Downloaded int
	Cached     int
	Failed     []int
}

// Fetcher fills a Cache from the FPL API.
type Fetcher struct {
	cache   *Cache
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	force   bool
	logger  logger.Logger
}

// NewFetcher constructs a Fetcher writing into cache.
func NewFetcher(cache *Cache, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		cache:   cache,
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), 1),
		logger:  logger.OrDefault().Named("fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll downloads bootstrap-static, fixtures and every player's element
// summary. Failures of the two shared documents are fatal; a failing player
// summary is logged and listed in the report.
func (f *Fetcher) FetchAll(ctx context.Context) (*FetchReport, error) {
	boot, _, err := f.Fetch(ctx, "/bootstrap-static/", BootstrapFile, "bootstrap")
	if err != nil {
		return nil, err
	}
	if _, _, err := f.Fetch(ctx, "/fixtures/", FixturesFile, "fixtures"); err != nil {
		return nil, err
	}

	var doc bootstrapDoc
	if err := json.Unmarshal(boot, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, BootstrapFile, err)
	}
	players := playersFrom(&doc)

	report := &FetchReport{Players: len(players)}
	for i, p := range players {
		_, cached, err := f.Fetch(ctx, "/element-summary/"+strconv.Itoa(p.ID)+"/", SummaryFile(p.ID), "element_summary")
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return report, err
		case err != nil:
			report.Failed = append(report.Failed, p.ID)
			f.logger.Warn(ctx, "player summary fetch failed",
				logger.Int("player_id", p.ID),
				logger.String("player", p.Name),
				logger.Error(err),
			)
		case cached:
			report.Cached++
		default:
			report.Downloaded++
		}
		if (i+1)%100 == 0 {
			f.logger.Debug(ctx, "fetch progress", logger.Int("done", i+1), logger.Int("players", len(players)))
		}
	}

	f.logger.Info(ctx, "fetch complete",
		logger.Int("players", report.Players),
		logger.Int("downloaded", report.Downloaded),
		logger.Int("cached", report.Cached),
		logger.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// Fetch returns rel from the cache, or downloads urlPath into it. cached is
// true when no request was made.
func (f *Fetcher) Fetch(ctx context.Context, urlPath, rel, kind string) (body []byte, cached bool, err error) {
	if !f.force && f.cache.Exists(rel) {
		b, err := f.cache.Read(rel)
		if err == nil {
			metrics.RecordFetch(kind, outcomeCache)
			return b, true, nil
		}
	}

	body, err = f.get(ctx, urlPath)
	if err != nil {
		metrics.RecordFetch(kind, outcomeError)
		return nil, false, err
	}
	if err := f.cache.Write(rel, body); err != nil {
		metrics.RecordFetch(kind, outcomeError)
		return nil, false, fmt.Errorf("cache %s: %w", rel, err)
	}
	metrics.RecordFetch(kind, outcomeOK)
	return body, false, nil
}

func (f *Fetcher) get(ctx context.Context, urlPath string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+urlPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", urlPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", urlPath, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %d", ErrHTTPStatus, urlPath, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: GET %s: body is not JSON", ErrMalformedRecord, urlPath)
	}
	return body, nil
}
