package source

import (
	"context"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetcher downloads template and context documents over HTTP. Transient
// failures are retried by the underlying retryablehttp transport.
type Fetcher struct {
	resty   *resty.Client
	limiter *rate.Limiter
	config  Config
}

// NewFetcher creates a fetcher. logger may be nil.
func NewFetcher(config Config, logger *zap.Logger) *Fetcher {
	config = config.withDefaults()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.Retries
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax
	retryClient.HTTPClient.Timeout = config.Timeout
	if logger != nil {
		retryClient.Logger = leveledLogger{logger.Named("fetch")}
	} else {
		retryClient.Logger = nil
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", "htmlx-fetch/1.0").
		SetHeader("Accept", "text/html, application/json, application/yaml, application/toml, text/plain;q=0.9, */*;q=0.5")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(1, int(config.RequestsPerSecond)))
	}

	return &Fetcher{
		resty:   restyClient,
		limiter: limiter,
		config:  config,
	}
}

// Fetch returns the body and Content-Type of url. Bodies larger than
// Config.MaxBytes are rejected.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit error: %w", err)
	}

	resp, err := f.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, "", &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	data, err := readLimited(body, f.config.MaxBytes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, resp.Header().Get("Content-Type"), nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// leveledLogger adapts zap to retryablehttp's key/value logger.
type leveledLogger struct {
	*zap.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.Logger.Error(msg, fields(kv)...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.Logger.Info(msg, fields(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.Logger.Debug(msg, fields(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.Logger.Warn(msg, fields(kv)...) }

func fields(kv []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, zap.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

