package listapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/adminconsole/pkg/errors"
)

// DefaultTimeout is the budget of one list request
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 10 << 20

// Options configures a Client
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Headers           http.Header
}

// Client fetches pages of one list from a REST endpoint that answers
// {"data": [...], "pagination": {...}}
type Client[T any] struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	headers    http.Header
}

// NewClient creates a client for baseURL/listID
func NewClient[T any](baseURL, listID string, opts Options) *Client[T] {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client[T]{
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(listID),
		httpClient: httpClient,
		limiter:    limiter,
		timeout:    timeout,
		headers:    opts.Headers,
	}
}

// envelope keeps the raw fields so missing keys can be told apart from empty ones
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

// Fetch implements providers.Fetcher. A canceled ctx is returned unchanged;
// every other failure is an *errors.AppError.
func (c *Client[T]) Fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "listapi.Fetch")
	defer span.End()

	filter = filter.Normalized()
	observability.SetSpanAttributes(span,
		attribute.String("list.endpoint", c.endpoint),
		attribute.Int("list.page", filter.Page),
		attribute.Int("list.page_size", filter.PageSize),
	)

	page, err := c.fetch(ctx, filter)
	if err != nil {
		err = c.classify(ctx, err)
		observability.RecordError(span, err)
		return entities.Page[T]{}, err
	}
	return page, nil
}

func (c *Client[T]) fetch(ctx context.Context, filter entities.FilterState) (entities.Page[T], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return entities.Page[T]{}, err
	}

	endpoint := c.endpoint + "?" + filter.QueryParams().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return entities.Page[T]{}, apperrors.NewInternalError("failed to build list request", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.Page[T]{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return entities.Page[T]{}, apperrors.NewStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return entities.Page[T]{}, err
	}

	return decodePage[T](body, filter)
}

// decodePage turns a response body into a page. Unparseable JSON is a transport
// failure; parseable JSON without a usable data array is a shape failure.
func decodePage[T any](body []byte, filter entities.FilterState) (entities.Page[T], error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return entities.Page[T]{}, apperrors.NewTransportError("malformed list response", err)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return entities.Page[T]{}, apperrors.NewShapeError("list response has no data")
	}

	var items []T
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return entities.Page[T]{}, apperrors.NewShapeError(fmt.Sprintf("list response data is not a list of items: %v", err))
	}

	if len(env.Pagination) == 0 || string(env.Pagination) == "null" {
		return entities.Page[T]{
			Items:      items,
			Pagination: entities.SynthesizePagination(filter, len(items)),
		}.Normalized(filter), nil
	}

	var pg entities.Pagination
	if err := json.Unmarshal(env.Pagination, &pg); err != nil {
		return entities.Page[T]{}, apperrors.NewShapeError(fmt.Sprintf("list response pagination is invalid: %v", err))
	}
	pg.Origin = entities.OriginServer

	return entities.Page[T]{Items: items, Pagination: pg}.Normalized(filter), nil
}

// classify maps a failure to its kind. Our own deadline is a timeout; a
// cancellation from the caller is passed through so it can be told apart
// from a failure.
func (c *Client[T]) classify(ctx context.Context, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(fmt.Sprintf("list request exceeded %s", c.timeout), err)
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return apperrors.NewTransportError("list request failed", err)
}
