package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"shareit/internal/config"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const breakerName = "shareit-server"

// ErrUnavailable is returned while the breaker refuses calls to the server.
var ErrUnavailable = errors.New("server is unavailable")

// Response is the server reply passed back to the caller verbatim.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// upstreamError marks a non-2xx reply so the breaker can classify it.
type upstreamError struct {
	resp *Response
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("server replied %d", e.resp.StatusCode)
}

// ServerClient forwards gateway calls to the server tier through a circuit breaker.
type ServerClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zerolog.Logger
}

func NewServerClient(cfg config.GatewayConfig, logger *zerolog.Logger) *ServerClient {
	log := logging.Component(logger, "server_client")
	return &ServerClient{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      newBreaker(cfg.Breaker, log),
		logger:  log,
	}
}

func newBreaker(cfg config.BreakerConfig, logger *zerolog.Logger) *gobreaker.CircuitBreaker {
	metrics.SetBreakerState(breakerName, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
		// 4xx means the server is healthy and the caller is wrong
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var upstream *upstreamError
			return errors.As(err, &upstream) && upstream.resp.StatusCode >= 400 && upstream.resp.StatusCode < 500
		},
	})
}

// State exposes the breaker state.
func (c *ServerClient) State() gobreaker.State {
	return c.cb.State()
}

// Forward sends method pathAndQuery to the server with the caller's user id and request id.
// Any HTTP reply, including 4xx and 5xx, is returned as a Response with a nil error.
func (c *ServerClient) Forward(ctx context.Context, method, pathAndQuery, userID string, body []byte) (*Response, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, method, pathAndQuery, userID, body)
	})

	var upstream *upstreamError
	switch {
	case err == nil:
		return result.(*Response), nil
	case errors.As(err, &upstream):
		return upstream.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return nil, err
	}
}

func (c *ServerClient) do(ctx context.Context, method, pathAndQuery, userID string, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(models.UserIDHeader, userID)
	}
	if id := logging.RequestIDFrom(ctx); id != "" {
		req.Header.Set(logging.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read server response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	if resp.StatusCode >= 400 {
		return nil, &upstreamError{resp: out}
	}
	return out, nil
}
