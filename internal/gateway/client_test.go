package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/logging"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func clientConfig(url string) config.GatewayConfig {
	return config.GatewayConfig{
		ServerURL: url,
		Timeout:   2 * time.Second,
		Breaker: config.BreakerConfig{
			MaxRequests:         1,
			Timeout:             time.Hour,
			ConsecutiveFailures: 3,
		},
	}
}

func TestServerClient_ForwardsHeadersAndBody(t *testing.T) {
	var gotMethod, gotPath, gotUser, gotReqID, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.RequestURI()
		gotUser = r.Header.Get(models.UserIDHeader)
		gotReqID = r.Header.Get(logging.RequestIDHeader)
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	client := NewServerClient(clientConfig(srv.URL+"/"), testLogger())

	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	var reqCtx context.Context
	logging.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		reqCtx = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, reqCtx)
	ctx = reqCtx

	resp, err := client.Forward(ctx, http.MethodPost, "/items?x=1", "7", []byte(`{"name":"Drill"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":1}`, string(resp.Body))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/items?x=1", gotPath)
	assert.Equal(t, "7", gotUser)
	assert.Equal(t, logging.RequestIDFrom(ctx), gotReqID)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"name":"Drill"}`, string(gotBody))
}

func TestServerClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	client := NewServerClient(clientConfig(srv.URL), testLogger())
	for i := 0; i < 5; i++ {
		resp, err := client.Forward(context.Background(), http.MethodGet, "/users/9", "", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error":"not found"}`, string(resp.Body))
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestServerClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	client := NewServerClient(clientConfig(srv.URL), testLogger())
	for i := 0; i < 3; i++ {
		resp, err := client.Forward(context.Background(), http.MethodGet, "/users", "", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.Forward(context.Background(), http.MethodGet, "/users", "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not call the server")
}

func TestServerClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewServerClient(clientConfig(url), testLogger())
	_, err := client.Forward(context.Background(), http.MethodGet, "/users", "", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
