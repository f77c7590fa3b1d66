package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	appErrors "github.com/farmiq/farmiq/pkg/errors"
)

func TestClientFetchBuildsUpstreamRequest(t *testing.T) {
	requests := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{BaseURL: server.URL + "/", ResourceID: "res-1", APIKey: "secret"})
	body, err := client.Fetch(context.Background(), Query{State: "Punjab", District: "all", Offset: 0, Limit: 50})
	require.NoError(t, err)
	require.JSONEq(t, `{"records":[]}`, string(body))

	got := <-requests
	require.Equal(t, "/resource/res-1", got.URL.Path)
	require.Equal(t, "application/json", got.Header.Get("Accept"))
	query := got.URL.Query()
	require.Equal(t, "secret", query.Get("api-key"))
	require.Equal(t, "json", query.Get("format"))
	require.Equal(t, "Punjab", query.Get("filters[state]"))
	require.False(t, query.Has("filters[district]"))
}

func TestClientRedactsAPIKey(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "secret"})
	logged := client.redactedURL(Query{Limit: 50})
	require.NotContains(t, logged, "secret")
	require.Contains(t, logged, "api-key=%5BREDACTED%5D")
	require.Contains(t, logged, DefaultBaseURL+"/resource/"+DefaultResourceID)
}

func TestClientRateLimitedMapsToServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{BaseURL: server.URL})
	_, err := client.Fetch(context.Background(), Query{Limit: 50})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, KindRateLimited, upstream.Kind)
	require.Equal(t, 30, upstream.RetryAfter)

	appErr := ToAppError(err)
	require.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	require.Equal(t, 30, appErr.RetryAfter)
	require.Equal(t, "Upstream rate limit exceeded, please try again later", appErr.Message)
}

func TestClientStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		kind    ErrorKind
		appErr  *appErrors.AppError
		httpOut int
	}{
		{"server error", http.StatusInternalServerError, KindServer, appErrors.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"bad gateway", http.StatusBadGateway, KindServer, appErrors.ErrUpstreamUnavailable, http.StatusBadGateway},
		{"forbidden", http.StatusForbidden, KindClient, appErrors.ErrUpstreamFailed, http.StatusBadGateway},
		{"not found", http.StatusNotFound, KindClient, appErrors.ErrUpstreamFailed, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			_, err := NewClient(ClientConfig{BaseURL: server.URL}).Fetch(context.Background(), Query{Limit: 50})
			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream))
			require.Equal(t, tc.kind, upstream.Kind)
			require.Equal(t, tc.status, upstream.Status)

			appErr := ToAppError(err)
			require.ErrorIs(t, appErr, tc.appErr)
			require.Equal(t, tc.httpOut, appErr.StatusCode)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), Query{Limit: 50})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, KindTimeout, upstream.Kind)

	appErr := ToAppError(err)
	require.Equal(t, http.StatusGatewayTimeout, appErr.StatusCode)
	require.Equal(t, "Request timeout - upstream API not responding", appErr.Message)
}

func TestClientConnectionFailureIsInternal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(ClientConfig{BaseURL: url}).Fetch(context.Background(), Query{Limit: 50})
	appErr := ToAppError(err)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	require.Equal(t, "Internal server error fetching market data", appErr.Message)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	require.Equal(t, DefaultRetryAfter, parseRetryAfter("", clock.Now()))
	require.Equal(t, 30, parseRetryAfter("30", clock.Now()))
	require.Equal(t, 120, parseRetryAfter(now.Add(2*time.Minute).Format(http.TimeFormat), clock.Now()))
	require.Equal(t, 0, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), clock.Now()))
	require.Equal(t, DefaultRetryAfter, parseRetryAfter("soon", clock.Now()))
}

func TestToAppErrorNonUpstream(t *testing.T) {
	require.Nil(t, ToAppError(nil))
	appErr := ToAppError(errors.New("boom"))
	require.ErrorIs(t, appErr, appErrors.ErrMarketInternal)
}
