package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/farmiq/farmiq/pkg/errors"
)

func TestErrorRendersAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.ErrUpstreamRateLimited.WithRetryAfter(30))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "30", w.Header().Get("Retry-After"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Upstream rate limit exceeded, please try again later", body.Message)
	require.Equal(t, "UPSTREAM_RATE_LIMITED", body.Code)
	require.NotNil(t, body.RetryAfter)
	require.Equal(t, 30, *body.RetryAfter)
}

func TestErrorRendersZeroRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.ErrUpstreamRateLimited.WithRetryAfter(0))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "0", w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"message":"Upstream rate limit exceeded, please try again later","code":"UPSTREAM_RATE_LIMITED","retry_after":0}`, w.Body.String())
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("dial tcp: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Empty(t, w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"message":"Internal server error","code":"INTERNAL_SERVER_ERROR"}`, w.Body.String())
}

func TestAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, appErrors.ErrRouteNotFound)

	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusNotFound, w.Code)
}
