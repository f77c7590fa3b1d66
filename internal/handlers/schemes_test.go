package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/farmiq/farmiq/internal/database/testutil"
	"github.com/farmiq/farmiq/internal/models"
	"github.com/farmiq/farmiq/internal/schemes"
	"github.com/farmiq/farmiq/pkg/response"
)

func strPtr(s string) *string { return &s }

func newSchemesRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	minLand, maxLand := 0.5, 2.0
	ageMin, ageMax := 18, 40
	rows := []models.NgoScheme{
		{ID: 1, Name: "PM-KISAN", RequiredState: strPtr("ALL"), CreatedAt: models.NewTimestamp(base)},
		{ID: 2, Name: "Punjab Dairy", RequiredState: strPtr("Punjab"), CreatedAt: models.NewTimestamp(base.Add(time.Hour))},
		{ID: 3, Name: "Smallholder Seeds", MinLand: &minLand, MaxLand: &maxLand, CreatedAt: models.NewTimestamp(base.Add(2 * time.Hour))},
		{ID: 4, Name: "Young Farmer Loan", AgeMin: &ageMin, AgeMax: &ageMax, CreatedAt: models.NewTimestamp(base.Add(3 * time.Hour))},
	}
	require.NoError(t, db.Create(&rows).Error)

	svc, err := schemes.NewService(db, nil)
	require.NoError(t, err)
	h := NewSchemesHandler(svc)

	r := gin.New()
	r.GET("/api/ngo-schemes", h.List)
	r.GET("/api/ngo-schemes/:id", h.Get)
	r.POST("/api/government-schemes/filter", h.Filter)
	return r
}

func decodeSchemeIDs(t *testing.T, body []byte) []int64 {
	t.Helper()
	var items []models.NgoScheme
	require.NoError(t, json.Unmarshal(body, &items))
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestSchemesList(t *testing.T) {
	r := newSchemesRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ngo-schemes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []int64{4, 3, 2, 1}, decodeSchemeIDs(t, w.Body.Bytes()))
}

func TestSchemesGet(t *testing.T) {
	r := newSchemesRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ngo-schemes/2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var item models.NgoScheme
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	require.Equal(t, "Punjab Dairy", item.Name)

	for _, path := range []string{"/api/ngo-schemes/99", "/api/ngo-schemes/abc"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, w.Code, path)

		var body response.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "NGO scheme not found", body.Message)
	}
}

func TestSchemesFilter(t *testing.T) {
	r := newSchemesRouter(t)

	cases := []struct {
		name string
		body string
		want []int64
	}{
		{"state", `{"state":"Punjab"}`, []int64{4, 3, 2, 1}},
		{"other state", `{"state":"Kerala"}`, []int64{4, 3, 1}},
		{"land as string", `{"land":"5"}`, []int64{4, 2, 1}},
		{"land in range", `{"land":1.5}`, []int64{4, 3, 2, 1}},
		{"age", `{"age":"55","crop":"wheat"}`, []int64{3, 2, 1}},
		{"blank land ignored", `{"land":"","state":"Kerala"}`, []int64{4, 3, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/government-schemes/filter", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.Equal(t, tc.want, decodeSchemeIDs(t, w.Body.Bytes()))
		})
	}
}

func TestSchemesFilterRejectsBadInput(t *testing.T) {
	r := newSchemesRouter(t)

	cases := []struct {
		body    string
		message string
	}{
		{`{}`, "At least one filter criteria (state, land, category, or age) is required"},
		{`{"crop":"rice"}`, "At least one filter criteria (state, land, category, or age) is required"},
		{`{"land":"lots"}`, "land must be a number"},
		{`{"age":true}`, "age must be a number"},
		{`not json`, "invalid JSON payload"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/government-schemes/filter", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code, tc.body)

		var body response.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, tc.message, body.Message)
	}
}

func TestOptionalNumber(t *testing.T) {
	n, err := optionalNumber(nil)
	require.NoError(t, err)
	require.Nil(t, n)

	n, err = optionalNumber(" 2.5 ")
	require.NoError(t, err)
	require.Equal(t, 2.5, *n)

	n, err = optionalNumber(float64(3))
	require.NoError(t, err)
	require.Equal(t, 3.0, *n)

	_, err = optionalNumber(map[string]interface{}{})
	require.Error(t, err)
}
