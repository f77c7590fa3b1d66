package market

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit applies when limit is absent, zero or unparseable.
	DefaultLimit = 50
	// DefaultMaxLimit caps limit when no maximum is configured.
	DefaultMaxLimit = 1000
)

var (
	stateSentinels     = []string{"all", "All States", "All State"}
	districtSentinels  = []string{"all", "All Districts"}
	commoditySentinels = []string{"all", "All Crops", "All commodities", "All Commodity"}
)

// Query is a normalized market price request. Filter values are kept exactly as received.
type Query struct {
	State     string
	District  string
	Commodity string
	Offset    int
	Limit     int
}

// ParseQuery reads filters and paginators from request query values. Offset clamps to zero and
// limit to [1, maxLimit].
func ParseQuery(values url.Values, maxLimit int) Query {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}

	offset, ok := leadingInt(values.Get("offset"))
	if !ok || offset < 0 {
		offset = 0
	}

	limit, ok := leadingInt(values.Get("limit"))
	if !ok || limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Query{
		State:     values.Get("state"),
		District:  values.Get("district"),
		Commodity: values.Get("commodity"),
		Offset:    offset,
		Limit:     limit,
	}
}

// CacheKey composes the store key. Sentinels and casing are not folded, so "all" and an
// omitted state produce different keys.
func (q Query) CacheKey() string {
	return strings.Join([]string{
		q.State,
		q.District,
		q.Commodity,
		strconv.Itoa(q.Offset),
		strconv.Itoa(q.Limit),
	}, "|")
}

// Filters returns the upstream filters[...] parameters for every non-sentinel filter.
func (q Query) Filters() map[string]string {
	filters := make(map[string]string, 3)
	if isFilter(q.State, stateSentinels) {
		filters["state"] = q.State
	}
	if isFilter(q.District, districtSentinels) {
		filters["district"] = q.District
	}
	if isFilter(q.Commodity, commoditySentinels) {
		filters["commodity"] = q.Commodity
	}
	return filters
}

// UpstreamValues builds the upstream query string parameters for q.
func (q Query) UpstreamValues(apiKey string) url.Values {
	values := url.Values{}
	values.Set("api-key", apiKey)
	values.Set("format", "json")
	values.Set("offset", strconv.Itoa(q.Offset))
	values.Set("limit", strconv.Itoa(q.Limit))
	for field, value := range q.Filters() {
		values.Set("filters["+field+"]", value)
	}
	return values
}

func isFilter(value string, sentinels []string) bool {
	if value == "" {
		return false
	}
	for _, sentinel := range sentinels {
		if value == sentinel {
			return false
		}
	}
	return true
}

// leadingInt parses an optional sign followed by decimal digits after leading whitespace and
// ignores anything after the digits. It reports false when no digit is present or the value
// overflows int.
func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
