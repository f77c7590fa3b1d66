package market

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PriceRecord is one normalized commodity price row.
type PriceRecord struct {
	State       *string `json:"state"`
	District    *string `json:"district"`
	Market      *string `json:"market"`
	Commodity   *string `json:"commodity"`
	Variety     *string `json:"variety"`
	MinPrice    *int64  `json:"min_price"`
	MaxPrice    *int64  `json:"max_price"`
	ModalPrice  *int64  `json:"modal_price"`
	ArrivalDate *string `json:"arrival_date"`
}

// Meta describes the page that was returned.
type Meta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Count  int `json:"count"`
}

// Response is the payload served to clients and stored in the cache.
type Response struct {
	Meta Meta          `json:"meta"`
	Data []PriceRecord `json:"data"`
}

// ParsePrice converts an upstream price into an integer. Thousands separators are stripped and
// any trailing non-numeric text is ignored, so "1,234" and "1234 Rs" both yield 1234. Missing,
// empty or non-numeric values yield nil.
func ParsePrice(raw interface{}) *int64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return parsePriceString(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return &n
		}
		if f, err := v.Float64(); err == nil {
			return truncate(f)
		}
		return parsePriceString(v.String())
	case float64:
		return truncate(v)
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case bool:
		return nil
	default:
		return nil
	}
}

func parsePriceString(s string) *int64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return nil
	}
	end := 0
	if cleaned[0] == '+' || cleaned[0] == '-' {
		end++
	}
	digits := end
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.ParseInt(cleaned[:end], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func truncate(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

// normalizeRecord reshapes one upstream record. Values that are not JSON objects carry no
// fields and become an all-null record.
func normalizeRecord(raw json.RawMessage) PriceRecord {
	var item map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&item); err != nil || item == nil {
		return PriceRecord{}
	}

	record := PriceRecord{
		State:       textField(item["state"]),
		District:    textField(item["district"]),
		Market:      textField(item["market"]),
		Commodity:   textField(item["commodity"]),
		Variety:     textField(item["variety"]),
		MinPrice:    ParsePrice(item["min_price"]),
		MaxPrice:    ParsePrice(item["max_price"]),
		ModalPrice:  ParsePrice(item["modal_price"]),
		ArrivalDate: textField(item["arrival_date"]),
	}
	if record.Market == nil {
		record.Market = record.District
	}
	return record
}

func textField(raw interface{}) *string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return &v
	case json.Number:
		s := v.String()
		return &s
	default:
		return nil
	}
}

// extractRecords accepts either {"records": [...]} or a bare array. Any other shape has no records.
func extractRecords(body []byte) []json.RawMessage {
	var envelope struct {
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Records != nil {
		return envelope.Records
	}

	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare
	}
	return nil
}

// buildResponse normalizes every record and wraps them with paging metadata.
func buildResponse(q Query, body []byte) Response {
	raw := extractRecords(body)
	data := make([]PriceRecord, 0, len(raw))
	for _, item := range raw {
		data = append(data, normalizeRecord(item))
	}
	return Response{
		Meta: Meta{Offset: q.Offset, Limit: q.Limit, Count: len(data)},
		Data: data,
	}
}
