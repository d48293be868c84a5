package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
)

// ErrUnexpectedShape is returned when a payload is neither an array of
// records nor an object carrying one under "locations".
var ErrUnexpectedShape = errors.New("unexpected directory payload shape")

// InvalidRecord describes a record dropped during normalization.
type InvalidRecord struct {
	ID     string
	Reason string
}

// Decode parses a directory payload and normalizes every record. Records
// whose coordinates are out of range are returned separately as dropped.
func Decode(body []byte) ([]facility.Facility, []InvalidRecord, error) {
	records, err := extractRecords(body)
	if err != nil {
		return nil, nil, err
	}

	out := make([]facility.Facility, 0, len(records))
	var dropped []InvalidRecord
	for _, rec := range records {
		f := Normalize(rec)
		if !geo.ValidCoordinates(f.Lat, f.Lng) {
			dropped = append(dropped, InvalidRecord{
				ID:     f.ID,
				Reason: fmt.Sprintf("coordinates out of range: %v,%v", f.Lat, f.Lng),
			})
			continue
		}
		out = append(out, f)
	}
	return out, dropped, nil
}

func extractRecords(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode directory payload: %w", err)
	}

	var items []any
	switch typed := payload.(type) {
	case []any:
		items = typed
	case map[string]any:
		wrapped, ok := typed["locations"].([]any)
		if !ok {
			return nil, ErrUnexpectedShape
		}
		items = wrapped
	default:
		return nil, ErrUnexpectedShape
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Normalize maps one raw record onto the canonical facility using the
// field-priority rules: nested before flat for city and state, the first
// non-zero of each numeric alias, the first non-empty of each string alias.
func Normalize(rec map[string]any) facility.Facility {
	return facility.Facility{
		ID:       idString(rec["id"]),
		Title:    stringField(rec, "title"),
		Category: facility.ParseCategory(stringField(rec, "category")),
		City:     cityName(rec),
		State:    stateName(rec),
		Address:  stringField(rec, "address"),
		Lat:      firstNumber(rec, "latitude", "locationLat"),
		Lng:      firstNumber(rec, "longitude", "locationLng"),
		Phone:    stringField(rec, "phone", "phoneNumber"),
		Website:  stringField(rec, "website", "websiteUrl"),
		MapsURL:  stringField(rec, "googleLocationURL", "googleLocationUrl", "googleLocation"),
	}
}

func cityName(rec map[string]any) string {
	if city, ok := rec["city"].(map[string]any); ok {
		if name := stringField(city, "name"); name != "" {
			return name
		}
	}
	return stringField(rec, "city")
}

func stateName(rec map[string]any) string {
	if city, ok := rec["city"].(map[string]any); ok {
		if state, ok := city["state"].(map[string]any); ok {
			if name := stringField(state, "name"); name != "" {
				return name
			}
		}
	}
	if state, ok := rec["state"].(map[string]any); ok {
		if name := stringField(state, "name"); name != "" {
			return name
		}
	}
	return stringField(rec, "state")
}

// stringField returns the first non-empty string among keys. Non-string
// values are ignored.
func stringField(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(rec map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v := toFloat(rec[key]); v != 0 {
			return v
		}
	}
	return 0
}

func toFloat(v any) float64 {
	switch typed := v.(type) {
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return typed
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func idString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return ""
	}
}
