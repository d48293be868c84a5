package directory

import (
	"errors"
	"reflect"
	"testing"

	"georesponse_backend/internal/facility"
)

func TestDecodeAcceptsArrayAndWrappedShapes(t *testing.T) {
	records := `[
		{"id": 1, "title": "Saket Police Station", "category": "POLICE", "city": {"name": "New Delhi", "state": {"name": "Delhi"}}, "latitude": 28.52, "longitude": 77.21},
		{"id": "b-2", "title": "Lilavati Hospital", "category": "hospital", "city": "Mumbai", "state": "Maharashtra", "locationLat": "19.05", "locationLng": "72.83"}
	]`

	fromArray, _, err := Decode([]byte(records))
	if err != nil {
		t.Fatalf("decode array: %v", err)
	}
	fromWrapped, _, err := Decode([]byte(`{"searchCenter": {"lat": 1}, "locations": ` + records + `}`))
	if err != nil {
		t.Fatalf("decode wrapped: %v", err)
	}
	if !reflect.DeepEqual(fromArray, fromWrapped) {
		t.Fatalf("expected identical lists\narray:   %+v\nwrapped: %+v", fromArray, fromWrapped)
	}
	if len(fromArray) != 2 {
		t.Fatalf("expected 2 facilities, got %d", len(fromArray))
	}
}

func TestDecodeRejectsUnexpectedShapes(t *testing.T) {
	for _, body := range []string{`{"items": []}`, `"nope"`, `42`, `{"locations": {}}`} {
		if _, _, err := Decode([]byte(body)); !errors.Is(err, ErrUnexpectedShape) {
			t.Fatalf("body %s: expected ErrUnexpectedShape, got %v", body, err)
		}
	}
	if _, _, err := Decode([]byte(`[{`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}

func TestDecodeDropsOutOfRangeCoordinates(t *testing.T) {
	list, dropped, err := Decode([]byte(`[
		{"id": "ok", "latitude": 10, "longitude": 20},
		{"id": "bad-lat", "latitude": 95, "longitude": 20},
		{"id": "bad-lng", "latitude": 10, "longitude": -181}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != "ok" {
		t.Fatalf("expected only the valid record, got %+v", list)
	}
	if len(dropped) != 2 || dropped[0].ID != "bad-lat" || dropped[1].ID != "bad-lng" {
		t.Fatalf("unexpected dropped records %+v", dropped)
	}
}

func TestNormalizeFieldPriority(t *testing.T) {
	cases := []struct {
		name string
		rec  map[string]any
		want facility.Facility
	}{
		{
			name: "nested city and state win over flat",
			rec: map[string]any{
				"city":  map[string]any{"name": "Pune", "state": map[string]any{"name": "Maharashtra"}},
				"state": "Ignored",
			},
			want: facility.Facility{City: "Pune", State: "Maharashtra", Category: facility.Police},
		},
		{
			name: "state object used when city has no state",
			rec: map[string]any{
				"city":  map[string]any{"name": "Chennai"},
				"state": map[string]any{"name": "Tamil Nadu"},
			},
			want: facility.Facility{City: "Chennai", State: "Tamil Nadu", Category: facility.Police},
		},
		{
			name: "empty nested name falls back to flat",
			rec: map[string]any{
				"city":  "Kochi",
				"state": map[string]any{"name": ""},
			},
			want: facility.Facility{City: "Kochi", Category: facility.Police},
		},
		{
			name: "zero primary coordinate falls through to alias",
			rec: map[string]any{
				"latitude":    0.0,
				"locationLat": 12.97,
				"longitude":   "77.59",
				"locationLng": 1.0,
			},
			want: facility.Facility{Lat: 12.97, Lng: 77.59, Category: facility.Police},
		},
		{
			name: "string aliases take the first non-empty",
			rec: map[string]any{
				"phone":             "",
				"phoneNumber":       "100",
				"websiteUrl":        "https://fire.example",
				"googleLocationUrl": "",
				"googleLocation":    "https://maps.example/3",
				"category":          " Fire ",
			},
			want: facility.Facility{
				Phone:    "100",
				Website:  "https://fire.example",
				MapsURL:  "https://maps.example/3",
				Category: facility.Fire,
			},
		},
		{
			name: "unknown category and non-numeric coordinates default",
			rec: map[string]any{
				"category": "UNKNOWN",
				"latitude": "north",
			},
			want: facility.Facility{Category: facility.Police},
		},
	}

	for _, tc := range cases {
		if got := Normalize(tc.rec); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
