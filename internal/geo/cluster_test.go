package geo

import "testing"

func TestClusterMarkersGroupsNearbyPoints(t *testing.T) {
	markers := []Marker{
		{ID: "a", Point: Point{Lat: 28.61, Lng: 77.20}},
		{ID: "b", Point: Point{Lat: 28.62, Lng: 77.21}},
		{ID: "c", Point: Point{Lat: 19.07, Lng: 72.87}},
		{ID: "bad", Point: Point{Lat: 120, Lng: 0}},
	}

	clusters := ClusterMarkers(markers, 5)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Count != 2 || clusters[0].IDs[0] != "a" {
		t.Fatalf("expected Delhi pair first, got %+v", clusters[0])
	}
	if clusters[1].Count != 1 || clusters[1].IDs[0] != "c" {
		t.Fatalf("expected Mumbai singleton second, got %+v", clusters[1])
	}
	if clusters[0].Center.Lat < 28.61 || clusters[0].Center.Lat > 28.62 {
		t.Fatalf("expected centroid between members, got %+v", clusters[0].Center)
	}
}

func TestClusterMarkersSplitsAtHighZoom(t *testing.T) {
	markers := []Marker{
		{ID: "a", Point: Point{Lat: 28.61, Lng: 77.20}},
		{ID: "b", Point: Point{Lat: 28.62, Lng: 77.21}},
	}
	if got := len(ClusterMarkers(markers, 18)); got != 2 {
		t.Fatalf("expected markers to separate at zoom 18, got %d clusters", got)
	}
}

func TestCellSizeDegreesClampsZoom(t *testing.T) {
	if CellSizeDegrees(-3) != 90 {
		t.Fatalf("expected negative zoom to clamp to 0")
	}
	if CellSizeDegrees(40) != CellSizeDegrees(22) {
		t.Fatalf("expected zoom to clamp at 22")
	}
	if CellSizeDegrees(1) != 45 {
		t.Fatalf("expected cell to halve per zoom step")
	}
}
