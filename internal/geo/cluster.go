package geo

import (
	"math"
	"sort"
)

const (
	minZoom = 0
	maxZoom = 22
)

// Marker is a positioned item to aggregate.
type Marker struct {
	ID    string
	Point Point
}

// Cluster groups markers that fall into the same grid cell at a zoom level.
type Cluster struct {
	Center Point    `json:"center"`
	Count  int      `json:"count"`
	IDs    []string `json:"ids"`
}

// CellSizeDegrees returns the grid cell edge length at zoom. The cell halves
// with every zoom step, starting from 90 degrees at zoom 0.
func CellSizeDegrees(zoom int) float64 {
	zoom = max(minZoom, min(maxZoom, zoom))
	return 90 / math.Pow(2, float64(zoom))
}

// ClusterMarkers buckets markers into grid cells at the given zoom. Markers
// with invalid coordinates are skipped. Clusters are returned in descending
// size, ties broken by the first member id, so the output is deterministic.
func ClusterMarkers(markers []Marker, zoom int) []Cluster {
	size := CellSizeDegrees(zoom)

	type cell struct{ row, col int }
	type acc struct {
		latSum, lngSum float64
		ids            []string
	}

	cells := make(map[cell]*acc)
	for _, m := range markers {
		if !m.Point.Valid() {
			continue
		}
		key := cell{
			row: int(math.Floor((m.Point.Lat + 90) / size)),
			col: int(math.Floor((m.Point.Lng + 180) / size)),
		}
		a, ok := cells[key]
		if !ok {
			a = &acc{}
			cells[key] = a
		}
		a.latSum += m.Point.Lat
		a.lngSum += m.Point.Lng
		a.ids = append(a.ids, m.ID)
	}

	clusters := make([]Cluster, 0, len(cells))
	for _, a := range cells {
		n := float64(len(a.ids))
		clusters = append(clusters, Cluster{
			Center: Point{Lat: a.latSum / n, Lng: a.lngSum / n},
			Count:  len(a.ids),
			IDs:    a.ids,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		return clusters[i].IDs[0] < clusters[j].IDs[0]
	})
	return clusters
}
