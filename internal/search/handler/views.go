package handler

import (
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/internal/search/transport"
)

func toFacilityView(f facility.Facility, distances map[string]float64) transport.FacilityView {
	view := transport.FacilityView{Facility: f, Actions: facility.BuildActions(f)}
	if d, ok := distances[f.ID]; ok {
		view.DistanceKm = &d
	}
	return view
}

func toFacilityViews(list []facility.Facility, distances map[string]float64) []transport.FacilityView {
	views := make([]transport.FacilityView, 0, len(list))
	for _, f := range list {
		views = append(views, toFacilityView(f, distances))
	}
	return views
}

func toSessionResponse(st orchestrator.State) transport.SessionResponse {
	resp := transport.SessionResponse{
		ID:          st.ID,
		Mode:        string(st.Mode),
		Criteria:    st.Criteria,
		Suggestions: st.Suggestions,
		Results:     toFacilityViews(st.Results, st.Distances),
		Total:       len(st.Results),
		Facets:      st.Facets,
		Outcome:     st.Outcome,
		Version:     st.Version,
	}
	if st.Origin != nil {
		resp.Origin = &transport.OriginView{
			Lat:   st.Origin.Point.Lat,
			Lng:   st.Origin.Point.Lng,
			Label: st.Origin.Label,
		}
	}
	if st.Selected != nil {
		view := toFacilityView(*st.Selected, st.Distances)
		resp.Selected = &view
	}
	if st.Focus != nil {
		resp.Focus = &transport.FocusView{
			Lat:    st.Focus.Point.Lat,
			Lng:    st.Focus.Point.Lng,
			Zoom:   st.Focus.Zoom,
			Reason: string(st.Focus.Reason),
		}
	}
	return resp
}
