package geocoding

// SuggestRequest is the query string of the suggest endpoint.
type SuggestRequest struct {
	Query  string `form:"q" validate:"max=200"`
	Region string `form:"region" validate:"omitempty,len=2,alpha"`
}

// SuggestResponse carries the suggestions and the region they were
// searched in. Outcome is "failed" when every provider errored.
type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Region      string       `json:"region"`
	Outcome     string       `json:"outcome"`
}
