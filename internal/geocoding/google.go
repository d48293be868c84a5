package geocoding

import (
	"context"
	"strings"

	"googlemaps.github.io/maps"
)

// PlacesProvider is the primary provider's autocomplete and details surface.
type PlacesProvider interface {
	Autocomplete(ctx context.Context, input, region string) ([]Suggestion, error)
	Details(ctx context.Context, placeID string) (*Place, error)
}

// ProviderLoader builds the primary provider for an API key. It may block,
// so Initialize bounds it with a timeout.
type ProviderLoader func(ctx context.Context, apiKey string) (PlacesProvider, error)

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometry,
}

type googlePlaces struct {
	client *maps.Client
}

// GoogleLoader returns a loader that builds a Google Places client. A
// non-empty baseURL overrides the API host.
func GoogleLoader(baseURL string) ProviderLoader {
	return func(_ context.Context, apiKey string) (PlacesProvider, error) {
		opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
		if baseURL != "" {
			opts = append(opts, maps.WithBaseURL(baseURL))
		}
		client, err := maps.NewClient(opts...)
		if err != nil {
			return nil, err
		}
		return &googlePlaces{client: client}, nil
	}
}

func (g *googlePlaces) Autocomplete(ctx context.Context, input, region string) ([]Suggestion, error) {
	req := &maps.PlaceAutocompleteRequest{Input: input}
	if region != "" {
		req.Components = map[maps.Component][]string{
			maps.ComponentCountry: {region},
		}
	}

	resp, err := g.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		label := p.Description
		if label == "" {
			label = p.StructuredFormatting.MainText
		}
		out = append(out, Suggestion{
			Label:         label,
			SecondaryText: p.StructuredFormatting.SecondaryText,
			PlaceID:       p.PlaceID,
			Source:        SourceGoogle,
		})
	}
	return out, nil
}

func (g *googlePlaces) Details(ctx context.Context, placeID string) (*Place, error) {
	result, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  detailFields,
	})
	if err != nil {
		if isZeroResults(err) {
			return nil, nil
		}
		return nil, err
	}
	// A place without geometry cannot serve as an origin.
	if result.Geometry.Location.Lat == 0 && result.Geometry.Location.Lng == 0 {
		return nil, nil
	}

	name := result.Name
	if name == "" {
		name = result.FormattedAddress
	}
	return &Place{
		PlaceID: result.PlaceID,
		Name:    name,
		Address: result.FormattedAddress,
		Lat:     result.Geometry.Location.Lat,
		Lng:     result.Geometry.Location.Lng,
	}, nil
}

func isZeroResults(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND")
}
