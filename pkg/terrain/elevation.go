package terrain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"scentline/pkg/geo"
	"scentline/pkg/request"
)

// maxBatch is the Open-Topo-Data per-request location limit.
const maxBatch = 100

// ElevationGetter defines elevation retrieval.
type ElevationGetter interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
	Profile(ctx context.Context, points []geo.Point) ([]float64, error)
}

// ElevationService queries an Open-Topo-Data compatible endpoint.
type ElevationService struct {
	client  *request.Client
	baseURL string
}

// NewElevationService creates an elevation service against the given dataset
// URL, e.g. "https://api.opentopodata.org/v1/srtm90m".
func NewElevationService(client *request.Client, baseURL string) *ElevationService {
	return &ElevationService{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type elevationResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Elevation returns the elevation in meters at the given coordinates.
func (s *ElevationService) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	elevs, err := s.Profile(ctx, []geo.Point{{Lat: lat, Lon: lon}})
	if err != nil {
		return 0, err
	}
	return elevs[0], nil
}

// Profile returns elevations for a sequence of points, batching requests to
// stay under the API's location limit. Ocean cells come back as 0.
func (s *ElevationService) Profile(ctx context.Context, points []geo.Point) ([]float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	elevs := make([]float64, 0, len(points))
	for start := 0; start < len(points); start += maxBatch {
		end := start + maxBatch
		if end > len(points) {
			end = len(points)
		}
		batch, err := s.fetch(ctx, points[start:end])
		if err != nil {
			return nil, err
		}
		elevs = append(elevs, batch...)
	}
	return elevs, nil
}

func (s *ElevationService) fetch(ctx context.Context, points []geo.Point) ([]float64, error) {
	locs := make([]string, len(points))
	for i, p := range points {
		locs[i] = fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
	}
	joined := strings.Join(locs, "|")

	u := fmt.Sprintf("%s?locations=%s", s.baseURL, url.QueryEscape(joined))
	cacheKey := ""
	if len(points) == 1 {
		// Single lookups repeat across envelope recomputations, batches don't
		cacheKey = "elevation:" + joined
	}

	body, err := s.client.Get(ctx, u, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("elevation request failed: %w", err)
	}

	var resp elevationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse elevation response: %w", err)
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("elevation api error: %s", resp.Error)
	}
	if len(resp.Results) != len(points) {
		return nil, fmt.Errorf("elevation api returned %d results for %d locations", len(resp.Results), len(points))
	}

	elevs := make([]float64, len(resp.Results))
	for i, r := range resp.Results {
		if r.Elevation != nil {
			elevs[i] = *r.Elevation
		}
	}
	return elevs, nil
}
