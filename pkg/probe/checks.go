package probe

import (
	"context"
	"fmt"

	"scentline/pkg/store"
	"scentline/pkg/terrain"
	"scentline/pkg/weather"
)

// Database verifies the state table is writable.
func Database(st store.StateStore) Probe {
	return Probe{
		Name:     "Database",
		Critical: true,
		Check: func(ctx context.Context) error {
			if err := st.SetState(ctx, "probe", "ok"); err != nil {
				return fmt.Errorf("state write failed: %w", err)
			}
			val, err := st.GetState(ctx, "probe")
			if err != nil {
				return fmt.Errorf("state read failed: %w", err)
			}
			if val != "ok" {
				return fmt.Errorf("state read back %q", val)
			}
			return nil
		},
	}
}

// Weather verifies the forecast API answers for a fixed reference point.
// Non-critical: envelopes fall back to manual condition entry in the field.
func Weather(svc *weather.Service) Probe {
	return Probe{
		Name:     "Weather API",
		Critical: false,
		Check: func(ctx context.Context) error {
			_, err := svc.Observe(ctx, 47.6062, -122.3321)
			return err
		},
	}
}

// Landcover verifies the land-cover layers loaded polygons.
func Landcover(c *terrain.Classifier) Probe {
	return Probe{
		Name:     "Landcover",
		Critical: false,
		Check: func(ctx context.Context) error {
			if c == nil {
				return fmt.Errorf("no classifier configured")
			}
			if c.FeatureCount() == 0 {
				return fmt.Errorf("no land-cover polygons loaded")
			}
			return nil
		},
	}
}

// Elevation verifies the elevation dataset answers.
func Elevation(svc terrain.ElevationGetter) Probe {
	return Probe{
		Name:     "Elevation API",
		Critical: false,
		Check: func(ctx context.Context) error {
			_, err := svc.Elevation(ctx, 47.6062, -122.3321)
			return err
		},
	}
}
