package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"guardplan/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoPolygon is returned when a GeoJSON document carries no polygon
var ErrNoPolygon = errors.New("geojson document has no polygon")

// FeatureCollection renders the report as GeoJSON: the perimeter polygon,
// one point per unit and one point per finding, told apart by the "layer" property.
func FeatureCollection(r Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if r.Perimeter.Valid() {
		f := geojson.NewFeature(orb.Polygon{r.Perimeter.Ring()})
		f.Properties["layer"] = "perimeter"
		f.Properties["area_m2"] = r.Estimate.Area
		f.Properties["capacity"] = r.Estimate.Capacity
		f.Properties["analysis"] = r.Analysis.Phase.String()
		fc.Append(f)
	}

	for _, u := range r.Units {
		f := geojson.NewFeature(u.Position.OrbPoint())
		f.ID = u.ID
		f.Properties["layer"] = "unit"
		f.Properties["kind"] = string(u.Kind)
		f.Properties["strategy"] = string(u.Strategy)
		f.Properties["sequence"] = u.Sequence
		if u.Overlapping {
			f.Properties["overlapping"] = true
		}
		fc.Append(f)
	}

	for _, t := range r.Findings {
		f := geojson.NewFeature(t.Location.OrbPoint())
		f.ID = t.ID
		f.Properties["layer"] = "finding"
		f.Properties["severity"] = string(t.Severity)
		f.Properties["category"] = t.Category
		f.Properties["title"] = t.Title
		f.Properties["description"] = t.Description
		f.Properties["recommended_actions"] = t.RecommendedActions
		fc.Append(f)
	}
	return fc
}

// ParsePerimeter reads the first polygon of a GeoJSON FeatureCollection,
// Feature or bare geometry. Only the outer ring is used and its closing
// vertex is dropped.
func ParsePerimeter(data []byte) (model.Perimeter, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var geometries []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geometries = append(geometries, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		geometries = append(geometries, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geometries = append(geometries, g.Geometry())
	}

	for _, g := range geometries {
		var ring orb.Ring
		switch poly := g.(type) {
		case orb.Polygon:
			if len(poly) > 0 {
				ring = poly[0]
			}
		case orb.MultiPolygon:
			if len(poly) > 0 && len(poly[0]) > 0 {
				ring = poly[0][0]
			}
		}
		if len(ring) == 0 {
			continue
		}
		return perimeterFromRing(ring), nil
	}
	return nil, ErrNoPolygon
}

func perimeterFromRing(ring orb.Ring) model.Perimeter {
	if ring.Closed() {
		ring = ring[:len(ring)-1]
	}
	p := make(model.Perimeter, 0, len(ring))
	for _, pt := range ring {
		p = append(p, model.PointFromOrb(pt))
	}
	return p
}
