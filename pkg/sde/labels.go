package sde

import (
	"fmt"
	"sort"

	geojson "github.com/paulmach/go.geojson"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

// LoadLabelsGeoJSON reads overlay labels from a FeatureCollection of Point
// features with "name" and optional numeric "id" properties. Anchors go
// through the same correction as the systems so they stay aligned. Features
// that are not points are skipped.
func LoadLabelsGeoJSON(data []byte, c Correction) ([]mapengine.Label, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	var labels []mapengine.Label
	for _, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			continue
		}
		l := mapengine.Label{Name: f.PropertyMustString("name", "")}
		if id, err := f.PropertyFloat64("id"); err == nil {
			l.ID = int64(id)
		}
		pt := f.Geometry.Point
		if len(pt) >= 3 {
			l.Anchor, _ = c.Point(pt[0], pt[1], pt[2])
		} else {
			l.Anchor = c.Plane(pt[0], pt[1])
		}
		labels = append(labels, l)
	}
	sortLabels(labels)
	return labels, nil
}

// LabelsToGeoJSON writes already corrected labels as planar Point features.
func LabelsToGeoJSON(labels []mapengine.Label) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, l := range labels {
		f := geojson.NewPointFeature([]float64{l.Anchor.X, l.Anchor.Y})
		f.SetProperty("name", l.Name)
		f.SetProperty("id", l.ID)
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

func sortLabels(labels []mapengine.Label) {
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].ID != labels[j].ID {
			return labels[i].ID < labels[j].ID
		}
		return labels[i].Name < labels[j].Name
	})
}
