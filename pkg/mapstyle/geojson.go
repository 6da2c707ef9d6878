package mapstyle

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// geoObject covers GeoJSON feature collections, features, geometries and
// geometry collections. The bson tags let MongoDB documents decode into
// the same shape.
type geoObject struct {
	Type        string      `json:"type" bson:"type"`
	Features    []geoObject `json:"features,omitempty" bson:"features,omitempty"`
	Geometry    *geoObject  `json:"geometry,omitempty" bson:"geometry,omitempty"`
	Geometries  []geoObject `json:"geometries,omitempty" bson:"geometries,omitempty"`
	Coordinates any         `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

func openGeoJSON(_ context.Context, p Params, baseDir string) ([]Geometry, error) {
	data, err := readSource(p, baseDir, "geojson")
	if err != nil {
		return nil, err
	}
	var obj geoObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "decode geojson")
	}
	geoms, err := obj.geometries()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "decode geojson")
	}
	return geoms, nil
}

// geometries flattens obj into single geometries.
func (obj geoObject) geometries() ([]Geometry, error) {
	switch obj.Type {
	case "FeatureCollection":
		var out []Geometry
		for _, f := range obj.Features {
			g, err := f.geometries()
			if err != nil {
				return nil, err
			}
			out = append(out, g...)
		}
		return out, nil
	case "Feature":
		if obj.Geometry == nil {
			return nil, nil
		}
		return obj.Geometry.geometries()
	case "GeometryCollection":
		var out []Geometry
		for _, g := range obj.Geometries {
			gs, err := g.geometries()
			if err != nil {
				return nil, err
			}
			out = append(out, gs...)
		}
		return out, nil
	case "Point":
		p, err := position(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Geometry{{Kind: KindPoint, Parts: [][]Point{{p}}}}, nil
	case "MultiPoint":
		pts, err := positions(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		out := make([]Geometry, len(pts))
		for i, p := range pts {
			out[i] = Geometry{Kind: KindPoint, Parts: [][]Point{{p}}}
		}
		return out, nil
	case "LineString":
		pts, err := positions(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Geometry{{Kind: KindLineString, Parts: [][]Point{pts}}}, nil
	case "MultiLineString":
		lines, err := rings(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		out := make([]Geometry, len(lines))
		for i, l := range lines {
			out[i] = Geometry{Kind: KindLineString, Parts: [][]Point{l}}
		}
		return out, nil
	case "Polygon":
		rs, err := rings(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Geometry{{Kind: KindPolygon, Parts: rs}}, nil
	case "MultiPolygon":
		polys, err := array(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		out := make([]Geometry, 0, len(polys))
		for _, poly := range polys {
			rs, err := rings(poly)
			if err != nil {
				return nil, err
			}
			out = append(out, Geometry{Kind: KindPolygon, Parts: rs})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported geojson type %q", obj.Type)
}

// array accepts both JSON arrays and BSON arrays.
func array(v any) ([]any, error) {
	switch a := v.(type) {
	case []any:
		return a, nil
	case primitive.A:
		return []any(a), nil
	}
	return nil, fmt.Errorf("expected array, got %T", v)
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func position(v any) (Point, error) {
	a, err := array(v)
	if err != nil {
		return Point{}, err
	}
	if len(a) < 2 {
		return Point{}, fmt.Errorf("position needs two coordinates, got %d", len(a))
	}
	x, err := number(a[0])
	if err != nil {
		return Point{}, err
	}
	y, err := number(a[1])
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func positions(v any) ([]Point, error) {
	a, err := array(v)
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(a))
	for i, e := range a {
		if out[i], err = position(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rings(v any) ([][]Point, error) {
	a, err := array(v)
	if err != nil {
		return nil, err
	}
	out := make([][]Point, len(a))
	for i, e := range a {
		if out[i], err = positions(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}
