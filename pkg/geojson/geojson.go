// Package geojson builds GeoJSON geometries and features with coordinates
// rounded to a fixed number of decimals. Positions are (east longitude, latitude).
package geojson

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Precision is the default number of decimals kept on coordinates and float properties
const Precision = 2

var (
	// ErrInvalidCoordinates is returned when coordinates do not fit the geometry
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrNoGeometry is returned when a single field is not a geometry
	ErrNoGeometry = errors.New("no geometry was provided")
)

// Position is an (east longitude, latitude) pair
type Position [2]float64

// Object is a geometry or a feature
type Object interface {
	JSON() (string, error)
}

// Geometry is a GeoJSON geometry object
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// JSON encodes the geometry
func (g Geometry) JSON() (string, error) { return encode(g) }

// Feature is a GeoJSON feature: a geometry and its properties
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// JSON encodes the feature. Property keys are sorted.
func (f Feature) JSON() (string, error) { return encode(f) }

func encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode geojson")
	}
	return string(b), nil
}

// Builder creates geometries rounded to Prec decimals
type Builder struct {
	Prec int
}

// Default rounds to Precision decimals
var Default = Builder{Prec: Precision}

func (b Builder) round(v float64) float64 {
	p := math.Pow(10, float64(b.Prec))
	return math.Round(v*p) / p
}

func (b Builder) position(p Position) []float64 {
	return []float64{b.round(p[0]), b.round(p[1])}
}

func (b Builder) vertices(vs []Position) [][]float64 {
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = b.position(v)
	}
	return out
}

func (b Builder) rings(rs [][]Position) [][][]float64 {
	out := make([][][]float64, len(rs))
	for i, r := range rs {
		out[i] = b.vertices(r)
	}
	return out
}

// Point creates a point geometry
func (b Builder) Point(lonE, lat float64) Geometry {
	return Geometry{Type: "Point", Coordinates: b.position(Position{lonE, lat})}
}

// LineString creates a line string from its vertices
func (b Builder) LineString(vertices []Position) Geometry {
	return Geometry{Type: "LineString", Coordinates: b.vertices(vertices)}
}

// Polygon creates a polygon from its exterior ring followed by its holes
func (b Builder) Polygon(rings ...[]Position) Geometry {
	return Geometry{Type: "Polygon", Coordinates: b.rings(rings)}
}

// MultiPoint creates a multi point geometry
func (b Builder) MultiPoint(points []Position) Geometry {
	return Geometry{Type: "MultiPoint", Coordinates: b.vertices(points)}
}

// MultiLineString creates a multi line string geometry
func (b Builder) MultiLineString(lines ...[]Position) Geometry {
	return Geometry{Type: "MultiLineString", Coordinates: b.rings(lines)}
}

// MultiPolygon creates a multi polygon geometry, each polygon being a list of rings
func (b Builder) MultiPolygon(polygons [][][]Position) Geometry {
	coords := make([][][][]float64, len(polygons))
	for i, p := range polygons {
		coords[i] = b.rings(p)
	}
	return Geometry{Type: "MultiPolygon", Coordinates: coords}
}

// Footprint joins closed outlines into a polygon, or a multi polygon when
// several remain. Outlines with fewer than four positions or whose ends
// differ cannot bound an area and are dropped.
func (b Builder) Footprint(outlines [][]Position) (Geometry, error) {
	var polygons [][][]Position
	for _, r := range outlines {
		if len(r) < 4 || r[0] != r[len(r)-1] {
			continue
		}
		polygons = append(polygons, [][]Position{r})
	}
	switch len(polygons) {
	case 0:
		return Geometry{}, errors.Wrapf(ErrInvalidCoordinates, "no closed ring among %d outlines", len(outlines))
	case 1:
		return b.Polygon(polygons[0]...), nil
	}
	return b.MultiPolygon(polygons), nil
}

// Feature wraps a geometry with properties. Float properties are rounded.
func (b Builder) Feature(g *Geometry, props map[string]interface{}) Feature {
	f := Feature{Type: "Feature", Geometry: g}
	for k, v := range props {
		if f.Properties == nil {
			f.Properties = make(map[string]interface{}, len(props))
		}
		switch x := v.(type) {
		case float64:
			f.Properties[k] = b.round(x)
		case float32:
			f.Properties[k] = b.round(float64(x))
		default:
			f.Properties[k] = v
		}
	}
	return f
}

// Zip pairs longitudes and latitudes into positions
func Zip(lonE, lat []float64) ([]Position, error) {
	if len(lonE) != len(lat) {
		return nil, errors.Wrapf(ErrInvalidCoordinates, "%d longitudes for %d latitudes", len(lonE), len(lat))
	}
	out := make([]Position, len(lonE))
	for i := range lonE {
		out[i] = Position{lonE[i], lat[i]}
	}
	return out, nil
}

// geometry kinds accepted by Geometry and New
var kinds = map[string]string{
	"point":           "Point",
	"line":            "LineString",
	"linestring":      "LineString",
	"polygon":         "Polygon",
	"multipoint":      "MultiPoint",
	"multiline":       "MultiLineString",
	"multilinestring": "MultiLineString",
	"multipolygon":    "MultiPolygon",
}

// IsGeometry reports whether name is a geometry kind (point, line, polygon, ...)
func IsGeometry(name string) bool {
	_, ok := kinds[strings.ToLower(name)]
	return ok
}

// Geometry creates the geometry named kind. Points take a Position or a
// []float64 pair; line strings and multi points take []Position; polygons and
// multi line strings take a single []Position or a [][]Position; multi
// polygons take [][][]Position.
func (b Builder) Geometry(kind string, coords interface{}) (Geometry, error) {
	typ, ok := kinds[strings.ToLower(kind)]
	if !ok {
		return Geometry{}, errors.Wrapf(ErrNoGeometry, "unknown geometry %q", kind)
	}
	bad := errors.Wrapf(ErrInvalidCoordinates, "%s from %T", typ, coords)

	switch typ {
	case "Point":
		switch c := coords.(type) {
		case Position:
			return b.Point(c[0], c[1]), nil
		case []float64:
			if len(c) == 2 {
				return b.Point(c[0], c[1]), nil
			}
		}
	case "LineString", "MultiPoint":
		if c, ok := coords.([]Position); ok {
			return Geometry{Type: typ, Coordinates: b.vertices(c)}, nil
		}
	case "Polygon", "MultiLineString":
		switch c := coords.(type) {
		case []Position:
			return Geometry{Type: typ, Coordinates: b.rings([][]Position{c})}, nil
		case [][]Position:
			return Geometry{Type: typ, Coordinates: b.rings(c)}, nil
		}
	case "MultiPolygon":
		if c, ok := coords.([][][]Position); ok {
			return b.MultiPolygon(c), nil
		}
	}
	return Geometry{}, bad
}

// New builds a geometry or a feature from named fields. A single geometry
// field gives a bare geometry; otherwise the result is a feature whose other
// fields are properties. A single field that is not a geometry is an error.
func (b Builder) New(fields map[string]interface{}) (Object, error) {
	var geom *Geometry
	props := make(map[string]interface{})
	for k, v := range fields {
		if !IsGeometry(k) {
			props[k] = v
			continue
		}
		if geom != nil {
			return nil, errors.Wrap(ErrInvalidCoordinates, "more than one geometry")
		}
		g, err := b.Geometry(k, v)
		if err != nil {
			return nil, err
		}
		geom = &g
	}

	if len(fields) == 1 {
		if geom == nil {
			return nil, ErrNoGeometry
		}
		return *geom, nil
	}
	return b.Feature(geom, props), nil
}

// Point creates a point with the default precision
func Point(lonE, lat float64) Geometry { return Default.Point(lonE, lat) }

// LineString creates a line string with the default precision
func LineString(vertices []Position) Geometry { return Default.LineString(vertices) }

// Polygon creates a polygon with the default precision
func Polygon(rings ...[]Position) Geometry { return Default.Polygon(rings...) }

// MultiPoint creates a multi point with the default precision
func MultiPoint(points []Position) Geometry { return Default.MultiPoint(points) }

// MultiLineString creates a multi line string with the default precision
func MultiLineString(lines ...[]Position) Geometry { return Default.MultiLineString(lines...) }

// MultiPolygon creates a multi polygon with the default precision
func MultiPolygon(polygons [][][]Position) Geometry { return Default.MultiPolygon(polygons) }

// Footprint joins closed outlines with the default precision
func Footprint(outlines [][]Position) (Geometry, error) { return Default.Footprint(outlines) }

// NewFeature creates a feature with the default precision
func NewFeature(g *Geometry, props map[string]interface{}) Feature { return Default.Feature(g, props) }

// New builds a geometry or a feature with the default precision
func New(fields map[string]interface{}) (Object, error) { return Default.New(fields) }
