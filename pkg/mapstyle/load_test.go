package mapstyle

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/visualtest/pkg/errors"
)

const lakesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,5],[0,5],[0,0]]]}},
    {"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[1,1],[2,2]]}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0,0],[10,5]]}}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadGeoJSONFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lakes.geojson", lakesGeoJSON)
	path := writeFile(t, dir, "lakes.xml", `<Map background-color="#fff">
  <Parameters>
    <Parameter name="sizes">100x50</Parameter>
    <Parameter name="status">1</Parameter>
  </Parameters>
  <Style name="water">
    <Rule>
      <PolygonSymbolizer fill="#9ecae1" fill-opacity="0.5"/>
      <LineSymbolizer stroke="#08519c" stroke-width="2"/>
      <MarkersSymbolizer fill="#f00" width="4"/>
    </Rule>
  </Style>
  <Layer name="lakes">
    <StyleName>water</StyleName>
    <Datasource>
      <Parameter name="type">geojson</Parameter>
      <Parameter name="file">lakes.geojson</Parameter>
    </Datasource>
  </Layer>
</Map>`)

	m := NewMap(500, 100)
	if err := Load(context.Background(), m, path); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if m.Background != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Background = %v", m.Background)
	}
	if v, _ := m.Params.String("sizes"); v != "100x50" {
		t.Errorf("sizes param = %q", v)
	}
	if len(m.Layers) != 1 || m.FeatureCount() != 4 {
		t.Fatalf("layers = %d, features = %d, want 1 and 4", len(m.Layers), m.FeatureCount())
	}
	rule := m.Styles["water"].Rules[0]
	if rule.Polygon == nil || rule.Polygon.Fill.A != 128 {
		t.Errorf("polygon symbolizer = %+v", rule.Polygon)
	}
	if rule.Line == nil || rule.Line.Width != 2 {
		t.Errorf("line symbolizer = %+v", rule.Line)
	}
	if rule.Markers == nil || rule.Markers.Fill != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("markers symbolizer = %+v", rule.Markers)
	}

	ext := m.Extent()
	if ext != (Box{0, 0, 10, 5}) {
		t.Errorf("Extent = %v", ext)
	}
}

func TestLoadInlineCSV(t *testing.T) {
	doc := `<Map>
  <Style name="dots"><Rule><MarkersSymbolizer/></Rule></Style>
  <Layer name="dots">
    <StyleName>dots</StyleName>
    <Datasource>
      <Parameter name="type">csv</Parameter>
      <Parameter name="inline">
lon,lat,name
1,2,a
3,4,b
</Parameter>
    </Datasource>
  </Layer>
</Map>`
	m := NewMap(10, 10)
	if err := LoadBytes(context.Background(), m, []byte(doc), "."); err != nil {
		t.Fatalf("LoadBytes error: %v", err)
	}
	if m.FeatureCount() != 2 {
		t.Fatalf("features = %d, want 2", m.FeatureCount())
	}
	if got := m.Layers[0].Features[1].Parts[0][0]; got != (Point{3, 4}) {
		t.Errorf("second point = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{
			name: "malformed xml",
			doc:  `<Map><Layer>`,
			code: errors.ErrCodeStyleLoad,
		},
		{
			name: "undefined style",
			doc:  `<Map><Layer name="a"><StyleName>nope</StyleName><Datasource><Parameter name="type">csv</Parameter><Parameter name="inline">x,y</Parameter></Datasource></Layer></Map>`,
			code: errors.ErrCodeStyleLoad,
		},
		{
			name: "bad color",
			doc:  `<Map background-color="#zzzzzz"/>`,
			code: errors.ErrCodeStyleLoad,
		},
		{
			name: "unknown datasource type",
			doc:  `<Map><Layer name="a"><Datasource><Parameter name="type">shape</Parameter></Datasource></Layer></Map>`,
			code: errors.ErrCodeDatasourceUnavailable,
		},
		{
			name: "missing datasource file",
			doc:  `<Map><Layer name="a"><Datasource><Parameter name="type">geojson</Parameter><Parameter name="file">missing.geojson</Parameter></Datasource></Layer></Map>`,
			code: errors.ErrCodeDatasourceUnavailable,
		},
		{
			name: "malformed geojson",
			doc:  `<Map><Layer name="a"><Datasource><Parameter name="type">geojson</Parameter><Parameter name="inline">{"type":"Point","coordinates":[1]}</Parameter></Datasource></Layer></Map>`,
			code: errors.ErrCodeStyleLoad,
		},
		{
			name: "csv without coordinates",
			doc:  `<Map><Layer name="a"><Datasource><Parameter name="type">csv</Parameter><Parameter name="inline">a,b
1,2</Parameter></Datasource></Layer></Map>`,
			code: errors.ErrCodeStyleLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap(10, 10)
			err := LoadBytes(context.Background(), m, []byte(tt.doc), t.TempDir())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestLoadMissingStyleFile(t *testing.T) {
	err := Load(context.Background(), NewMap(1, 1), filepath.Join(t.TempDir(), "nope.xml"))
	if !errors.Is(err, errors.ErrCodeStyleLoad) {
		t.Errorf("err = %v, want STYLE_LOAD", err)
	}
}

func TestLayerStatusOff(t *testing.T) {
	doc := `<Map><Layer name="a" status="off"><Datasource><Parameter name="type">shape</Parameter></Datasource></Layer></Map>`
	m := NewMap(10, 10)
	if err := LoadBytes(context.Background(), m, []byte(doc), "."); err != nil {
		t.Fatalf("disabled layer should not be opened: %v", err)
	}
	if len(m.Layers) != 0 {
		t.Errorf("layers = %d, want 0", len(m.Layers))
	}
}

func TestUnreachableServersAreUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		params string
	}{
		{"redis", `<Parameter name="type">redis</Parameter><Parameter name="addr">127.0.0.1:1</Parameter><Parameter name="key">pois</Parameter><Parameter name="timeout">200ms</Parameter>`},
		{"mongodb", `<Parameter name="type">mongodb</Parameter><Parameter name="uri">mongodb://127.0.0.1:1</Parameter><Parameter name="database">gis</Parameter><Parameter name="collection">roads</Parameter><Parameter name="timeout">200ms</Parameter>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<Map><Layer name="a"><Datasource>` + tt.params + `</Datasource></Layer></Map>`
			err := LoadBytes(context.Background(), NewMap(10, 10), []byte(doc), ".")
			if !errors.IsUnavailable(err) {
				t.Errorf("err = %v, want DATASOURCE_UNAVAILABLE", err)
			}
		})
	}
}

func TestDatasourceTypes(t *testing.T) {
	got := DatasourceTypes()
	want := []string{"csv", "geojson", "mongodb", "redis"}
	if len(got) != len(want) {
		t.Fatalf("DatasourceTypes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DatasourceTypes[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
