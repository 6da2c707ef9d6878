package mapstyle

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/observability"
)

// datasourceFunc opens a data source and returns its features.
type datasourceFunc func(ctx context.Context, p Params, baseDir string) ([]Geometry, error)

var datasources = map[string]datasourceFunc{
	"geojson": openGeoJSON,
	"csv":     openCSV,
	"mongodb": openMongo,
	"redis":   openRedis,
}

// DatasourceTypes returns the registered data source types in sorted order.
func DatasourceTypes() []string {
	types := make([]string, 0, len(datasources))
	for t := range datasources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func openDatasource(ctx context.Context, p Params, baseDir string) ([]Geometry, error) {
	typ := p["type"]
	if typ == "" {
		return nil, errors.New(errors.ErrCodeStyleLoad, "datasource without a type")
	}
	open, ok := datasources[typ]
	if !ok {
		return nil, errors.Unavailable(nil, "could not create datasource for type %q", typ)
	}
	start := time.Now()
	features, err := open(ctx, p, baseDir)
	observability.Datasource().OnOpen(ctx, typ, len(features), time.Since(start), err)
	return features, err
}

// readSource returns the "inline" parameter or the contents of the "file"
// parameter. A missing file makes the data source unavailable.
func readSource(p Params, baseDir, typ string) ([]byte, error) {
	if inline, ok := p["inline"]; ok {
		return []byte(inline), nil
	}
	file, ok := p["file"]
	if !ok || file == "" {
		return nil, errors.New(errors.ErrCodeStyleLoad, "%s datasource requires a file or inline parameter", typ)
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(baseDir, file)
	}
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, errors.Unavailable(err, "could not create datasource: %s", file)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "read %s", file)
	}
	return data, nil
}
