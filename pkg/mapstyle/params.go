package mapstyle

import (
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// Params holds the extra parameters of a style document or the settings
// of a data source.
type Params map[string]string

// String returns the raw value of key.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Int returns key as an integer, or def when absent. Boolean words
// (true/false/on/off/yes/no) are accepted as 1 and 0.
func (p Params) Int(key string, def int64) (int64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	switch strings.ToLower(v) {
	case "true", "on", "yes":
		return 1, nil
	case "false", "off", "no":
		return 0, nil
	}
	return 0, errors.New(errors.ErrCodeParse, "invalid integer value for parameter %q: '%s'", key, v)
}

// Duration returns key as a duration ("2s", "500ms"; a bare number is read
// as seconds), or def when absent or unparsable.
func (p Params) Duration(key string, def time.Duration) time.Duration {
	v, ok := p[key]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
		return time.Duration(n * float64(time.Second))
	}
	return def
}
