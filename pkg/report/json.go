package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/visualtest/pkg/buildinfo"
	"github.com/matzehuels/visualtest/pkg/errors"
)

// JSONLines writes each result as one JSON document followed by a newline.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Report encodes r. After the first write error further results are
// dropped; see Err.
func (j *JSONLines) Report(r Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(r)
}

// Err returns the first write error, if any.
func (j *JSONLines) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Run is the persisted record of one complete run.
type Run struct {
	ID         string         `json:"id"`
	Build      buildinfo.Info `json:"build"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Renderers  []string       `json:"renderers"`
	Jobs       int            `json:"jobs"`
	Summary    Summary        `json:"summary"`
	Results    []Result       `json:"results"`
}

// NewRun starts a run record with a fresh random ID.
func NewRun(renderers []string, jobs int) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Build:     buildinfo.Get(),
		StartedAt: time.Now().UTC(),
		Renderers: renderers,
		Jobs:      jobs,
	}
}

// Finish records the results and their summary.
func (r *Run) Finish(results []Result) {
	r.FinishedAt = time.Now().UTC()
	r.Results = results
	r.Summary = Summarize(results)
}

// Filter returns the results in the given state, or all results when state
// is empty.
func (r *Run) Filter(state State) []Result {
	if state == "" {
		return r.Results
	}
	var out []Result
	for _, res := range r.Results {
		if res.State == state {
			out = append(out, res)
		}
	}
	return out
}

// WriteFile writes the run as indented JSON, creating parent directories.
func (r *Run) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create report directory")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write report %s", path)
	}
	return nil
}

// ReadRun loads a run written by WriteFile.
func ReadRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "report %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read report %s", path)
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode report %s", path)
	}
	return &r, nil
}
