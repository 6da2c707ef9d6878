package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualtest/pkg/observability"
	"github.com/matzehuels/visualtest/pkg/report"
)

const pointsStyle = `<Map background-color="#ffffff">
  <Parameters><Parameter name="sizes">40x20</Parameter></Parameters>
  <Style name="s"><Rule><MarkersSymbolizer fill="#ff0000" width="4"/></Rule></Style>
  <Layer name="l">
    <StyleName>s</StyleName>
    <Datasource>
      <Parameter name="type">csv</Parameter>
      <Parameter name="inline">x,y
0,0
10,5</Parameter>
    </Datasource>
  </Layer>
</Map>
`

// testConfig returns a config over a temporary styles directory holding
// one style rendered by the svg backend at scale 1.
func testConfig(t *testing.T) config {
	t.Helper()
	dir := t.TempDir()
	styles := filepath.Join(dir, "styles")
	if err := os.MkdirAll(styles, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(styles, "points.xml"), []byte(pointsStyle), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	cfg.StylesDir = styles
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ReferenceDir = filepath.Join(dir, "ref")
	cfg.Renderers = []string{"svg"}
	cfg.Scales = []float64{1}
	return cfg
}

func testContext() (context.Context, *bytes.Buffer) {
	var logs bytes.Buffer
	return withLogger(context.Background(), newLogger(&logs, log.DebugLevel)), &logs
}

func TestRunTestsLifecycle(t *testing.T) {
	defer observability.Reset()
	c := New(os.Stderr, LogInfo)
	cfg := testConfig(t)
	ctx, logs := testContext()

	// No reference yet: skipped, not failed.
	var out bytes.Buffer
	if err := c.runTests(ctx, cfg, displayFull, nil, &out); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !strings.Contains(out.String(), "SKIPPED") {
		t.Errorf("first run output:\n%s", out.String())
	}
	if !strings.Contains(logs.String(), "style evaluated") {
		t.Errorf("debug hooks not installed:\n%s", logs.String())
	}

	cfg.Overwrite = true
	out.Reset()
	if err := c.runTests(ctx, cfg, displayShort, nil, &out); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	if !strings.Contains(out.String(), "w") {
		t.Errorf("overwrite run output:\n%s", out.String())
	}

	cfg.Overwrite = false
	cfg.Report.JSON = filepath.Join(t.TempDir(), "report.json")
	cfg.Report.JSONLines = filepath.Join(t.TempDir(), "results.jsonl")
	out.Reset()
	if err := c.runTests(ctx, cfg, displayFull, []string{"points"}, &out); err != nil {
		t.Fatalf("compare run: %v", err)
	}
	run, err := report.ReadRun(cfg.Report.JSON)
	if err != nil {
		t.Fatalf("ReadRun: %v", err)
	}
	if run.Summary.OK != 1 || run.Summary.Total() != 1 || run.Renderers[0] != "svg" {
		t.Errorf("report = %+v", run)
	}
	lines, err := os.ReadFile(cfg.Report.JSONLines)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if n := strings.Count(string(lines), "\n"); n != 1 || !strings.Contains(string(lines), `"state":"OK"`) {
		t.Errorf("stream = %q", lines)
	}
	cfg.Report.JSONLines = ""

	// Corrupt the reference: the run must fail.
	ref := filepath.Join(cfg.ReferenceDir, "points-40-20-1.0-svg.svg")
	if err := os.WriteFile(ref, []byte("<svg/>\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err = c.runTests(ctx, cfg, displayQuiet, nil, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 visual tests failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "Failures") {
		t.Errorf("quiet run should list failures:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "points-40-20-1.0-svg.svg")); err != nil {
		t.Errorf("actual image not written: %v", err)
	}
}

func TestRunTestsStyleErrorFailsRun(t *testing.T) {
	defer observability.Reset()
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.StylesDir, "broken.xml"), []byte("<Map><Layer>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Overwrite = true

	ctx, _ := testContext()
	var out bytes.Buffer
	err := New(os.Stderr, LogInfo).runTests(ctx, cfg, displayFull, nil, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "broken.xml") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunTestsConfigErrors(t *testing.T) {
	defer observability.Reset()
	ctx, _ := testContext()
	c := New(os.Stderr, LogInfo)

	cfg := testConfig(t)
	cfg.Sizes = "nope"
	if err := c.runTests(ctx, cfg, displayFull, nil, &bytes.Buffer{}); err == nil {
		t.Error("bad sizes should fail before running")
	}

	cfg = testConfig(t)
	cfg.Report.RedisAddr = "127.0.0.1:1"
	if err := c.runTests(ctx, cfg, displayFull, nil, &bytes.Buffer{}); err == nil {
		t.Error("unreachable redis should fail the run")
	}

	cfg = testConfig(t)
	if err := c.runTests(ctx, cfg, displayFull, []string{"../escape"}, &bytes.Buffer{}); err == nil {
		t.Error("invalid style name should fail the run")
	}
}

func TestRootCommand(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	want := map[string]bool{"run": false, "renderers": false, "serve": false, "clean": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommandRunsRenderers(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"renderers"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Renderers") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestStoreQueue(t *testing.T) {
	if q := newStoreQueue(nil); q != nil {
		t.Errorf("newStoreQueue(nil) = %v, want nil", q)
	}

	release := make(chan struct{})
	var stored report.Collector
	slow := report.SinkFunc(func(r report.Result) {
		<-release
		stored.Report(r)
	})
	q := newStoreQueue([]report.Sink{slow, nil})

	// Workers must not wait on a blocked store.
	reported := make(chan struct{})
	go func() {
		for range 3 {
			q.Report(report.Result{Name: "s", State: report.StateOK})
		}
		close(reported)
	}()
	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a slow store")
	}
	if stored.Len() != 0 {
		t.Fatalf("store saw %d results before release", stored.Len())
	}

	close(release)
	q.Close()
	if stored.Len() != 3 {
		t.Errorf("store saw %d results after Close, want 3", stored.Len())
	}
}
