package mapstyle

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/visualtest/pkg/errors"
)

func TestParseBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Box
		wantErr bool
	}{
		{"commas", "-10,-5,10,5", Box{-10, -5, 10, 5}, false},
		{"spaces", "-10 -5 10 5", Box{-10, -5, 10, 5}, false},
		{"mixed", " 0, 0 ,1,  1", Box{0, 0, 1, 1}, false},
		{"swapped corners", "10,5,-10,-5", Box{-10, -5, 10, 5}, false},
		{"too few", "1,2,3", Box{}, true},
		{"not a number", "a,b,c,d", Box{}, true},
		{"nan", "NaN,0,1,1", Box{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBox(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBox(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeParse) {
					t.Errorf("code = %v, want PARSE_ERROR", errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseBox(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestZoomToBoxKeepsAspect(t *testing.T) {
	m := NewMap(200, 100)
	m.ZoomToBox(Box{0, 0, 10, 10})

	v := m.View()
	if math.Abs(v.Width()/v.Height()-2) > 1e-9 {
		t.Errorf("aspect = %v, want 2", v.Width()/v.Height())
	}
	if v.MinY != 0 || v.MaxY != 10 || v.MinX != -5 || v.MaxX != 15 {
		t.Errorf("view = %v, want -5,0,15,10", v)
	}

	m.Resize(100, 200)
	m.ZoomToBox(Box{0, 0, 10, 10})
	v = m.View()
	if v.MinX != 0 || v.MaxX != 10 || v.MinY != -5 || v.MaxY != 15 {
		t.Errorf("view = %v, want 0,-5,10,15", v)
	}
}

func TestZoomAll(t *testing.T) {
	m := NewMap(100, 100)
	before := m.View()
	m.ZoomAll()
	if m.View() != before {
		t.Errorf("ZoomAll on empty map changed view to %v", m.View())
	}

	m.Layers = []Layer{{
		Name:     "p",
		Features: []Geometry{{Kind: KindPoint, Parts: [][]Point{{{X: 3, Y: 4}}}}},
	}}
	m.ZoomAll()
	if got := m.View(); got != (Box{2, 3, 4, 5}) {
		t.Errorf("view = %v, want padded point box", got)
	}
}

func TestBoxSub(t *testing.T) {
	b := Box{0, 0, 100, 50}
	top := b.Sub(1, 0, 2, 2)
	if top != (Box{50, 25, 100, 50}) {
		t.Errorf("Sub(1,0) = %v", top)
	}
	bottom := b.Sub(0, 1, 2, 2)
	if bottom != (Box{0, 0, 50, 25}) {
		t.Errorf("Sub(0,1) = %v", bottom)
	}
}

func TestTransform(t *testing.T) {
	tr := NewTransform(Box{0, 0, 10, 10}, 100, 50)
	x, y := tr.Apply(Point{10, 10})
	if x != 100 || y != 0 {
		t.Errorf("Apply(max) = %v,%v", x, y)
	}
	x, y = tr.Apply(Point{0, 0})
	if x != 0 || y != 50 {
		t.Errorf("Apply(min) = %v,%v", x, y)
	}
}

func TestParams(t *testing.T) {
	p := Params{"status": "0", "on": "true", "bad": "maybe", "timeout": "250ms", "secs": "1.5"}

	tests := []struct {
		key     string
		def     int64
		want    int64
		wantErr bool
	}{
		{"status", 1, 0, false},
		{"on", 0, 1, false},
		{"missing", 1, 1, false},
		{"bad", 1, 0, true},
	}
	for _, tt := range tests {
		got, err := p.Int(tt.key, tt.def)
		if (err != nil) != tt.wantErr {
			t.Errorf("Int(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Int(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}

	if d := p.Duration("timeout", time.Second); d != 250*time.Millisecond {
		t.Errorf("Duration(timeout) = %v", d)
	}
	if d := p.Duration("secs", time.Second); d != 1500*time.Millisecond {
		t.Errorf("Duration(secs) = %v", d)
	}
	if d := p.Duration("bad", time.Second); d != time.Second {
		t.Errorf("Duration(bad) = %v", d)
	}
}
