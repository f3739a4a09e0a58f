package stimulus

import (
	"errors"
	"math"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/rngstream"
	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

func stream(t *testing.T) *rngstream.Stream {
	t.Helper()
	reg, err := rngstream.NewRegistry(8, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return reg.Stream(rngstream.InputWaveform)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"none", "", false},
		{"sine", "sine", false},
		{"BUMPS", "bumps", false},
		{"square", "", true},
	}
	for _, tt := range tests {
		g, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, simerr.ErrConfiguration) {
				t.Errorf("Parse(%q) err = %v, want ErrConfiguration", tt.in, err)
			}
			continue
		}
		got := ""
		if g != nil {
			got = g.Name()
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShapes(t *testing.T) {
	for _, g := range []Generator{DefaultSine(), DefaultBumps()} {
		t.Run(g.Name(), func(t *testing.T) {
			out := g.Generate(stream(t), 50, 7, 0.1)
			if len(out) != 7 {
				t.Fatalf("rows = %d, want 7", len(out))
			}
			for i, row := range out {
				if len(row) != 500 {
					t.Fatalf("row %d has %d samples, want 500", i, len(row))
				}
			}
		})
	}
}

func TestNoiselessSine(t *testing.T) {
	g := DefaultSine()
	g.NoiseStd = 0
	out := g.Generate(stream(t), 400, 1, 0.1)
	row := out[0]
	if row[0] != 0 {
		t.Errorf("sample 0 = %g, want 0", row[0])
	}
	// peak at a quarter period (100 ms)
	if math.Abs(row[1000]-2) > 1e-9 {
		t.Errorf("sample at 100 ms = %g, want 2", row[1000])
	}
	// negative half is rectified
	if row[3000] != 0 {
		t.Errorf("sample at 300 ms = %g, want 0", row[3000])
	}
}

func TestNoiselessBumps(t *testing.T) {
	g := DefaultBumps()
	g.NoiseStd = 0
	row := g.Generate(stream(t), 100, 1, 0.1)[0]
	peak := 0.0
	for _, v := range row {
		if v < 0 {
			t.Fatalf("negative sample %g", v)
		}
		peak = math.Max(peak, v)
	}
	if math.Abs(peak-3) > 1e-9 {
		t.Errorf("peak = %g, want 3", peak)
	}
	if row[0] > 1e-9 || row[len(row)-1] > 1e-9 {
		t.Errorf("edges = (%g, %g), want 0", row[0], row[len(row)-1])
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := DefaultSine().Generate(stream(t), 10, 3, 0.1)
	b := DefaultSine().Generate(stream(t), 10, 3, 0.1)
	for i := range a {
		for k := range a[i] {
			if a[i][k] != b[i][k] {
				t.Fatalf("sample (%d, %d) differs: %g vs %g", i, k, a[i][k], b[i][k])
			}
		}
	}
}
