package visualization

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

func sampleRaster() *Raster {
	return &Raster{
		Title:      "run <1>",
		Neurons:    10,
		Excitatory: 8,
		Duration:   20,
		Spikes: []simulation.Spike{
			{Time: 0.5, Neuron: 1},
			{Time: 1.0, Neuron: 9},
			{Time: 6.0, Neuron: 2},
			{Time: 19.9, Neuron: 3},
		},
	}
}

func TestPopulationRate(t *testing.T) {
	r := sampleRaster()
	edges, rate := r.PopulationRate()

	if len(edges) != 4 || len(rate) != 4 {
		t.Fatalf("got %d edges and %d bins, want 4 each", len(edges), len(rate))
	}
	// 2 spikes in the first 5 ms bin over 10 neurons: 2 / (10 * 0.005 s) = 40 Hz.
	want := []float64{40, 20, 0, 20}
	for i := range want {
		if math.Abs(rate[i]-want[i]) > 1e-9 {
			t.Errorf("rate[%d] = %g, want %g", i, rate[i], want[i])
		}
	}
	if edges[1] != 5 {
		t.Errorf("edges[1] = %g, want 5", edges[1])
	}
}

func TestPopulationRate_Empty(t *testing.T) {
	r := &Raster{Neurons: 10, Excitatory: 8, Duration: 7, BinMS: 2}
	_, rate := r.PopulationRate()
	if len(rate) != 4 {
		t.Fatalf("len(rate) = %d, want 4", len(rate))
	}
	for i, v := range rate {
		if v != 0 {
			t.Errorf("rate[%d] = %g, want 0", i, v)
		}
	}

	if _, rate := (&Raster{Neurons: 10}).PopulationRate(); rate != nil {
		t.Errorf("zero duration rate = %v, want nil", rate)
	}
}

func TestSVG(t *testing.T) {
	svg := sampleRaster().SVG()

	if !bytes.HasPrefix(svg, []byte("<svg")) || !bytes.HasSuffix(bytes.TrimSpace(svg), []byte("</svg>")) {
		t.Fatal("output is not an svg document")
	}
	if got := bytes.Count(svg, []byte(colorExcitatory)); got != 3 {
		t.Errorf("excitatory dots = %d, want 3", got)
	}
	if got := bytes.Count(svg, []byte(colorInhibitory)); got != 1 {
		t.Errorf("inhibitory dots = %d, want 1", got)
	}
	if !bytes.Contains(svg, []byte("run &lt;1&gt;")) {
		t.Error("title should be escaped")
	}
	if !bytes.Contains(svg, []byte("<polyline")) {
		t.Error("missing rate trace")
	}
}

func TestHTML(t *testing.T) {
	html, err := sampleRaster().HTML()
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	s := string(html)
	for _, want := range []string{"<!DOCTYPE html>", "<svg", "window.spikes", `"t":19.9`, "10 neurons"} {
		if !strings.Contains(s, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}
