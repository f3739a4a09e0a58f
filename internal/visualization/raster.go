// Package visualization renders recorded spike trains as a raster plot with
// a population rate trace, as standalone SVG or as an HTML page served locally.
package visualization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

// Layout of the SVG, in pixels.
const (
	plotWidth    = 960
	rasterHeight = 420
	rateHeight   = 120
	margin       = 48
	gap          = 24
)

const (
	colorExcitatory = "#1f5fbf"
	colorInhibitory = "#c0392b"
)

// Raster is the data of one plot.
type Raster struct {
	Title      string
	Neurons    int
	Excitatory int     // neurons [0, Excitatory) are excitatory
	Duration   float64 // ms
	Spikes     []simulation.Spike

	// BinMS is the width of the population rate bins. Zero uses 5 ms.
	BinMS float64
}

func (r *Raster) binWidth() float64 {
	if r.BinMS > 0 {
		return r.BinMS
	}
	return 5
}

// PopulationRate returns the left bin edges and the population rate in Hz
// of every bin. Spikes must be ordered by time.
func (r *Raster) PopulationRate() (edges, rate []float64) {
	if r.Duration <= 0 || r.Neurons <= 0 {
		return nil, nil
	}
	bin := r.binWidth()
	nbins := max(int(math.Ceil(r.Duration/bin-1e-9)), 1)
	dividers := make([]float64, nbins+1)
	floats.Span(dividers, 0, float64(nbins)*bin)

	times := make([]float64, 0, len(r.Spikes))
	for _, s := range r.Spikes {
		if s.Time >= 0 && s.Time < dividers[nbins] {
			times = append(times, s.Time)
		}
	}
	counts := stat.Histogram(nil, dividers, times, nil)

	scale := 1000 / (bin * float64(r.Neurons))
	floats.Scale(scale, counts)
	return dividers[:nbins], counts
}

// SVG renders the raster and the rate trace below it.
func (r *Raster) SVG() []byte {
	var b bytes.Buffer
	height := margin + rasterHeight + gap + rateHeight + margin
	inner := float64(plotWidth - 2*margin)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`+"\n",
		plotWidth, height, plotWidth, height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")
	if r.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="14">%s</text>`+"\n", margin, margin/2, template.HTMLEscapeString(r.Title))
	}

	x := func(t float64) float64 {
		if r.Duration <= 0 {
			return margin
		}
		return margin + inner*t/r.Duration
	}

	// Raster.
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%g" height="%d" fill="none" stroke="#888"/>`+"\n", margin, margin, inner, rasterHeight)
	if r.Neurons > 0 {
		rowH := float64(rasterHeight) / float64(r.Neurons)
		dot := math.Max(rowH, 1)
		for _, s := range r.Spikes {
			color := colorExcitatory
			if s.Neuron >= r.Excitatory {
				color = colorInhibitory
			}
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="1" height="%.2f" fill="%s"/>`+"\n",
				x(s.Time), float64(margin)+rowH*float64(s.Neuron), dot, color)
		}
	}
	fmt.Fprintf(&b, `<text x="4" y="%d">neuron</text>`+"\n", margin+rasterHeight/2)

	// Rate trace.
	top := margin + rasterHeight + gap
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%g" height="%d" fill="none" stroke="#888"/>`+"\n", margin, top, inner, rateHeight)
	edges, rate := r.PopulationRate()
	if len(rate) > 0 {
		peak := floats.Max(rate)
		if peak <= 0 {
			peak = 1
		}
		var pts bytes.Buffer
		bin := r.binWidth()
		for i, v := range rate {
			y := float64(top+rateHeight) - float64(rateHeight)*v/peak
			fmt.Fprintf(&pts, "%.2f,%.2f %.2f,%.2f ", x(edges[i]), y, x(math.Min(edges[i]+bin, r.Duration)), y)
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="#333"/>`+"\n", bytes.TrimSpace(pts.Bytes()))
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end">%.0f Hz</text>`+"\n", margin-4, top+10, peak)
	}
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end">%g ms</text>`+"\n", plotWidth-margin, top+rateHeight+16, r.Duration)
	fmt.Fprintf(&b, `<text x="%d" y="%d">0</text>`+"\n", margin, top+rateHeight+16)

	b.WriteString("</svg>\n")
	return b.Bytes()
}

type htmlTemplateData struct {
	Title      string
	SVG        template.HTML
	SpikesJSON template.JS
	Neurons    int
	Excitatory int
	Spikes     int
	Duration   float64
}

// HTML renders a self-contained page with the SVG and the spikes as inline JSON.
func (r *Raster) HTML() ([]byte, error) {
	tmplBytes, err := templates.ReadFile("templates/raster.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}
	tmpl, err := template.New("raster").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	spikesJSON, err := json.Marshal(r.Spikes)
	if err != nil {
		return nil, fmt.Errorf("marshal spikes: %w", err)
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, spikesJSON)

	var buf bytes.Buffer
	data := htmlTemplateData{
		Title:      r.Title,
		SVG:        template.HTML(r.SVG()), // #nosec G203 -- generated markup, title escaped
		SpikesJSON: template.JS(escaped.String()),
		Neurons:    r.Neurons,
		Excitatory: r.Excitatory,
		Spikes:     len(r.Spikes),
		Duration:   r.Duration,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}
