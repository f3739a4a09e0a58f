package results

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

// arrowBatchRows bounds the rows per record batch of a spike table.
const arrowBatchRows = 1 << 16

// spikeSchema returns the two-column spike table schema with run metadata.
func spikeSchema(meta map[string]string) *arrow.Schema {
	keys := make([]string, 0, len(meta))
	values := make([]string, 0, len(meta))
	for k, v := range meta {
		keys = append(keys, k)
		values = append(values, v)
	}
	md := arrow.NewMetadata(keys, values)
	return arrow.NewSchema([]arrow.Field{
		{Name: "time", Type: arrow.PrimitiveTypes.Float64},
		{Name: "neuron", Type: arrow.PrimitiveTypes.Int32},
	}, &md)
}

// WriteArrow writes spikes as an Arrow IPC file with columns time (float64, ms)
// and neuron (int32). meta is stored as schema metadata.
func WriteArrow(path string, spikes []simulation.Spike, meta map[string]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	schema := spikeSchema(meta)
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	times := b.Field(0).(*array.Float64Builder)
	neurons := b.Field(1).(*array.Int32Builder)

	for lo := 0; ; lo += arrowBatchRows {
		hi := min(lo+arrowBatchRows, len(spikes))
		for _, s := range spikes[lo:hi] {
			times.Append(s.Time)
			neurons.Append(int32(s.Neuron))
		}
		rec := b.NewRecord()
		err := w.Write(rec)
		rec.Release()
		if err != nil {
			return fmt.Errorf("writing arrow batch: %w", err)
		}
		if hi >= len(spikes) {
			break
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return f.Close()
}

// ReadArrow reads a spike table written by WriteArrow.
func ReadArrow(path string) ([]simulation.Spike, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer r.Close()

	schema := r.Schema()
	if schema.NumFields() != 2 || schema.Field(0).Name != "time" || schema.Field(1).Name != "neuron" {
		return nil, nil, fmt.Errorf("unexpected spike table schema: %s", schema)
	}

	var spikes []simulation.Spike
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, nil, fmt.Errorf("reading arrow batch %d: %w", i, err)
		}
		times, ok := rec.Column(0).(*array.Float64)
		if !ok {
			return nil, nil, fmt.Errorf("batch %d: time column is %s", i, rec.Column(0).DataType())
		}
		neurons, ok := rec.Column(1).(*array.Int32)
		if !ok {
			return nil, nil, fmt.Errorf("batch %d: neuron column is %s", i, rec.Column(1).DataType())
		}
		for j := 0; j < int(rec.NumRows()); j++ {
			spikes = append(spikes, simulation.Spike{Time: times.Value(j), Neuron: int(neurons.Value(j))})
		}
	}

	md := schema.Metadata()
	meta := make(map[string]string, md.Len())
	for i, k := range md.Keys() {
		meta[k] = md.Values()[i]
	}
	return spikes, meta, nil
}
