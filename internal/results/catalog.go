package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fraziphy/balanced-spiking-network/internal/simulation"
)

// CatalogFile is the database file name inside the catalog directory.
const CatalogFile = "runs.db"

// timeLayout sorts lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when a run ID is not in the catalog.
var ErrRunNotFound = errors.New("run not found")

// RunInfo is the catalog row of a run.
type RunInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Entropy      uint64    `json:"entropy"`
	Session      int       `json:"session"`
	Trial        int       `json:"trial"`
	Neurons      int       `json:"neurons"`
	InDegree     int       `json:"in_degree"`
	Duration     float64   `json:"duration"`
	BurnIn       float64   `json:"burn_in"`
	SpikeCount   int       `json:"spike_count"`
	RateHz       float64   `json:"rate_hz"`
	OutputPath   string    `json:"output_path,omitempty"`
	OutputFormat string    `json:"output_format,omitempty"`
	Meta         Meta      `json:"meta"`
}

// Catalog is a SQLite index of runs and their spikes.
type Catalog struct {
	db   *sql.DB
	path string
}

// OpenCatalog opens (creating if needed) the catalog at dir/runs.db.
func OpenCatalog(dir string) (*Catalog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	path := filepath.Join(dir, CatalogFile)

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string { return c.path }

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// SaveRun stores a record with its spikes and input sets. outputPath and
// format describe where the record file was written, if anywhere.
func (c *Catalog) SaveRun(ctx context.Context, rec *Record, outputPath, format string) error {
	if !ValidID(rec.Meta.ID) {
		return fmt.Errorf("invalid run id %q", rec.Meta.ID)
	}
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("marshaling run metadata: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, entropy, session, trial, neurons, in_degree,
			duration, burn_in, spike_count, rate_hz, output_path, output_format, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Meta.ID, rec.Meta.CreatedAt.UTC().Format(timeLayout), int64(rec.Meta.Entropy),
		rec.Meta.Session, rec.Meta.Trial, rec.Meta.Topology.N, rec.Meta.Topology.C,
		rec.Meta.Duration, rec.Meta.BurnIn, len(rec.Spikes), rec.Summary.RateHz,
		nullString(outputPath), nullString(format), string(meta))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	spikeStmt, err := tx.PrepareContext(ctx, `INSERT INTO spikes (run_id, seq, time, neuron) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare spike insert: %w", err)
	}
	defer spikeStmt.Close()
	for i, s := range rec.Spikes {
		if _, err := spikeStmt.ExecContext(ctx, rec.Meta.ID, i, s.Time, s.Neuron); err != nil {
			return fmt.Errorf("failed to insert spike %d: %w", i, err)
		}
	}

	inputStmt, err := tx.PrepareContext(ctx, `INSERT INTO input_neurons (run_id, input_set, position, neuron) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare input insert: %w", err)
	}
	defer inputStmt.Close()
	for set, neurons := range [][]int{rec.Input1, rec.Input2} {
		for p, n := range neurons {
			if _, err := inputStmt.ExecContext(ctx, rec.Meta.ID, set+1, p, n); err != nil {
				return fmt.Errorf("failed to insert input neuron: %w", err)
			}
		}
	}

	return tx.Commit()
}

const runColumns = `id, created_at, entropy, session, trial, neurons, in_degree,
	duration, burn_in, spike_count, rate_hz, output_path, output_format, meta`

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (c *Catalog) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *info)
	}
	return runs, rows.Err()
}

// GetRun returns one run or ErrRunNotFound.
func (c *Catalog) GetRun(ctx context.Context, id string) (*RunInfo, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return info, err
}

// Spikes returns the spikes of a run in recording order.
func (c *Catalog) Spikes(ctx context.Context, id string) ([]simulation.Spike, error) {
	if _, err := c.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, `SELECT time, neuron FROM spikes WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query spikes: %w", err)
	}
	defer rows.Close()

	spikes := []simulation.Spike{}
	for rows.Next() {
		var s simulation.Spike
		if err := rows.Scan(&s.Time, &s.Neuron); err != nil {
			return nil, fmt.Errorf("failed to scan spike: %w", err)
		}
		spikes = append(spikes, s)
	}
	return spikes, rows.Err()
}

// Inputs returns the two input sets of a run.
func (c *Catalog) Inputs(ctx context.Context, id string) (set1, set2 []int, err error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT input_set, neuron FROM input_neurons WHERE run_id = ? ORDER BY input_set, position`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query input neurons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var set, n int
		if err := rows.Scan(&set, &n); err != nil {
			return nil, nil, fmt.Errorf("failed to scan input neuron: %w", err)
		}
		if set == 1 {
			set1 = append(set1, n)
		} else {
			set2 = append(set2, n)
		}
	}
	return set1, set2, rows.Err()
}

// DeleteRun removes a run together with its spikes and input sets.
func (c *Catalog) DeleteRun(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Prune deletes every run the policy does not keep and returns the removed IDs.
func (c *Catalog) Prune(ctx context.Context, policy RetentionPolicy) ([]string, error) {
	runs, err := c.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool)
	for _, r := range policy.Apply(runs) {
		keep[r.ID] = true
	}

	var removed []string
	for _, r := range runs {
		if keep[r.ID] {
			continue
		}
		if err := c.DeleteRun(ctx, r.ID); err != nil {
			return removed, err
		}
		removed = append(removed, r.ID)
	}
	return removed, nil
}

// ValidateIntegrity checks the catalog database.
func (c *Catalog) ValidateIntegrity(ctx context.Context) error {
	return ValidateIntegrity(ctx, c.db)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunInfo, error) {
	var (
		info            RunInfo
		createdAt, meta string
		entropy         int64
		outPath, outFmt sql.NullString
	)
	err := s.Scan(&info.ID, &createdAt, &entropy, &info.Session, &info.Trial, &info.Neurons, &info.InDegree,
		&info.Duration, &info.BurnIn, &info.SpikeCount, &info.RateHz, &outPath, &outFmt, &meta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	info.Entropy = uint64(entropy)
	info.OutputPath = outPath.String
	info.OutputFormat = outFmt.String
	if info.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of run %s: %w", info.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &info.Meta); err != nil {
		return nil, fmt.Errorf("parsing metadata of run %s: %w", info.ID, err)
	}
	return &info, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
