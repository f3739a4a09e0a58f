package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestRunsCmd_ListShowPrune(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	catalog := filepath.Join(dir, "catalog")

	var ids []string
	for trial := 0; trial < 3; trial++ {
		out, err := executeCmd(t, smallRunArgs(dir, "--json", "--trial", strconv.Itoa(trial))...)
		if err != nil {
			t.Fatalf("run trial %d: %v", trial, err)
		}
		var got struct {
			RunID string `json:"run_id"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decoding %q: %v", out, err)
		}
		ids = append(ids, got.RunID)
	}

	out, err := executeCmd(t, "runs", "list", "--json", "--catalog", catalog)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if list.Count != 3 {
		t.Errorf("count = %d, want 3", list.Count)
	}

	out, err = executeCmd(t, "runs", "show", ids[1], "--catalog", catalog, "--spikes")
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	for _, want := range []string{ids[1], "trial 1", "N=100 C=20", "30 / 30 neurons"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = executeCmd(t, "runs", "prune", "--keep", "1", "--json", "--catalog", catalog)
	if err != nil {
		t.Fatalf("runs prune: %v", err)
	}
	var pruned struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &pruned); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if pruned.Count != 2 {
		t.Errorf("pruned %d runs, want 2", pruned.Count)
	}
}

func TestRunsCmd_NoCatalog(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := executeCmd(t, "runs", "list"); err == nil || !strings.Contains(err.Error(), "no run catalog") {
		t.Errorf("runs list error = %v, want missing catalog", err)
	}
}

func TestRunsCmd_ShowUnknown(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := executeCmd(t, "runs", "show", "00000000-0000-0000-0000-000000000000", "--catalog", dir)
	if err == nil || !strings.Contains(err.Error(), "run not found") {
		t.Errorf("runs show error = %v, want run not found", err)
	}
}

func TestRunsCmd_PruneNeedsPolicy(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if _, err := executeCmd(t, "runs", "prune", "--catalog", dir); err == nil {
		t.Error("prune without a policy should fail")
	}
}

func TestRetentionPolicy(t *testing.T) {
	if retentionPolicy(0, 0) != nil {
		t.Error("no flags should yield no policy")
	}
	if retentionPolicy(5, 0) == nil || retentionPolicy(0, time.Hour) == nil {
		t.Error("single flag should yield a policy")
	}
	if retentionPolicy(5, time.Hour) == nil {
		t.Error("both flags should yield a policy")
	}
}

func TestRunsCmd_Verify(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if _, err := executeCmd(t, smallRunArgs(dir)...); err != nil {
		t.Fatalf("run: %v", err)
	}
	path := filepath.Join(dir, "spikes.gz")

	out, err := executeCmd(t, "runs", "verify", path)
	if err != nil {
		t.Fatalf("runs verify: %v", err)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("verify output = %q, want OK", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCmd(t, "runs", "verify", path); err == nil {
		t.Error("verify should fail on a corrupted payload")
	}
}

func TestConfigCmd_InitShow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := executeCmd(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bsn.yaml")); err != nil {
		t.Fatalf("bsn.yaml not written: %v", err)
	}
	if _, err := executeCmd(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err := executeCmd(t, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var cfg struct {
		Network struct {
			N int `json:"n"`
		} `json:"network"`
	}
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if cfg.Network.N != 10000 {
		t.Errorf("network.n = %d, want 10000", cfg.Network.N)
	}
}

func TestRunsCmd_Plot(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	catalog := filepath.Join(dir, "catalog")

	out, err := executeCmd(t, smallRunArgs(dir, "--json")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var got struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}

	svg, err := executeCmd(t, "runs", "plot", got.RunID, "--catalog", catalog)
	if err != nil {
		t.Fatalf("runs plot: %v", err)
	}
	if !strings.HasPrefix(svg, "<svg") {
		t.Errorf("plot output does not start with <svg: %.40q", svg)
	}

	htmlPath := filepath.Join(dir, "raster.html")
	if _, err := executeCmd(t, "runs", "plot", got.RunID, "--catalog", catalog, "--html", htmlPath); err != nil {
		t.Fatalf("runs plot --html: %v", err)
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("reading html: %v", err)
	}
	if !strings.Contains(string(data), got.RunID) {
		t.Error("html page should name the run")
	}
}
