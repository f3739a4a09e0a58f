package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fraziphy/balanced-spiking-network/internal/simerr"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Network.N != 10000 || config.Network.C != 1000 {
		t.Errorf("expected N=10000 C=1000, got N=%d C=%d", config.Network.N, config.Network.C)
	}
	if config.Neural.MuZero != 15.1 {
		t.Errorf("expected mu_zero 15.1, got %g", config.Neural.MuZero)
	}
	if config.Run.Duration != 1000 {
		t.Errorf("expected duration 1000, got %g", config.Run.Duration)
	}
	if config.Inputs.Portion != 0.3 || config.Inputs.Overlap != 0.1 {
		t.Errorf("expected portion 0.3 overlap 0.1, got %g %g", config.Inputs.Portion, config.Inputs.Overlap)
	}
	if config.Output.Format != FormatGzip {
		t.Errorf("expected format gz, got %q", config.Output.Format)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bsn.yaml")

	configContent := `
neural:
  mu_zero: 20
network:
  n: 100
  c: 20
  v_th_std: 1.5
  v_th_distribution: normal
inputs:
  mu_1: sine
run:
  duration: 50
  burn_in: 10
  workers: 4
seed:
  entropy: 12345
  session: 2
  trial: 3
output:
  path: ${BSN_TEST_OUT}/spikes.arrow
  format: arrow
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("BSN_TEST_OUT", "/tmp/results")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Neural.MuZero != 20 {
		t.Errorf("expected mu_zero 20, got %g", config.Neural.MuZero)
	}
	if config.Neural.TauM != 10 {
		t.Errorf("expected unset tau_m to keep default 10, got %g", config.Neural.TauM)
	}
	if config.Network.N != 100 || config.Network.C != 20 || config.Network.F != 0.8 {
		t.Errorf("unexpected network %+v", config.Network)
	}
	if config.Network.VthDistribution != "normal" {
		t.Errorf("expected normal distribution, got %q", config.Network.VthDistribution)
	}
	if config.Inputs.Mu1 != "sine" || config.Inputs.Mu2 != "none" {
		t.Errorf("expected mu_1=sine mu_2=none, got %q %q", config.Inputs.Mu1, config.Inputs.Mu2)
	}
	if config.Run.Workers != 4 || config.Run.BurnIn != 10 {
		t.Errorf("unexpected run %+v", config.Run)
	}
	if config.Seed.Entropy != 12345 || config.Seed.Session != 2 || config.Seed.Trial != 3 {
		t.Errorf("unexpected seed %+v", config.Seed)
	}
	if config.Output.Path != "/tmp/results/spikes.arrow" {
		t.Errorf("expected expanded output path, got %q", config.Output.Path)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/bsn.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bsn.yaml")
	if err := os.WriteFile(configPath, []byte("network: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BSN_DURATION", "250")
	t.Setenv("BSN_SEED", "0x10")
	t.Setenv("BSN_TRIAL", "7")
	t.Setenv("BSN_FORMAT", "arrow")
	t.Setenv("BSN_LOG_LEVEL", "debug")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Run.Duration != 250 {
		t.Errorf("expected duration 250, got %g", config.Run.Duration)
	}
	if config.Seed.Entropy != 16 {
		t.Errorf("expected entropy 16, got %d", config.Seed.Entropy)
	}
	if config.Seed.Trial != 7 {
		t.Errorf("expected trial 7, got %d", config.Seed.Trial)
	}
	if config.Output.Format != FormatArrow {
		t.Errorf("expected format arrow, got %q", config.Output.Format)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %q", config.Logging.Level)
	}
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("run:\n  duration: 75\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Run.Duration != 75 {
		t.Errorf("expected duration 75 from %s, got %g", DefaultFile, config.Run.Duration)
	}
}

func TestLoad_MalformedEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BSN_WORKERS", "many")

	_, err := Load("")
	if !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("Load() err = %v, want ErrConfiguration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"negative duration", func(c *Config) { c.Run.Duration = -1 }, simerr.ErrConfiguration},
		{"negative burn-in", func(c *Config) { c.Run.BurnIn = -1 }, simerr.ErrConfiguration},
		{"bad format", func(c *Config) { c.Output.Format = "pickle" }, simerr.ErrConfiguration},
		{"bad stimulus", func(c *Config) { c.Inputs.Mu2 = "square" }, simerr.ErrConfiguration},
		{"overlap above portion", func(c *Config) { c.Inputs.Overlap = 0.5 }, simerr.ErrConfiguration},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, simerr.ErrConfiguration},
		{"zero dt", func(c *Config) { c.Neural.DT = 0 }, simerr.ErrConfiguration},
		{"in-degree too large", func(c *Config) { c.Network.N, c.Network.C = 10, 50 }, simerr.ErrSampling},
		{"negative trial", func(c *Config) { c.Seed.Trial = -1 }, simerr.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
