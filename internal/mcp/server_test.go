package mcp

import (
	"path/filepath"
	"testing"
)

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	server, err := NewServer(&Config{
		Name:       "test-server",
		Version:    "v1.0.0",
		CatalogDir: filepath.Join(dir, "catalog"),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.catalog == nil {
		t.Error("Server.catalog is nil")
	}
	if server.base == nil {
		t.Error("Server.base is nil, want defaults")
	}
}

func TestNewServer_NoCatalog(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0"})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.catalog != nil {
		t.Error("expected no catalog")
	}
	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", CatalogDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
