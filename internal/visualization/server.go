package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server serves one raster page and its spikes over HTTP on localhost.
type Server struct {
	raster     *Raster
	httpServer *http.Server
	mu         sync.Mutex
	addr       string
}

// NewServer creates a viewer for r.
func NewServer(r *Raster) *Server {
	return &Server{raster: r}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on an OS-assigned port and blocks
// until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/raster.svg", s.handleSVG)
	mux.HandleFunc("/api/spikes", s.handleSpikes)
	mux.HandleFunc("/api/rate", s.handleRate)

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	html, err := s.raster.HTML()
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(s.raster.SVG())
}

func (s *Server) handleSpikes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.raster.Spikes)
}

// handleRate serves the population rate, binned by the optional "bin" query
// parameter in ms.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	raster := *s.raster
	if v := r.URL.Query().Get("bin"); v != "" {
		var bin float64
		if _, err := fmt.Sscanf(v, "%g", &bin); err != nil || !(bin > 0) {
			http.Error(w, "invalid 'bin' query parameter: "+v, http.StatusBadRequest)
			return
		}
		raster.BinMS = bin
	}
	edges, rate := raster.PopulationRate()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"bin_ms": raster.binWidth(),
		"t":      edges,
		"rate":   rate,
	})
}
