// Package server exposes the lensing renderer over HTTP: image uploads,
// live previews, synchronous and queued GIF exports, and a minimal HTML
// index to drive it all from a browser.
package server

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/san-kum/mirage/internal/config"
	"github.com/san-kum/mirage/internal/jobs"
	"github.com/san-kum/mirage/internal/store"
)

type Server struct {
	cfg     *config.Config
	uploads *store.Store
	exports *store.Store
	queue   *jobs.Queue
	tmpl    *template.Template
}

// New builds a server over the configured upload/export directories,
// creating them if needed. The job queue is constructed but not started;
// Start owns its lifecycle.
func New(cfg *config.Config) (*Server, error) {
	uploads := store.New(cfg.UploadsDir)
	if err := uploads.Init(); err != nil {
		return nil, err
	}
	exports := store.New(cfg.ExportsDir)
	if err := exports.Init(); err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		uploads: uploads,
		exports: exports,
		queue:   jobs.NewQueue(exports, cfg.QueueSize),
		tmpl:    template.Must(template.New("index").Parse(indexHTML)),
	}, nil
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /uploads", s.handleUpload)
	mux.HandleFunc("GET /uploads/{name}", s.handleServeUpload)
	mux.HandleFunc("POST /delete/upload", s.handleDeleteUpload)
	mux.HandleFunc("POST /delete/export", s.handleDeleteExport)

	mux.HandleFunc("GET /preview/{name}", s.handlePreview)

	mux.HandleFunc("GET /exports/gif/{name}", s.handleGIF)
	mux.HandleFunc("POST /exports/gif/async/{name}", s.handleGIFAsync)
	mux.HandleFunc("GET /exports/gif/status/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /exports/gif/result/{id}", s.handleJobResult)
	mux.HandleFunc("GET /exports/list", s.handleExportsList)
	mux.HandleFunc("GET /exports/{name}", s.handleServeExport)

	return mux
}

// Start runs the job worker and the HTTP listener until ctx is cancelled,
// then shuts the listener down gracefully and drains the queue.
func (s *Server) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	defer s.queue.Stop()

	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Routes()}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.Printf("listening on %s", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

// StartQueue is for embedding the handler without a listener, e.g. tests.
func (s *Server) StartQueue(ctx context.Context) {
	s.queue.Start(ctx)
}

func (s *Server) StopQueue() {
	s.queue.Stop()
}

type indexData struct {
	Uploads  []string
	Exports  []string
	Defaults config.RenderConfig
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.uploads.List()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "listing uploads failed")
		return
	}
	exports, err := s.exports.List()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "listing exports failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, indexData{
		Uploads:  uploads,
		Exports:  exports,
		Defaults: s.cfg.Render,
	}); err != nil {
		log.Printf("index template: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing json response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
