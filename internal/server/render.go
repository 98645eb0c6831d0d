package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/san-kum/mirage/internal/imaging"
	"github.com/san-kum/mirage/internal/jobs"
	"github.com/san-kum/mirage/internal/lensing"
)

// handlePreview renders one lensed frame of an upload and streams it back
// as PNG. Heavy work runs on the request goroutine; the geodesic method on
// a large width is the slow path and the client picked it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path, err := s.uploads.Resolve(r.PathValue("name"))
	if err != nil {
		httpError(w, http.StatusNotFound, "no such upload")
		return
	}
	opts, width, err := s.renderParams(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	out, err := lensing.RenderFile(path, opts, width)
	if err != nil {
		log.Printf("preview %s: %v", r.PathValue("name"), err)
		httpError(w, http.StatusInternalServerError, "render failed")
		return
	}
	log.Printf("preview %s mass=%g scale=%g method=%s width=%d in %v",
		r.PathValue("name"), opts.Mass, opts.Scale, opts.Method, width, time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.EncodePNG(w, out); err != nil {
		log.Printf("encoding preview: %v", err)
	}
}

// handleGIF renders a full animation synchronously, stores it under the
// exports directory, and serves it as a download. Client disconnect aborts
// the frame loop through the request context.
func (s *Server) handleGIF(w http.ResponseWriter, r *http.Request) {
	path, err := s.uploads.Resolve(r.PathValue("name"))
	if err != nil {
		httpError(w, http.StatusNotFound, "no such upload")
		return
	}
	opts, width, err := s.renderParams(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	frameCount, err := s.frameParam(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		httpError(w, http.StatusNotFound, "no such upload")
		return
	}
	src, err := imaging.Decode(f)
	f.Close()
	if err != nil {
		httpError(w, http.StatusBadRequest, "source is not a decodable image")
		return
	}

	start := time.Now()
	frames, err := jobs.RenderFrames(r.Context(), imaging.Resize(src, width), opts, frameCount, nil)
	if err != nil {
		log.Printf("gif %s: %v", r.PathValue("name"), err)
		httpError(w, http.StatusInternalServerError, "render failed")
		return
	}

	var buf bytes.Buffer
	if err := imaging.EncodeGIF(&buf, frames, imaging.DefaultGIFDelay); err != nil {
		log.Printf("encoding gif: %v", err)
		httpError(w, http.StatusInternalServerError, "encoding failed")
		return
	}

	name, err := s.exports.SaveFrom(bytes.NewReader(buf.Bytes()), ".gif")
	if err != nil {
		log.Printf("storing gif export: %v", err)
		httpError(w, http.StatusInternalServerError, "storing export failed")
		return
	}
	log.Printf("gif %s -> %s (%d frames in %v)", r.PathValue("name"), name, frameCount, time.Since(start))

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("writing gif response: %v", err)
	}
}

// handleGIFAsync queues the same render and returns immediately with a job
// ID the client can poll.
func (s *Server) handleGIFAsync(w http.ResponseWriter, r *http.Request) {
	path, err := s.uploads.Resolve(r.PathValue("name"))
	if err != nil {
		httpError(w, http.StatusNotFound, "no such upload")
		return
	}
	opts, width, err := s.renderParams(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	frameCount, err := s.frameParam(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.queue.Enqueue(jobs.Request{
		SourcePath: path,
		Opts:       opts,
		Width:      width,
		Frames:     frameCount,
		Delay:      imaging.DefaultGIFDelay,
	})
	if err != nil {
		httpError(w, http.StatusServiceUnavailable, "queue full, retry later")
		return
	}
	log.Printf("queued gif job %s for %s", id, r.PathValue("name"))

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": id,
		"status": string(jobs.StateQueued),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.queue.Get(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, "unknown job")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleJobResult serves the finished export; a job still in flight is a
// conflict, not an error.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	st, ok := s.queue.Get(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, "unknown job")
		return
	}
	if st.State != jobs.StateDone {
		writeJSON(w, http.StatusConflict, st)
		return
	}

	path, err := s.exports.Resolve(st.Output)
	if err != nil {
		httpError(w, http.StatusNotFound, "export missing")
		return
	}
	http.ServeFile(w, r, path)
}
