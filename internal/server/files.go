package server

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"

	"github.com/san-kum/mirage/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := store.SanitizeExt(filepath.Ext(header.Filename))
	name, err := s.uploads.SaveFrom(file, ext)
	if err != nil {
		log.Printf("upload failed: %v", err)
		httpError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	log.Printf("uploaded %s as %s", header.Filename, name)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	s.serveStored(w, r, s.uploads)
}

func (s *Server) handleServeExport(w http.ResponseWriter, r *http.Request) {
	s.serveStored(w, r, s.exports)
}

func (s *Server) serveStored(w http.ResponseWriter, r *http.Request, st *store.Store) {
	path, err := st.Resolve(r.PathValue("name"))
	if err != nil {
		httpError(w, http.StatusNotFound, "no such file")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleExportsList(w http.ResponseWriter, r *http.Request) {
	names, err := s.exports.List()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "listing exports failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"exports": names})
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	s.deleteStored(w, r, s.uploads, "upload")
}

func (s *Server) handleDeleteExport(w http.ResponseWriter, r *http.Request) {
	s.deleteStored(w, r, s.exports, "export")
}

func (s *Server) deleteStored(w http.ResponseWriter, r *http.Request, st *store.Store, kind string) {
	name := r.FormValue("name")
	if err := st.Remove(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "no such file")
			return
		}
		log.Printf("deleting %s %s: %v", kind, name, err)
		httpError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	log.Printf("deleted %s %s", kind, name)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
