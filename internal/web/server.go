// Package web serves the upload form to browsers. Each browser session owns a
// form.Form; pages are rendered server side from its state.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/invoice-checker/internal/form"
	"github.com/BerylCAtieno/invoice-checker/internal/middleware"
	"github.com/BerylCAtieno/invoice-checker/internal/models"
	"github.com/BerylCAtieno/invoice-checker/internal/render"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

const (
	// Parts above this size are spooled to disk while parsing.
	multipartMemory = 8 << 20
	previewWait     = 5 * time.Second
)

type Server struct {
	sessions *SessionStore
	logger   *utils.Logger
}

func NewServer(sessions *SessionStore, logger *utils.Logger) *Server {
	return &Server{sessions: sessions, logger: logger}
}

// Handler returns the routed handler with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	r.HandleFunc("/", s.index).Methods(http.MethodGet)
	r.HandleFunc("/select/{kind}/{index:[0-9]+}", s.selectFile).Methods(http.MethodPost)
	r.HandleFunc("/submit", s.submit).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	return r
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	f := s.sessions.Get(w, r)

	var buf bytes.Buffer
	if err := render.HTML(&buf, f.State()); err != nil {
		s.logger.Error("Failed to render page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) selectFile(w http.ResponseWriter, r *http.Request) {
	f := s.sessions.Get(w, r)
	vars := mux.Vars(r)

	kind, err := models.ParseKind(vars["kind"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	index, err := strconv.Atoi(vars["index"])
	if err != nil || index < 1 || index > models.SlotsPerKind {
		http.Error(w, fmt.Sprintf("slot must be between 1 and %d", models.SlotsPerKind), http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// An empty file input keeps the current selection.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read upload", "error", err, "filename", header.Filename)
		http.Error(w, "Failed to read upload", http.StatusInternalServerError)
		return
	}

	if err := f.SelectFile(index-1, kind, data, header.Filename, header.Header.Get("Content-Type")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Render the next page with the preview when it is ready in time.
	ctx, cancel := context.WithTimeout(r.Context(), previewWait)
	defer cancel()
	if err := f.WaitPreviews(ctx); err != nil {
		s.logger.Debug("Redirecting before preview finished", "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	f := s.sessions.Get(w, r)

	// The comparison outlives this request; the page polls until it is done.
	done, err := f.Start(context.WithoutCancel(r.Context()))
	if errors.Is(err, form.ErrSubmissionInFlight) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.logger.Error("Failed to start comparison", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	go func() {
		if err := <-done; err != nil {
			s.logger.Warn("Comparison finished with error", "error", err)
		}
	}()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
