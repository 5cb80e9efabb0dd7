package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sargambook/sargam"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// apiServer serves the notebook editor API: file listing, raw notebook
// load/save, and the parse/lint endpoints backed by the sargam package.
// Paths are taken as-is; the server is meant for a trusted local editor
// setup, not the open internet.
type apiServer struct {
	root    string
	limiter *rate.Limiter
}

func newAPIServer(root string) *apiServer {
	return &apiServer{
		root: root,
		// Parse requests arrive on every keystroke pause in the editor;
		// cap the burst rather than queueing them.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 20),
	}
}

func (s *apiServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/files", s.handleFiles).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/notebook", s.handleNotebookGet).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/notebook", s.handleNotebookSave).Methods(http.MethodPost)
	r.HandleFunc("/api/parse", s.handleParse).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/lint", s.handleLint).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.Use(mux.CORSMethodMiddleware(r), corsMiddleware)
	return r
}

// corsMiddleware mirrors the permissive policy of the original backend:
// any origin, any header, credentials allowed.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type fileEntry struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	SizeText string `json:"size_text"`
}

// handleFiles lists .imnb files under the requested root (default: the
// server root), with humanized sizes for the file picker.
func (s *apiServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		root = s.root
	}
	if _, err := os.Stat(root); err != nil {
		root = "."
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	files := []fileEntry{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".imnb") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{
			Path:     filepath.Join(root, e.Name()),
			Size:     info.Size(),
			SizeText: humanize.Bytes(uint64(info.Size())),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// handleNotebookGet serves the raw file bytes. The editor works on stored
// source text, so nothing is re-encoded on the way out.
func (s *apiServer) handleNotebookGet(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, errors.New("file not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleNotebookSave validates the body as JSON and writes it indented.
// Re-indenting only touches JSON framing; the source strings inside are
// preserved byte for byte, which keeps the load/parse/save round trip
// faithful.
func (s *apiServer) handleNotebookSave(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing path"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pretty.WriteByte('\n')
	if err := os.WriteFile(path, pretty.Bytes(), 0644); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logDebug("saved notebook %s (%d bytes)", path, pretty.Len())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type parseRequest struct {
	Lines []string `json:"lines"`
}

// handleParse runs the cell parser over the posted lines. Only structural
// failures (a body that is not a list of strings) become HTTP errors;
// token-level problems never do.
func (s *apiServer) handleParse(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, errors.New("parse rate exceeded"))
		return
	}
	req, ok := decodeLines(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sargam.ParseMusicCell(req.Lines))
}

// handleLint is the strict companion of /api/parse: same input, but every
// silently-dropped construct comes back as a diagnostic.
func (s *apiServer) handleLint(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLines(w, r)
	if !ok {
		return
	}
	problems := sargam.Lint(req.Lines)
	if problems == nil {
		problems = []sargam.Problem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"problems": problems})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeLines(w http.ResponseWriter, r *http.Request) (parseRequest, bool) {
	var req parseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logError("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
