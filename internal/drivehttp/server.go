package drivehttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediacorral/internal/drive"
	"mediacorral/internal/logging"
	"mediacorral/internal/ripperbridge"
)

// Drive is one hardware drive a Server exposes: a tray controller plus a
// ripper bridge bound to a specific device node.
type Drive struct {
	ID     string
	Name   string
	Path   string
	Tray   drive.TrayController
	Ripper *ripperbridge.Client
}

// Server is the drive-controller side HTTP handler: the "hands" daemon
// that owns no blob store or index, only hardware and MakeMKV.
type Server struct {
	ripDirectory string
	logger       *slog.Logger
	drives       map[string]*Drive
	order        []string

	mu      sync.Mutex
	staging map[string]string // job token -> staging directory
}

// NewServer builds a Server over the given drives, staging rips under
// ripDirectory.
func NewServer(ripDirectory string, drives []Drive, logger *slog.Logger) *Server {
	s := &Server{
		ripDirectory: ripDirectory,
		logger:       logger,
		drives:       make(map[string]*Drive, len(drives)),
		staging:      make(map[string]string),
	}
	for _, d := range drives {
		d := d
		s.drives[d.ID] = &d
		s.order = append(s.order, d.ID)
	}
	return s
}

// Handler builds the net/http.Handler serving this Server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives", s.handleList)
	mux.HandleFunc("/drives/", s.handleDrive)
	return mux
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := make([]driveMetaResponse, 0, len(s.order))
	for _, id := range s.order {
		d := s.drives[id]
		out = append(out, driveMetaResponse{ID: d.ID, Name: d.Name, Path: d.Path})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleDrive dispatches /drives/{id}[/state|/eject|/retract|/rip|/rip/{token}/files/{name}].
func (s *Server) handleDrive(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/drives/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	d, ok := s.drives[id]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown drive: "+id)
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, driveMetaResponse{ID: d.ID, Name: d.Name, Path: d.Path})
	case sub == "state" && r.Method == http.MethodGet:
		s.handleState(w, r, d)
	case sub == "eject" && r.Method == http.MethodPost:
		s.handleTrayOp(w, r, d, d.Tray.Eject)
	case sub == "retract" && r.Method == http.MethodPost:
		s.handleTrayOp(w, r, d, d.Tray.Retract)
	case sub == "rip" && r.Method == http.MethodPost:
		s.handleRip(w, r, d)
	case strings.HasPrefix(sub, "rip/") && r.Method == http.MethodGet:
		s.handleFetchFile(w, r, strings.TrimPrefix(sub, "rip/"))
	case strings.HasPrefix(sub, "rip/") && r.Method == http.MethodDelete:
		s.handleDiscardStaging(w, r, strings.TrimPrefix(sub, "rip/"))
	default:
		s.writeError(w, http.StatusNotFound, "unknown route")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, d *Drive) {
	status, err := d.Tray.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, driveStateResponse{Status: status.String()})
}

func (s *Server) handleTrayOp(w http.ResponseWriter, r *http.Request, d *Drive, op func(context.Context) error) {
	if err := op(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRip executes a MakeMKV rip into a fresh staging directory and
// streams progress/info/done events as newline-delimited JSON.
func (s *Server) handleRip(w http.ResponseWriter, r *http.Request, d *Drive) {
	var body ripRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding rip request: "+err.Error())
		return
	}
	token := strings.TrimSpace(body.JobToken)
	if token == "" {
		s.writeError(w, http.StatusBadRequest, "job_token is required")
		return
	}

	dest := filepath.Join(s.ripDirectory, token)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		s.writeError(w, http.StatusInternalServerError, "creating staging directory: "+err.Error())
		return
	}
	s.mu.Lock()
	s.staging[token] = dest
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	send := func(evt ripEvent) {
		_ = enc.Encode(evt)
		if flusher != nil {
			flusher.Flush()
		}
	}

	onProgress := func(p ripperbridge.Progress) {
		send(ripEvent{Kind: ripEventProgress, Title: p.Title, Percent: p.Percent})
	}
	onInfo := func(info ripperbridge.DiscInfo) {
		send(ripEvent{Kind: ripEventInfo, InfoItem: info.Item, InfoAttr: int(info.Attr), InfoCode: info.Code, InfoValue: info.Value})
	}

	result, err := d.Ripper.Rip(r.Context(), d.Path, dest, body.TitleIDs, onProgress, onInfo)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("rip failed", logging.String("drive_id", d.ID), logging.Error(err))
		}
		send(ripEvent{Kind: ripEventError, Message: err.Error()})
		return
	}

	names := make([]string, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		names = append(names, filepath.Base(f))
	}
	send(ripEvent{Kind: ripEventDone, OutputFiles: names, TitleCount: result.TitleCount})
}

func (s *Server) handleFetchFile(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.SplitN(rest, "/files/", 2)
	if len(parts) != 2 {
		s.writeError(w, http.StatusBadRequest, "malformed fetch path")
		return
	}
	token, name := parts[0], parts[1]
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		s.writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	s.mu.Lock()
	dir, ok := s.staging[token]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown job token")
		return
	}
	http.ServeFile(w, r, filepath.Join(dir, name))
}

func (s *Server) handleDiscardStaging(w http.ResponseWriter, r *http.Request, rest string) {
	token := strings.TrimSuffix(rest, "/")
	s.mu.Lock()
	dir, ok := s.staging[token]
	delete(s.staging, token)
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown job token")
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		s.writeError(w, http.StatusInternalServerError, "discarding staging directory: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && s.logger != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorBody{Error: message})
}

// parseHardwareStatus is the Client-side inverse of HardwareStatus.String.
func parseHardwareStatus(s string) drive.HardwareStatus {
	switch s {
	case "empty":
		return drive.HardwareEmpty
	case "tray_open":
		return drive.HardwareTrayOpen
	case "not_ready":
		return drive.HardwareNotReady
	case "loaded":
		return drive.HardwareLoaded
	default:
		return drive.HardwareUnknown
	}
}
