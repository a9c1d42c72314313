package coordinatorhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mediacorral/internal/blobstore"
	"mediacorral/internal/drive"
	"mediacorral/internal/export"
	"mediacorral/internal/idx"
	"mediacorral/internal/logging"
	"mediacorral/internal/opensubtitles"
)

// startRipTimeout bounds how long Server waits for an enqueued rip command
// to reach either ActiveRipping (so it can report the new job ID) or
// ActiveError (rejected, e.g. the drive is already busy).
const startRipTimeout = 10 * time.Second

// Server is the coordinator-side HTTP handler: it answers every
// contract.CoordinatorClient method over plain JSON, backed by the live
// drive.Machine instances and core components a coordinator process owns.
type Server struct {
	logger   *slog.Logger
	index    *idx.Store
	blobs    *blobstore.Store
	catalog  *opensubtitles.Client
	exporter *export.Renderer

	machines map[string]*drive.Machine
	order    []string

	mu        sync.Mutex
	autorip   bool
	jobDrives map[int64]string
}

// NewServer builds a Server over the given drive machines (keyed and
// ordered by drive ID) and core components.
func NewServer(logger *slog.Logger, index *idx.Store, blobs *blobstore.Store, catalog *opensubtitles.Client,
	exporter *export.Renderer, machines map[string]*drive.Machine, order []string, autoripDefault bool) *Server {
	return &Server{
		logger:    logger,
		index:     index,
		blobs:     blobs,
		catalog:   catalog,
		exporter:  exporter,
		machines:  machines,
		order:     order,
		autorip:   autoripDefault,
		jobDrives: make(map[int64]string),
	}
}

// Handler builds the net/http.Handler serving this Server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/drives", s.handleListDrives)
	mux.HandleFunc("/drives/", s.handleDrive)
	mux.HandleFunc("/rips/", s.handleRipStream)
	mux.HandleFunc("/exports/", s.handleExportRebuild)
	mux.HandleFunc("/autorip", s.handleAutorip)
	mux.HandleFunc("/subtitles/fetch", s.handleFetchSubtitle)
	mux.HandleFunc("/jobs/", s.handleJobByID)
	mux.HandleFunc("/episodes/", s.handleEpisodeByID)
	mux.HandleFunc("/tag", s.handleTagFile)
	mux.HandleFunc("/catalog/search", s.handleNotImplemented)
	mux.HandleFunc("/catalog/import", s.handleNotImplemented)
	return mux
}

func (s *Server) handleListDrives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := make([]driveMetaResponse, 0, len(s.order))
	for _, id := range s.order {
		m := s.machines[id]
		out = append(out, driveMetaResponse{ID: m.DriveID, Name: m.DriveID, Path: m.Device})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleDrive dispatches /drives/{id}[/state|/eject|/retract|/rip].
func (s *Server) handleDrive(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/drives/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	m, ok := s.machines[id]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown drive: "+id)
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "state" && r.Method == http.MethodGet:
		s.writeJSON(w, http.StatusOK, toDriveStateResponse(m.Snapshot()))
	case sub == "eject" && r.Method == http.MethodPost:
		s.handleTrayOp(w, r, m, drive.CmdEject)
	case sub == "retract" && r.Method == http.MethodPost:
		s.handleTrayOp(w, r, m, drive.CmdRetract)
	case sub == "rip" && r.Method == http.MethodPost:
		s.handleStartRip(w, r, m)
	default:
		s.writeError(w, http.StatusNotFound, "unknown route")
	}
}

func (s *Server) handleTrayOp(w http.ResponseWriter, r *http.Request, m *drive.Machine, kind drive.CommandKind) {
	if !m.Enqueue(drive.Command{Kind: kind}) {
		s.writeError(w, http.StatusConflict, "drive has a command already pending")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartRip enqueues a rip and waits for the actor to report either
// ActiveRipping (success: we now know the job ID) or ActiveError
// (rejected outright, e.g. the drive isn't loaded).
func (s *Server) handleStartRip(w http.ResponseWriter, r *http.Request, m *drive.Machine) {
	var body startRipRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding rip request: "+err.Error())
		return
	}

	ch, cancel := m.Watch()
	defer cancel()

	if !m.Enqueue(drive.Command{Kind: drive.CmdRip, Rip: drive.RipRequest{
		DiscName:          body.DiscName,
		SuspectedContents: body.SuspectedContents,
		Autoeject:         body.Autoeject,
	}}) {
		s.writeError(w, http.StatusConflict, "drive has a command already pending")
		return
	}

	ctx, cancelTimeout := context.WithTimeout(r.Context(), startRipTimeout)
	defer cancelTimeout()
	for {
		select {
		case <-ctx.Done():
			s.writeError(w, http.StatusGatewayTimeout, "timed out waiting for rip to start")
			return
		case state := <-ch:
			switch state.ActiveCommand.Kind {
			case drive.ActiveRipping:
				jobID := state.ActiveCommand.Ripping.JobID
				s.mu.Lock()
				s.jobDrives[jobID] = m.DriveID
				s.mu.Unlock()
				s.writeJSON(w, http.StatusOK, startRipResponse{JobID: jobID})
				return
			case drive.ActiveError:
				s.writeError(w, http.StatusConflict, state.ActiveCommand.ErrorMessage)
				return
			}
		}
	}
}

// handleRipStream serves /rips/{jobID}/stream as newline-delimited JSON
// ripUpdateEvent lines, ending once the owning drive leaves ActiveRipping.
func (s *Server) handleRipStream(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/rips/")
	parts := strings.SplitN(rest, "/", 2)
	jobID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || len(parts) != 2 || parts[1] != "stream" || r.Method != http.MethodGet {
		s.writeError(w, http.StatusNotFound, "unknown route")
		return
	}

	s.mu.Lock()
	driveID, ok := s.jobDrives[jobID]
	s.mu.Unlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	m, ok := s.machines[driveID]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown drive")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	send := func(evt ripUpdateEvent) {
		_ = enc.Encode(evt)
		if flusher != nil {
			flusher.Flush()
		}
	}

	ch, cancel := m.Watch()
	defer cancel()
	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-ch:
			if state.ActiveCommand.Ripping.JobID != jobID && state.ActiveCommand.Kind == drive.ActiveRipping {
				continue
			}
			switch state.ActiveCommand.Kind {
			case drive.ActiveRipping:
				send(ripUpdateEvent{JobID: jobID, Progress: rippingPayload{
					CurrentTitle: state.ActiveCommand.Ripping.CurrentTitle,
					CurrentValue: state.ActiveCommand.Ripping.CurrentValue,
					TotalTitle:   state.ActiveCommand.Ripping.TotalTitle,
					TotalValue:   state.ActiveCommand.Ripping.TotalValue,
					MaxValue:     state.ActiveCommand.Ripping.MaxValue,
					Logs:         state.ActiveCommand.Ripping.Logs,
				}})
			case drive.ActiveError:
				send(ripUpdateEvent{JobID: jobID, Done: true, Err: state.ActiveCommand.ErrorMessage})
				return
			case drive.ActiveNone:
				send(ripUpdateEvent{JobID: jobID, Done: true})
				return
			}
		}
	}
}

func (s *Server) handleExportRebuild(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/exports/"), "/rebuild")
	if r.Method != http.MethodPost || name == "" {
		s.writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	if err := s.exporter.RebuildTarget(r.Context(), name); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAutorip(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		enabled := s.autorip
		s.mu.Unlock()
		s.writeJSON(w, http.StatusOK, autoripResponse{Enabled: enabled})
	case http.MethodPut:
		var body setAutoripRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "decoding autorip request: "+err.Error())
			return
		}
		s.mu.Lock()
		s.autorip = body.Enabled
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Autorip reports whether autorip is currently enabled, used by the
// coordinator's onDiscInserted callback wired into each drive.Machine.
func (s *Server) Autorip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autorip
}

func (s *Server) handleFetchSubtitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body subtitleFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding subtitle fetch request: "+err.Error())
		return
	}
	best, err := s.catalog.FindBest(r.Context(), int(body.MatchID))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, subtitleFetchResponse{Name: best.Name, Text: best.Text})
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/jobs/"), 10, 64)
	if err != nil || r.Method != http.MethodGet {
		s.writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	job, err := s.index.GetRipJob(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleEpisodeByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/episodes/"), 10, 64)
	if err != nil || r.Method != http.MethodGet {
		s.writeError(w, http.StatusNotFound, "unknown route")
		return
	}
	ep, err := s.index.GetTvEpisode(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ep)
}

func (s *Server) handleTagFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body tagFileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding tag request: "+err.Error())
		return
	}
	videoType := idx.VideoType(body.VideoType)
	if err := s.index.TagVideoFile(r.Context(), body.FileID, videoType, body.MatchID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.exporter.SpliceVideo(r.Context(), videoType, body.FileID); err != nil {
		if s.logger != nil {
			s.logger.Warn("splicing newly tagged video into exports failed",
				logging.Int64("video_file_id", body.FileID), logging.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotImplemented(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotImplemented, "TMDB catalog ingestion is out of scope for this build")
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
