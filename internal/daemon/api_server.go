package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"reelforge/internal/api"
	"reelforge/internal/captions"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/logs"
	"reelforge/internal/services"
	"reelforge/internal/workflow"
)

const (
	maxRequestBody  = 64 << 10
	defaultJobLimit = 50
	defaultLogLines = 200
	maxLogWait      = 30 * time.Second
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	store   *jobs.Store
	runner  *workflow.Runner
	limiter *rate.Limiter

	mu       sync.Mutex
	baseCtx  context.Context
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		store:   d.store,
		runner:  d.runner,
		limiter: admissionLimiter(cfg.Workers),
		baseCtx: context.Background(),
	}

	// Renders are synchronous, so responses may take as long as the compositor.
	writeTimeout := 30 * time.Second
	if timeout := cfg.CompositorTimeout(); timeout > 0 {
		writeTimeout += timeout
	} else {
		writeTimeout = 0
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// admissionLimiter admits AdmissionsPerMinute reel requests with the
// configured burst. A non-positive rate disables limiting.
func admissionLimiter(cfg config.Workers) *rate.Limiter {
	if cfg.AdmissionsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.AdmissionBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.AdmissionsPerMinute)/60), burst)
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reels", s.handleCreateReel)
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/jobs/{id}/log", s.handleJobLog)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return authMiddleware(token, mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.baseCtx = ctx
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// jobContext detaches a render from the client connection: a dropped client
// does not abort the compositor, but daemon shutdown does.
func (s *apiServer) jobContext(r *http.Request) context.Context {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()
	ctx := base
	if id := r.Header.Get("X-Request-ID"); id != "" {
		ctx = services.WithRequestID(ctx, id)
	}
	return ctx
}

func (s *apiServer) handleCreateReel(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.writeJSON(w, http.StatusTooManyRequests, api.ReelResponse{
			Message:   "too many reel requests; retry later",
			ErrorKind: "rate_limited",
		})
		return
	}

	var req api.ReelRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.ReelResponse{
			Message:   fmt.Sprintf("invalid request body: %v", err),
			ErrorKind: "validation",
		})
		return
	}
	videoID := strings.TrimSpace(req.VideoID)
	if videoID == "" {
		s.writeJSON(w, http.StatusBadRequest, api.ReelResponse{
			Message:   "video_id is required",
			ErrorKind: "validation",
		})
		return
	}
	var style captions.Style
	if raw := strings.TrimSpace(req.CaptionStyle); raw != "" {
		parsed, err := captions.ParseStyle(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, api.ReelResponse{
				Message:   err.Error(),
				ErrorKind: "validation",
			})
			return
		}
		style = parsed
	}

	s.logger.Info("reel requested",
		logging.String(logging.FieldVideoID, videoID),
		logging.String(logging.FieldEventType, "reel_requested"),
	)
	outcome := s.runner.Execute(s.jobContext(r), workflow.Request{
		VideoID: videoID,
		Music:   req.Music,
		Style:   style,
	})
	s.writeJSON(w, statusForOutcome(outcome), api.FromOutcome(outcome))
}

func statusForOutcome(out workflow.Outcome) int {
	if out.Err == nil {
		return http.StatusOK
	}
	switch services.Kind(out.Err) {
	case "validation", "configuration":
		return http.StatusBadRequest
	case "parse", "asset_discovery", "count_mismatch":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.ListFilter{
		VideoID: strings.TrimSpace(query.Get("video_id")),
		Limit:   defaultJobLimit,
	}
	for _, value := range query["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := jobs.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(trimmed))
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	list, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(list)})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJob(job)})
}

// handleJobLog returns the tail of a job's log. Clients resume with the
// returned offset; wait (seconds) long-polls for new lines.
func (s *apiServer) handleJobLog(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	query := r.URL.Query()
	opts := logs.TailOptions{Offset: -1, Limit: defaultLogLines}
	if raw := query.Get("lines"); raw != "" {
		lines, err := strconv.Atoi(raw)
		if err != nil || lines < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid lines")
			return
		}
		opts.Limit = lines
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if raw := query.Get("wait"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid wait")
			return
		}
		opts.Wait = min(time.Duration(seconds)*time.Second, maxLogWait)
	}

	result, err := logs.Tail(r.Context(), job.LogPath, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTail(job.ID, result))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobsDBPath:   status.JobsDBPath,
		LockFilePath: status.LockFilePath,
		Pool:         api.FromPool(status.Pool),
		JobCounts:    api.FromStats(status.JobCounts),
		Storage:      status.Storage,
		MusicTracks:  status.MusicTracks,
		Dependencies: api.FromDependencies(status.Dependencies),
		Checks:       api.FromChecks(status.Checks),
	}
	if !status.Started.IsZero() {
		payload.Uptime = time.Since(status.Started).Round(time.Second).String()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
