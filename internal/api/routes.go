package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-editor/internal/jobs"
	"github.com/heimdex/heimdex-editor/internal/player"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())

		r.Get("/playback/source", playbackHandler(cfg))
		r.Head("/playback/source", playbackHandler(cfg))
		r.Get("/events", sessionEventsHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/catalog", getCatalogHandler(cfg))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", getSessionHandler(cfg))
			r.Post("/load", loadHandler(cfg))
			r.Post("/ready", readyHandler(cfg))
			r.Put("/dimensions", setDimensionsHandler(cfg))
			r.Patch("/dimensions/{axis}", changeDimensionHandler(cfg))
			r.Patch("/fps", changeFPSHandler(cfg))
			r.Put("/options", setOptionsHandler(cfg))
			r.Put("/format", selectFormatHandler(cfg))
			r.Put("/plugin", selectPluginHandler(cfg))
			r.Post("/snapshot", snapshotHandler(cfg))
			r.Post("/export", exportHandler(cfg))
		})

		r.Get("/player", getPlayerHandler(cfg))
		r.Put("/player", updatePlayerHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		counts, err := cfg.Repository.CountByStatus(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to count jobs", "INTERNAL_ERROR")
			return
		}
		recent, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range recent {
			if j.Status == jobs.StatusRunning && activeJob == nil {
				state = "rendering"
				resp := JobToResponse(j)
				activeJob = &resp
			}
			if j.Status == jobs.StatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:       state,
			LastError:   lastError,
			Session:     cfg.Session.State().Phase.String(),
			JobsPending: counts[jobs.StatusPending],
			JobsRunning: counts[jobs.StatusRunning],
			ActiveJob:   activeJob,
			Counts:      counts,
		})
	}
}

func getPlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Player.State())
	}
}

func updatePlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u player.Update
		if !decodeBody(w, r, &u) {
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Player.Apply(u))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		list, err := cfg.Repository.ListJobs(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(list))}
		for i, j := range list {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Session.State()
		if st.SourcePath == "" {
			writeStatus(w, r, http.StatusNotFound, "no source loaded", "NOT_FOUND")
			return
		}

		if err := cfg.PlaybackServer.ServeFile(w, r, st.SourcePath); err != nil {
			cfg.Logger.Error("playback error", "error", err)
		}
	}
}

// writeStatus is WriteError that honours HEAD's empty body.
func writeStatus(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	WriteError(w, status, message, code)
}
