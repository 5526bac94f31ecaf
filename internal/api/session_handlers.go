package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-editor/internal/dialog"
	"github.com/heimdex/heimdex-editor/internal/editor"
)

func getCatalogHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := editor.Catalog{}
		if cfg.Catalog != nil {
			catalog = cfg.Catalog.Catalog()
		}
		WriteJSON(w, http.StatusOK, CatalogResponse{Formats: catalog})
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SessionToResponse(cfg.Session.State()))
	}
}

func loadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Path == "" || !filepath.IsAbs(req.Path) {
			WriteError(w, http.StatusBadRequest, "an absolute path is required", "BAD_REQUEST")
			return
		}
		info, err := os.Stat(req.Path)
		if err != nil || !info.Mode().IsRegular() {
			WriteError(w, http.StatusNotFound, "source file not found", "NOT_FOUND")
			return
		}

		logger := cfg.Logger.With("source", req.Path)
		onReady := func() { logger.Info("session ready") }

		if !req.Probe {
			res, err := cfg.Session.Load(req.Path, req.FPS, onReady)
			if err != nil {
				writeSessionError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, ResultToResponse(res))
			return
		}

		if cfg.Renderer == nil {
			WriteError(w, http.StatusServiceUnavailable, "no renderer available to probe", "UNAVAILABLE")
			return
		}
		probe, err := cfg.Renderer.Probe(r.Context(), req.Path)
		if err != nil {
			logger.Warn("probe failed", "error", err)
			WriteError(w, http.StatusUnprocessableEntity, "failed to read source: "+err.Error(), "PROBE_FAILED")
			return
		}

		fps := req.FPS
		if fps <= 0 {
			fps = probe.FPS()
		}
		res, err := cfg.Session.LoadReady(req.Path, fps, probe.Width, probe.Height, onReady)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ResultToResponse(res))
	}
}

func readyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Session.Ready()
		respond(w, res, err)
	}
}

func setDimensionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DimensionsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.SetDimensions(req.Width, req.Height)
		respond(w, res, err)
	}
}

func changeDimensionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := editor.Axis(chi.URLParam(r, "axis"))
		if axis != editor.FieldWidth && axis != editor.FieldHeight {
			WriteError(w, http.StatusBadRequest, "axis must be width or height", "BAD_REQUEST")
			return
		}
		var req RawValueRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.ChangeDimension(axis, req.Value)
		respond(w, res, err)
	}
}

func changeFPSHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RawValueRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.ChangeFPS(req.Value)
		respond(w, res, err)
	}
}

func setOptionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OptionsRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		catalog := req.Catalog
		switch {
		case len(catalog) > 0:
		case len(req.Formats) > 0:
			catalog = editor.CatalogFromMap(req.Formats)
		case cfg.Catalog != nil:
			catalog = cfg.Catalog.Catalog()
		}
		res, err := cfg.Session.SetExportOptions(catalog)
		respond(w, res, err)
	}
}

func selectFormatHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FormatRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.SelectFormat(req.Format)
		respond(w, res, err)
	}
}

func selectPluginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PluginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.SelectPlugin(req.Title)
		respond(w, res, err)
	}
}

func snapshotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SnapshotRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		var (
			res editor.SnapshotResult
			err error
		)
		switch {
		case req.Cancelled:
			res, err = cfg.Session.RequestSnapshotTo(r.Context(), dialog.Static{})
		case req.Path != "":
			res, err = cfg.Session.RequestSnapshotTo(r.Context(), dialog.Static{Path: req.Path, Dir: cfg.OutputDir})
		default:
			res, err = cfg.Session.RequestSnapshot(r.Context())
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}

		if res.Cancelled {
			WriteJSON(w, http.StatusOK, SnapshotResponse{Cancelled: true})
			return
		}
		WriteJSON(w, http.StatusAccepted, SnapshotResponse{Output: res.Request.OutputPath, Time: res.Request.Time})
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Session.RequestExport(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, ExportResponse{Job: job})
	}
}

func respond(w http.ResponseWriter, res editor.Result, err error) {
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ResultToResponse(res))
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrPluginNotFound):
		WriteError(w, http.StatusConflict, err.Error(), "PLUGIN_NOT_FOUND")
	case errors.Is(err, editor.ErrNotReady),
		errors.Is(err, editor.ErrNotLoading),
		errors.Is(err, editor.ErrNoDimensions),
		errors.Is(err, editor.ErrNoCatalog):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, editor.ErrInvalidDimensions),
		errors.Is(err, editor.ErrInvalidCatalog),
		errors.Is(err, editor.ErrUnknownFormat),
		errors.Is(err, editor.ErrUnknownPlugin):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// decodeOptionalBody accepts an empty body.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}
