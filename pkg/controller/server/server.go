package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/m-mizutani/bbmirror/pkg/domain/interfaces"
	"github.com/m-mizutani/bbmirror/pkg/domain/model"
	"github.com/m-mizutani/bbmirror/pkg/domain/types"
	"github.com/m-mizutani/bbmirror/pkg/utils/errutil"
	"github.com/m-mizutani/bbmirror/pkg/utils/logging"
)

type Server struct {
	mux *chi.Mux
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

func respondJSON(w http.ResponseWriter, code int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Default().Error("fail to marshal response", slog.Any("error", err))
		safeWrite(w, http.StatusInternalServerError, []byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	safeWrite(w, code, data)
}

type errorResponse struct {
	Error string `json:"error"`
}

type projectListResponse struct {
	SnapshotVersion types.SnapshotVersion `json:"snapshot_version"`
	FetchedAt       time.Time             `json:"fetched_at"`
	Projects        []*model.Project      `json:"projects"`
}

// respondError maps domain errors to HTTP status codes. A missing snapshot
// is 503 because the mirror simply has not warmed up yet and retrying later
// is the right move for the caller.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrNoSnapshot):
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrRefreshRunning):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrValidationFailed), errors.Is(err, types.ErrInvalidOption):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		errutil.HandleError(r.Context(), "request failed", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func New(uc interfaces.UseCase) *Server {
	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safeWrite(w, http.StatusOK, []byte("ok"))
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects", func(w http.ResponseWriter, r *http.Request) {
			projects, err := uc.Projects(r.Context())
			if err != nil {
				respondError(w, r, err)
				return
			}

			status := uc.Status(r.Context())
			respondJSON(w, http.StatusOK, projectListResponse{
				SnapshotVersion: status.SnapshotVersion,
				FetchedAt:       status.FetchedAt,
				Projects:        projects,
			})
		})
		r.Get("/projects/{projectKey}", func(w http.ResponseWriter, r *http.Request) {
			proj, err := uc.Project(r.Context(), types.ProjectKey(chi.URLParam(r, "projectKey")))
			if err != nil {
				respondError(w, r, err)
				return
			}
			respondJSON(w, http.StatusOK, proj)
		})
		r.Get("/projects/{projectKey}/repos", func(w http.ResponseWriter, r *http.Request) {
			repos, err := uc.Repositories(r.Context(), types.ProjectKey(chi.URLParam(r, "projectKey")))
			if err != nil {
				respondError(w, r, err)
				return
			}
			respondJSON(w, http.StatusOK, repos)
		})
		r.Get("/projects/{projectKey}/repos/{repoSlug}", func(w http.ResponseWriter, r *http.Request) {
			repo, err := uc.Repository(r.Context(),
				types.ProjectKey(chi.URLParam(r, "projectKey")),
				types.RepoSlug(chi.URLParam(r, "repoSlug")),
			)
			if err != nil {
				respondError(w, r, err)
				return
			}
			respondJSON(w, http.StatusOK, repo)
		})
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, uc.Status(r.Context()))
		})
		r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
			if uc.Status(r.Context()).RefreshState == types.RefreshStateRefreshing {
				respondError(w, r, types.ErrRefreshRunning)
				return
			}

			// The request context dies with the response, so the refresh
			// runs on a detached context that keeps the logger and request
			// ID.
			bgCtx := DetachContext(r.Context())
			go func() {
				if err := uc.Refresh(bgCtx); err != nil {
					if errors.Is(err, types.ErrRefreshRunning) {
						logging.From(bgCtx).Warn("manual refresh skipped, another refresh is in flight")
						return
					}
					errutil.HandleError(bgCtx, "manual refresh failed", err)
				}
			}()

			respondJSON(w, http.StatusAccepted, map[string]string{
				"status":  "accepted",
				"message": "refresh started",
			})
		})
	})

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}
