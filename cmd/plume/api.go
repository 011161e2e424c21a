package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veltaire/plume/autopilot"
	"github.com/veltaire/plume/keywords"
	"github.com/veltaire/plume/ratelimit"
	"github.com/veltaire/plume/store"
	"github.com/veltaire/plume/topic"
)

// api bundles the wired components behind the HTTP surface.
type api struct {
	svc      *autopilot.Service
	st       *store.Store
	keywords *keywords.Aggregator
	topics   *topic.Generator
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

func (a *api) routes(r chi.Router) {
	r.Route("/api/tenants/{tenant}", func(r chi.Router) {
		r.Put("/keywords", a.putKeywords)
		r.Get("/keywords", a.getKeywords)
		r.Post("/keywords/refresh", a.refreshKeywords)
		r.Get("/angles", a.getAngleStats)

		r.Get("/schedule", a.getSchedule)
		r.Post("/schedule/enable", a.enableSchedule)
		r.Post("/schedule/disable", a.disableSchedule)
		r.Get("/automation/check", a.checkAutomation)
		r.Post("/automation/run", a.runAutomation)

		r.Get("/posts", a.listPosts)
		r.With(a.limiter.Middleware(tenantKey)).Post("/posts", a.generatePost)
	})
	r.Get("/api/automation/summary", a.getSummary)
}

func tenantKey(r *http.Request) string {
	return chi.URLParam(r, "tenant")
}

// putKeywords ingests a fresh keyword analysis from the storefront app and
// invalidates the tenant's cached corpus.
func (a *api) putKeywords(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	var in struct {
		MainProducts     []string `json:"main_products"`
		ProblemsSolved   []string `json:"problems_solved"`
		CustomerSearches []string `json:"customer_searches"`
		LegacyKeywords   []string `json:"legacy_keywords"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := a.st.SaveKeywordAnalysis(r.Context(), tenant, &keywords.Analysis{
		MainProducts:     in.MainProducts,
		ProblemsSolved:   in.ProblemsSolved,
		CustomerSearches: in.CustomerSearches,
		LegacyKeywords:   in.LegacyKeywords,
		UpdatedAt:        time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	corpus, err := a.keywords.Refresh(r.Context(), tenant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.logger.Info("api: keyword analysis ingested", "tenant", tenant, "total", corpus.Total())
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "total": corpus.Total()})
}

func (a *api) getKeywords(w http.ResponseWriter, r *http.Request) {
	corpus, err := a.keywords.Keywords(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, corpus)
}

func (a *api) refreshKeywords(w http.ResponseWriter, r *http.Request) {
	corpus, err := a.keywords.Refresh(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, corpus)
}

func (a *api) getAngleStats(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 90)
	stats, err := a.topics.AngleStats(r.Context(), chi.URLParam(r, "tenant"), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) getSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := a.svc.GetSchedule(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (a *api) enableSchedule(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Frequency  string `json:"frequency"`
		Timezone   string `json:"timezone"`
		TargetDay  *int   `json:"target_day"`
		TargetHour *int   `json:"target_hour"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	params := autopilot.EnableParams{
		Frequency:  autopilot.Frequency(in.Frequency),
		Timezone:   in.Timezone,
		TargetHour: in.TargetHour,
	}
	if in.TargetDay != nil {
		day := time.Weekday(*in.TargetDay)
		params.TargetDay = &day
	}
	sched, err := a.svc.EnableAutomation(r.Context(), chi.URLParam(r, "tenant"), params)
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (a *api) disableSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := a.svc.DisableAutomation(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (a *api) checkAutomation(w http.ResponseWriter, r *http.Request) {
	decision, err := a.svc.CheckAutomation(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (a *api) runAutomation(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.GenerateAutomatedBlog(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// generatePost is the synchronous, user-triggered path. The rate limit
// middleware charges one unit and refunds it when this handler fails.
func (a *api) generatePost(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.GenerateOnDemand(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeAutomationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *api) listPosts(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	limit := queryInt(r, "limit", 50)
	posts, err := a.st.ListPosts(r.Context(), tenant, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (a *api) getSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := a.svc.GetSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// writeAutomationError maps domain sentinels onto HTTP statuses.
func writeAutomationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, autopilot.ErrNoSchedule):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, autopilot.ErrGenerationInFlight):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, autopilot.ErrInvalidParams):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, autopilot.ErrNoKeywords):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
