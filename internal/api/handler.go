// Package api exposes the run trigger and status HTTP surface.
//
// Routes:
//
//	GET  /health                       → liveness
//	GET  /api/scripts                  → list active scripts
//	POST /api/scripts/:id/run          → start a run (409 when busy)
//	POST /api/scripts/:id/cancel       → cancel the active run
//	GET  /api/scripts/:id/runs         → run history, newest first
//	GET  /api/scripts/:id/vacancies    → tracked vacancies (?active=true)
//	GET  /api/runs/:id                 → run status and counters
//	GET  /api/runs/:id/log             → plain-text run log
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// RunManager is the slice of the run manager the handlers need.
type RunManager interface {
	StartRun(ctx context.Context, scriptID string) (string, error)
	Status(ctx context.Context, runID string) (*model.ScriptRun, error)
	CancelScript(scriptID string) bool
}

// Handler holds shared dependencies.
type Handler struct {
	manager   RunManager
	scripts   store.ScriptStore
	runs      store.RunStore
	vacancies store.VacancyStore
	log       *logging.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(manager RunManager, scripts store.ScriptStore, runs store.RunStore, vacancies store.VacancyStore, log *logging.Logger) *Handler {
	return &Handler{
		manager:   manager,
		scripts:   scripts,
		runs:      runs,
		vacancies: vacancies,
		log:       log,
	}
}

// Router builds the gin engine with all routes and middleware mounted.
func (h *Handler) Router(serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(PrometheusMiddleware(serviceName))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/scripts", h.listScripts)
		api.POST("/scripts/:id/run", h.startRun)
		api.POST("/scripts/:id/cancel", h.cancelRun)
		api.GET("/scripts/:id/runs", h.listRuns)
		api.GET("/scripts/:id/vacancies", h.listVacancies)
		api.GET("/runs/:id", h.runStatus)
		api.GET("/runs/:id/log", h.runLog)
	}

	return r
}

// ─── Response types ──────────────────────────────────────────────────────────

type scriptResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	SearchQueries []string `json:"searchQueries"`
	Region        string   `json:"region"`
	RegionName    string   `json:"regionName"`
	MaxPages      int      `json:"maxPages"`
}

type runResponse struct {
	ID            string                      `json:"id"`
	ScriptID      string                      `json:"scriptId"`
	Status        model.RunStatus             `json:"status"`
	StartedAt     time.Time                   `json:"startedAt"`
	CompletedAt   *time.Time                  `json:"completedAt,omitempty"`
	TotalFound    int                         `json:"totalFound"`
	NewCount      int                         `json:"newCount"`
	ExistingCount int                         `json:"existingCount"`
	ErrorMessage  string                      `json:"errorMessage,omitempty"`
	QueryStats    map[string]model.QueryStats `json:"queryStats,omitempty"`
}

type vacancyResponse struct {
	ID           string     `json:"id"`
	ExternalID   string     `json:"externalId"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Salary       string     `json:"salary"`
	URL          string     `json:"url"`
	Region       string     `json:"region"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	FoundByQuery string     `json:"foundByQuery"`
	IsActive     bool       `json:"isActive"`
	FirstSeenAt  time.Time  `json:"firstSeenAt"`
	LastSeenAt   time.Time  `json:"lastSeenAt"`
	TimesFound   int        `json:"timesFound"`
}

func toRunResponse(run *model.ScriptRun) runResponse {
	return runResponse{
		ID:            run.ID,
		ScriptID:      run.ScriptID,
		Status:        run.Status,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
		TotalFound:    run.TotalFound,
		NewCount:      run.NewCount,
		ExistingCount: run.ExistingCount,
		ErrorMessage:  run.ErrorMessage,
		QueryStats:    run.QueryStats,
	}
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "vacancy-service"})
}

func (h *Handler) listScripts(c *gin.Context) {
	scripts, err := h.scripts.ListActiveScripts(c.Request.Context())
	if err != nil {
		h.log.Error("list scripts failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	out := make([]scriptResponse, 0, len(scripts))
	for i := range scripts {
		s := &scripts[i]
		out = append(out, scriptResponse{
			ID:            s.ID,
			Name:          s.Name,
			Description:   s.Description,
			SearchQueries: s.SearchQueries,
			Region:        s.Region,
			RegionName:    s.RegionDisplayName(),
			MaxPages:      s.MaxPages,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) startRun(c *gin.Context) {
	scriptID := c.Param("id")

	runID, err := h.manager.StartRun(c.Request.Context(), scriptID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "script not found"})
	case errors.Is(err, store.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "run already in progress"})
	case err != nil:
		h.log.Error("start run failed", "script_id", scriptID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"runId": runID})
	}
}

func (h *Handler) cancelRun(c *gin.Context) {
	scriptID := c.Param("id")
	if !h.manager.CancelScript(scriptID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active run for script"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) runStatus(c *gin.Context) {
	run, err := h.manager.Status(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.log.Error("run status failed", "run_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func (h *Handler) runLog(c *gin.Context) {
	run, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.log.Error("run log failed", "run_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.String(http.StatusOK, run.LogData)
}

func (h *Handler) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runs.ListRuns(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.log.Error("list runs failed", "script_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toRunResponse(&runs[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) listVacancies(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	vacancies, err := h.vacancies.ListByScript(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		h.log.Error("list vacancies failed", "script_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	out := make([]vacancyResponse, 0, len(vacancies))
	for _, v := range vacancies {
		out = append(out, vacancyResponse{
			ID:           v.ID,
			ExternalID:   v.ExternalID,
			Title:        v.Title,
			Company:      v.Company,
			Salary:       v.Salary,
			URL:          v.URL,
			Region:       v.Region,
			PublishedAt:  v.PublishedAt,
			FoundByQuery: v.FoundByQuery,
			IsActive:     v.IsActive,
			FirstSeenAt:  v.FirstSeenAt,
			LastSeenAt:   v.LastSeenAt,
			TimesFound:   v.TimesFound,
		})
	}
	c.JSON(http.StatusOK, out)
}
