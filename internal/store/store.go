// Package store defines the persistence contracts for scripts, vacancies
// and runs, plus the PostgreSQL implementation.
package store

import (
	"context"
	"errors"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRunInProgress is returned by StartRun when the script already
	// has an active run. Callers surface this as a busy rejection, never
	// queue behind it.
	ErrRunInProgress = errors.New("run already in progress")
)

// ScriptStore reads search profiles.
type ScriptStore interface {
	GetScript(ctx context.Context, id string) (*model.Script, error)
	ListActiveScripts(ctx context.Context) ([]model.Script, error)
}

// VacancyStore is the durable keyed storage of tracked vacancies. The
// (script, external ID) pair is unique: upserting a known pair updates
// the existing row, never inserts a duplicate.
type VacancyStore interface {
	GetVacancy(ctx context.Context, scriptID, externalID string) (*model.Vacancy, error)
	UpsertVacancy(ctx context.Context, v *model.Vacancy) error
	// MarkAllInactive flags every vacancy of the script inactive in one
	// statement. Runs call it before re-marking the ones found this run.
	MarkAllInactive(ctx context.Context, scriptID string) error
	ListByScript(ctx context.Context, scriptID string, activeOnly bool) ([]model.Vacancy, error)
}

// RunStore persists run records and their vacancy links.
type RunStore interface {
	// StartRun atomically creates a running run for the script, failing
	// with ErrRunInProgress if one already exists. The check and the
	// insert are a single statement so there is no race window.
	StartRun(ctx context.Context, runID, scriptID string) (*model.ScriptRun, error)
	GetRun(ctx context.Context, runID string) (*model.ScriptRun, error)
	ListRuns(ctx context.Context, scriptID string, limit int) ([]model.ScriptRun, error)
	// UpdateRunLog replaces the run's log text. Called by the log buffer
	// on flush, not on every appended line.
	UpdateRunLog(ctx context.Context, runID, logData string) error
	// FinishRun records final status, counters, per-query stats and log.
	FinishRun(ctx context.Context, run *model.ScriptRun) error
	CreateVacancyRun(ctx context.Context, link *model.VacancyRun) error
}
