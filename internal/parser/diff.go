package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/runlog"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// DiffEngine reconciles a deduplicated batch of listings against the
// vacancies already tracked for a script.
//
// Each record write commits independently, so a storage failure mid-way
// truncates progress rather than corrupting it; the whole run is then
// marked failed by the caller.
type DiffEngine struct {
	vacancies store.VacancyStore
	log       *logging.Logger
	clock     func() time.Time
}

// NewDiffEngine constructs the engine with the real clock.
func NewDiffEngine(vacancies store.VacancyStore, log *logging.Logger) *DiffEngine {
	return &DiffEngine{
		vacancies: vacancies,
		log:       log,
		clock:     time.Now,
	}
}

// WithClock replaces the clock. Tests use it to pin timestamps.
func (e *DiffEngine) WithClock(clock func() time.Time) *DiffEngine {
	e.clock = clock
	return e
}

// DiffResult partitions a reconciled batch, preserving merge order
// within each partition.
type DiffResult struct {
	New      []model.Vacancy
	Existing []model.Vacancy
	Skipped  int // listings dropped for missing external ID
}

// Reconcile classifies every listing as new or existing and updates the
// stored state:
//
//  1. All vacancies of the script are flagged inactive up front.
//  2. Each listing re-activates or creates its vacancy row; existing
//     rows get their mutable fields refreshed, last_seen_at advanced and
//     times_found incremented, so an immediate re-run increments the
//     counter by exactly one.
//  3. Vacancies absent from the batch stay inactive — flagged, never
//     deleted, so history of disappeared listings survives.
//
// A listing without an external ID is skipped with a warning. A storage
// error is fatal and returned as-is.
func (e *DiffEngine) Reconcile(ctx context.Context, runLog *runlog.Buffer, scriptID string, listings []model.Listing) (*DiffResult, error) {
	now := e.clock().UTC()

	if err := e.vacancies.MarkAllInactive(ctx, scriptID); err != nil {
		return nil, fmt.Errorf("mark inactive: %w", err)
	}

	var result DiffResult
	for _, l := range listings {
		if l.ExternalID == "" {
			e.log.Warn("listing without external id skipped", "script_id", scriptID, "title", l.Title)
			runLog.Appendf("Пропущена вакансия без внешнего ID: %q", l.Title)
			result.Skipped++
			continue
		}

		existing, err := e.vacancies.GetVacancy(ctx, scriptID, l.ExternalID)
		switch {
		case err == nil:
			v := *existing
			v.Title = l.Title
			v.Company = l.Company
			v.Salary = l.Salary
			v.URL = l.URL
			v.Region = l.Region
			v.PublishedAt = l.PublishedAt
			v.FoundByQuery = l.FoundByQuery
			v.IsActive = true
			v.LastSeenAt = now
			v.TimesFound++
			if err := e.vacancies.UpsertVacancy(ctx, &v); err != nil {
				return nil, err
			}
			result.Existing = append(result.Existing, v)

		case errors.Is(err, store.ErrNotFound):
			v := model.Vacancy{
				ID:           uuid.NewString(),
				ScriptID:     scriptID,
				ExternalID:   l.ExternalID,
				Title:        l.Title,
				Company:      l.Company,
				Salary:       l.Salary,
				URL:          l.URL,
				Region:       l.Region,
				PublishedAt:  l.PublishedAt,
				FoundByQuery: l.FoundByQuery,
				IsActive:     true,
				FirstSeenAt:  now,
				LastSeenAt:   now,
				TimesFound:   1,
			}
			if err := e.vacancies.UpsertVacancy(ctx, &v); err != nil {
				return nil, err
			}
			result.New = append(result.New, v)

		default:
			return nil, fmt.Errorf("lookup vacancy %s: %w", l.ExternalID, err)
		}
	}

	runLog.Appendf("Сохранено: %d новых, %d существующих вакансий", len(result.New), len(result.Existing))
	return &result, nil
}
