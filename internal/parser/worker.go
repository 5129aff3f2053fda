package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/filter"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/metrics"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/runlog"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// Worker executes one full run for a script: every configured query is
// paged through in order, results are deduplicated across queries,
// reconciled against stored vacancies and the run record is finalised.
type Worker struct {
	runner   *QueryRunner
	diff     *DiffEngine
	runs     store.RunStore
	log      *logging.Logger
	logFlush time.Duration
	clock    func() time.Time
}

// NewWorker wires the pipeline components.
func NewWorker(client SearchClient, matcher *filter.Matcher, vacancies store.VacancyStore, runs store.RunStore, delay time.Duration, log *logging.Logger) *Worker {
	return &Worker{
		runner:   NewQueryRunner(client, matcher, delay, log),
		diff:     NewDiffEngine(vacancies, log),
		runs:     runs,
		log:      log,
		logFlush: 2 * time.Second,
		clock:    time.Now,
	}
}

// WithClock replaces the clock used for run timestamps. Tests only.
func (w *Worker) WithClock(clock func() time.Time) *Worker {
	w.clock = clock
	w.diff.WithClock(clock)
	return w
}

// Execute runs the pipeline for run, which must already be persisted
// with status running. The run always ends finalised: completed with
// counters and stats, or failed with the error captured. The returned
// error is the failure cause, for the caller's own logging.
func (w *Worker) Execute(ctx context.Context, script *model.Script, run *model.ScriptRun) error {
	runLog := runlog.New(func(flushCtx context.Context, text string) error {
		return w.runs.UpdateRunLog(flushCtx, run.ID, text)
	}, w.logFlush)

	// The flusher gets its own context: it must survive ctx cancellation
	// long enough to write the log tail.
	flushCtx, stopFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		runLog.Run(flushCtx)
	}()
	defer func() {
		stopFlush()
		<-flushDone
	}()

	runLog.Appendf("Запуск парсера вакансий hh.ru")
	runLog.Appendf("Скрипт: %q, регион: %s", script.Name, script.RegionDisplayName())

	if len(script.SearchQueries) == 0 {
		return w.fail(run, runLog, fmt.Errorf("script %s has no search queries", script.ID))
	}

	areas := script.AreaIDs()
	dedup := NewDeduplicator()
	perQuery := make(map[string]model.QueryStats, len(script.SearchQueries))
	var merged []model.Listing

	for _, query := range script.SearchQueries {
		if ctx.Err() != nil {
			break
		}
		listings, stats := w.runner.Run(ctx, runLog, query, areas, script.MaxPages)
		unique := dedup.Merge(listings, &stats)
		perQuery[query] = stats
		merged = append(merged, unique...)
		if stats.Duplicates > 0 {
			runLog.Appendf("Запрос %q: %d дубликатов из предыдущих запросов отброшено", query, stats.Duplicates)
		}
	}

	if err := ctx.Err(); err != nil {
		return w.fail(run, runLog, fmt.Errorf("run cancelled: %w", err))
	}

	runLog.Appendf("Всего уникальных вакансий после объединения запросов: %d", len(merged))

	diff, err := w.diff.Reconcile(ctx, runLog, script.ID, merged)
	if err != nil {
		return w.fail(run, runLog, err)
	}

	w.linkVacancies(ctx, run, diff)

	summary := Summarize(len(merged), perQuery, diff)
	now := w.clock().UTC()

	run.Status = model.RunStatusCompleted
	run.CompletedAt = &now
	run.TotalFound = summary.TotalFound
	run.NewCount = summary.NewCount
	run.ExistingCount = summary.ExistingCount
	run.QueryStats = summary.PerQuery

	runLog.Appendf("Найдено новых вакансий: %d", summary.NewCount)
	runLog.Appendf("Повторных вакансий: %d", summary.ExistingCount)
	runLog.Appendf("Парсер завершил работу успешно")
	run.LogData = runLog.String()

	// Finalisation must not inherit the run context: a timeout or cancel
	// landing after reconcile would otherwise leave the run in status
	// running forever, with the script rejected as busy from then on.
	finishCtx, cancelFinish := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFinish()
	if err := w.runs.FinishRun(finishCtx, run); err != nil {
		return fmt.Errorf("finalise run %s: %w", run.ID, err)
	}

	metrics.VacanciesObserved.WithLabelValues("new").Add(float64(summary.NewCount))
	metrics.VacanciesObserved.WithLabelValues("existing").Add(float64(summary.ExistingCount))
	w.log.Info("run completed",
		"run_id", run.ID, "script_id", script.ID,
		"total", summary.TotalFound, "new", summary.NewCount, "existing", summary.ExistingCount)
	return nil
}

// linkVacancies records which vacancies this run observed. Link failures
// are logged and skipped: the reconciled state is already durable.
func (w *Worker) linkVacancies(ctx context.Context, run *model.ScriptRun, diff *DiffResult) {
	now := w.clock().UTC()
	link := func(v *model.Vacancy, isNew bool) {
		err := w.runs.CreateVacancyRun(ctx, &model.VacancyRun{
			RunID:        run.ID,
			VacancyID:    v.ID,
			IsNewInRun:   isNew,
			FoundByQuery: v.FoundByQuery,
			FoundAt:      now,
		})
		if err != nil {
			w.log.Warn("vacancy link failed", "run_id", run.ID, "vacancy_id", v.ID, "err", err)
		}
	}
	for i := range diff.New {
		link(&diff.New[i], true)
	}
	for i := range diff.Existing {
		link(&diff.Existing[i], false)
	}
}

// fail finalises the run as failed with err captured, then returns err.
func (w *Worker) fail(run *model.ScriptRun, runLog *runlog.Buffer, err error) error {
	now := w.clock().UTC()
	runLog.Appendf("Критическая ошибка: %v", err)

	run.Status = model.RunStatusFailed
	run.CompletedAt = &now
	run.ErrorMessage = err.Error()
	run.LogData = runLog.String()

	// Finalisation must not inherit a cancelled run context.
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if finErr := w.runs.FinishRun(finishCtx, run); finErr != nil {
		w.log.Error("failed to finalise failed run", "run_id", run.ID, "err", finErr)
	}

	w.log.Error("run failed", "run_id", run.ID, "script_id", run.ScriptID, "err", err)
	return err
}
