// Package parser implements the fetch → filter → dedup → reconcile
// pipeline that turns hh.ru search results into tracked vacancies.
package parser

import (
	"context"
	"time"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/filter"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/hh"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/metrics"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/runlog"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// SearchClient is the slice of the hh client the pipeline needs.
type SearchClient interface {
	SearchPage(ctx context.Context, query string, areas []string, page int) (*hh.Page, error)
}

// defaultRequestDelay is the pause between page requests. The hh.ru API
// rate-limits aggressively; config enforces a 300ms floor in production.
const defaultRequestDelay = 300 * time.Millisecond

// QueryRunner drives one search query across paginated results, applying
// the keyword filter and accumulating per-query statistics.
type QueryRunner struct {
	client  SearchClient
	matcher *filter.Matcher
	delay   time.Duration
	log     *logging.Logger
}

// NewQueryRunner constructs a runner. A non-positive delay falls back to
// the default inter-page pause.
func NewQueryRunner(client SearchClient, matcher *filter.Matcher, delay time.Duration, log *logging.Logger) *QueryRunner {
	if delay <= 0 {
		delay = defaultRequestDelay
	}
	return &QueryRunner{
		client:  client,
		matcher: matcher,
		delay:   delay,
		log:     log,
	}
}

// Run pages through results for query until the source is exhausted,
// maxPages is reached, the source errors, or ctx is cancelled. A source
// error aborts this query only: what was collected so far is returned
// and the error goes to the run log, not to the caller.
//
// Listings come back in fetch order, which is the source's
// reverse-chronological publication ordering.
func (r *QueryRunner) Run(ctx context.Context, runLog *runlog.Buffer, query string, areas []string, maxPages int) ([]model.Listing, model.QueryStats) {
	var (
		stats     model.QueryStats
		collected []model.Listing
	)

	if maxPages <= 0 || maxPages > hh.MaxPages {
		maxPages = hh.MaxPages
	}
	totalPages := maxPages

	runLog.Appendf("Поиск по запросу: %q", query)

	for page := 0; page < totalPages; page++ {
		result, err := r.client.SearchPage(ctx, query, areas, page)
		if err != nil {
			r.log.Warn("page fetch failed", "query", query, "page", page, "err", err)
			runLog.Appendf("Ошибка при запросе к API на странице %d: %v", page+1, err)
			break
		}
		metrics.PagesFetched.Inc()

		if page == 0 {
			stats.FoundInSource = result.Found
			if result.Pages < totalPages {
				totalPages = result.Pages
			}
			runLog.Appendf("Всего найдено вакансий: %d, доступно страниц: %d", result.Found, totalPages)
			if result.CappedByAPI() {
				r.log.Info("hh.ru result ceiling hit", "query", query, "found", result.Found, "retrievable", hh.MaxResults)
				runLog.Appendf("Внимание: API HH.ru позволяет получить только первые %d результатов из %d", hh.MaxResults, result.Found)
			}
		}

		if len(result.Items) == 0 {
			runLog.Appendf("На странице %d вакансий не найдено, завершаем загрузку", page+1)
			break
		}

		matched := 0
		for _, item := range result.Items {
			if r.matcher.Matches(item.Title, item.Snippet) {
				item.FoundByQuery = query
				collected = append(collected, item)
				matched++
			} else {
				stats.FilteredOut++
			}
		}
		runLog.Appendf("Страница %d/%d: собрано %d, отфильтровано %d", page+1, totalPages, matched, len(result.Items)-matched)

		// A short page signals the last one.
		if len(result.Items) < hh.PageSize {
			break
		}
		if page+1 >= totalPages {
			break
		}

		// The inter-page pause is also the cooperative cancellation point.
		select {
		case <-ctx.Done():
			runLog.Appendf("Загрузка прервана: %v", ctx.Err())
			stats.Collected = len(collected)
			return collected, stats
		case <-time.After(r.delay):
		}
	}

	stats.Collected = len(collected)
	runLog.Appendf("Запрос %q завершён: собрано %d вакансий", query, stats.Collected)
	return collected, stats
}
