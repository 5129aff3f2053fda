package parser_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/hh"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
)

// ── fake hh client ────────────────────────────────────────────────────────

type fakeClient struct {
	mu    sync.Mutex
	fn    func(query string, page int) (*hh.Page, error)
	calls map[string]int // pages fetched per query
}

func newFakeClient(fn func(query string, page int) (*hh.Page, error)) *fakeClient {
	return &fakeClient{fn: fn, calls: make(map[string]int)}
}

func (c *fakeClient) SearchPage(_ context.Context, query string, _ []string, page int) (*hh.Page, error) {
	c.mu.Lock()
	c.calls[query]++
	c.mu.Unlock()
	return c.fn(query, page)
}

func (c *fakeClient) pagesFetched(query string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[query]
}

// fullPage builds a page of exactly hh.PageSize matching listings with
// sequential IDs starting at firstID.
func fullPage(found, pages, firstID int) *hh.Page {
	items := make([]model.Listing, hh.PageSize)
	for i := range items {
		items[i] = listing(fmt.Sprintf("%d", firstID+i), "Engineer")
	}
	return &hh.Page{Found: found, Pages: pages, Items: items}
}

func listing(id, title string) model.Listing {
	return model.Listing{
		ExternalID: id,
		Title:      title,
		Company:    "Acme",
		Salary:     "Не указана",
		URL:        "https://hh.ru/vacancy/" + id,
		Region:     "Москва",
	}
}

// ── fake vacancy store ────────────────────────────────────────────────────

type fakeVacancyStore struct {
	mu         sync.Mutex
	rows       map[string]model.Vacancy // keyed scriptID|externalID
	failUpsert error
	failMark   error
}

func newFakeVacancyStore() *fakeVacancyStore {
	return &fakeVacancyStore{rows: make(map[string]model.Vacancy)}
}

func vacKey(scriptID, externalID string) string { return scriptID + "|" + externalID }

func (s *fakeVacancyStore) GetVacancy(_ context.Context, scriptID, externalID string) (*model.Vacancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[vacKey(scriptID, externalID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := v
	return &out, nil
}

func (s *fakeVacancyStore) UpsertVacancy(_ context.Context, v *model.Vacancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert != nil {
		return s.failUpsert
	}
	s.rows[vacKey(v.ScriptID, v.ExternalID)] = *v
	return nil
}

func (s *fakeVacancyStore) MarkAllInactive(_ context.Context, scriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark != nil {
		return s.failMark
	}
	for k, v := range s.rows {
		if v.ScriptID == scriptID {
			v.IsActive = false
			s.rows[k] = v
		}
	}
	return nil
}

func (s *fakeVacancyStore) ListByScript(_ context.Context, scriptID string, activeOnly bool) ([]model.Vacancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Vacancy
	for _, v := range s.rows {
		if v.ScriptID != scriptID {
			continue
		}
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeVacancyStore) count(scriptID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.rows {
		if v.ScriptID == scriptID {
			n++
		}
	}
	return n
}

func (s *fakeVacancyStore) get(scriptID, externalID string) (model.Vacancy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[vacKey(scriptID, externalID)]
	return v, ok
}

// ── fake run store ────────────────────────────────────────────────────────

type fakeRunStore struct {
	mu         sync.Mutex
	runs       map[string]model.ScriptRun
	running    map[string]bool // scriptID → has active run
	links      []model.VacancyRun
	logUpdates int
	onLink     func() // called before each CreateVacancyRun
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{
		runs:    make(map[string]model.ScriptRun),
		running: make(map[string]bool),
	}
}

func (s *fakeRunStore) StartRun(_ context.Context, runID, scriptID string) (*model.ScriptRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[scriptID] {
		return nil, store.ErrRunInProgress
	}
	s.running[scriptID] = true
	run := model.ScriptRun{ID: runID, ScriptID: scriptID, Status: model.RunStatusRunning}
	s.runs[runID] = run
	out := run
	return &out, nil
}

func (s *fakeRunStore) GetRun(_ context.Context, runID string) (*model.ScriptRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := run
	return &out, nil
}

func (s *fakeRunStore) ListRuns(_ context.Context, scriptID string, _ int) ([]model.ScriptRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ScriptRun
	for _, run := range s.runs {
		if run.ScriptID == scriptID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (s *fakeRunStore) UpdateRunLog(_ context.Context, runID, logData string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	run.LogData = logData
	s.runs[runID] = run
	s.logUpdates++
	return nil
}

func (s *fakeRunStore) FinishRun(ctx context.Context, run *model.ScriptRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return store.ErrNotFound
	}
	s.runs[run.ID] = *run
	s.running[run.ScriptID] = false
	return nil
}

func (s *fakeRunStore) CreateVacancyRun(_ context.Context, link *model.VacancyRun) error {
	if s.onLink != nil {
		s.onLink()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.RunID == link.RunID && l.VacancyID == link.VacancyID {
			return nil // unique pair, ignore repeats
		}
	}
	s.links = append(s.links, *link)
	return nil
}

func (s *fakeRunStore) linkCount(runID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.links {
		if l.RunID == runID {
			n++
		}
	}
	return n
}

var errStorageDown = errors.New("connection lost")
