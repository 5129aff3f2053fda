package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
)

// Postgres implements ScriptStore, VacancyStore and RunStore on a shared
// pgxpool. Every write is an independently committed statement: a failed
// run truncates progress instead of corrupting it.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ─── ScriptStore ─────────────────────────────────────────────────────────────

func (p *Postgres) GetScript(ctx context.Context, id string) (*model.Script, error) {
	var s model.Script
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, description, search_queries, region, max_pages,
		        is_active, created_at, updated_at
		 FROM scripts
		 WHERE id = $1`,
		id,
	).Scan(
		&s.ID, &s.Name, &s.Description, &s.SearchQueries, &s.Region,
		&s.MaxPages, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	return &s, nil
}

func (p *Postgres) ListActiveScripts(ctx context.Context) ([]model.Script, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, description, search_queries, region, max_pages,
		        is_active, created_at, updated_at
		 FROM scripts
		 WHERE is_active = true
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active scripts: %w", err)
	}
	defer rows.Close()

	var scripts []model.Script
	for rows.Next() {
		var s model.Script
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.SearchQueries, &s.Region,
			&s.MaxPages, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		scripts = append(scripts, s)
	}
	return scripts, rows.Err()
}

// ─── VacancyStore ────────────────────────────────────────────────────────────

const vacancyColumns = `id, script_id, external_id, title, company, salary, url,
	region, published_at, found_by_query, is_active,
	first_seen_at, last_seen_at, times_found`

func (p *Postgres) GetVacancy(ctx context.Context, scriptID, externalID string) (*model.Vacancy, error) {
	var v model.Vacancy
	err := p.pool.QueryRow(ctx,
		`SELECT `+vacancyColumns+`
		 FROM vacancies
		 WHERE script_id = $1 AND external_id = $2`,
		scriptID, externalID,
	).Scan(
		&v.ID, &v.ScriptID, &v.ExternalID, &v.Title, &v.Company, &v.Salary,
		&v.URL, &v.Region, &v.PublishedAt, &v.FoundByQuery, &v.IsActive,
		&v.FirstSeenAt, &v.LastSeenAt, &v.TimesFound,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vacancy: %w", err)
	}
	return &v, nil
}

// UpsertVacancy inserts the vacancy or, when (script_id, external_id)
// already exists, updates the mutable fields in place. first_seen_at is
// never touched on conflict.
func (p *Postgres) UpsertVacancy(ctx context.Context, v *model.Vacancy) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO vacancies (`+vacancyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (script_id, external_id) DO UPDATE SET
		   title          = EXCLUDED.title,
		   company        = EXCLUDED.company,
		   salary         = EXCLUDED.salary,
		   url            = EXCLUDED.url,
		   region         = EXCLUDED.region,
		   published_at   = EXCLUDED.published_at,
		   found_by_query = EXCLUDED.found_by_query,
		   is_active      = EXCLUDED.is_active,
		   last_seen_at   = EXCLUDED.last_seen_at,
		   times_found    = EXCLUDED.times_found`,
		v.ID, v.ScriptID, v.ExternalID, v.Title, v.Company, v.Salary,
		v.URL, v.Region, v.PublishedAt, v.FoundByQuery, v.IsActive,
		v.FirstSeenAt, v.LastSeenAt, v.TimesFound,
	)
	if err != nil {
		return fmt.Errorf("upsert vacancy %s: %w", v.ExternalID, err)
	}
	return nil
}

func (p *Postgres) MarkAllInactive(ctx context.Context, scriptID string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE vacancies SET is_active = false WHERE script_id = $1`,
		scriptID,
	)
	if err != nil {
		return fmt.Errorf("mark vacancies inactive: %w", err)
	}
	return nil
}

func (p *Postgres) ListByScript(ctx context.Context, scriptID string, activeOnly bool) ([]model.Vacancy, error) {
	q := `SELECT ` + vacancyColumns + ` FROM vacancies WHERE script_id = $1`
	if activeOnly {
		q += ` AND is_active = true`
	}
	q += ` ORDER BY last_seen_at DESC`

	rows, err := p.pool.Query(ctx, q, scriptID)
	if err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}
	defer rows.Close()

	var vacancies []model.Vacancy
	for rows.Next() {
		var v model.Vacancy
		if err := rows.Scan(
			&v.ID, &v.ScriptID, &v.ExternalID, &v.Title, &v.Company, &v.Salary,
			&v.URL, &v.Region, &v.PublishedAt, &v.FoundByQuery, &v.IsActive,
			&v.FirstSeenAt, &v.LastSeenAt, &v.TimesFound,
		); err != nil {
			return nil, fmt.Errorf("scan vacancy: %w", err)
		}
		vacancies = append(vacancies, v)
	}
	return vacancies, rows.Err()
}

// ─── RunStore ────────────────────────────────────────────────────────────────

// StartRun creates a running run unless the script already has one. The
// conditional insert is a single statement, so two concurrent start
// requests cannot both slip past a separate existence check.
func (p *Postgres) StartRun(ctx context.Context, runID, scriptID string) (*model.ScriptRun, error) {
	var run model.ScriptRun
	err := p.pool.QueryRow(ctx,
		`INSERT INTO script_runs (id, script_id, status, started_at)
		 SELECT $1, $2, 'running', now()
		 WHERE NOT EXISTS (
		   SELECT 1 FROM script_runs WHERE script_id = $2 AND status = 'running'
		 )
		 RETURNING id, script_id, status, started_at`,
		runID, scriptID,
	).Scan(&run.ID, &run.ScriptID, &run.Status, &run.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &run, nil
}

func (p *Postgres) GetRun(ctx context.Context, runID string) (*model.ScriptRun, error) {
	var (
		run      model.ScriptRun
		statsRaw []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, script_id, status, started_at, completed_at,
		        total_found, new_count, existing_count,
		        error_message, log_data, COALESCE(query_stats, 'null'::jsonb)
		 FROM script_runs
		 WHERE id = $1`,
		runID,
	).Scan(
		&run.ID, &run.ScriptID, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.TotalFound, &run.NewCount, &run.ExistingCount,
		&run.ErrorMessage, &run.LogData, &statsRaw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if len(statsRaw) > 0 {
		if err := json.Unmarshal(statsRaw, &run.QueryStats); err != nil {
			return nil, fmt.Errorf("decode query stats: %w", err)
		}
	}
	return &run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, scriptID string, limit int) ([]model.ScriptRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, script_id, status, started_at, completed_at,
		        total_found, new_count, existing_count, error_message
		 FROM script_runs
		 WHERE script_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		scriptID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.ScriptRun
	for rows.Next() {
		var run model.ScriptRun
		if err := rows.Scan(
			&run.ID, &run.ScriptID, &run.Status, &run.StartedAt, &run.CompletedAt,
			&run.TotalFound, &run.NewCount, &run.ExistingCount, &run.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (p *Postgres) UpdateRunLog(ctx context.Context, runID, logData string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE script_runs SET log_data = $2 WHERE id = $1`,
		runID, logData,
	)
	if err != nil {
		return fmt.Errorf("update run log: %w", err)
	}
	return nil
}

func (p *Postgres) FinishRun(ctx context.Context, run *model.ScriptRun) error {
	var statsRaw []byte
	if run.QueryStats != nil {
		var err error
		statsRaw, err = json.Marshal(run.QueryStats)
		if err != nil {
			return fmt.Errorf("encode query stats: %w", err)
		}
	}

	completedAt := run.CompletedAt
	if completedAt == nil {
		now := time.Now().UTC()
		completedAt = &now
	}

	_, err := p.pool.Exec(ctx,
		`UPDATE script_runs SET
		   status         = $2,
		   completed_at   = $3,
		   total_found    = $4,
		   new_count      = $5,
		   existing_count = $6,
		   error_message  = $7,
		   log_data       = $8,
		   query_stats    = $9
		 WHERE id = $1`,
		run.ID, run.Status, completedAt,
		run.TotalFound, run.NewCount, run.ExistingCount,
		run.ErrorMessage, run.LogData, statsRaw,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// CreateVacancyRun links a vacancy to a run. The (run, vacancy) pair is
// unique; a repeat link is silently ignored.
func (p *Postgres) CreateVacancyRun(ctx context.Context, link *model.VacancyRun) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO vacancy_runs (script_run_id, vacancy_id, is_new_in_run, found_by_query, found_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (script_run_id, vacancy_id) DO NOTHING`,
		link.RunID, link.VacancyID, link.IsNewInRun, link.FoundByQuery, link.FoundAt,
	)
	if err != nil {
		return fmt.Errorf("create vacancy run: %w", err)
	}
	return nil
}
