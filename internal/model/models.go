// Package model defines shared data structures for the vacancy service.
package model

import "time"

// RunStatus values mirror the run_status enum in PostgreSQL.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Script is a named search profile. Vacancies and runs are namespaced
// under the owning script: the same hh.ru vacancy tracked by two scripts
// is two independent records.
type Script struct {
	ID            string
	Name          string
	Description   string
	SearchQueries []string // ordered; earlier queries win dedup attribution
	Region        string   // symbolic region choice, see regions.go
	MaxPages      int      // pages per query, capped by the hh.ru API limit
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Listing is a normalised vacancy fetched from hh.ru, before it is
// reconciled against stored state. Snippet text is kept only for keyword
// matching and is not persisted.
type Listing struct {
	ExternalID   string
	Title        string
	Company      string
	Salary       string // already rendered, e.g. "50 000 - 70 000 RUR"
	URL          string
	Region       string
	PublishedAt  *time.Time
	Snippet      string
	FoundByQuery string // set by the query runner that collected it
}

// Vacancy is a tracked vacancy row, unique per (script, external ID).
// Re-observing an existing external ID always updates the row in place.
type Vacancy struct {
	ID           string
	ScriptID     string
	ExternalID   string
	Title        string
	Company      string
	Salary       string
	URL          string
	Region       string
	PublishedAt  *time.Time
	FoundByQuery string // the query that most recently found it
	IsActive     bool   // seen in the most recent run
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
	TimesFound   int
}

// QueryStats is the per-query breakdown persisted on a ScriptRun.
type QueryStats struct {
	FoundInSource int `json:"found_in_source"` // total the API reported
	Collected     int `json:"collected"`       // passed the keyword filter
	FilteredOut   int `json:"filtered_out"`
	Unique        int `json:"unique"` // survived cross-query dedup
	Duplicates    int `json:"duplicates"`
	New           int `json:"new"`
	Existing      int `json:"existing"`
}

// ScriptRun is one execution of the fetch/filter/reconcile pipeline.
type ScriptRun struct {
	ID            string
	ScriptID      string
	Status        RunStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	TotalFound    int
	NewCount      int
	ExistingCount int
	ErrorMessage  string
	LogData       string
	QueryStats    map[string]QueryStats
}

// VacancyRun links a vacancy to the run that observed it. Created once
// per (run, vacancy) pair; a vacancy found by two queries in the same
// run is linked once, under the first query.
type VacancyRun struct {
	RunID        string
	VacancyID    string
	IsNewInRun   bool
	FoundByQuery string
	FoundAt      time.Time
}
