// Package scheduler wires up the cron job that periodically starts runs
// for every active script.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// RunStarter is the slice of the run manager the scheduler needs.
type RunStarter interface {
	StartRun(ctx context.Context, scriptID string) (string, error)
}

// Scheduler wraps robfig/cron and triggers runs on a fixed interval.
type Scheduler struct {
	cron    *cron.Cron
	scripts store.ScriptStore
	manager RunStarter
	log     *logging.Logger
	spec    string // cron spec, e.g. "@every 6h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(scripts store.ScriptStore, manager RunStarter, intervalHours int, log *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		scripts: scripts,
		manager: manager,
		log:     log,
		spec:    fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop shuts the scheduler down; already-started runs keep going.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

// runAll starts a run for each active script. A script that is already
// running is skipped, not queued.
func (s *Scheduler) runAll(ctx context.Context) {
	scripts, err := s.scripts.ListActiveScripts(ctx)
	if err != nil {
		s.log.Error("scheduled cycle: listing scripts failed", "err", err)
		return
	}
	if len(scripts) == 0 {
		s.log.Info("scheduled cycle: no active scripts")
		return
	}

	s.log.Info("scheduled cycle started", "scripts", len(scripts))
	for i := range scripts {
		script := &scripts[i]
		runID, err := s.manager.StartRun(ctx, script.ID)
		switch {
		case errors.Is(err, store.ErrRunInProgress):
			s.log.Info("scheduled run skipped, script busy", "script_id", script.ID)
		case err != nil:
			s.log.Error("scheduled run failed to start", "script_id", script.ID, "err", err)
		default:
			s.log.Info("scheduled run started", "script_id", script.ID, "run_id", runID)
		}
	}
}
