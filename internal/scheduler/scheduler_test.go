package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

type fakeScripts struct {
	scripts []model.Script
	err     error
}

func (s *fakeScripts) GetScript(_ context.Context, id string) (*model.Script, error) {
	return nil, store.ErrNotFound
}

func (s *fakeScripts) ListActiveScripts(_ context.Context) ([]model.Script, error) {
	return s.scripts, s.err
}

type fakeStarter struct {
	mu      sync.Mutex
	started []string
	errFor  map[string]error
}

func (f *fakeStarter) StartRun(_ context.Context, scriptID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[scriptID]; err != nil {
		return "", err
	}
	f.started = append(f.started, scriptID)
	return "run-" + scriptID, nil
}

func TestRunAll_StartsEveryActiveScript(t *testing.T) {
	scripts := &fakeScripts{scripts: []model.Script{{ID: "a"}, {ID: "b"}}}
	starter := &fakeStarter{}
	s := New(scripts, starter, 6, logging.NewNop())

	s.runAll(context.Background())

	if len(starter.started) != 2 {
		t.Fatalf("started %v, want both scripts", starter.started)
	}
}

func TestRunAll_SkipsBusyScripts(t *testing.T) {
	scripts := &fakeScripts{scripts: []model.Script{{ID: "busy"}, {ID: "idle"}}}
	starter := &fakeStarter{errFor: map[string]error{"busy": store.ErrRunInProgress}}
	s := New(scripts, starter, 6, logging.NewNop())

	s.runAll(context.Background())

	if len(starter.started) != 1 || starter.started[0] != "idle" {
		t.Fatalf("started %v, want only the idle script", starter.started)
	}
}

func TestRunAll_ListFailureAbortsCycle(t *testing.T) {
	scripts := &fakeScripts{err: store.ErrNotFound}
	starter := &fakeStarter{}
	s := New(scripts, starter, 6, logging.NewNop())

	s.runAll(context.Background())

	if len(starter.started) != 0 {
		t.Fatalf("started %v, want none when listing fails", starter.started)
	}
}

func TestNewBuildsIntervalSpec(t *testing.T) {
	s := New(&fakeScripts{}, &fakeStarter{}, 6, logging.NewNop())
	if s.spec != "@every 6h" {
		t.Errorf("spec = %q, want @every 6h", s.spec)
	}
}
