// Package run owns the lifecycle of parser runs: starting them on their
// own goroutine, enforcing one active run per script, and answering
// status polls.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/metrics"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
	"github.com/KorotaevvEgor/Scripts-Hub/internal/store"
	"github.com/KorotaevvEgor/Scripts-Hub/pkg/logging"
)

// Executor runs the parser pipeline for one script run.
type Executor interface {
	Execute(ctx context.Context, script *model.Script, run *model.ScriptRun) error
}

// RedisClient is the slice of go-redis the manager uses for the
// advisory busy-lock and the finished-run status cache.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

const (
	busyKeyTTL     = 30 * time.Minute
	statusCacheTTL = 10 * time.Minute
	runTimeout     = 30 * time.Minute
)

// handle tracks one in-flight run.
type handle struct {
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts runs and serves their status. Mutual exclusion per
// script is enforced twice: a redis advisory lock rejects the common
// case cheaply, and the store's atomic conditional insert is the
// authoritative guard.
type Manager struct {
	scripts  store.ScriptStore
	runs     store.RunStore
	executor Executor
	rdb      RedisClient // optional; nil disables the advisory lock and cache
	log      *logging.Logger

	mu     sync.Mutex
	active map[string]*handle // keyed by script ID
	wg     sync.WaitGroup
}

// NewManager constructs a Manager. rdb may be nil.
func NewManager(scripts store.ScriptStore, runs store.RunStore, executor Executor, rdb RedisClient, log *logging.Logger) *Manager {
	return &Manager{
		scripts:  scripts,
		runs:     runs,
		executor: executor,
		rdb:      rdb,
		log:      log,
		active:   make(map[string]*handle),
	}
}

// StartRun creates a run for the script and executes it on a dedicated
// goroutine, returning the run ID immediately. If the script already has
// an active run the request is rejected with store.ErrRunInProgress —
// never queued.
func (m *Manager) StartRun(ctx context.Context, scriptID string) (string, error) {
	script, err := m.scripts.GetScript(ctx, scriptID)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()

	// haveLock records whether this call actually took the busy key:
	// only the holder may delete it, or a recovered redis loses a lock
	// legitimately held by another process.
	haveLock := false
	locked, err := m.acquireLock(ctx, scriptID)
	switch {
	case err != nil:
		m.log.Warn("redis busy-lock unavailable, relying on store guard", "err", err)
	case !locked:
		metrics.RunsRejectedBusy.Inc()
		return "", store.ErrRunInProgress
	default:
		haveLock = true
	}

	run, err := m.runs.StartRun(ctx, runID, scriptID)
	if err != nil {
		if haveLock {
			m.releaseLock(scriptID)
		}
		if errors.Is(err, store.ErrRunInProgress) {
			metrics.RunsRejectedBusy.Inc()
		}
		return "", err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
	h := &handle{runID: runID, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.active[scriptID] = h
	m.mu.Unlock()

	metrics.RunsStarted.Inc()
	m.log.Info("run started", "run_id", runID, "script_id", scriptID)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(h.done)
		defer cancel()

		err := m.executor.Execute(runCtx, script, run)

		m.mu.Lock()
		delete(m.active, scriptID)
		m.mu.Unlock()
		if haveLock {
			m.releaseLock(scriptID)
		}

		if err != nil {
			metrics.RunsFinished.WithLabelValues(string(model.RunStatusFailed)).Inc()
		} else {
			metrics.RunsFinished.WithLabelValues(string(model.RunStatusCompleted)).Inc()
		}
		m.cacheStatus(run)
	}()

	return runID, nil
}

// Status returns the current state of a run. Finished runs are served
// from the redis cache when possible; everything else hits the store,
// so a mid-flight run is always inspectable.
func (m *Manager) Status(ctx context.Context, runID string) (*model.ScriptRun, error) {
	if cached := m.cachedStatus(ctx, runID); cached != nil {
		return cached, nil
	}
	return m.runs.GetRun(ctx, runID)
}

// CancelScript requests cooperative cancellation of the script's active
// run, if any. The run finalises itself as failed.
func (m *Manager) CancelScript(scriptID string) bool {
	m.mu.Lock()
	h, ok := m.active[scriptID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

// Shutdown cancels every active run and waits for them to finalise, or
// for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, h := range m.active {
		h.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runs still active at shutdown deadline: %w", ctx.Err())
	}
}

// ─── Redis advisory lock and status cache ────────────────────────────────────

func busyKey(scriptID string) string { return "vacancy:run:busy:" + scriptID }
func statusKey(runID string) string  { return "vacancy:run:status:" + runID }

func (m *Manager) acquireLock(ctx context.Context, scriptID string) (bool, error) {
	if m.rdb == nil {
		return true, nil
	}
	return m.rdb.SetNX(ctx, busyKey(scriptID), "1", busyKeyTTL).Result()
}

func (m *Manager) releaseLock(scriptID string) {
	if m.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.Del(ctx, busyKey(scriptID)).Err(); err != nil {
		m.log.Warn("busy-lock release failed", "script_id", scriptID, "err", err)
	}
}

func (m *Manager) cacheStatus(run *model.ScriptRun) {
	if m.rdb == nil {
		return
	}
	raw, err := json.Marshal(run)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.Set(ctx, statusKey(run.ID), raw, statusCacheTTL).Err(); err != nil {
		m.log.Warn("status cache write failed", "run_id", run.ID, "err", err)
	}
}

func (m *Manager) cachedStatus(ctx context.Context, runID string) *model.ScriptRun {
	if m.rdb == nil {
		return nil
	}
	raw, err := m.rdb.Get(ctx, statusKey(runID)).Bytes()
	if err != nil {
		return nil
	}
	var run model.ScriptRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil
	}
	return &run
}
