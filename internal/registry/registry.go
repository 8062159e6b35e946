// Package registry implements the Model Registry (C6): lifecycle
// management for the set of configured translation backends, with
// single-flight loading, memory-budget-aware LRU eviction with a drain
// grace period, exponential backoff on load failure, and the adaptive
// controller's backend-selection policy.
package registry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meriley/lingua-nexus/internal/backend"
	"github.com/meriley/lingua-nexus/internal/core"
	"github.com/meriley/lingua-nexus/internal/langcode"
)

// Backoff describes the registry's retry-after-failure schedule.
type Backoff struct {
	BaseS  float64
	Factor float64
	MaxS   float64
}

// DefaultBackoff matches spec §6's registry.load_backoff default.
var DefaultBackoff = Backoff{BaseS: 1, Factor: 2, MaxS: 300}

// Config holds the registry's tunables (spec §6).
type Config struct {
	MemoryBudgetMB int
	DrainGraceS    float64
	Backoff        Backoff
}

// DefaultConfig matches the spec's documented defaults.
func DefaultConfig() Config {
	return Config{MemoryBudgetMB: 24576, DrainGraceS: 30, Backoff: DefaultBackoff}
}

// Registration is one configured backend, known to the registry before
// it is ever loaded.
type Registration struct {
	ID      string
	Backend backend.ModelBackend
}

type entry struct {
	reg         Registration
	status      core.BackendStatus
	lastUsed    time.Time
	serving     int
	failCount   int
	nextRetryAt time.Time
	loadErr     error
}

// Registry owns the lifecycle of every configured backend.
type Registry struct {
	cfg   Config
	mu    sync.Mutex
	byID  map[string]*entry
	order []string // insertion order, used as a selection tiebreak
	group singleflight.Group
}

// New builds a Registry from its static configuration. Every backend
// starts unloaded; none are loaded until first use.
func New(cfg Config, registrations []Registration) *Registry {
	r := &Registry{cfg: cfg, byID: make(map[string]*entry, len(registrations))}
	for _, reg := range registrations {
		r.byID[reg.ID] = &entry{reg: reg, status: core.StatusUnloaded}
		r.order = append(r.order, reg.ID)
	}
	return r
}

// List returns the current BackendInfo for every registered backend.
func (r *Registry) List() []core.BackendInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.BackendInfo, 0, len(r.order))
	for _, id := range r.order {
		e := r.byID[id]
		info := e.reg.Backend.Info()
		info.Status = e.status
		out = append(out, info)
	}
	return out
}

// GetOrLoad returns a ready backend for id, loading it if necessary.
// Concurrent callers for the same id during loading share one load
// call (T6). The caller must call the returned release func once done
// serving, so the registry can track eviction eligibility.
func (r *Registry) GetOrLoad(ctx context.Context, id string) (backend.ModelBackend, func(), error) {
	r.mu.Lock()
	e, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return nil, nil, core.NewError(core.KindInvalidRequest, "unknown backend: "+id)
	}

	if e.status == core.StatusFailed && time.Now().Before(e.nextRetryAt) {
		err := e.loadErr
		r.mu.Unlock()
		return nil, nil, core.Wrap(core.KindBackendUnavailable, "backend in backoff: "+id, err)
	}

	if e.status == core.StatusReady {
		e.serving++
		e.lastUsed = time.Now()
		r.mu.Unlock()
		return e.reg.Backend, r.releaseFunc(id), nil
	}
	r.mu.Unlock()

	_, err, _ := r.group.Do(id, func() (interface{}, error) {
		return nil, r.load(ctx, id)
	})
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	e.serving++
	e.lastUsed = time.Now()
	r.mu.Unlock()
	return e.reg.Backend, r.releaseFunc(id), nil
}

func (r *Registry) releaseFunc(id string) func() {
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if e, ok := r.byID[id]; ok && e.serving > 0 {
			e.serving--
		}
	}
}

// load performs the actual state transition. Called under single-flight
// so at most one load per backend_id runs at a time (I1).
func (r *Registry) load(ctx context.Context, id string) error {
	r.mu.Lock()
	e := r.byID[id]
	if e.status == core.StatusReady {
		r.mu.Unlock()
		return nil
	}
	e.status = core.StatusLoading
	r.mu.Unlock()

	if err := r.makeRoomFor(ctx, id); err != nil {
		r.mu.Lock()
		e.status = core.StatusFailed
		e.loadErr = err
		r.mu.Unlock()
		return err
	}

	err := e.reg.Backend.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.failCount++
		e.status = core.StatusFailed
		e.loadErr = err
		e.nextRetryAt = time.Now().Add(r.backoffFor(e.failCount))
		return core.Wrap(core.KindBackendInternalError, "load failed: "+id, err)
	}

	e.status = core.StatusReady
	e.failCount = 0
	e.loadErr = nil
	return nil
}

func (r *Registry) backoffFor(failCount int) time.Duration {
	wait := r.cfg.Backoff.BaseS
	for i := 1; i < failCount; i++ {
		wait *= r.cfg.Backoff.Factor
		if wait >= r.cfg.Backoff.MaxS {
			wait = r.cfg.Backoff.MaxS
			break
		}
	}
	return time.Duration(wait * float64(time.Second))
}

// makeRoomFor evicts least-recently-used ready backends until the
// memory budget can accommodate id's backend, skipping any backend
// still serving requests or within its drain grace period. Must be
// called with r.mu unlocked; it manages its own locking.
func (r *Registry) makeRoomFor(ctx context.Context, id string) error {
	r.mu.Lock()
	target := r.byID[id]
	needed := core.MemoryClassMB[target.reg.Backend.Info().MemoryClass]
	budget := r.cfg.MemoryBudgetMB
	r.mu.Unlock()

	if budget <= 0 {
		return nil
	}

	for {
		r.mu.Lock()
		used := 0
		for _, e := range r.byID {
			if e.status == core.StatusReady {
				used += core.MemoryClassMB[e.reg.Backend.Info().MemoryClass]
			}
		}
		if used+needed <= budget {
			r.mu.Unlock()
			return nil
		}

		victimID, ok := r.pickEvictionVictimLocked()
		if !ok {
			r.mu.Unlock()
			return core.NewError(core.KindBackendInternalError, "memory budget exceeded, no evictable backend for "+id).WithHint("raise memory_budget_mb or unload an idle backend")
		}
		victim := r.byID[victimID]
		victim.status = core.StatusUnloading
		r.mu.Unlock()

		if err := victim.reg.Backend.Unload(ctx); err != nil {
			r.mu.Lock()
			victim.status = core.StatusFailed
			victim.loadErr = err
			r.mu.Unlock()
			continue
		}

		r.mu.Lock()
		victim.status = core.StatusUnloaded
		r.mu.Unlock()
	}
}

// pickEvictionVictimLocked returns the least-recently-used ready backend
// that is not currently serving and has cleared its drain grace period.
// Caller must hold r.mu.
func (r *Registry) pickEvictionVictimLocked() (string, bool) {
	var bestID string
	var bestLastUsed time.Time
	found := false

	for id, e := range r.byID {
		if e.status != core.StatusReady || e.serving > 0 {
			continue
		}
		if time.Since(e.lastUsed).Seconds() < r.cfg.DrainGraceS {
			continue
		}
		if !found || e.lastUsed.Before(bestLastUsed) {
			bestID, bestLastUsed, found = id, e.lastUsed, true
		}
	}
	return bestID, found
}

// Unload explicitly releases a backend's resources.
func (r *Registry) Unload(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return core.NewError(core.KindInvalidRequest, "unknown backend: "+id)
	}
	if e.serving > 0 {
		r.mu.Unlock()
		return core.NewError(core.KindBackendInternalError, "backend busy: "+id).WithHint("retry after in-flight requests complete")
	}
	e.status = core.StatusUnloading
	r.mu.Unlock()

	err := e.reg.Backend.Unload(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		e.status = core.StatusFailed
		e.loadErr = err
		return core.Wrap(core.KindBackendInternalError, "unload failed: "+id, err)
	}
	e.status = core.StatusUnloaded
	return nil
}

// DefaultShortTextChars is the text length at or below which selection
// prefers the specialized backend (spec §4.6's "short" threshold).
const DefaultShortTextChars = 200

// Select implements the backend-selection policy (spec §4.6) for
// model_preference=auto. Pass shortThresholdChars <= 0 to use
// DefaultShortTextChars.
func (r *Registry) Select(req core.TranslationRequest, shortThresholdChars int) (string, error) {
	if shortThresholdChars <= 0 {
		shortThresholdChars = DefaultShortTextChars
	}
	if req.ModelPreference != "" && req.ModelPreference != "auto" {
		if _, ok := r.byID[req.ModelPreference]; !ok {
			return "", core.NewError(core.KindInvalidRequest, "unknown backend: "+req.ModelPreference)
		}
		return req.ModelPreference, nil
	}

	specialized, generative := r.familyCandidates()

	preferSpecialized := req.UserPreference == core.PreferFast ||
		len([]rune(req.Text)) <= shortThresholdChars ||
		req.UserPreference == core.PreferBalanced

	if req.UserPreference == core.PreferQuality {
		if id, ok := r.pickSupporting(generative, req.TargetLang); ok {
			return id, nil
		}
		if id, ok := r.pickSupporting(specialized, req.TargetLang); ok {
			return id, nil
		}
		return "", core.NewError(core.KindLanguagePairUnsupported, "no backend supports target language "+req.TargetLang)
	}

	if preferSpecialized {
		if id, ok := r.pickSupporting(specialized, req.TargetLang); ok {
			return id, nil
		}
		if id, ok := r.pickSupporting(generative, req.TargetLang); ok {
			return id, nil
		}
		return "", core.NewError(core.KindLanguagePairUnsupported, "no backend supports target language "+req.TargetLang)
	}

	if id, ok := r.pickSupporting(generative, req.TargetLang); ok {
		return id, nil
	}
	if id, ok := r.pickSupporting(specialized, req.TargetLang); ok {
		return id, nil
	}
	return "", core.NewError(core.KindLanguagePairUnsupported, "no backend supports target language "+req.TargetLang)
}

func (r *Registry) familyCandidates() (specialized, generative []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		e := r.byID[id]
		switch e.reg.Backend.Info().Family {
		case core.FamilySpecialized:
			specialized = append(specialized, id)
		case core.FamilyGenerative:
			generative = append(generative, id)
		}
	}
	return specialized, generative
}

// pickSupporting returns the first candidate whose BackendInfo declares
// support for targetLang (or whose declared language list is empty,
// treated as "supports everything", e.g. a generative LLM).
func (r *Registry) pickSupporting(candidates []string, targetLang string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range candidates {
		info := r.byID[id].reg.Backend.Info()
		if len(info.SupportedLanguages) == 0 {
			return id, true
		}
		for _, lang := range info.SupportedLanguages {
			if langcode.Canonicalize(lang) == langcode.Canonicalize(targetLang) {
				return id, true
			}
		}
	}
	return "", false
}
