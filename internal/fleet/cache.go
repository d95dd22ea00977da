package fleet

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Cache is the telemetry fusion cache: one merged RobotState per robot
// ID, fed concurrently by the push-ingest path and the poll runner and
// swept by the liveness sweeper.
//
// Locking is two-level: a read-write mutex guards the map itself, and
// each entry carries its own mutex so merges to different robots
// proceed fully in parallel while per-robot mutation stays serialised.
// Snapshots copy under the entry lock, so a reader can never observe a
// half-applied merge.
//
// All methods are safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	robots map[string]*robotEntry

	// now is the clock source, injectable for deterministic tests.
	now func() time.Time
}

// robotEntry pairs a robot's merged state with the cache-internal
// bookkeeping the sweeper needs. lastUpdate stays out of RobotState so
// it can never leak through a snapshot.
type robotEntry struct {
	mu         sync.Mutex
	state      RobotState
	lastUpdate time.Time // zero until the first successful merge
}

// NewCache creates an empty fusion cache.
func NewCache() *Cache {
	return &Cache{
		robots: make(map[string]*robotEntry),
		now:    time.Now,
	}
}

// SetClock overrides the cache's time source. Tests use this to drive
// staleness deterministically.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// entry returns the entry for id, creating it if requested.
// A freshly created robot starts OFFLINE with an unknown age.
func (c *Cache) entry(id string, create bool) *robotEntry {
	c.mu.RLock()
	e, ok := c.robots[id]
	c.mu.RUnlock()
	if ok || !create {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.robots[id]; ok {
		return e
	}
	e = &robotEntry{
		state: RobotState{
			ID:       id,
			Status:   StatusOffline,
			LastSeen: unknownAge,
		},
	}
	c.robots[id] = e
	return e
}

// RegisterStatic seeds or backfills a robot's static attributes from
// the roster. It is idempotent: a static field is applied only where
// the current value is empty, so it can never overwrite dynamic state
// or a value a telemetry source already supplied. An empty id is a
// no-op.
func (c *Cache) RegisterStatic(id string, static Patch) {
	if id == "" {
		return
	}

	e := c.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	applyIfEmpty(&s.Name, static.Name)
	applyIfEmpty(&s.Model, static.Model)
	applyIfEmpty(&s.Category, static.Category)
	applyIfEmpty(&s.IP, static.IP)
	applyIfEmpty(&s.Site, static.Site)
	applyIfEmpty(&s.Task, static.Task)
	applyIfEmpty(&s.Firmware, static.Firmware)
	applyIfEmpty(&s.SerialNumber, static.SerialNumber)
	applyIfEmpty(&s.Notes, static.Notes)
	if s.Capabilities == nil && static.Capabilities != nil {
		s.Capabilities = append([]string(nil), static.Capabilities...)
	}
	if s.Battery == nil && static.Battery != nil {
		b := *static.Battery
		s.Battery = &b
	}
	// Status is never seeded from the roster: registration created the
	// entry OFFLINE and only telemetry or the sweeper may change that.
}

// applyIfEmpty sets *dst from src only when dst is currently empty.
func applyIfEmpty(dst *string, src *string) {
	if *dst == "" && src != nil {
		*dst = *src
	}
}

// Merge applies a partial update to a robot and stamps its last-update
// time. Merge precedence is field-wise last-writer-wins by arrival
// order: only non-nil patch fields are applied, whichever source's
// merge runs later wins that field, and absent fields keep their prior
// value. A patch without a status can therefore never erase one.
//
// An unknown robot is created on first merge. An empty id is a no-op.
func (c *Cache) Merge(id string, patch Patch) {
	if id == "" {
		return
	}

	e := c.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &e.state
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.Battery != nil {
		b := *patch.Battery
		s.Battery = &b
	}
	if patch.Task != nil {
		s.Task = *patch.Task
	}
	if patch.Site != nil {
		s.Site = *patch.Site
	}
	if patch.Model != nil {
		s.Model = *patch.Model
	}
	if patch.Category != nil {
		s.Category = *patch.Category
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.IP != nil {
		s.IP = *patch.IP
	}
	if patch.Firmware != nil {
		s.Firmware = *patch.Firmware
	}
	if patch.SerialNumber != nil {
		s.SerialNumber = *patch.SerialNumber
	}
	if patch.Capabilities != nil {
		s.Capabilities = append([]string(nil), patch.Capabilities...)
	}
	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}

	// Even a field-less merge is proof of life.
	e.lastUpdate = c.now()
	s.LastSeen = "just now"
}

// Annotate records a diagnostic note on a robot without advancing its
// last-update time, so liveness decay proceeds naturally. Used by the
// poll runner to surface fetch failures. Unknown robots are ignored.
func (c *Cache) Annotate(id, note string) {
	e := c.entry(id, false)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.state.Notes = note
	e.mu.Unlock()
}

// SnapshotAll returns a point-in-time copy of every robot, sorted by
// ID. Sorting keeps downstream consumers (the scheduler in particular)
// deterministic across calls.
func (c *Cache) SnapshotAll() []RobotState {
	c.mu.RLock()
	entries := make([]*robotEntry, 0, len(c.robots))
	for _, e := range c.robots {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	states := make([]RobotState, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		states = append(states, e.state.Clone())
		e.mu.Unlock()
	}

	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// SnapshotOne returns a copy of one robot's state.
// Returns ErrRobotNotFound if the robot is unknown.
func (c *Cache) SnapshotOne(id string) (RobotState, error) {
	e := c.entry(id, false)
	if e == nil {
		return RobotState{}, fmt.Errorf("%w: %q", ErrRobotNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// Count returns the number of known robots.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.robots)
}

// sweep recomputes every robot's display age and applies the offline
// threshold. It is the only path that forces OFFLINE purely from
// elapsed time; sources may still set OFFLINE explicitly via Merge.
func (c *Cache) sweep(now time.Time, offlineAfter time.Duration) {
	c.mu.RLock()
	entries := make([]*robotEntry, 0, len(c.robots))
	for _, e := range c.robots {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.lastUpdate.IsZero() {
			e.state.LastSeen = unknownAge
			e.state.Status = StatusOffline
			e.mu.Unlock()
			continue
		}

		age := now.Sub(e.lastUpdate)
		secs := int(age.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		e.state.LastSeen = fmt.Sprintf("%ds ago", secs)

		if age > offlineAfter {
			e.state.Status = StatusOffline
		}
		e.mu.Unlock()
	}
}
