package fleet

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a clock function pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMerge_AbsentFieldsPreserved(t *testing.T) {
	c := NewCache()

	c.Merge("r1", Patch{
		Status:  StatusPtr(StatusOnline),
		Battery: IntPtr(80),
	})
	c.Merge("r1", Patch{
		Battery: IntPtr(40),
	})

	got, err := c.SnapshotOne("r1")
	if err != nil {
		t.Fatalf("SnapshotOne() error: %v", err)
	}
	if got.Status != StatusOnline {
		t.Errorf("status = %q, want ONLINE (absent status must not erase)", got.Status)
	}
	if got.Battery == nil || *got.Battery != 40 {
		t.Errorf("battery = %v, want 40", got.Battery)
	}
}

func TestMerge_LastWriterWinsPerField(t *testing.T) {
	c := NewCache()

	// Push says ONLINE, a later poll says CHARGING: the later merge
	// wins regardless of source.
	c.Merge("r1", Patch{Status: StatusPtr(StatusOnline), Task: StringPtr("patrol")})
	c.Merge("r1", Patch{Status: StatusPtr(StatusCharging)})

	got, _ := c.SnapshotOne("r1")
	if got.Status != StatusCharging {
		t.Errorf("status = %q, want CHARGING", got.Status)
	}
	if got.Task != "patrol" {
		t.Errorf("task = %q, want patrol (untouched by second merge)", got.Task)
	}
}

func TestMerge_StampsLastSeen(t *testing.T) {
	c := NewCache()
	c.Merge("r1", Patch{})

	got, _ := c.SnapshotOne("r1")
	if got.LastSeen != "just now" {
		t.Errorf("lastSeen = %q, want \"just now\"", got.LastSeen)
	}
}

func TestMerge_EmptyIDIsNoop(t *testing.T) {
	c := NewCache()
	c.Merge("", Patch{Status: StatusPtr(StatusOnline)})
	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
}

func TestRegisterStatic_Idempotent(t *testing.T) {
	c := NewCache()
	static := Patch{
		Name:         StringPtr("Scout 1"),
		Model:        StringPtr("S-100"),
		Capabilities: []string{"camera"},
	}

	c.RegisterStatic("r1", static)
	first, _ := c.SnapshotOne("r1")

	c.RegisterStatic("r1", static)
	second, _ := c.SnapshotOne("r1")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat registration changed state:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.Status != StatusOffline {
		t.Errorf("status = %q, want OFFLINE before any telemetry", first.Status)
	}
	if first.LastSeen != "—" {
		t.Errorf("lastSeen = %q, want unknown age", first.LastSeen)
	}
}

func TestRegisterStatic_NeverOverwritesDynamic(t *testing.T) {
	c := NewCache()

	c.Merge("r1", Patch{
		Status: StatusPtr(StatusOnline),
		Name:   StringPtr("Reported Name"),
	})
	c.RegisterStatic("r1", Patch{
		Name:  StringPtr("Roster Name"),
		Model: StringPtr("S-100"),
	})

	got, _ := c.SnapshotOne("r1")
	if got.Name != "Reported Name" {
		t.Errorf("name = %q, want telemetry value preserved", got.Name)
	}
	if got.Model != "S-100" {
		t.Errorf("model = %q, want roster default filled in", got.Model)
	}
	if got.Status != StatusOnline {
		t.Errorf("status = %q, want ONLINE untouched", got.Status)
	}
}

func TestRegisterStatic_EmptyIDIsNoop(t *testing.T) {
	c := NewCache()
	c.RegisterStatic("", Patch{Name: StringPtr("x")})
	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
}

func TestAnnotate_DoesNotAdvanceLiveness(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.SetClock(fixedClock(base))

	c.Merge("r1", Patch{Status: StatusPtr(StatusOnline)})
	c.Annotate("r1", "status poll failed: timeout")

	// Well past the threshold: the annotation must not have counted
	// as an update.
	c.sweep(base.Add(time.Minute), 30*time.Second)

	got, _ := c.SnapshotOne("r1")
	if got.Status != StatusOffline {
		t.Errorf("status = %q, want OFFLINE (note must not refresh liveness)", got.Status)
	}
	if got.Notes != "status poll failed: timeout" {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestAnnotate_UnknownRobotIgnored(t *testing.T) {
	c := NewCache()
	c.Annotate("ghost", "note")
	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
}

func TestSweep_OfflineBySilence(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.SetClock(fixedClock(base))

	c.Merge("r1", Patch{Status: StatusPtr(StatusOnline)})

	// Inside the threshold: still ONLINE, age labelled.
	c.sweep(base.Add(10*time.Second), 30*time.Second)
	got, _ := c.SnapshotOne("r1")
	if got.Status != StatusOnline {
		t.Errorf("status = %q, want ONLINE inside threshold", got.Status)
	}
	if got.LastSeen != "10s ago" {
		t.Errorf("lastSeen = %q, want \"10s ago\"", got.LastSeen)
	}

	// Beyond the threshold: forced OFFLINE despite the stale ONLINE claim.
	c.sweep(base.Add(31*time.Second), 30*time.Second)
	got, _ = c.SnapshotOne("r1")
	if got.Status != StatusOffline {
		t.Errorf("status = %q, want OFFLINE past threshold", got.Status)
	}
}

func TestSweep_NeverUpdatedReadsOffline(t *testing.T) {
	c := NewCache()
	c.RegisterStatic("r1", Patch{})

	c.sweep(time.Now(), 30*time.Second)

	got, _ := c.SnapshotOne("r1")
	if got.Status != StatusOffline {
		t.Errorf("status = %q, want OFFLINE for never-updated robot", got.Status)
	}
	if got.LastSeen != "—" {
		t.Errorf("lastSeen = %q, want unknown age", got.LastSeen)
	}
}

func TestSweep_MinimumAgeIsOneSecond(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache()
	c.SetClock(fixedClock(base))

	c.Merge("r1", Patch{})
	c.sweep(base.Add(100*time.Millisecond), 30*time.Second)

	got, _ := c.SnapshotOne("r1")
	if got.LastSeen != "1s ago" {
		t.Errorf("lastSeen = %q, want \"1s ago\"", got.LastSeen)
	}
}

func TestSnapshotAll_SortedAndIsolated(t *testing.T) {
	c := NewCache()
	c.Merge("r2", Patch{Capabilities: []string{"arm"}})
	c.Merge("r1", Patch{})
	c.Merge("r3", Patch{})

	snap := c.SnapshotAll()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if snap[i].ID != want {
			t.Errorf("snap[%d].ID = %q, want %q", i, snap[i].ID, want)
		}
	}

	// Mutating the snapshot must not touch the cache.
	snap[1].Capabilities[0] = "mutated"
	got, _ := c.SnapshotOne("r2")
	if got.Capabilities[0] != "arm" {
		t.Error("snapshot mutation leaked into cache")
	}
}

func TestSnapshotOne_NotFound(t *testing.T) {
	c := NewCache()
	_, err := c.SnapshotOne("ghost")
	if !errors.Is(err, ErrRobotNotFound) {
		t.Errorf("error = %v, want ErrRobotNotFound", err)
	}
}

// TestCache_ConcurrentWriters drives concurrent merges, annotations,
// sweeps, and snapshots through the race detector.
func TestCache_ConcurrentWriters(t *testing.T) {
	c := NewCache()
	ids := []string{"r1", "r2", "r3", "r4", "r5"}
	for _, id := range ids {
		c.RegisterStatic(id, Patch{Name: StringPtr("robot " + id)})
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := ids[(w+i)%len(ids)]
				switch i % 4 {
				case 0:
					c.Merge(id, Patch{Status: StatusPtr(StatusOnline), Battery: IntPtr(i % 101)})
				case 1:
					c.Merge(id, Patch{Task: StringPtr(fmt.Sprintf("task-%d", i))})
				case 2:
					c.Annotate(id, "poll failed")
				case 3:
					c.sweep(time.Now(), time.Minute)
				}
				_ = c.SnapshotAll()
			}
		}(w)
	}
	wg.Wait()

	if c.Count() != len(ids) {
		t.Errorf("Count() = %d, want %d", c.Count(), len(ids))
	}
	for _, s := range c.SnapshotAll() {
		if s.ID == "" {
			t.Error("snapshot contains robot with empty ID")
		}
	}
}
