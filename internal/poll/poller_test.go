package poll

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finchrobotics/fleet-core/internal/fleet"
)

func target(id, url string) fleet.PollTarget {
	return fleet.PollTarget{ID: id, URL: url}
}

func TestPollOnce_MergesNormalizedState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state": "running", "battery_percent": 64, "mission": "patrol"}`))
	}))
	defer srv.Close()

	cache := fleet.NewCache()
	p := NewPoller(cache, []fleet.PollTarget{target("r1", srv.URL)}, time.Second, 500*time.Millisecond)
	p.pollOnce(context.Background())

	got, err := cache.SnapshotOne("r1")
	if err != nil {
		t.Fatalf("SnapshotOne() error: %v", err)
	}
	if got.Status != fleet.StatusOnline {
		t.Errorf("status = %q, want ONLINE", got.Status)
	}
	if got.Battery == nil || *got.Battery != 64 {
		t.Errorf("battery = %v, want 64", got.Battery)
	}
	if got.Task != "patrol" {
		t.Errorf("task = %q", got.Task)
	}
	if got.LastSeen != "just now" {
		t.Errorf("lastSeen = %q, want \"just now\"", got.LastSeen)
	}
}

func TestPollOnce_FailureIsolation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer hung.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer healthy.Close()

	cache := fleet.NewCache()
	cache.RegisterStatic("slow", fleet.Patch{})
	cache.RegisterStatic("fast", fleet.Patch{})

	p := NewPoller(cache, []fleet.PollTarget{
		target("slow", hung.URL),
		target("fast", healthy.URL),
	}, time.Second, 100*time.Millisecond)

	start := time.Now()
	p.pollOnce(context.Background())
	elapsed := time.Since(start)

	// The hung target costs at most its own timeout, not the round.
	if elapsed > 800*time.Millisecond {
		t.Errorf("round took %v, hung target stalled the fan-out", elapsed)
	}

	fast, _ := cache.SnapshotOne("fast")
	if fast.Status != fleet.StatusOnline {
		t.Errorf("fast status = %q, want ONLINE despite slow peer", fast.Status)
	}

	slow, _ := cache.SnapshotOne("slow")
	if !strings.HasPrefix(slow.Notes, "status poll failed") {
		t.Errorf("slow notes = %q, want failure annotation", slow.Notes)
	}
	if slow.LastSeen != "—" {
		t.Errorf("slow lastSeen = %q, failure must not count as an update", slow.LastSeen)
	}
}

func TestPollOnce_HTTPErrorAnnotates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := fleet.NewCache()
	cache.Merge("r1", fleet.Patch{Status: fleet.StatusPtr(fleet.StatusOnline), Battery: fleet.IntPtr(70)})

	p := NewPoller(cache, []fleet.PollTarget{target("r1", srv.URL)}, time.Second, 500*time.Millisecond)
	p.pollOnce(context.Background())

	got, _ := cache.SnapshotOne("r1")
	if !strings.Contains(got.Notes, "HTTP 500") {
		t.Errorf("notes = %q, want HTTP 500 annotation", got.Notes)
	}
	// Existing state survives the failed poll untouched.
	if got.Status != fleet.StatusOnline || got.Battery == nil || *got.Battery != 70 {
		t.Errorf("state disturbed by failed poll: %+v", got)
	}
}

func TestPollOnce_InvalidJSONAnnotates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	cache := fleet.NewCache()
	cache.RegisterStatic("r1", fleet.Patch{})

	p := NewPoller(cache, []fleet.PollTarget{target("r1", srv.URL)}, time.Second, 500*time.Millisecond)
	p.pollOnce(context.Background())

	got, _ := cache.SnapshotOne("r1")
	if !strings.HasPrefix(got.Notes, "status poll failed") {
		t.Errorf("notes = %q, want failure annotation", got.Notes)
	}
}

func TestPollOnce_UnknownRobotFailureIgnored(t *testing.T) {
	cache := fleet.NewCache()

	// Target whose robot was never registered: the failure annotation
	// must not conjure a cache entry.
	p := NewPoller(cache, []fleet.PollTarget{target("ghost", "http://127.0.0.1:1/status")}, time.Second, 100*time.Millisecond)
	p.pollOnce(context.Background())

	if cache.Count() != 0 {
		t.Errorf("Count() = %d, want 0", cache.Count())
	}
}

func TestPoller_Lifecycle(t *testing.T) {
	hits := make(chan struct{}, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case hits <- struct{}{}:
		default:
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	cache := fleet.NewCache()
	p := NewPoller(cache, []fleet.PollTarget{target("r1", srv.URL)}, 10*time.Millisecond, 5*time.Millisecond)

	p.Start(context.Background())
	p.Start(context.Background()) // idempotent

	select {
	case <-hits:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never hit the target")
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestPoller_NoTargets(t *testing.T) {
	p := NewPoller(fleet.NewCache(), nil, time.Second, 100*time.Millisecond)
	p.Start(context.Background())
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
