package ingest

import (
	"errors"
	"testing"

	"github.com/finchrobotics/fleet-core/internal/fleet"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/mqtt"
)

// mockSubscriber records the subscription without a broker.
type mockSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	err     error
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.topic = topic
	m.qos = qos
	m.handler = handler
	return m.err
}

func TestStart_Subscribes(t *testing.T) {
	sub := &mockSubscriber{}
	ing := New(sub, fleet.NewCache(), "robots/+/state", 1)

	if err := ing.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if sub.topic != "robots/+/state" || sub.qos != 1 {
		t.Errorf("subscribed to %q qos %d", sub.topic, sub.qos)
	}
	if sub.handler == nil {
		t.Error("no handler registered")
	}
}

func TestStart_SubscribeError(t *testing.T) {
	sub := &mockSubscriber{err: mqtt.ErrNotConnected}
	ing := New(sub, fleet.NewCache(), "robots/+/state", 1)

	if err := ing.Start(); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleMessage_MergesFields(t *testing.T) {
	cache := fleet.NewCache()
	ing := New(&mockSubscriber{}, cache, "robots/+/state", 1)

	err := ing.handleMessage("robots/r1/state",
		[]byte(`{"id":"r1","status":"online","battery":72.4,"task":"patrol"}`))
	if err != nil {
		t.Fatalf("handleMessage() error: %v", err)
	}

	got, err := cache.SnapshotOne("r1")
	if err != nil {
		t.Fatalf("SnapshotOne() error: %v", err)
	}
	if got.Status != fleet.StatusOnline {
		t.Errorf("status = %q, want ONLINE", got.Status)
	}
	if got.Battery == nil || *got.Battery != 72 {
		t.Errorf("battery = %v, want 72", got.Battery)
	}
	if got.Task != "patrol" {
		t.Errorf("task = %q", got.Task)
	}
	if got.LastSeen != "just now" {
		t.Errorf("lastSeen = %q, want \"just now\"", got.LastSeen)
	}
}

func TestHandleMessage_IDFromTopic(t *testing.T) {
	cache := fleet.NewCache()
	ing := New(&mockSubscriber{}, cache, "robots/+/state", 1)

	if err := ing.handleMessage("robots/r7/state", []byte(`{"battery":50}`)); err != nil {
		t.Fatalf("handleMessage() error: %v", err)
	}
	if _, err := cache.SnapshotOne("r7"); err != nil {
		t.Errorf("robot r7 not created from topic id: %v", err)
	}
}

func TestHandleMessage_PayloadIDWins(t *testing.T) {
	cache := fleet.NewCache()
	ing := New(&mockSubscriber{}, cache, "robots/+/state", 1)

	if err := ing.handleMessage("robots/gateway/state", []byte(`{"id":"r3"}`)); err != nil {
		t.Fatalf("handleMessage() error: %v", err)
	}
	if _, err := cache.SnapshotOne("r3"); err != nil {
		t.Errorf("payload id not used: %v", err)
	}
	if _, err := cache.SnapshotOne("gateway"); err == nil {
		t.Error("topic id used despite payload id")
	}
}

func TestHandleMessage_MalformedDropped(t *testing.T) {
	cache := fleet.NewCache()
	cache.Merge("r1", fleet.Patch{Status: fleet.StatusPtr(fleet.StatusOnline)})
	ing := New(&mockSubscriber{}, cache, "robots/+/state", 1)

	err := ing.handleMessage("robots/r1/state", []byte(`{not json`))
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("error = %v, want ErrBadPayload", err)
	}

	got, _ := cache.SnapshotOne("r1")
	if got.Status != fleet.StatusOnline {
		t.Error("malformed message disturbed existing state")
	}
}

func TestHandleMessage_NoID(t *testing.T) {
	ing := New(&mockSubscriber{}, fleet.NewCache(), "robots/+/state", 1)

	if err := ing.handleMessage("noslash", []byte(`{"battery":10}`)); !errors.Is(err, ErrMissingRobotID) {
		t.Errorf("error = %v, want ErrMissingRobotID", err)
	}
}

func TestHandleMessage_PartialLeavesRestAlone(t *testing.T) {
	cache := fleet.NewCache()
	ing := New(&mockSubscriber{}, cache, "robots/+/state", 1)

	ing.handleMessage("robots/r1/state", []byte(`{"status":"ONLINE","battery":80}`))
	ing.handleMessage("robots/r1/state", []byte(`{"battery":40}`))

	got, _ := cache.SnapshotOne("r1")
	if got.Status != fleet.StatusOnline {
		t.Errorf("status = %q, want ONLINE preserved across partial update", got.Status)
	}
	if got.Battery == nil || *got.Battery != 40 {
		t.Errorf("battery = %v, want 40", got.Battery)
	}
}
