package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/finchrobotics/fleet-core/internal/fleet"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/mqtt"
)

// Subscriber is the slice of the MQTT client the ingestor needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Ingestor feeds pushed robot telemetry into the fusion cache.
//
// Robots publish JSON state reports to robots/{id}/state. Each report
// is a partial document: whatever fields the robot includes are merged
// into its cached state, fields it omits are left alone. A report is
// attributed to the robot named by its "id" field, falling back to the
// id segment of the topic.
type Ingestor struct {
	sub    Subscriber
	cache  *fleet.Cache
	topic  string
	qos    byte
	logger Logger
}

// New creates an ingestor. The topic is the subscription pattern,
// typically "robots/+/state".
func New(sub Subscriber, cache *fleet.Cache, topic string, qos byte) *Ingestor {
	return &Ingestor{
		sub:    sub,
		cache:  cache,
		topic:  topic,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger attaches a logger for dropped-message reporting.
func (i *Ingestor) SetLogger(logger Logger) {
	if logger != nil {
		i.logger = logger
	}
}

// Start subscribes to the telemetry topic. Message handling runs on
// the MQTT client's goroutines from then on.
func (i *Ingestor) Start() error {
	if err := i.sub.Subscribe(i.topic, i.qos, i.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", i.topic, err)
	}
	return nil
}

// stateReport is the wire form of a pushed telemetry message. All
// fields are optional; pointers distinguish absent from zero.
type stateReport struct {
	ID           *string  `json:"id"`
	Status       *string  `json:"status"`
	Battery      *float64 `json:"battery"`
	Task         *string  `json:"task"`
	Site         *string  `json:"site"`
	Model        *string  `json:"model"`
	Category     *string  `json:"category"`
	Name         *string  `json:"name"`
	IP           *string  `json:"ip"`
	Firmware     *string  `json:"firmware"`
	SerialNumber *string  `json:"sn"`
	Notes        *string  `json:"notes"`
	Capabilities []string `json:"capabilities"`
}

// handleMessage parses one telemetry message and merges it into the
// cache. Malformed messages are dropped with a warning; they never
// disturb existing state.
func (i *Ingestor) handleMessage(topic string, payload []byte) error {
	var report stateReport
	if err := json.Unmarshal(payload, &report); err != nil {
		i.logger.Warn("dropping malformed telemetry", "topic", topic, "error", err)
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	id := ""
	if report.ID != nil {
		id = strings.TrimSpace(*report.ID)
	}
	if id == "" {
		id = robotIDFromTopic(topic)
	}
	if id == "" {
		i.logger.Warn("dropping telemetry without robot id", "topic", topic)
		return ErrMissingRobotID
	}

	i.cache.Merge(id, report.toPatch())
	i.logger.Debug("merged pushed telemetry", "robot_id", id, "topic", topic)
	return nil
}

// toPatch converts the wire report into a cache patch. Values are
// passed through as reported; push sources are trusted to use the
// canonical field conventions.
func (r stateReport) toPatch() fleet.Patch {
	p := fleet.Patch{
		Task:         r.Task,
		Site:         r.Site,
		Model:        r.Model,
		Category:     r.Category,
		Name:         r.Name,
		IP:           r.IP,
		Firmware:     r.Firmware,
		SerialNumber: r.SerialNumber,
		Notes:        r.Notes,
		Capabilities: r.Capabilities,
	}
	if r.Status != nil {
		p.Status = fleet.StatusPtr(fleet.Status(strings.ToUpper(strings.TrimSpace(*r.Status))))
	}
	if r.Battery != nil {
		p.Battery = fleet.IntPtr(int(math.Round(*r.Battery)))
	}
	return p
}

// robotIDFromTopic extracts the id segment from robots/{id}/state.
func robotIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
