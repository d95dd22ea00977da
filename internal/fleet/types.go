package fleet

// Status is a robot's reported operational state.
//
// The four canonical values below cover the fleet's own vocabulary;
// any other non-empty status reported by a vendor passes through
// uppercased rather than being rejected.
type Status string

// Canonical status values.
const (
	StatusOnline   Status = "ONLINE"
	StatusOffline  Status = "OFFLINE"
	StatusCharging Status = "CHARGING"
	StatusAlarm    Status = "ALARM"
)

// unknownAge is the display value for a robot that has never reported.
const unknownAge = "—"

// RobotState is the merged view of one robot, fused from every
// telemetry source. It is what the read API serialises; the cache's
// internal last-update timestamp is deliberately not part of it.
type RobotState struct {
	ID           string   `json:"id"`
	Status       Status   `json:"status,omitempty"`
	Battery      *int     `json:"battery,omitempty"`
	Task         string   `json:"task,omitempty"`
	Site         string   `json:"site,omitempty"`
	Model        string   `json:"model,omitempty"`
	Category     string   `json:"category,omitempty"`
	Name         string   `json:"name,omitempty"`
	IP           string   `json:"ip,omitempty"`
	Firmware     string   `json:"firmware,omitempty"`
	SerialNumber string   `json:"sn,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Notes        string   `json:"notes,omitempty"`

	// LastSeen is a human-readable age string maintained by the
	// liveness sweeper ("just now", "12s ago", or "—" when unknown).
	LastSeen string `json:"lastSeen"`
}

// Clone returns an independent copy of the state.
// The capabilities slice is duplicated so callers can never mutate
// cached data through a snapshot.
func (r RobotState) Clone() RobotState {
	cpy := r
	if r.Battery != nil {
		b := *r.Battery
		cpy.Battery = &b
	}
	if r.Capabilities != nil {
		cpy.Capabilities = make([]string, len(r.Capabilities))
		copy(cpy.Capabilities, r.Capabilities)
	}
	return cpy
}

// Patch is a partial robot-state update. A nil field means "absent:
// leave the current value untouched"; only present fields are applied.
// Both telemetry sources normalise into this shape before merging.
type Patch struct {
	Status       *Status
	Battery      *int
	Task         *string
	Site         *string
	Model        *string
	Category     *string
	Name         *string
	IP           *string
	Firmware     *string
	SerialNumber *string
	Capabilities []string
	Notes        *string
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Status == nil &&
		p.Battery == nil &&
		p.Task == nil &&
		p.Site == nil &&
		p.Model == nil &&
		p.Category == nil &&
		p.Name == nil &&
		p.IP == nil &&
		p.Firmware == nil &&
		p.SerialNumber == nil &&
		p.Capabilities == nil &&
		p.Notes == nil
}

// String pointer helpers for building patches.

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status { return &s }
