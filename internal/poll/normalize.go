package poll

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/finchrobotics/fleet-core/internal/fleet"
)

// statusSynonyms maps vendor status vocabulary onto the canonical set.
// Anything not in the table passes through uppercased, so unusual but
// honest states are kept visible instead of being flattened.
var statusSynonyms = map[string]fleet.Status{
	"ONLINE":  fleet.StatusOnline,
	"ON":      fleet.StatusOnline,
	"OK":      fleet.StatusOnline,
	"RUNNING": fleet.StatusOnline,
	"NORMAL":  fleet.StatusOnline,

	"OFFLINE": fleet.StatusOffline,
	"OFF":     fleet.StatusOffline,
	"DOWN":    fleet.StatusOffline,

	"CHARGING": fleet.StatusCharging,
	"CHARGE":   fleet.StatusCharging,

	"ALARM":   fleet.StatusAlarm,
	"ERROR":   fleet.StatusAlarm,
	"FAULT":   fleet.StatusAlarm,
	"WARN":    fleet.StatusAlarm,
	"WARNING": fleet.StatusAlarm,
}

// localizedStatuses covers fleets whose firmware reports in Chinese.
var localizedStatuses = map[string]fleet.Status{
	"在线":  fleet.StatusOnline,
	"离线":  fleet.StatusOffline,
	"充电中": fleet.StatusCharging,
	"告警":  fleet.StatusAlarm,
	"故障":  fleet.StatusAlarm,
}

// NormalizeStatus maps a raw vendor status string onto the canonical
// vocabulary. The empty string reports no status (ok=false).
func NormalizeStatus(raw string) (fleet.Status, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if s, ok := localizedStatuses[trimmed]; ok {
		return s, true
	}
	upper := strings.ToUpper(trimmed)
	if s, ok := statusSynonyms[upper]; ok {
		return s, true
	}
	return fleet.Status(upper), true
}

// ParseBattery interprets a battery reading of unknown convention.
// Values in [0,1] are treated as fractions and scaled to percent;
// anything else is clamped to [0,100]. Non-numeric values report
// ok=false.
func ParseBattery(v any) (int, bool) {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case int:
		n = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}

	if n >= 0 && n <= 1 {
		return int(math.Round(n * 100)), true
	}
	pct := int(math.Round(n))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// Normalize reshapes one polled response body into a cache patch.
//
// Vendors disagree on field names, so each logical field is resolved
// through an alias list. Static fields fall back to the roster entry
// so a sparse response still produces a complete row, and the IP falls
// back to the poll URL's host as a last resort. Status is left absent
// when the response carries none, so a bare heartbeat never erases a
// status set by push telemetry.
func Normalize(target fleet.PollTarget, raw any) fleet.Patch {
	msg := unwrapEnvelope(raw)
	static := target.Static

	var p fleet.Patch

	p.Name = coalesce(lookupString(msg, "name"), static.Name)
	p.Category = coalesce(lookupString(msg, "category"), static.Category)
	p.Model = coalesce(lookupString(msg, "model"), static.Model)
	p.IP = coalesce(lookupString(msg, "ip"), static.IP, hostFromURL(target.URL))

	if raw, ok := lookupRaw(msg, "status", "state", "robot_state"); ok {
		if s, ok := NormalizeStatus(asString(raw)); ok {
			p.Status = fleet.StatusPtr(s)
		}
	}
	if raw, ok := lookupRaw(msg, "battery", "batteryPct", "battery_percent", "power_percent"); ok {
		if pct, ok := ParseBattery(raw); ok {
			p.Battery = fleet.IntPtr(pct)
		}
	}

	p.Task = coalesce(lookupString(msg, "task", "current_task", "mission"), static.Task)
	p.Site = coalesce(lookupString(msg, "site", "location"), static.Site)
	p.Firmware = coalesce(lookupString(msg, "firmware", "version"), static.Firmware)
	p.SerialNumber = coalesce(lookupString(msg, "sn", "serial"), static.SerialNumber)
	p.Notes = coalesce(lookupString(msg, "notes"), static.Notes)

	if caps, ok := lookupRaw(msg, "capabilities"); ok {
		p.Capabilities = asStringSlice(caps)
	}
	if p.Capabilities == nil {
		p.Capabilities = static.Capabilities
	}

	return p
}

// unwrapEnvelope strips a {"data": {...}} wrapper when present.
func unwrapEnvelope(raw any) map[string]any {
	msg, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if inner, ok := msg["data"].(map[string]any); ok {
		return inner
	}
	return msg
}

// lookupRaw returns the first present, non-nil value among the keys.
func lookupRaw(msg map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := msg[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// lookupString resolves the first key that holds a non-empty string.
func lookupString(msg map[string]any, keys ...string) *string {
	v, ok := lookupRaw(msg, keys...)
	if !ok {
		return nil
	}
	s := asString(v)
	if s == "" {
		return nil
	}
	return fleet.StringPtr(s)
}

// coalesce returns the first non-nil candidate.
func coalesce(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// hostFromURL extracts the hostname from a poll URL, nil on failure.
func hostFromURL(raw string) *string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return fleet.StringPtr(u.Hostname())
}
