package fleet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RosterEntry is one robot descriptor from the static roster file.
// Only the ID is required; everything else is a default that telemetry
// may later override.
type RosterEntry struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Model        string   `json:"model,omitempty"`
	Category     string   `json:"category,omitempty"`
	IP           string   `json:"ip,omitempty"`
	Site         string   `json:"site,omitempty"`
	Task         string   `json:"task,omitempty"`
	Firmware     string   `json:"firmware,omitempty"`
	SerialNumber string   `json:"sn,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Notes        string   `json:"notes,omitempty"`

	// StatusURL is an optional per-robot status endpoint. Relative
	// paths are resolved against the robot's IP. It is poll-source
	// plumbing and must never appear in API responses.
	StatusURL string `json:"statusUrl,omitempty"`
}

// PollTarget is a resolved polling assignment for one robot.
type PollTarget struct {
	ID     string
	URL    string
	Static Patch
}

// LoadRoster reads and parses the roster file.
//
// Returns:
//   - []RosterEntry: Parsed entries; entries without an ID are dropped
//   - error: If the file cannot be read or is not a JSON array
func LoadRoster(path string) ([]RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var entries []RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterFormat, err)
	}

	valid := entries[:0]
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		valid = append(valid, e)
	}
	return valid, nil
}

// StaticPatch converts a roster entry's attributes into a Patch
// suitable for Cache.RegisterStatic. Empty strings stay absent.
func (e RosterEntry) StaticPatch() Patch {
	var p Patch
	setIfPresent(&p.Name, e.Name)
	setIfPresent(&p.Model, e.Model)
	setIfPresent(&p.Category, e.Category)
	setIfPresent(&p.IP, e.IP)
	setIfPresent(&p.Site, e.Site)
	setIfPresent(&p.Task, e.Task)
	setIfPresent(&p.Firmware, e.Firmware)
	setIfPresent(&p.SerialNumber, e.SerialNumber)
	setIfPresent(&p.Notes, e.Notes)
	if len(e.Capabilities) > 0 {
		p.Capabilities = append([]string(nil), e.Capabilities...)
	}
	return p
}

// setIfPresent points *dst at v when v is non-empty.
func setIfPresent(dst **string, v string) {
	if v != "" {
		s := v
		*dst = &s
	}
}

// SeedCache registers every roster entry's static attributes in the
// cache, so robots that only ever report over HTTP polling (or never
// report at all) still appear in snapshots.
func SeedCache(cache *Cache, entries []RosterEntry) {
	for _, e := range entries {
		cache.RegisterStatic(e.ID, e.StaticPatch())
	}
}

// PollTargets resolves the subset of roster entries that carry a
// status endpoint into absolute polling targets. A relative StatusURL
// is joined to the robot's IP; entries with a relative URL but no IP
// are skipped since there is nothing to resolve against.
func PollTargets(entries []RosterEntry) []PollTarget {
	var targets []PollTarget
	for _, e := range entries {
		if e.StatusURL == "" {
			continue
		}

		url := e.StatusURL
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			if e.IP == "" {
				continue
			}
			if !strings.HasPrefix(url, "/") {
				url = "/" + url
			}
			url = "http://" + e.IP + url
		}

		targets = append(targets, PollTarget{
			ID:     e.ID,
			URL:    url,
			Static: e.StaticPatch(),
		})
	}
	return targets
}
