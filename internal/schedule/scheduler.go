package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finchrobotics/fleet-core/internal/fleet"
)

// Schedule assigns steps to robots and packs them onto per-robot
// timelines.
//
// Only robots that are ONLINE or have no status yet are considered.
// For each step in order:
//
//  1. If the step requires capabilities, the first available robot
//     whose capability list covers every requirement is chosen. A
//     requirement is covered when it appears, case-insensitively, as a
//     substring of any capability.
//  2. Otherwise a fallback robot is chosen round-robin; the rotation
//     index is shared across all fallback assignments in the call.
//
// An assigned step starts when its robot's previous work ends, so one
// robot's steps never overlap. Steps nobody can take stay unassigned
// at StartSec 0.
//
// Determinism: robots are considered in the order given. Callers pass
// snapshots sorted by robot ID, so identical inputs always produce the
// identical plan.
func Schedule(robots []fleet.RobotState, steps []Step) []Step {
	var avail []fleet.RobotState
	for _, r := range robots {
		if r.Status == fleet.StatusOnline || r.Status == "" {
			avail = append(avail, r)
		}
	}

	timeline := make(map[string]int, len(avail))
	scheduled := make([]Step, 0, len(steps))

	rr := 0
	for _, s := range steps {
		reqs := normalizeRequirements(s.RequiredCapabilities)

		var candidate *fleet.RobotState
		if len(reqs) > 0 {
			candidate = findCapable(avail, reqs)
		}
		if candidate == nil {
			if len(avail) > 0 {
				candidate = &avail[rr%len(avail)]
			}
			rr++
		}

		out := s
		out.Status = StepPending
		if out.EstimatedDurationSec <= 0 {
			out.EstimatedDurationSec = defaultBaseDurationSec
		}
		if candidate != nil {
			out.AssignedRobotID = fleet.StringPtr(candidate.ID)
			out.StartSec = timeline[candidate.ID]
			timeline[candidate.ID] = out.StartSec + out.EstimatedDurationSec
		} else {
			out.AssignedRobotID = nil
			out.StartSec = 0
		}
		scheduled = append(scheduled, out)
	}

	return scheduled
}

// findCapable returns the first robot covering every requirement.
func findCapable(robots []fleet.RobotState, reqs []string) *fleet.RobotState {
	for i := range robots {
		if coversAll(robots[i].Capabilities, reqs) {
			return &robots[i]
		}
	}
	return nil
}

// coversAll reports whether every requirement matches some capability
// by case-insensitive substring containment.
func coversAll(capabilities, reqs []string) bool {
	for _, req := range reqs {
		matched := false
		for _, c := range capabilities {
			if strings.Contains(strings.ToLower(c), req) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// normalizeRequirements lowercases requirements and drops blanks.
func normalizeRequirements(reqs []string) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// BuildPlan extracts, schedules, and wraps an instruction into a plan.
func BuildPlan(extractor StepExtractor, instruction, site string, robots []fleet.RobotState) Plan {
	steps := extractor.Extract(instruction)
	return Plan{
		ID:          "PLAN-" + uuid.NewString(),
		Instruction: instruction,
		Site:        site,
		CreatedAt:   time.Now().UTC(),
		Steps:       Schedule(robots, steps),
	}
}

// NewTask wraps a plan into a persistable task record.
func NewTask(plan Plan) Task {
	return Task{
		ID:          "TASK-" + uuid.NewString(),
		Instruction: plan.Instruction,
		Site:        plan.Site,
		CreatedAt:   time.Now().UTC(),
		Status:      TaskPlanned,
		Plan:        plan,
	}
}

// FilterBySite keeps robots whose site contains the filter,
// case-insensitively. An empty filter keeps everything.
func FilterBySite(robots []fleet.RobotState, site string) []fleet.RobotState {
	if site == "" {
		return robots
	}
	needle := strings.ToLower(site)
	var out []fleet.RobotState
	for _, r := range robots {
		if strings.Contains(strings.ToLower(r.Site), needle) {
			out = append(out, r)
		}
	}
	return out
}
