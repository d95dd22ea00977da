package schedule

import "time"

// StepStatus is the execution state of a plan step.
type StepStatus string

// Step execution states.
const (
	StepPending StepStatus = "PENDING"
	StepRunning StepStatus = "RUNNING"
	StepDone    StepStatus = "DONE"
)

// TaskStatus is the lifecycle state of a task record.
type TaskStatus string

// Task lifecycle states.
const (
	TaskPlanned TaskStatus = "PLANNED"
)

// Step is one unit of work inside a plan.
//
// AssignedRobotID is nil when no robot could take the step; such steps
// are still part of the plan so the caller can see what was left
// uncovered.
type Step struct {
	ID                   string     `json:"id"`
	Action               string     `json:"action"`
	EstimatedDurationSec int        `json:"estimatedDurationSec"`
	RequiredCapabilities []string   `json:"requiredCapabilities,omitempty"`
	AssignedRobotID      *string    `json:"assignedRobotId"`
	StartSec             int        `json:"startSec"`
	Status               StepStatus `json:"status"`
}

// Plan is a scheduled breakdown of one instruction.
type Plan struct {
	ID          string    `json:"id"`
	Instruction string    `json:"instruction"`
	Site        string    `json:"site,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Steps       []Step    `json:"steps"`
}

// Task is the persisted record of a planned instruction.
type Task struct {
	ID          string     `json:"id"`
	Instruction string     `json:"instruction"`
	Site        string     `json:"site,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      TaskStatus `json:"status"`
	Plan        Plan       `json:"plan"`
}
