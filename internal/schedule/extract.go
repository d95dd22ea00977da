package schedule

import (
	"fmt"
	"strings"
)

// Extraction defaults.
const (
	// DefaultMaxSteps caps how many steps one instruction may produce.
	DefaultMaxSteps = 8

	// defaultBaseDurationSec is the estimate for the first step.
	defaultBaseDurationSec = 60

	// durationGrowthSec is added per subsequent step.
	durationGrowthSec = 30
)

// stepDelimiters are the clause separators recognized in instructions,
// covering both ASCII and full-width punctuation.
var stepDelimiters = map[rune]bool{
	',': true,
	';': true,
	'，': true,
	'。': true,
}

// StepExtractor turns a natural-language instruction into draft steps.
// Drafts carry no assignment; the scheduler fills that in.
type StepExtractor interface {
	Extract(instruction string) []Step
}

// HeuristicExtractor splits an instruction on clause punctuation and
// treats each clause as one step. It is deliberately dumb: no language
// model, no dictionary, just the observation that operators write
// multi-stage instructions as comma-separated clauses.
type HeuristicExtractor struct {
	// MaxSteps caps the number of extracted steps.
	// Zero means DefaultMaxSteps.
	MaxSteps int

	// BaseDurationSec is the estimate for the first step.
	// Zero means defaultBaseDurationSec. Each later step adds
	// durationGrowthSec on top.
	BaseDurationSec int
}

// Extract splits the instruction into at most MaxSteps ordered steps.
// An instruction without any delimiter yields a single step covering
// the whole text. A blank instruction yields no steps.
func (e HeuristicExtractor) Extract(instruction string) []Step {
	maxSteps := e.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	baseDuration := e.BaseDurationSec
	if baseDuration <= 0 {
		baseDuration = defaultBaseDurationSec
	}

	clauses := strings.FieldsFunc(instruction, func(r rune) bool {
		return stepDelimiters[r]
	})

	var steps []Step
	for _, clause := range clauses {
		action := strings.TrimSpace(clause)
		if action == "" {
			continue
		}
		i := len(steps)
		steps = append(steps, Step{
			ID:                   fmt.Sprintf("STEP-%d", i+1),
			Action:               action,
			EstimatedDurationSec: baseDuration + i*durationGrowthSec,
			Status:               StepPending,
		})
		if len(steps) == maxSteps {
			break
		}
	}
	return steps
}
