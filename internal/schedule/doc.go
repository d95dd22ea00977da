// Package schedule turns free-form task instructions into executable
// plans.
//
// The pipeline has two stages. A StepExtractor breaks the instruction
// into ordered steps; the heuristic extractor splits on clause
// punctuation, which covers the common "do A, then B, then C" phrasing
// without any language model. Schedule then assigns each step to a
// robot: capability-tagged steps go to the first robot whose
// capabilities cover the requirements, the rest are spread round-robin
// over the available fleet, and each robot's steps are packed back to
// back on its own timeline.
//
// Plans and their task records are persisted through Repository; the
// live robot cache itself is never written here.
package schedule
