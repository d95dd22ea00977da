// Package poll fetches robot status over HTTP for robots that cannot
// push telemetry.
//
// The poller runs a fixed-interval loop that fans out one GET per
// configured target. Responses arrive in wildly different shapes, so
// the normalizer resolves each logical field through an alias list,
// maps vendor status vocabulary onto the canonical set, and scales
// battery readings onto a 0-100 percentage. Normalized patches are
// merged into the same fusion cache the MQTT ingestor feeds.
//
// Failure isolation is the core property: one hung or broken endpoint
// only costs its own request, never the round.
package poll
