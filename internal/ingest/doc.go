// Package ingest merges pushed MQTT telemetry into the fusion cache.
//
// It subscribes to the robot state topic pattern and applies each JSON
// report as a partial update, so robots can publish only the fields
// that changed. Poll-based telemetry for robots without MQTT support
// lives in internal/poll; both sources converge on the same cache.
package ingest
