// Package fleet provides the telemetry fusion core for Fleet Core.
//
// It holds one merged RobotState per robot, fed by two independent and
// individually unreliable sources (the MQTT push-ingest path and the
// HTTP poll runner) and swept by a wall-clock liveness sweeper.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        Fusion Cache                          │
//	│                                                              │
//	│  ┌──────────────┐   ┌──────────────┐   ┌──────────────────┐  │
//	│  │    Cache     │   │   Sweeper    │   │      Roster      │  │
//	│  │  (cache.go)  │◀──│ (sweeper.go) │   │   (roster.go)    │  │
//	│  │              │   │              │   │                  │  │
//	│  │ • Merge      │   │ • age labels │   │ • JSON load      │  │
//	│  │ • Snapshots  │   │ • OFFLINE by │   │ • static seeding │  │
//	│  │ • per-ID lock│   │   silence    │   │ • poll targets   │  │
//	│  └──────────────┘   └──────────────┘   └──────────────────┘  │
//	└───────▲──────▲───────────────────────────────────┬──────────┘
//	        │      │                                   │
//	   MQTT ingest HTTP poller                    poll targets
//
// # Merge semantics
//
// Merge applies field-wise last-writer-wins by arrival order: only the
// fields present in a Patch are applied, and whichever source's merge
// is processed later wins that field. There is no cross-source
// timestamp reconciliation. A patch that carries no status can never
// erase one, and roster statics only ever fill fields that are still
// empty.
//
// # Liveness
//
// Every successful Merge stamps an internal last-update time. The
// Sweeper periodically recomputes the human-readable age and forces
// robots OFFLINE once their silence exceeds the configured threshold.
// Robots that have never reported read as OFFLINE with an unknown age.
//
// # Thread safety
//
// Cache is safe for concurrent use by any number of writers and
// readers. Entries are locked individually, so a merge to one robot
// never blocks a merge to another, and snapshots are never torn.
package fleet
