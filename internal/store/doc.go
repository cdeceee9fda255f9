// Package store persists experiments, stage results, and the orchestration
// event log in SQLite.
//
// The Store manages database connections, schema migrations, experiment
// lifecycle updates, idempotent stage-result checkpoints, and the append-only
// event trail that explains what the pipeline did and why. Timestamps are
// stored as RFC 3339 strings in UTC.
//
// The topic_reservations table is created here alongside the other tables but
// is operated on by the reservation package, which needs direct transaction
// control for its atomic claim.
//
// Treat this package as the single source of truth for experiment semantics;
// schema changes are additive migrations under migrations/.
package store
