// Package jobs provides the persistence layer for queued submission jobs.
//
// # Overview
//
// The package defines a Repository interface for CRUD and scheduling queries
// on Job models (see internal/agent/models). Two implementations exist: a
// SQLite-backed one for on-device queues and a Postgres-backed one for hub
// deployments. Both operate over a dbx.DBTX (either *sql.DB or *sql.Tx).
//
// # Scheduling queries
//
// ListEligible and MarkProcessing together form the drain loop's pull
// contract: ListEligible orders queued jobs urgent-first and honors the
// retry_after gate, while MarkProcessing performs the conditional
// queued→processing transition so a job is never picked up twice.
//
// # Concurrency
//
// Implementations are safe for concurrent use when backed by a properly
// configured *sql.DB. When using *sql.Tx (DBTX), follow normal transaction
// scoping rules.
package jobs
