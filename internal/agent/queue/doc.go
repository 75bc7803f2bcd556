// Package queue is the heart of the agent: a durable, offline-first job
// queue for work and approval submissions. The Manager admits, persists
// and executes jobs; the Drainer is the single goroutine that pumps
// eligible jobs through the Manager whenever the ledger is reachable.
package queue
