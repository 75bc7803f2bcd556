// Package cli provides the interactive GardenSync field agent.
//
// It wires configuration, the on-device job store, the queue manager and
// its drainer, the connectivity watcher and the ledger clients, then runs
// an interactive REPL on top. Typical flow: paste a session token, submit
// work (online or offline), and let the background drainer push queued jobs
// to the ledger whenever the relayer is reachable.
//
// Key commands:
//   - submit / approve / reject — queue submissions and review decisions
//   - list — merged remote + local view of work records
//   - pending / retry / skip / discard — inspect and manage the queue
//   - status — connectivity and queue counts
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
