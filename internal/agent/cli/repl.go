package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context) error
	Pending(ctx context.Context) error
	Submit(ctx context.Context) error
	Approve(ctx context.Context, workID string, approved bool, feedback string) error
	Retry(ctx context.Context, jobID string) error
	Skip(ctx context.Context, jobID string) error
	Discard(ctx context.Context, jobID string) error
}

// runREPL starts a simple read–eval–print loop for the field agent.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help              — show available commands
//	  - login             — paste a session token
//	  - status            — show connectivity and queue counts
//	  - exit | quit       — leave the program
//
//	Logged in:
//	  - help              — show available commands
//	  - status            — connectivity and queue counts
//	  - list              — merged work records (remote + local)
//	  - pending           — local jobs with their states
//	  - submit            — queue a work submission (interactive)
//	  - approve <work>    — queue an approval for a work record
//	  - reject <work>     — queue a rejection for a work record
//	  - retry <job>       — re-queue a failed job
//	  - skip <job>        — drop a queued job before it submits
//	  - discard <job>     — remove a failed or completed job
//	  - logout            — forget the session token
//	  - exit | quit       — leave the program
//
// Any errors returned by command handlers are printed here; handlers stay
// free of REPL concerns.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gsync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, (l)ist, pending, submit, approve <work-id>, reject <work-id>, retry <job-id>, skip <job-id>, discard <job-id>, logout, exit")
			} else {
				printlnFn("Available commands: login, status, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "status":
			err = a.Status(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "pending":
			err = a.Pending(ctx)

		case "submit":
			err = a.Submit(ctx)

		case "approve", "reject":
			if len(args) == 0 {
				printlnFn(fmt.Sprintf("Usage: %s <work-id> [feedback]", cmd))
				continue
			}
			err = a.Approve(ctx, args[0], cmd == "approve", strings.Join(args[1:], " "))

		case "retry":
			if len(args) == 0 {
				printlnFn("Usage: retry <job-id>")
				continue
			}
			err = a.Retry(ctx, args[0])

		case "skip":
			if len(args) == 0 {
				printlnFn("Usage: skip <job-id>")
				continue
			}
			err = a.Skip(ctx, args[0])

		case "discard":
			if len(args) == 0 {
				printlnFn("Usage: discard <job-id>")
				continue
			}
			err = a.Discard(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func (a *App) getStatus() string {
	parts := make([]string, 0, 2)
	if s := a.currentSession(); s != nil && s.GardenerID != "" {
		parts = append(parts, s.GardenerID)
	}
	if a.watcher.Online() {
		parts = append(parts, "online")
	} else {
		parts = append(parts, "offline")
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) runREPL(ctx context.Context) {
	fmt.Println("GardenSync agent (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
