package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	arg   string
	flag  bool
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) Pending(ctx context.Context) error {
	f.calls = append(f.calls, "pending")
	return nil
}
func (f *fakeExec) Submit(ctx context.Context) error {
	f.calls = append(f.calls, "submit")
	return nil
}
func (f *fakeExec) Approve(ctx context.Context, workID string, approved bool, feedback string) error {
	f.calls = append(f.calls, "approve")
	f.arg = workID
	f.flag = approved
	return nil
}
func (f *fakeExec) Retry(ctx context.Context, jobID string) error {
	f.calls = append(f.calls, "retry")
	f.arg = jobID
	return nil
}
func (f *fakeExec) Skip(ctx context.Context, jobID string) error {
	f.calls = append(f.calls, "skip")
	f.arg = jobID
	return nil
}
func (f *fakeExec) Discard(ctx context.Context, jobID string) error {
	f.calls = append(f.calls, "discard")
	f.arg = jobID
	return nil
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"submit",
		"l",
		"pending",
		"status",
		"retry abc",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "submit", "list", "pending", "status", "retry"}
	if len(exec.calls) < len(wantOrder) {
		t.Fatalf("few calls: %+v", exec.calls)
	}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
	if exec.arg != "abc" {
		t.Fatalf("retry arg not passed: %q", exec.arg)
	}
}

func TestRunREPL_ApproveAndReject(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(strings.NewReader("approve w1 looks good\nquit\n"))
	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if exec.arg != "w1" || !exec.flag {
		t.Fatalf("approve not dispatched: arg=%q flag=%v", exec.arg, exec.flag)
	}

	exec = &fakeExec{loggedIn: true}
	sc = bufio.NewScanner(strings.NewReader("reject w2\nquit\n"))
	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if exec.arg != "w2" || exec.flag {
		t.Fatalf("reject not dispatched: arg=%q flag=%v", exec.arg, exec.flag)
	}
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("retry\nskip\ndiscard\napprove\nquit\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("commands without args must only print usage, got %v", exec.calls)
	}
}

func TestRunREPL_EOFStopsLoop(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{}
	sc := bufio.NewScanner(strings.NewReader(""))
	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
