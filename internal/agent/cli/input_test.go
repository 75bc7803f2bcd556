package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("garden-7\n"), "Garden id", &out)
	if err != nil || got != "garden-7" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Garden id", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetInputLines(t *testing.T) {
	var out bytes.Buffer
	got, err := GetInputLines(rdr("liters=40\nduration=2h\n\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "liters=40" || got[1] != "duration=2h" {
		t.Fatalf("got %v", got)
	}
}

func TestGetToken_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetToken(&out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]string{
		"":       "normal",
		"low":    "low",
		"URGENT": "urgent",
	} {
		got, err := parsePriority(in)
		if err != nil || string(got) != want {
			t.Fatalf("parsePriority(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := parsePriority("asap"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}
