// pkg/cli/repl_test.go
package cli

import (
	"bytes"
	"strings"
	"testing"
)

func runREPL(input string) (stdout, stderr string) {
	in := strings.NewReader(input)
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	r := NewREPLWithInput(in, out, errOut)
	defer r.Close()
	r.Run()

	return out.String(), errOut.String()
}

func TestREPL_PutGet(t *testing.T) {
	out, errOut := runREPL("put 1 hello\nget 1\n.exit\n")
	if errOut != "" {
		t.Errorf("unexpected stderr: %q", errOut)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("expected OK in output, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected value 'hello' in output, got %q", out)
	}
}

func TestREPL_GetMissing(t *testing.T) {
	out, _ := runREPL("get 42\n.exit\n")
	if !strings.Contains(out, "(not found)") {
		t.Errorf("expected '(not found)' in output, got %q", out)
	}
}

func TestREPL_Del(t *testing.T) {
	out, _ := runREPL("put 1 a\ndel 1\ndel 1\n.exit\n")
	if strings.Count(out, "OK") != 2 {
		t.Errorf("expected two OKs (put + del), got %q", out)
	}
	if !strings.Contains(out, "(not found)") {
		t.Errorf("expected second del to report not found, got %q", out)
	}
}

func TestREPL_Scan(t *testing.T) {
	out, _ := runREPL("put 3 c\nput 1 a\nput 2 b\nscan 0\n.exit\n")
	iA := strings.Index(out, "1\ta\n")
	iB := strings.Index(out, "2\tb\n")
	iC := strings.Index(out, "3\tc\n")
	if !(iA >= 0 && iA < iB && iB < iC) {
		t.Errorf("expected ascending scan order a < b < c in output, got %q", out)
	}
	if !strings.Contains(out, "3 row(s)") {
		t.Errorf("expected 3 row(s) reported, got %q", out)
	}
}

func TestREPL_InvalidKey(t *testing.T) {
	_, errOut := runREPL("get notanumber\n.exit\n")
	if !strings.Contains(errOut, "invalid key") {
		t.Errorf("expected invalid key error, got %q", errOut)
	}
}

func TestREPL_UnknownCommand(t *testing.T) {
	_, errOut := runREPL("frobnicate\n.exit\n")
	if !strings.Contains(errOut, "Unknown command") {
		t.Errorf("expected unknown command error, got %q", errOut)
	}
}

func TestREPL_Stats(t *testing.T) {
	out, _ := runREPL("put 1 a\n.stats\n.exit\n")
	if !strings.Contains(out, "splits=") || !strings.Contains(out, "retirements=") {
		t.Errorf("expected stats counters in output, got %q", out)
	}
}
