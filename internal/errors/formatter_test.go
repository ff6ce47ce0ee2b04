package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestFormatCompileError(t *testing.T) {
	f := NewFormatter()
	f.Colors = false

	err := New(E0100, "a.mir", 2, 15, "undefined value %%%s", "y")
	err.Hints = GetSuggestions(E0100)
	out := f.FormatCompileError(err, []string{"entry:", "  %x = add i32 %y, 1"})

	for _, want := range []string{
		"error[E0100]: undefined value %y",
		"--> a.mir:2:15",
		"2 |   %x = add i32 %y, 1",
		"^",
		"= help:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReporterExpandsMultiErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	f := NewFormatter()
	f.Colors = false
	r.SetFormatter(f)
	r.SetSource("b.mir", "func @f() {\nentry:\n  br nowhere\n}")

	var err error
	err = multierr.Append(err, New(E0102, "b.mir", 3, 6, "undefined block nowhere"))
	err = multierr.Append(err, New(E0300, "b.mir", 1, 1, "function @f has no blocks"))
	r.Report(err)

	if r.ErrorCount() != 2 {
		t.Fatalf("error count: got %d, want 2", r.ErrorCount())
	}
	out := buf.String()
	for _, want := range []string{"error[E0102]", "error[E0300]", "3 |   br nowhere", "error: found 2 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReporterOtherErrorsFirst(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	f := NewFormatter()
	f.Colors = false
	r.SetFormatter(f)

	var err error
	err = multierr.Append(err, New(E0001, "c.mir", 1, 1, "syntax error"))
	err = multierr.Append(err, fmt.Errorf("open d.mir: no such file"))
	r.Report(err)

	out := buf.String()
	if !strings.HasPrefix(out, "error: open d.mir") || !strings.HasSuffix(out, "error: found 1 error\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if r.ErrorCount() != 1 {
		t.Errorf("error count: got %d, want 1", r.ErrorCount())
	}
}

func TestReportWarning(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	f := NewFormatter()
	f.Colors = false
	r.SetFormatter(f)

	r.ReportWarning(New(E0301, "x.go", 3, 1, "demo.f does not lower"))
	if r.WarningCount() != 1 || r.ErrorCount() != 0 {
		t.Errorf("counts: %d warnings, %d errors", r.WarningCount(), r.ErrorCount())
	}
	if !strings.Contains(buf.String(), "warning[E0301]: demo.f does not lower") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestColorize(t *testing.T) {
	SetColorsEnabled(true)
	if got := Colorize("x", ColorRed); got != "\033[31mx\033[0m" {
		t.Errorf("enabled: got %q", got)
	}
	SetColorsEnabled(false)
	if got := Colorize("x", ColorRed); got != "x" {
		t.Errorf("disabled: got %q", got)
	}
}
