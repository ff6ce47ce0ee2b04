package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/taylorlloyd/llvmMRIS/internal/errors"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
)

const linear = `
func @lin(%x: i32, %y: i32) -> i32 {
a:
  br b
b:
  %s = add i32 %x, %y
  br c
c:
  %t = mul i32 %s, 2
  ret i32 %t
}

func @w(%n: i32) -> i32 {
entry:
  %a = and i32 %n, 255
  %b$1 = add i32 %a, 1
  ret i32 %b$1
}
`

const diamond = `
func @d(%c: i1, %x: i32) -> i32 {
entry:
  condbr %c, l, r
l:
  %a = add i32 %x, 1
  br j
r:
  %b = add i32 %x, 2
  br j
j:
  %p = phi i32 [%a, l], [%b, r]
  ret i32 %p
}
`

// invoke 以英文运行一次命令行
func invoke(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := newApp(&stdout, &stderr).run(context.Background(), append([]string{"--lang", "en"}, args...))
	return code, stdout.String(), stderr.String()
}

func writeInput(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	code, out, _ := invoke(t, "version")
	if code != 0 || out != "minreg version "+Version+"\n" {
		t.Errorf("version: code %d, output %q", code, out)
	}
}

func TestAdvise(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)
	code, out, errOut := invoke(t, "advise", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	for _, want := range []string{"Function @lin", "Candidates from b to a:", "  %s = add i32 %x, %y", "advised=true\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestAdviseNothing(t *testing.T) {
	path := writeInput(t, "d.mir", diamond)
	code, out, errOut := invoke(t, "advise", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "no code motion opportunities") || !strings.HasSuffix(out, "advised=false\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAdviseWritesFiles(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "advice.json")
	dotDir := filepath.Join(dir, "dot")

	code, out, errOut := invoke(t, "advise", "-format", "json", "-o", jsonPath, "-dot", dotDir, path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if out != "advised=true\n" {
		t.Errorf("stdout should only carry the result when -o is given: %q", out)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"advised": true`) || !strings.Contains(string(data), `"name": "lin"`) {
		t.Errorf("unexpected JSON:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dotDir, "lin.dot")); err != nil {
		t.Errorf("DOT file not written: %v", err)
	}
	if !strings.Contains(errOut, "wrote "+jsonPath) {
		t.Errorf("stderr should name the written file: %s", errOut)
	}
}

func TestRewriteCommands(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)

	code, out, errOut := invoke(t, "redwidth", path)
	if code != 0 {
		t.Fatalf("redwidth: exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "and i16 ") || !strings.Contains(errOut, "1 change(s)") {
		t.Errorf("redwidth output:\n%s\nstderr:\n%s", out, errOut)
	}

	code, out, errOut = invoke(t, "cleanup", path)
	if code != 0 {
		t.Fatalf("cleanup: exit code %d: %s", code, errOut)
	}
	if strings.Contains(out, "$") || !strings.Contains(out, "%b1 = add") {
		t.Errorf("cleanup output:\n%s", out)
	}
}

func TestPrintCommands(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)

	code, out, errOut := invoke(t, "plive", "-func", "lin", path)
	if code != 0 {
		t.Fatalf("plive: exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Function @lin") || strings.Contains(out, "Function @w") {
		t.Errorf("plive -func output:\n%s", out)
	}

	code, out, errOut = invoke(t, "pwidth", path)
	if code != 0 {
		t.Fatalf("pwidth: exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "i8\t[0, 255]\t= %a = and i32 %n, 255") {
		t.Errorf("pwidth output:\n%s", out)
	}
}

func TestRunPipeline(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)
	emit := filepath.Join(t.TempDir(), "out.mir")
	code, out, errOut := invoke(t, "run", "-passes", "minreg, pwidth", "-emit", emit, path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "; pwidth w\n") || !strings.Contains(out, "Function @lin") {
		t.Errorf("run output:\n%s", out)
	}
	if !strings.Contains(errOut, "2 pass run(s)") {
		t.Errorf("stats missing from stderr: %s", errOut)
	}
	if _, err := os.Stat(emit); err != nil {
		t.Errorf("module not emitted: %v", err)
	}

	code, _, errOut = invoke(t, "run", "-passes", "nosuch", path)
	if code != 1 || !strings.Contains(errOut, `unknown pass "nosuch"`) {
		t.Errorf("unknown pass: code %d, stderr %s", code, errOut)
	}
}

func TestDot(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)
	code, out, errOut := invoke(t, "dot", "-func", "lin", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.HasPrefix(out, `digraph "lin"`) || strings.Contains(out, `digraph "w"`) {
		t.Errorf("dot output:\n%s", out)
	}
}

func TestVerifyAndErrors(t *testing.T) {
	path := writeInput(t, "lin.mir", linear)
	code, out, _ := invoke(t, "verify", path)
	if code != 0 || !strings.Contains(out, "ok (2 function(s))") {
		t.Errorf("verify: code %d, output %q", code, out)
	}

	bad := writeInput(t, "bad.mir", "func @f() {\nentry:\n  %x = add i32 1, 2\n}\n")
	code, _, errOut := invoke(t, "verify", bad)
	if code != 1 || !strings.Contains(errOut, "E0300") {
		t.Errorf("bad input: code %d, stderr %s", code, errOut)
	}

	code, _, errOut = invoke(t, "advise")
	if code != 1 || !strings.Contains(errOut, "no input files") {
		t.Errorf("no input: code %d, stderr %s", code, errOut)
	}

	code, _, errOut = invoke(t, "frobnicate")
	if code != 1 || !strings.Contains(errOut, "unknown command: frobnicate") {
		t.Errorf("unknown command: code %d, stderr %s", code, errOut)
	}

	code, _, _ = invoke(t, "advise", "-nosuchflag", path)
	if code != 2 {
		t.Errorf("bad flag: code %d", code)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := invoke(t, "init", "-dir", dir, "-passes", "nvassume,minreg")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	path := filepath.Join(dir, "minreg.toml")
	if !strings.Contains(out, "Created "+path) {
		t.Errorf("init output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"nvassume", "minreg"`) {
		t.Errorf("passes not written:\n%s", data)
	}

	code, _, errOut = invoke(t, "init", "-dir", dir)
	if code != 1 || !strings.Contains(errOut, "minreg.toml already exists") {
		t.Errorf("second init: code %d, stderr %s", code, errOut)
	}
	if code, _, errOut = invoke(t, "init", "-dir", dir, "-force"); code != 0 {
		t.Errorf("forced init: code %d, stderr %s", code, errOut)
	}

	// 生成的配置可以被 --config 读取
	lin := writeInput(t, "lin.mir", linear)
	code, out, errOut = invoke(t, "--config", path, "run", lin)
	if code != 0 || !strings.Contains(out, "Function @lin") {
		t.Errorf("run with generated config: code %d\n%s\n%s", code, out, errOut)
	}
}

func TestPreprocessArgs(t *testing.T) {
	a := newApp(nil, nil)
	rest := a.preprocessArgs([]string{"--lang=zh", "-config", "x.toml", "--verbose", "advise", "-lang", "f.mir"})
	if a.lang != "zh" || a.configPath != "x.toml" || !a.verbose {
		t.Errorf("globals: lang=%q config=%q verbose=%v", a.lang, a.configPath, a.verbose)
	}
	// 命令之后的参数属于子命令
	if want := []string{"advise", "-lang", "f.mir"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %v, want %v", rest, want)
	}
}

func TestReportSkippedFunctions(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	i18n.SetLanguage(i18n.LangEnglish)

	var err error
	err = multierr.Append(err, errors.New(errors.E0301, "demo.go", 4, 1, "demo.f does not lower"))
	err = multierr.Append(err, errors.New(errors.E0001, "demo.go", 1, 1, "syntax error"))
	rest := a.reportSkipped(err)

	if n := len(multierr.Errors(rest)); n != 1 {
		t.Fatalf("want only the fatal error back, got %d: %v", n, rest)
	}
	out := stderr.String()
	if !strings.Contains(out, "warning[E0301]") || !strings.Contains(out, "skipped 1 function(s)") {
		t.Errorf("stderr:\n%s", out)
	}
	if a.reportSkipped(nil) != nil || strings.Count(stderr.String(), "skipped") != 1 {
		t.Error("nil error should report nothing")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" minreg, ,pwidth,"); !reflect.DeepEqual(got, []string{"minreg", "pwidth"}) {
		t.Errorf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v", got)
	}
}

func TestChineseUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := newApp(&stdout, &stderr).run(context.Background(), []string{"--lang", "zh", "help"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stdout.String(), "命令:") {
		t.Errorf("expected Chinese help:\n%s", stdout.String())
	}
}
