package viz

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

const src = `
func @pkg.f(%n: i32) -> i32 {
entry:
  br exit
exit:
  ret i32 %n
}
`

func TestDisabledDoesNothing(t *testing.T) {
	m := irtext.MustParse(src)
	dir := t.TempDir()
	path, err := New(config.VizConfig{Dir: dir, Viewer: "xdot"}, nil).Show(m.Funcs[0], nil)
	if err != nil || path != "" {
		t.Errorf("path=%q err=%v", path, err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("disabled viewer wrote files: %v", entries)
	}
}

func TestShowWritesDotAndStartsViewer(t *testing.T) {
	viewer, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no `true` binary")
	}
	m := irtext.MustParse(src)
	dir := t.TempDir()
	v := New(config.VizConfig{Enabled: true, Viewer: viewer, Dir: dir}, nil)
	path, err := v.Show(m.Funcs[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "pkg.f.dot") {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "b0 -> b1;") {
		t.Errorf("dot file:\n%s", data)
	}
}

func TestMissingViewer(t *testing.T) {
	m := irtext.MustParse(src)
	v := New(config.VizConfig{Enabled: true, Viewer: "minreg-no-such-viewer", Dir: t.TempDir()}, nil)
	path, err := v.Show(m.Funcs[0], nil)
	if err == nil {
		t.Error("expected start error")
	}
	if path == "" {
		t.Error("dot file should still be written")
	}
}

func TestFileName(t *testing.T) {
	if got := fileName("main.(*T).run"); got != "main.(_T).run" {
		t.Errorf("fileName = %q", got)
	}
}
