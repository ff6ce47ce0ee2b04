package pass

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

const src = `
declare @my.lane() -> i32 readnone

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
  %b = add i32 %a, 1
  ret i32 %b
}

func @lane() -> i32 {
entry:
  %l = call i32 @my.lane()
  ret i32 %l
}
`

func parse(t *testing.T) *ir.Module {
	t.Helper()
	m, err := irtext.Parse("pipeline.mir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return m
}

func TestBuiltinsRegistered(t *testing.T) {
	want := []string{MinReg, NVAssume, PLive, PWidth, RedWidth, XLCleanup}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestPipeline(t *testing.T) {
	m := parse(t)
	cfg := config.Default()
	cfg.Analysis.Passes = []string{XLCleanup, MinReg, PLive}
	cfg.Analysis.Workers = 2
	pm, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := pm.Run(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	// 1 个模块 pass 输出 + 2 个函数 pass 各 3 个输出
	if len(res.Outputs) != 7 {
		t.Fatalf("got %d outputs", len(res.Outputs))
	}
	if !res.Advised || res.Changed {
		t.Errorf("advised=%v changed=%v", res.Advised, res.Changed)
	}
	for i, name := range []string{"lin", "w", "lane"} {
		out := res.Outputs[1+i]
		if out.Pass != MinReg || out.Func != name {
			t.Errorf("output %d is %s/%s, want %s/%s", 1+i, out.Pass, out.Func, MinReg, name)
		}
	}
	if !res.Outputs[1].Report.Advised() || res.Outputs[2].Report.Advised() {
		t.Error("only @lin should have advice")
	}
	if !strings.Contains(res.Outputs[4].Text, "Basic Block: c") {
		t.Errorf("plive output for @lin:\n%s", res.Outputs[4].Text)
	}

	s := pm.Stats()
	if s.PassesRun != 3 || s.TotalChanges != 0 || s.FuncsProcessed != 6 {
		t.Errorf("stats: %+v", s)
	}
}

func TestRewritingPipeline(t *testing.T) {
	m := parse(t)
	cfg := config.Default()
	cfg.Assume.Ranges = []config.AssumeRange{{Name: "my.lane", Min: 0, Max: 31}}
	pm := NewManager(1, nil)
	if err := pm.AddByName(Options{Config: cfg}, NVAssume, RedWidth); err != nil {
		t.Fatal(err)
	}

	res, err := pm.Run(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed {
		t.Fatal("expected changes")
	}
	s := pm.Stats()
	if s.PerPassChanges[NVAssume] != 1 {
		t.Errorf("nvassume changes: %v", s.PerPassChanges)
	}
	// 只有 @w 可以收窄；@lane 的调用结果不是可改写的运算
	if s.PerPassChanges[RedWidth] != 1 {
		t.Errorf("redwidth changes: %v\n%s", s.PerPassChanges, irtext.String(m))
	}
	if _, ok := m.Decl("llvm.assume"); !ok {
		t.Error("llvm.assume not declared")
	}
}

func TestUnknownPasses(t *testing.T) {
	pm := NewManager(1, nil)
	err := pm.AddByName(Options{}, "nope", MinReg, "missing")
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", got, err)
	}
	if got := pm.Passes(); len(got) != 1 || got[0] != MinReg {
		t.Errorf("passes: %v", got)
	}
}

type fatalPass struct{}

func (fatalPass) Name() string { return "fatal" }

func (fatalPass) RunOnFunction(f *ir.Func) (Output, error) {
	if f.Name == "w" {
		f.Fatalf("boom")
	}
	return Output{}, nil
}

func TestPanicBecomesError(t *testing.T) {
	pm := NewManager(4, nil)
	pm.AddPass(fatalPass{})
	res, err := pm.Run(context.Background(), parse(t))
	if err == nil || !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "fatal") {
		t.Fatalf("err = %v", err)
	}
	if len(res.Outputs) != 3 || res.Outputs[1].Func != "w" {
		t.Errorf("outputs: %+v", res.Outputs)
	}
}

func TestPoolCollectsErrorsInOrder(t *testing.T) {
	p := NewPool(3)
	err := p.Run(context.Background(), 10, func(i int) error {
		if i%2 == 1 {
			return fmt.Errorf("job %d", i)
		}
		return nil
	})
	errs := multierr.Errors(err)
	if len(errs) != 5 {
		t.Fatalf("got %d errors: %v", len(errs), err)
	}
	for k, e := range errs {
		if want := fmt.Sprintf("job %d", 2*k+1); e.Error() != want {
			t.Errorf("error %d = %q, want %q", k, e, want)
		}
	}
	if p.Executed() != 10 || p.Failed() != 5 {
		t.Errorf("executed=%d failed=%d", p.Executed(), p.Failed())
	}
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewPool(2).Run(ctx, 100, func(int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestNewPoolBounds(t *testing.T) {
	if NewPool(0).NumWorkers() < 1 {
		t.Error("default pool has no workers")
	}
	if got := NewPool(1000).NumWorkers(); got != maxWorkers {
		t.Errorf("workers = %d", got)
	}
}
