package liveness

import (
	"strings"
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

const src = `
func @lv(%c: i1, %n: i32) -> i32 {
a:
  %x = add i32 %n, 1
  %y = add i32 %n, 2
  %local = add i32 %x, %y
  condbr %c, b, c
b:
  %z = add i32 %x, 1
  br d
c:
  br d
d:
  %p = phi i32 [%z, b], [%y, c]
  %s = add i32 %p, %x
  ret i32 %s
}
`

func setup(t *testing.T) (*ir.Func, *Result) {
	t.Helper()
	m, err := irtext.Parse("lv.mir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := m.Funcs[0]
	return f, Analyze(f, nil)
}

func lookup(t *testing.T, f *ir.Func, name string) (ir.BlockID, ir.InstrID) {
	t.Helper()
	if b, ok := f.BlockByName(name); ok {
		return b, ir.NoInstr
	}
	for _, in := range f.Instrs {
		if in.Name == name {
			return ir.NoBlock, in.ID
		}
	}
	t.Fatalf("no %s", name)
	return ir.NoBlock, ir.NoInstr
}

func TestLiveSets(t *testing.T) {
	f, r := setup(t)
	block := func(name string) ir.BlockID { b, _ := lookup(t, f, name); return b }
	value := func(name string) ir.InstrID { _, id := lookup(t, f, name); return id }

	tests := []struct {
		block, value string
		in, out      bool
	}{
		{"a", "x", false, true},
		{"b", "x", true, true},
		{"c", "x", true, true},
		{"d", "x", true, false},
		{"a", "y", false, true},
		{"b", "y", false, false},
		{"c", "y", true, true},
		{"d", "y", false, false},
		{"b", "z", false, true},
		{"d", "z", false, false},
		{"a", "local", false, false},
		{"d", "s", false, false},
	}
	for _, tt := range tests {
		b, v := block(tt.block), value(tt.value)
		if got := r.LiveIn(b, v); got != tt.in {
			t.Errorf("LiveIn(%s, %%%s) = %v, want %v", tt.block, tt.value, got, tt.in)
		}
		if got := r.LiveOut(b, v); got != tt.out {
			t.Errorf("LiveOut(%s, %%%s) = %v, want %v", tt.block, tt.value, got, tt.out)
		}
	}
}

func TestEntriesOrder(t *testing.T) {
	f, r := setup(t)
	b, _ := lookup(t, f, "b")
	got := r.Entries(b)
	if len(got) != 2 {
		t.Fatalf("entries: %+v", got)
	}
	if got[0].Kind != Out || f.InstrName(got[0].Value) != "%z" {
		t.Errorf("first entry: %+v", got[0])
	}
	if got[1].Kind != Thru || f.InstrName(got[1].Value) != "%x" {
		t.Errorf("second entry: %+v", got[1])
	}
	if r.Pressure(b) != 2 {
		t.Errorf("Pressure(b) = %d", r.Pressure(b))
	}
}

func TestLoopCarriedValue(t *testing.T) {
	m, err := irtext.Parse("loop.mir", `
func @loop(%n: i32) -> i32 {
entry:
  %k = add i32 %n, 3
  br head
head:
  %i = phi i32 [0, entry], [%next, body]
  %c = icmp slt i32 %i, %n
  condbr %c, body, exit
body:
  %next = add i32 %i, %k
  br head
exit:
  ret i32 %i
}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := m.Funcs[0]
	r := Analyze(f, nil)
	head, _ := f.BlockByName("head")
	body, _ := f.BlockByName("body")
	var k ir.InstrID
	for _, in := range f.Instrs {
		if in.Name == "k" {
			k = in.ID
		}
	}
	// %k 在整个循环中都活跃
	for _, b := range []ir.BlockID{head, body} {
		if !r.LiveIn(b, k) || !r.LiveOut(b, k) {
			t.Errorf("%%k should be live through %s", f.BlockName(b))
		}
	}
}

func TestFprint(t *testing.T) {
	_, r := setup(t)
	var sb strings.Builder
	if err := r.Fprint(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{
		"Basic Block: d (pressure 1)\n IN   %x from a\n",
		"Basic Block: b (pressure 2)\n",
		" OUT  %z\n",
		" THRU %x from a\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
