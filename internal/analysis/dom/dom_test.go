package dom

import (
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

func parseFunc(t *testing.T, src string) *ir.Func {
	t.Helper()
	m, err := irtext.Parse("test.mir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return m.Funcs[0]
}

func block(t *testing.T, f *ir.Func, name string) ir.BlockID {
	t.Helper()
	b, ok := f.BlockByName(name)
	if !ok {
		t.Fatalf("no block %s", name)
	}
	return b
}

const diamond = `
func @diamond(%c: i1) {
a:
  condbr %c, b, c
b:
  br d
c:
  br d
d:
  ret
}
`

func TestDiamond(t *testing.T) {
	f := parseFunc(t, diamond)
	info := Compute(f)
	a, b, c, d := block(t, f, "a"), block(t, f, "b"), block(t, f, "c"), block(t, f, "d")

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"a dom d", info.Dominates(a, d), true},
		{"b dom d", info.Dominates(b, d), false},
		{"d pdom a", info.PostDominates(d, a), true},
		{"b pdom a", info.PostDominates(b, a), false},
		{"c pdom c", info.PostDominates(c, c), true},
		{"a dom a", info.Dominates(a, a), true},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if idom, ok := info.Dom.IDom(d); !ok || idom != a {
		t.Errorf("idom(d): got %d, want %d", idom, a)
	}
	if ipdom, ok := info.PDom.IDom(a); !ok || ipdom != d {
		t.Errorf("ipdom(a): got %d, want %d", ipdom, d)
	}
}

func TestLoop(t *testing.T) {
	f := parseFunc(t, `
func @loop(%n: i32) {
entry:
  br header
header:
  %i = phi i32 [0, entry], [%j, body]
  %c = icmp slt i32 %i, %n
  condbr %c, body, exit
body:
  %j = add i32 %i, 1
  br header
exit:
  ret
}
`)
	info := Compute(f)
	entry, header, body, exit := block(t, f, "entry"), block(t, f, "header"), block(t, f, "body"), block(t, f, "exit")

	if !info.Dominates(header, body) || !info.Dominates(header, exit) {
		t.Error("header should dominate body and exit")
	}
	if info.Dominates(body, header) {
		t.Error("body must not dominate header")
	}
	if !info.PostDominates(header, body) || !info.PostDominates(exit, entry) {
		t.Error("header should post-dominate body, exit should post-dominate entry")
	}
	if info.PostDominates(body, header) {
		t.Error("body must not post-dominate header")
	}
}

func TestInfiniteLoopJoinsVirtualExit(t *testing.T) {
	f := parseFunc(t, `
func @spin(%c: i1) {
entry:
  condbr %c, spin, done
spin:
  br spin
done:
  ret
}
`)
	info := Compute(f)
	entry, spin, done := block(t, f, "entry"), block(t, f, "spin"), block(t, f, "done")

	if !info.PDom.Reachable(spin) {
		t.Fatal("blocks in an infinite loop are attached to the virtual exit")
	}
	if !info.PostDominates(spin, spin) {
		t.Error("post-dominance is reflexive")
	}
	if info.PostDominates(done, entry) {
		t.Error("done must not post-dominate entry when entry can branch into the infinite loop")
	}
	if info.PostDominates(done, spin) {
		t.Error("done must not post-dominate spin")
	}
	if ipdom, ok := info.PDom.IDom(entry); !ok || ipdom != info.PDom.Root() {
		t.Errorf("ipdom(entry): got %d, want virtual exit", ipdom)
	}
}

func TestUnreachableBlock(t *testing.T) {
	f := parseFunc(t, `
func @u() {
entry:
  ret
dead:
  br entry2
entry2:
  ret
}
`)
	info := Compute(f)
	entry, dead := block(t, f, "entry"), block(t, f, "dead")
	if info.Dom.Reachable(dead) {
		t.Error("dead block reported reachable")
	}
	if info.Dominates(entry, dead) || info.Dominates(dead, dead) {
		t.Error("unreachable blocks take no part in dominance")
	}
}

func TestReversePostorderStartsAtEntry(t *testing.T) {
	f := parseFunc(t, diamond)
	order := Compute(f).Dom.Order()
	if len(order) != 4 || order[0] != f.Entry {
		t.Fatalf("order: %v", order)
	}
	if order[len(order)-1] != block(t, f, "d") {
		t.Errorf("join block should come last in reverse postorder: %v", order)
	}
}

func TestInstrDominates(t *testing.T) {
	f := parseFunc(t, `
func @seq(%a: i32) -> i32 {
entry:
  %x = add i32 %a, 1
  %y = add i32 %x, 1
  br next
next:
  %z = add i32 %y, 1
  ret i32 %z
}
`)
	info := Compute(f)
	ids := f.Block(f.Entry).Instrs
	x, y := ids[0], ids[1]
	z := f.Block(block(t, f, "next")).Instrs[0]

	if !info.InstrDominates(x, y) || info.InstrDominates(y, x) {
		t.Error("same-block dominance must follow program order")
	}
	if !info.InstrDominates(x, z) || info.InstrDominates(z, x) {
		t.Error("cross-block dominance must follow block dominance")
	}
	if info.InstrDominates(x, x) {
		t.Error("instruction dominance is strict")
	}
}
