package vrange

import (
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

func expect(t *testing.T, what string, r Range, lo, hi int64) {
	t.Helper()
	gl, gh, ok := r.Int64()
	if !ok || gl != lo || gh != hi {
		t.Errorf("%s = %s, want [%d, %d]", what, r, lo, hi)
	}
}

func TestArithmetic(t *testing.T) {
	a := NewRange(32, 0, 10)
	b := NewRange(32, -3, 4)

	expect(t, "add", a.Add(b), -3, 14)
	expect(t, "sub", a.Sub(b), -4, 13)
	expect(t, "mul", a.Mul(b), -30, 40)
	expect(t, "and", a.And(Full(32)), 0, 10)
	expect(t, "or", a.Or(NewRange(32, 0, 3)), 0, 15)
	expect(t, "shl", a.Shl(Const(32, 2)), 0, 40)
	expect(t, "ashr", NewRange(32, -8, 8).AShr(Const(32, 1)), -4, 4)
	expect(t, "lshr", a.LShr(Const(32, 1)), 0, 5)
	expect(t, "sdiv", NewRange(32, -9, 9).SDiv(Const(32, 2)), -4, 4)
	expect(t, "urem", Full(32).URem(Const(32, 8)), 0, 7)
	expect(t, "srem", NewRange(32, -100, 100).SRem(Const(32, 8)), -7, 7)
	expect(t, "srem nonneg", NewRange(32, 0, 3).SRem(Const(32, 8)), 0, 3)
}

func TestOverflowWidensToFull(t *testing.T) {
	r := NewRange(8, 100, 120).Add(Const(8, 10))
	if !r.IsFull() {
		t.Errorf("i8 overflow should widen to full, got %s", r)
	}
	r = Full(64).Mul(Const(64, 2))
	if !r.IsFull() {
		t.Errorf("i64 overflow should widen to full, got %s", r)
	}
	expect(t, "full i64", Full(64), -1<<63, 1<<63-1)
}

func TestCasts(t *testing.T) {
	expect(t, "trunc fits", NewRange(32, -5, 100).Trunc(8), -5, 100)
	if !NewRange(32, 0, 1000).Trunc(8).IsFull() {
		t.Error("trunc that does not fit must be full")
	}
	expect(t, "sext", NewRange(8, -5, 5).SExt(32), -5, 5)
	expect(t, "zext negative", NewRange(8, -1, 5).ZExt(32), 0, 255)
}

func TestMinSignedBits(t *testing.T) {
	tests := []struct {
		lo, hi int64
		want   int
	}{
		{0, 0, 1},
		{-1, 0, 1},
		{0, 1, 2},
		{-128, 127, 8},
		{-129, 0, 9},
		{0, 1023, 11},
		{0, 32767, 16},
		{0, 32768, 17},
	}
	for _, tt := range tests {
		if got := NewRange(64, tt.lo, tt.hi).MinSignedBits(); got != tt.want {
			t.Errorf("MinSignedBits([%d, %d]) = %d, want %d", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if s := NewRange(32, -7, 12).String(); s != "[-7, 12]" {
		t.Errorf("String = %q", s)
	}
}

const src = `
declare @tid() -> i32 readnone
declare @llvm.assume(i1)

func @k(%n: i32) -> i32 {
entry:
  %t = call i32 @tid()
  %early = add i32 %t, 1
  %c0 = icmp sge i32 %t, 0
  call void @llvm.assume(i1 %c0)
  %c1 = icmp sle i32 %t, 1023
  call void @llvm.assume(i1 %c1)
  %x = mul i32 %t, 4
  %y = and i32 %n, 255
  %z = add i32 %x, %y
  %s = select i32 %c0, 7, %y
  br loop
loop:
  %i = phi i32 [0, entry], [%next, loop]
  %next = add i32 %i, 1
  %done = icmp slt i32 %next, %n
  condbr %done, loop, exit
exit:
  %r = urem i32 %z, 16
  ret i32 %r
}
`

func analyze(t *testing.T) (*ir.Func, *Analysis) {
	t.Helper()
	m, err := irtext.Parse("vrange.mir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := m.Funcs[0]
	return f, New(f, dom.Compute(f), nil)
}

func instr(t *testing.T, f *ir.Func, name string) ir.InstrID {
	t.Helper()
	for _, in := range f.Instrs {
		if in.Name == name {
			return in.ID
		}
	}
	t.Fatalf("no instruction %%%s", name)
	return ir.NoInstr
}

func TestAssumeFacts(t *testing.T) {
	f, a := analyze(t)

	if r := a.Range(instr(t, f, "early")); !r.IsFull() {
		t.Errorf("add before the assumes should not see them, got %s", r)
	}
	expect(t, "%x", a.Range(instr(t, f, "x")), 0, 4092)
	expect(t, "%y", a.Range(instr(t, f, "y")), 0, 255)
	expect(t, "%z", a.Range(instr(t, f, "z")), 0, 4347)
	expect(t, "%s", a.Range(instr(t, f, "s")), 0, 255)
	expect(t, "%r", a.Range(instr(t, f, "r")), 0, 15)

	tv := ir.InstrValue(instr(t, f, "t"))
	if r := a.RangeAt(tv, instr(t, f, "early")); !r.IsFull() {
		t.Errorf("%%t before assumes = %s", r)
	}
	expect(t, "%t at %x", a.RangeAt(tv, instr(t, f, "x")), 0, 1023)
}

func TestLoopPhiWidens(t *testing.T) {
	f, a := analyze(t)
	if r := a.Range(instr(t, f, "i")); !r.IsFull() {
		t.Errorf("loop-carried phi should widen to full, got %s", r)
	}
	if r := a.Range(instr(t, f, "next")); !r.IsFull() {
		t.Errorf("increment of a full phi should be full, got %s", r)
	}
}

func TestInvalidate(t *testing.T) {
	f, a := analyze(t)
	x := instr(t, f, "x")
	_ = a.Range(x)

	// 把 %x 改成 mul %t, 8 后重新计算
	f.Instr(x).Operands[1] = ir.ConstIntValue(ir.I32, 8)
	a.Invalidate()
	expect(t, "%x after edit", a.Range(x), 0, 8184)
}
