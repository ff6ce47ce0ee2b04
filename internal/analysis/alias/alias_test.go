package alias

import (
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

const src = `
global @ro : [4 x i32] const
global @rw : i32
global @other : i32
declare @sink(ptr)
declare @peek(ptr) -> i32 readonly
declare @math(i32) -> i32 readnone

func @f(%p: ptr, %q: ptr) {
entry:
  %a = alloca {i32, i64}
  %b = alloca i32
  %esc = alloca i32
  %a0 = gep {i32, i64}, %a, 0, 0
  %a1 = gep {i32, i64}, %a, 0, 1
  %ro1 = gep [4 x i32], @ro, 0, 1
  %v = load i32, %p !tbaa "int"
  %w = load f32, %q !tbaa "float"
  call void @sink(%esc)
  br next
next:
  store i32 1, @rw
  %m = call i32 @math(1)
  %k = call i32 @peek(%p)
  ret
}
`

type fixture struct {
	f *ir.Func
	o *Oracle
}

func setup(t *testing.T) fixture {
	t.Helper()
	m, err := irtext.Parse("alias.mir", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := m.Funcs[0]
	return fixture{f: f, o: New(f, nil)}
}

func (fx fixture) value(t *testing.T, name string) ir.Value {
	t.Helper()
	for _, in := range fx.f.Instrs {
		if in.Name == name {
			return ir.InstrValue(in.ID)
		}
	}
	for i, p := range fx.f.Params {
		if p.Name == name {
			return ir.ArgValue(i)
		}
	}
	if i, ok := fx.f.Module.GlobalIndex(name); ok {
		return ir.GlobalValue(i)
	}
	t.Fatalf("no value %s", name)
	return ir.Value{}
}

func (fx fixture) instr(t *testing.T, name string) *ir.Instr {
	t.Helper()
	return fx.f.Instr(fx.value(t, name).InstrID())
}

func loc(v ir.Value, size uint64) Location { return Location{Ptr: v, Size: size} }

func TestAliasPartitions(t *testing.T) {
	fx := setup(t)
	v := func(n string) ir.Value { return fx.value(t, n) }

	tests := []struct {
		name string
		a, b Location
		want Result
	}{
		{"same field", loc(v("a0"), 4), loc(v("a0"), 4), MustAlias},
		{"distinct fields", loc(v("a0"), 4), loc(v("a1"), 8), NoAlias},
		{"whole object vs field", loc(v("a"), 16), loc(v("a1"), 8), MayAlias},
		{"unknown size overlaps", loc(v("a0"), 0), loc(v("a1"), 8), MayAlias},
		{"two allocas", loc(v("a"), 4), loc(v("b"), 4), NoAlias},
		{"alloca vs global", loc(v("b"), 4), loc(v("rw"), 4), NoAlias},
		{"two globals", loc(v("rw"), 4), loc(v("other"), 4), NoAlias},
		{"local alloca vs argument", loc(v("b"), 4), loc(v("p"), 4), NoAlias},
		{"two arguments", loc(v("p"), 4), loc(v("q"), 4), MayAlias},
		{"argument vs global", loc(v("p"), 4), loc(v("rw"), 4), MayAlias},
	}
	for _, tt := range tests {
		if got := fx.o.Alias(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestAliasMetadata(t *testing.T) {
	fx := setup(t)
	p, q := fx.value(t, "p"), fx.value(t, "q")

	intLoc := Location{Ptr: p, Size: 4, Meta: ir.AccessMeta{TBAA: "int"}}
	floatLoc := Location{Ptr: q, Size: 4, Meta: ir.AccessMeta{TBAA: "float"}}
	if got := fx.o.Alias(intLoc, floatLoc); got != NoAlias {
		t.Errorf("int vs float tags: got %s", got)
	}
	charLoc := Location{Ptr: q, Size: 1, Meta: ir.AccessMeta{TBAA: "char"}}
	if got := fx.o.Alias(intLoc, charLoc); got != MayAlias {
		t.Errorf("char aliases everything: got %s", got)
	}
	nested := Location{Ptr: q, Size: 4, Meta: ir.AccessMeta{TBAA: "int.signed"}}
	if got := fx.o.Alias(intLoc, nested); got != MayAlias {
		t.Errorf("parent/child tags: got %s", got)
	}

	scoped := Location{Ptr: p, Size: 4, Meta: ir.AccessMeta{Scope: "s1"}}
	other := Location{Ptr: q, Size: 4, Meta: ir.AccessMeta{NoAlias: []string{"s1"}}}
	if got := fx.o.Alias(scoped, other); got != NoAlias {
		t.Errorf("noalias scope: got %s", got)
	}
}

func TestPointsToImmutable(t *testing.T) {
	fx := setup(t)
	if !fx.o.PointsToImmutable(fx.value(t, "ro1")) {
		t.Error("element of a constant global is immutable")
	}
	if fx.o.PointsToImmutable(fx.value(t, "rw")) {
		t.Error("writable global reported immutable")
	}
	if fx.o.PointsToImmutable(fx.value(t, "p")) {
		t.Error("argument reported immutable")
	}
}

func TestEscapes(t *testing.T) {
	fx := setup(t)
	if !fx.o.Escaped(fx.value(t, "esc").InstrID()) {
		t.Error("alloca passed to a call escapes")
	}
	if fx.o.Escaped(fx.value(t, "a").InstrID()) {
		t.Error("alloca only used through gep does not escape")
	}
}

func TestModRef(t *testing.T) {
	fx := setup(t)
	rw := Location{Ptr: fx.value(t, "rw"), Size: 4}
	b := Location{Ptr: fx.value(t, "b"), Size: 4}
	esc := Location{Ptr: fx.value(t, "esc"), Size: 4}

	next, _ := fx.f.BlockByName("next")
	instrs := fx.f.Block(next).Instrs
	store := fx.f.Instr(instrs[0])

	if fx.o.GetModRef(store, rw)&Mod == 0 {
		t.Error("store to @rw must modify @rw")
	}
	if fx.o.GetModRef(store, b) != NoModRef {
		t.Error("store to @rw must not touch a local alloca")
	}
	if mr := fx.o.GetModRef(fx.instr(t, "m"), rw); mr != NoModRef {
		t.Errorf("readnone call: got %v", mr)
	}
	if mr := fx.o.GetModRef(fx.instr(t, "k"), rw); mr != Ref {
		t.Errorf("readonly call: got %v", mr)
	}

	var sink *ir.Instr
	fx.f.ForEachInstr(func(in *ir.Instr) {
		if in.Op == ir.OpCall && in.Callee == "sink" {
			sink = in
		}
	})
	if fx.o.GetModRef(sink, esc)&Mod == 0 {
		t.Error("unknown call may modify an escaped alloca")
	}
	if fx.o.GetModRef(sink, b) != NoModRef {
		t.Error("unknown call cannot touch a non-escaping alloca")
	}
}

func TestMayBeModifiedWithin(t *testing.T) {
	fx := setup(t)
	entry := fx.f.Entry
	next, _ := fx.f.BlockByName("next")
	rw := fx.value(t, "rw")

	if !fx.o.MayBeModifiedWithin(rw, 4, ir.AccessMeta{}, []ir.BlockID{next}) {
		t.Error("store in region must be reported")
	}
	if fx.o.MayBeModifiedWithin(rw, 4, ir.AccessMeta{}, nil) {
		t.Error("empty region modifies nothing")
	}
	// entry 只有对 %esc 的未知调用，@rw 是全局，可能被 @sink 修改
	if !fx.o.MayBeModifiedWithin(rw, 4, ir.AccessMeta{}, []ir.BlockID{entry}) {
		t.Error("unknown call may modify a global")
	}
	if fx.o.MayBeModifiedWithin(fx.value(t, "b"), 4, ir.AccessMeta{}, []ir.BlockID{entry, next}) {
		t.Error("nothing writes the local alloca b")
	}
}

func TestUnsizedAccessOverlapsSameBase(t *testing.T) {
	tests := []struct {
		off0  int64
		size0 uint64
		off1  int64
		size1 uint64
		want  bool
	}{
		{0, 4, 8, 8, false},
		{0, 4, 2, 4, true},
		{0, 0, 8, 8, true},
		{100, 4, 0, 0, true},
		{0, 0, 0, 0, true},
	}
	for _, tt := range tests {
		if got := overlap(tt.off0, tt.size0, tt.off1, tt.size1); got != tt.want {
			t.Errorf("overlap(%d, %d, %d, %d) = %v, want %v", tt.off0, tt.size0, tt.off1, tt.size1, got, tt.want)
		}
	}

	fx := setup(t)
	a0, a1 := fx.value(t, "a0"), fx.value(t, "a1")
	if r := fx.o.Alias(loc(a0, 4), loc(a1, 8)); r != NoAlias {
		t.Errorf("disjoint fields: %v", r)
	}
	if r := fx.o.Alias(loc(a0, 0), loc(a1, 8)); r != MayAlias {
		t.Errorf("unsized access against another field: %v, want MayAlias", r)
	}
	if r := fx.o.Alias(loc(a0, 0), loc(a0, 0)); r != MayAlias {
		t.Errorf("unsized accesses at the same offset: %v, want MayAlias", r)
	}
	if !fx.o.MayBeModifiedWithin(fx.value(t, "rw"), 0, ir.AccessMeta{}, []ir.BlockID{fx.f.Instr(fx.value(t, "k").InstrID()).Block}) {
		t.Error("unsized read of a stored global must be reported as modified")
	}
}
