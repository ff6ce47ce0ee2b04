package codemotion

import (
	"strings"
	"testing"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

func parseFunc(t *testing.T, src string) *ir.Func {
	t.Helper()
	m, err := irtext.Parse("codemotion.mir", src)
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

func names(f *ir.Func, ids []ir.InstrID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = f.InstrName(id)
	}
	return strings.Join(parts, " ")
}

func blockNames(f *ir.Func, ids []ir.BlockID) string {
	return BlockList(f, ids)
}

// stubOracle 可控的别名查询，记录被询问的次数与访问大小
type stubOracle struct {
	modified  bool
	immutable bool
	queries   int
	sizes     []uint64
}

func (s *stubOracle) PointsToImmutable(ir.Value) bool { return s.immutable }

func (s *stubOracle) MayBeModifiedWithin(_ ir.Value, size uint64, _ ir.AccessMeta, _ []ir.BlockID) bool {
	s.queries++
	s.sizes = append(s.sizes, size)
	return s.modified
}

// ============================================================================
// 场景
// ============================================================================

const diamondSrc = `
func @diamond(%c: i1, %n: i32) -> i32 {
a:
  condbr %c, b, c
b:
  br d
c:
  br d
d:
  %x = add i32 %n, 2
  ret i32 %x
}
`

func TestDiamondHasNoRecords(t *testing.T) {
	f := parseFunc(t, diamondSrc)
	r, advised := NewAdvisor(nil).Run(f)
	if advised || len(r.Records) != 0 {
		t.Fatalf("diamond should produce no records, got %d", len(r.Records))
	}
	if len(r.Chains) != 0 {
		t.Errorf("all chains should be trivial, got %d non-trivial", len(r.Chains))
	}
}

const linearSrc = `
func @linear(%n: i32) -> i32 {
a:
  %x = add i32 %n, 1
  br b
b:
  %y = add i32 %x, 2
  %z = mul i32 %y, %y
  br c
c:
  %w = add i32 %z, %n
  ret i32 %w
}
`

func TestLinearChain(t *testing.T) {
	f := parseFunc(t, linearSrc)
	r, advised := NewAdvisor(nil).Run(f)
	if !advised {
		t.Fatal("linear chain should be advised")
	}
	if len(r.Chains) != 1 || blockNames(f, r.Chains[0].Blocks) != "a b c" {
		t.Fatalf("chains: %+v", r.Chains)
	}
	for i, bs := range r.Chains[0].Between {
		if len(bs) != 0 {
			t.Errorf("link %d between-set should be empty: %v", i, bs)
		}
	}
	if len(r.Records) != 2 {
		t.Fatalf("records: %d", len(r.Records))
	}

	// 从链尾向链头处理
	first, second := r.Records[0], r.Records[1]
	if first.Src != block(t, f, "c") || first.Dst != block(t, f, "b") {
		t.Errorf("first record should be c -> b, got %s -> %s", f.BlockName(first.Src), f.BlockName(first.Dst))
	}
	if got := names(f, candidateIDs(first)); got != "%w" {
		t.Errorf("c -> b candidates: %s", got)
	}
	if second.Src != block(t, f, "b") || second.Dst != block(t, f, "a") {
		t.Errorf("second record should be b -> a")
	}
	if got := names(f, candidateIDs(second)); got != "%y %z" {
		t.Errorf("b -> a candidates: %s", got)
	}
}

func candidateIDs(r Record) []ir.InstrID {
	ids := make([]ir.InstrID, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.Instr
	}
	return ids
}

const detourSrc = `
func @detour(%c: i1, %p: ptr, %q: ptr, %n: i32) -> i32 {
a:
  br b
b:
  condbr %c, x, c
x:
  store i32 0, %p !tbaa "int"
  br c
c:
  %v = load i32, %p !tbaa "int"
  %f = load f32, %q !tbaa "float"
  %k = add i32 %n, 5
  %s = add i32 %v, %k
  ret i32 %s
}
`

func TestDetourVetoesAliasedLoad(t *testing.T) {
	f := parseFunc(t, detourSrc)
	r, _ := NewAdvisor(nil).Run(f)
	if len(r.Chains) != 1 || blockNames(f, r.Chains[0].Blocks) != "a b c" {
		t.Fatalf("chains: %+v", r.Chains)
	}
	if got := blockNames(f, r.Chains[0].Between[1]); got != "x" {
		t.Errorf("between(b, c) = %q, want x", got)
	}

	var rec *Record
	for i := range r.Records {
		if r.Records[i].Src == block(t, f, "c") {
			rec = &r.Records[i]
		}
	}
	if rec == nil {
		t.Fatal("no record for c -> b")
	}
	if got := names(f, candidateIDs(*rec)); got != "%f %k" {
		t.Errorf("c -> b candidates = %q, want %%f %%k", got)
	}
}

const orderedSrc = `
global @ro : i32 const
func @ordered(%p: ptr) -> i32 {
a:
  br b
b:
  %v1 = load volatile i32, @ro
  %v2 = load atomic acquire i32, %p
  %v3 = load i32, @ro
  %s = add i32 %v1, %v3
  ret i32 %s
}
`

func TestOrderedAccessNeverAdmitted(t *testing.T) {
	f := parseFunc(t, orderedSrc)
	r, _ := NewAdvisor(nil).Run(f)
	if len(r.Records) != 1 {
		t.Fatalf("records: %d", len(r.Records))
	}
	if got := names(f, candidateIDs(r.Records[0])); got != "%v3" {
		t.Errorf("candidates = %q, want %%v3", got)
	}
	// 即使别名查询给出最乐观的回答，也不能接纳
	a, b := block(t, f, "a"), block(t, f, "b")
	c := Collect(f, dom.Compute(f), b, a, NewScope(&stubOracle{immutable: true}, nil), nil)
	if c.Contains(instr(t, f, "v1")) || c.Contains(instr(t, f, "v2")) {
		t.Error("volatile/atomic loads must never be admitted")
	}
}

// ============================================================================
// 性质
// ============================================================================

const loopsSrc = `
func @loops(%c: i1) {
entry:
  br head
head:
  br body
body:
  condbr %c, body, latch
latch:
  condbr %c, head, exit
exit:
  ret
}
`

const irreducibleSrc = `
func @irr(%c: i1) {
entry:
  condbr %c, l, r
l:
  condbr %c, r, exit
r:
  condbr %c, l, exit
exit:
  ret
}
`

const spinSrc = `
func @spin(%c: i1) {
entry:
  br pre
pre:
  condbr %c, spin, done
spin:
  br spin
done:
  ret
}
`

func TestChainValidity(t *testing.T) {
	for _, src := range []string{diamondSrc, linearSrc, detourSrc, loopsSrc, irreducibleSrc, spinSrc} {
		f := parseFunc(t, src)
		info := dom.Compute(f)
		chains := BuildChains(f, info, f.Entry, nil)

		owner := make(map[ir.BlockID]int)
		for ci, c := range chains {
			for i, b := range c.Blocks {
				if prev, dup := owner[b]; dup {
					t.Errorf("%s: block %s in chains %d and %d", f.Name, f.BlockName(b), prev, ci)
				}
				owner[b] = ci
				if i == 0 {
					continue
				}
				p := c.Blocks[i-1]
				if !info.Dominates(p, b) || !info.PostDominates(b, p) {
					t.Errorf("%s: invalid link %s -> %s", f.Name, f.BlockName(p), f.BlockName(b))
				}
			}
			if len(c.Between) != len(c.Blocks)-1 {
				t.Errorf("%s: chain has %d blocks but %d between-sets", f.Name, len(c.Blocks), len(c.Between))
			}
			for i, bs := range c.Between {
				prev, next := c.Link(i)
				for _, x := range bs {
					if x == prev || x == next {
						t.Errorf("%s: endpoint %s in its own between-set", f.Name, f.BlockName(x))
					}
				}
			}
		}
		for _, b := range f.Blocks {
			if info.Dom.Reachable(b.ID) {
				if _, ok := owner[b.ID]; !ok {
					t.Errorf("%s: reachable block %s not in any chain", f.Name, f.BlockName(b.ID))
				}
			}
		}
	}
}

func TestLoopsTerminate(t *testing.T) {
	f := parseFunc(t, loopsSrc)
	chains := NonTrivial(BuildChains(f, dom.Compute(f), f.Entry, nil))
	if len(chains) != 1 {
		t.Fatalf("chains: %d", len(chains))
	}
	if got := blockNames(f, chains[0].Blocks); got != "entry head body latch exit" {
		t.Errorf("chain = %q", got)
	}

	f = parseFunc(t, spinSrc)
	chains = BuildChains(f, dom.Compute(f), f.Entry, nil)
	for _, c := range chains {
		if c.Contains(block(t, f, "pre")) && c.Contains(block(t, f, "done")) {
			t.Error("done must not post-dominate pre when pre may spin forever")
		}
	}
}

func TestBetween(t *testing.T) {
	f := parseFunc(t, `
func @nested(%c: i1) {
a:
  condbr %c, x, d
x:
  condbr %c, y, z
y:
  br d
z:
  br d
d:
  condbr %c, a2, e
a2:
  br e
e:
  ret
}
`)
	got := blockNames(f, Between(f, block(t, f, "a"), block(t, f, "d")))
	if got != "x y z" {
		t.Errorf("between(a, d) = %q", got)
	}
	got = blockNames(f, Between(f, block(t, f, "d"), block(t, f, "e")))
	if got != "a2" {
		t.Errorf("between(d, e) = %q", got)
	}
	if bs := Between(f, block(t, f, "y"), block(t, f, "d")); len(bs) != 0 {
		t.Errorf("direct edge should have an empty between-set: %v", bs)
	}
}

func TestPureIsUnconditionallyMovable(t *testing.T) {
	f := parseFunc(t, linearSrc)
	info := dom.Compute(f)
	oracle := &stubOracle{modified: true}
	c := Collect(f, info, block(t, f, "b"), block(t, f, "a"), NewScope(oracle, []ir.BlockID{block(t, f, "c")}), nil)
	if got := names(f, c.IDs()); got != "%y %z" {
		t.Errorf("candidates = %q", got)
	}
	if oracle.queries != 0 {
		t.Errorf("pure instructions should not consult the alias oracle (%d queries)", oracle.queries)
	}
}

func TestAliasVeto(t *testing.T) {
	f := parseFunc(t, detourSrc)
	info := dom.Compute(f)
	b, c, x := block(t, f, "b"), block(t, f, "c"), block(t, f, "x")
	v := instr(t, f, "v")

	for _, modified := range []bool{true, false} {
		oracle := &stubOracle{modified: modified}
		cands := Collect(f, info, c, b, NewScope(oracle, []ir.BlockID{x}), nil)
		if cands.Contains(v) == modified {
			t.Errorf("modified=%v: load admitted=%v", modified, cands.Contains(v))
		}
	}

	// 只读存储不需要询问修改
	oracle := &stubOracle{modified: true, immutable: true}
	cands := Collect(f, info, c, b, NewScope(oracle, []ir.BlockID{x}), nil)
	if !cands.Contains(v) {
		t.Error("load from immutable storage should be admitted")
	}
}

func TestUnsizedLoadQueriesWithZeroSize(t *testing.T) {
	for _, typ := range []*ir.Type{ir.Label, nil} {
		f := parseFunc(t, detourSrc)
		info := dom.Compute(f)
		b, c, x := block(t, f, "b"), block(t, f, "c"), block(t, f, "x")
		v := instr(t, f, "v")
		f.Instr(v).Type = typ

		for _, modified := range []bool{true, false} {
			oracle := &stubOracle{modified: modified}
			cands := Collect(f, info, c, b, NewScope(oracle, []ir.BlockID{x}), nil)
			if len(oracle.sizes) == 0 || oracle.sizes[0] != 0 {
				t.Errorf("type %v: sizes asked = %v, want 0 first", typ, oracle.sizes)
			}
			if cands.Contains(v) == modified {
				t.Errorf("type %v, modified=%v: load admitted=%v", typ, modified, cands.Contains(v))
			}
		}
	}

	// 有大小的读取按存储大小询问
	f := parseFunc(t, detourSrc)
	oracle := &stubOracle{}
	Collect(f, dom.Compute(f), block(t, f, "c"), block(t, f, "b"), NewScope(oracle, []ir.BlockID{block(t, f, "x")}), nil)
	if len(oracle.sizes) == 0 || oracle.sizes[0] != 4 {
		t.Errorf("sized load: sizes asked = %v, want 4 first", oracle.sizes)
	}
}

func TestInvariantLoad(t *testing.T) {
	f := parseFunc(t, `
func @inv(%p: ptr) -> i32 {
a:
  br b
b:
  %v = load i32, %p !invariant
  ret i32 %v
}
`)
	oracle := &stubOracle{modified: true}
	in := f.Instr(instr(t, f, "v"))
	if v := Classify(f, in, NewScope(oracle, []ir.BlockID{0})); !v.Movable || v.Reason != ReasonInvariantLoad {
		t.Errorf("verdict = %+v", v)
	}
}

func TestClassifyReasons(t *testing.T) {
	f := parseFunc(t, `
declare @g(i32) -> i32 readnone
func @k(%p: ptr, %n: i32) -> i32 {
a:
  %al = alloca i32
  store i32 %n, %p
  %d = sdiv checked i32 %n, %n
  %c = call i32 @g(%n)
  %x = atomicrmw add seq_cst i32 %p, 1
  fence seq_cst
  %s = select i32 true, %n, %d
  ret i32 %s
}
`)
	scope := NewScope(&stubOracle{}, nil)
	tests := []struct {
		name string
		want Reason
	}{
		{"al", ReasonPinned},
		{"d", ReasonMayTrap},
		{"c", ReasonCall},
		{"x", ReasonOrderedAccess},
		{"s", ReasonPure},
	}
	for _, tt := range tests {
		v := Classify(f, f.Instr(instr(t, f, tt.name)), scope)
		if v.Reason != tt.want || v.Movable != (tt.want == ReasonPure) {
			t.Errorf("%%%s: verdict %+v, want %s", tt.name, v, tt.want)
		}
	}
	entry := f.Block(f.Entry).Instrs
	if v := Classify(f, f.Instr(entry[1]), scope); v.Reason != ReasonSideEffect {
		t.Errorf("store: %+v", v)
	}
	if v := Classify(f, f.Instr(entry[5]), scope); v.Reason != ReasonOrderedAccess {
		t.Errorf("fence: %+v", v)
	}
	if v := Classify(f, f.Instr(entry[len(entry)-1]), scope); v.Movable {
		t.Errorf("terminator must be pinned: %+v", v)
	}
}

func TestCollectIsConfluent(t *testing.T) {
	f := parseFunc(t, `
func @chainops(%n: i32) -> i32 {
a:
  %base = add i32 %n, 1
  br b
b:
  %r1 = add i32 %base, 1
  %r2 = mul i32 %r1, 3
  %r3 = sub i32 %r2, %r1
  %r4 = xor i32 %r3, %n
  ret i32 %r4
}
`)
	info := dom.Compute(f)
	src, dst := block(t, f, "b"), block(t, f, "a")
	scope := NewScope(&stubOracle{}, nil)

	forward := f.Block(src).Instrs
	reversed := make([]ir.InstrID, len(forward))
	for i, id := range forward {
		reversed[len(forward)-1-i] = id
	}

	a := collect(f, info, src, dst, scope, forward, nil)
	b := collect(f, info, src, dst, scope, reversed, nil)
	if names(f, a.IDs()) != names(f, b.IDs()) {
		t.Errorf("scan order changed the result: %q vs %q", names(f, a.IDs()), names(f, b.IDs()))
	}
	if got := names(f, a.IDs()); got != "%r1 %r2 %r3 %r4" {
		t.Errorf("candidates = %q", got)
	}
	// 逆序扫描时每轮只能接纳一条新指令
	for i, it := range b.Items {
		if it.Round != i+1 {
			t.Errorf("reversed scan: %s admitted in round %d", f.InstrName(it.Instr), it.Round)
		}
	}
}

func TestOperandFromSourceBlockBlocksAdmission(t *testing.T) {
	f := parseFunc(t, `
func @blocked(%p: ptr, %c: i1) -> i32 {
a:
  br b
b:
  %v = load volatile i32, %p
  %w = add i32 %v, 1
  ret i32 %w
}
`)
	c := Collect(f, dom.Compute(f), block(t, f, "b"), block(t, f, "a"), NewScope(&stubOracle{}, nil), nil)
	if c.Len() != 0 {
		t.Errorf("add that depends on a pinned load must not be admitted: %s", names(f, c.IDs()))
	}
}

func TestReportQueries(t *testing.T) {
	f := parseFunc(t, linearSrc)
	r, _ := NewAdvisor(nil).Run(f)
	if r.NumCandidates() != 3 {
		t.Errorf("NumCandidates = %d", r.NumCandidates())
	}
	if r.ChainOf(block(t, f, "b")) != 0 {
		t.Error("ChainOf(b) should be 0")
	}
}

func TestRunDoesNotMutate(t *testing.T) {
	f := parseFunc(t, detourSrc)
	before := ir.Digest(f)
	NewAdvisor(nil).Run(f)
	if ir.Digest(f) != before {
		t.Error("advisor modified the function")
	}
}
