// Package alias 函数内的内存别名分析
//
// 地址被分解为 基址 + 常量偏移。基址分成若干互不相交的分区：
// 每个 alloca、每个全局符号各自是一个分区；参数、load 结果、
// 调用返回值等没有已知分区，可能与任何非局部对象重叠。
// 在此之上再用访存元数据（类型标签、作用域）排除更多重叠。
package alias

import (
	"strings"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Result 别名关系
type Result int8

const (
	NoAlias   Result = -1 // 一定不重叠
	MayAlias  Result = 0  // 可能重叠
	MustAlias Result = 1  // 完全相同
)

func (r Result) String() string {
	switch r {
	case NoAlias:
		return "NoAlias"
	case MustAlias:
		return "MustAlias"
	}
	return "MayAlias"
}

// ModRef 指令对某个位置的影响
type ModRef uint8

const (
	NoModRef ModRef = 0
	Ref      ModRef = 1 << 0
	Mod      ModRef = 1 << 1
)

// Location 被访问的内存位置
type Location struct {
	Ptr  ir.Value
	Size uint64 // 0 表示大小未知
	Meta ir.AccessMeta
}

// Oracle 单个函数的别名分析，构造后只读
type Oracle struct {
	fn      *ir.Func
	escaped []bool // 按 InstrID 索引：alloca 的地址是否逃逸
	log     *zap.Logger
}

// New 为函数构造别名分析
func New(f *ir.Func, log *zap.Logger) *Oracle {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Oracle{fn: f, log: log}
	o.computeEscapes()
	return o
}

// ============================================================================
// 基址分解
// ============================================================================

// base 地址的基址与常量偏移
type base struct {
	v     ir.Value
	off   int64
	known bool // 偏移是否为常量
}

// decompose 剥去 gep/bitcast，求出基址与偏移
func (o *Oracle) decompose(v ir.Value) base {
	b := base{v: v, known: true}
	for steps := 0; b.v.IsInstr() && steps <= len(o.fn.Instrs); steps++ {
		in := o.fn.Instr(b.v.InstrID())
		switch in.Op {
		case ir.OpBitcast:
			b.v = in.Operands[0]
		case ir.OpGEP:
			off, ok := gepOffset(in)
			if !ok {
				b.known = false
			}
			b.off += off
			b.v = in.Operands[0]
		default:
			return b
		}
	}
	return b
}

// gepOffset gep 的常量字节偏移
func gepOffset(in *ir.Instr) (int64, bool) {
	idx := in.Operands[1:]
	if len(idx) == 0 {
		return 0, true
	}
	t := in.ElemType
	size, sized := t.StoreSize()
	first, isConst := idx[0].IntConst()
	if !isConst || !sized {
		return 0, false
	}
	off := first * int64(size)
	for _, v := range idx[1:] {
		c, ok := v.IntConst()
		if !ok {
			return 0, false
		}
		switch t.Kind {
		case ir.TypeStruct:
			fo, ok := t.FieldOffset(int(c))
			if !ok {
				return 0, false
			}
			off += int64(fo)
			t = t.Fields[c]
		case ir.TypeArray, ir.TypeVector:
			es, ok := t.Elem.StoreSize()
			if !ok {
				return 0, false
			}
			off += c * int64(es)
			t = t.Elem
		default:
			return 0, false
		}
	}
	return off, true
}

// object 基址所指对象的分类
type object struct {
	kind  objKind
	index int32
}

type objKind uint8

const (
	objUnknown objKind = iota
	objAlloca
	objGlobal
	objArg
	objNull
	objString
)

func (o *Oracle) classify(v ir.Value) object {
	switch v.Kind {
	case ir.ValueGlobal:
		return object{objGlobal, v.Index}
	case ir.ValueArg:
		return object{objArg, v.Index}
	case ir.ValueConst:
		if v.Const == ir.ConstNull {
			return object{objNull, 0}
		}
		if v.Const == ir.ConstString {
			return object{objString, 0}
		}
	case ir.ValueInstr:
		if o.fn.Instr(v.InstrID()).Op == ir.OpAlloca {
			return object{objAlloca, v.Index}
		}
	}
	return object{kind: objUnknown}
}

// identified 对象是否是已知的独立分区
func (ob object) identified() bool {
	return ob.kind == objAlloca || ob.kind == objGlobal || ob.kind == objNull
}

// ============================================================================
// 查询
// ============================================================================

// PointsToImmutable 地址是否指向只读存储
func (o *Oracle) PointsToImmutable(addr ir.Value) bool {
	b := o.decompose(addr)
	switch ob := o.classify(b.v); ob.kind {
	case objGlobal:
		g, ok := o.fn.Global(b.v)
		return ok && g.Const
	case objString:
		return true
	}
	return false
}

// Alias 两个位置的别名关系
func (o *Oracle) Alias(a, b Location) Result {
	if metaNoAlias(a.Meta, b.Meta) {
		return NoAlias
	}

	ba, bb := o.decompose(a.Ptr), o.decompose(b.Ptr)
	if ba.v.SameAs(bb.v) {
		if !ba.known || !bb.known {
			return MayAlias
		}
		if ba.off == bb.off && a.Size == b.Size && a.Size != 0 {
			return MustAlias
		}
		if overlap(ba.off, a.Size, bb.off, b.Size) {
			return MayAlias
		}
		return NoAlias
	}

	oa, ob := o.classify(ba.v), o.classify(bb.v)
	if oa.identified() && ob.identified() {
		// 不同的 alloca / 全局符号互不相交
		return NoAlias
	}
	if oa.kind == objAlloca && o.localOnly(oa, bb.v, ob) {
		return NoAlias
	}
	if ob.kind == objAlloca && o.localOnly(ob, ba.v, oa) {
		return NoAlias
	}
	return MayAlias
}

// localOnly alloca 是否不可能被基址 other 指向
func (o *Oracle) localOnly(alloca object, otherBase ir.Value, other object) bool {
	if other.kind == objArg || other.kind == objString {
		return true
	}
	if o.escaped[alloca.index] {
		return false
	}
	// phi/select 可能直接合并出该 alloca 的地址
	if otherBase.IsInstr() {
		switch o.fn.Instr(otherBase.InstrID()).Op {
		case ir.OpPhi, ir.OpSelect:
			return false
		}
	}
	return true
}

// overlap 两个区间是否相交；大小为 0 视为未知，总是相交
func overlap(off0 int64, size0 uint64, off1 int64, size1 uint64) bool {
	if size0 == 0 || size1 == 0 {
		return true
	}
	if off0 > off1 {
		off0, size0, off1, size1 = off1, size1, off0, size0
	}
	return off0+int64(size0) > off1
}

// metaNoAlias 元数据能否证明不重叠
func metaNoAlias(a, b ir.AccessMeta) bool {
	if a.TBAA != "" && b.TBAA != "" && !tbaaCompatible(a.TBAA, b.TBAA) {
		return true
	}
	if a.Scope != "" && contains(b.NoAlias, a.Scope) {
		return true
	}
	if b.Scope != "" && contains(a.NoAlias, b.Scope) {
		return true
	}
	return false
}

// tbaaCompatible 类型标签按 '.' 分层，一方是另一方的前缀时可能重叠。
// "char" 与 "any" 可以与任何标签重叠。
func tbaaCompatible(a, b string) bool {
	if a == b || a == "char" || b == "char" || a == "any" || b == "any" {
		return true
	}
	return strings.HasPrefix(a, b+".") || strings.HasPrefix(b, a+".")
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// GetModRef 指令对位置的读写影响
func (o *Oracle) GetModRef(in *ir.Instr, loc Location) ModRef {
	switch in.Op {
	case ir.OpLoad:
		if o.aliases(in, loc) {
			return Ref
		}
	case ir.OpStore:
		if o.aliases(in, loc) {
			return Mod
		}
	case ir.OpAtomicRMW, ir.OpCmpXchg:
		if in.Ordering > ir.Monotonic || o.aliases(in, loc) {
			return Mod | Ref
		}
	case ir.OpFence:
		return Mod | Ref
	case ir.OpCall:
		return o.callModRef(in, loc)
	}
	return NoModRef
}

func (o *Oracle) aliases(in *ir.Instr, loc Location) bool {
	addr, _ := in.Address()
	other := Location{Ptr: addr, Size: in.AccessSize(), Meta: in.Meta}
	return o.Alias(other, loc) != NoAlias
}

func (o *Oracle) callModRef(in *ir.Instr, loc Location) ModRef {
	mr := Mod | Ref
	if in.Callee != "" && o.fn.Module != nil {
		if d, ok := o.fn.Module.Decl(in.Callee); ok {
			switch {
			case d.ReadNone:
				return NoModRef
			case d.ReadOnly:
				mr = Ref
			}
		}
	}
	// 地址未逃逸的 alloca 不可能被被调函数访问
	b := o.decompose(loc.Ptr)
	if ob := o.classify(b.v); ob.kind == objAlloca && !o.escaped[ob.index] {
		return NoModRef
	}
	return mr
}

// MayBeModifiedWithin region 中是否有指令可能修改该位置
func (o *Oracle) MayBeModifiedWithin(addr ir.Value, size uint64, meta ir.AccessMeta, region []ir.BlockID) bool {
	loc := Location{Ptr: addr, Size: size, Meta: meta}
	for _, b := range region {
		for _, id := range o.fn.Block(b).Instrs {
			in := o.fn.Instr(id)
			if o.GetModRef(in, loc)&Mod != 0 {
				o.log.Debug("location may be modified",
					zap.String("func", o.fn.Name),
					zap.String("addr", o.fn.ValueName(addr)),
					zap.String("block", o.fn.BlockName(b)),
					zap.String("writer", o.fn.InstrName(id)),
				)
				return true
			}
		}
	}
	return false
}

// ============================================================================
// 逃逸
// ============================================================================

// computeEscapes 标记地址可能被函数外部看到的 alloca
func (o *Oracle) computeEscapes() {
	f := o.fn
	o.escaped = make([]bool, len(f.Instrs))
	users := f.UserMap()

	for _, root := range f.Instrs {
		if root.Erased() || root.Op != ir.OpAlloca {
			continue
		}
		// 沿派生指针（gep/bitcast/phi/select）向下找逃逸点
		seen := map[ir.InstrID]bool{root.ID: true}
		work := []ir.InstrID{root.ID}
	search:
		for len(work) > 0 {
			p := work[len(work)-1]
			work = work[:len(work)-1]
			for _, u := range users[p] {
				in := f.Instr(u)
				switch in.Op {
				case ir.OpLoad, ir.OpICmp:
				case ir.OpStore:
					if in.Operands[0].IsInstr() && in.Operands[0].InstrID() == p {
						o.escaped[root.ID] = true
						break search
					}
				case ir.OpGEP, ir.OpBitcast, ir.OpPhi, ir.OpSelect:
					if !seen[u] {
						seen[u] = true
						work = append(work, u)
					}
				default:
					o.escaped[root.ID] = true
					break search
				}
			}
		}
	}
}

// Escaped alloca 的地址是否逃逸
func (o *Oracle) Escaped(id ir.InstrID) bool {
	return int(id) < len(o.escaped) && o.escaped[id]
}
