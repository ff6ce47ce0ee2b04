package codemotion

import "github.com/taylorlloyd/llvmMRIS/internal/ir"

// AliasOracle 函数级别名查询
type AliasOracle interface {
	PointsToImmutable(addr ir.Value) bool
	MayBeModifiedWithin(addr ir.Value, size uint64, meta ir.AccessMeta, region []ir.BlockID) bool
}

// Scope 单个链接的别名作用域，只回答该链接中间块内的修改
type Scope interface {
	PointsToImmutable(addr ir.Value) bool
	MayBeModified(addr ir.Value, size uint64, meta ir.AccessMeta) bool
}

// linkScope 把函数级别名分析限定到一个链接的中间块
type linkScope struct {
	oracle AliasOracle
	region []ir.BlockID
}

// NewScope 为中间块集合 region 构造作用域
func NewScope(oracle AliasOracle, region []ir.BlockID) Scope {
	return &linkScope{oracle: oracle, region: region}
}

func (s *linkScope) PointsToImmutable(addr ir.Value) bool {
	return s.oracle.PointsToImmutable(addr)
}

func (s *linkScope) MayBeModified(addr ir.Value, size uint64, meta ir.AccessMeta) bool {
	if len(s.region) == 0 {
		return false
	}
	return s.oracle.MayBeModifiedWithin(addr, size, meta, s.region)
}

// ============================================================================
// 判定
// ============================================================================

// Reason 判定理由
type Reason uint8

const (
	ReasonPure           Reason = iota // 纯计算
	ReasonImmutableLoad                // 读取只读存储
	ReasonInvariantLoad                // 带 invariant 标记的读取
	ReasonUnmodifiedLoad               // 中间块不会修改被读位置
	ReasonMayBeModified                // 中间块可能修改被读位置
	ReasonOrderedAccess                // volatile 或原子访存
	ReasonSideEffect                   // 写内存
	ReasonCall                         // 调用
	ReasonMayTrap                      // 可能触发异常
	ReasonPinned                       // 终止指令、phi、alloca 等
)

var reasonNames = [...]string{
	ReasonPure:           "pure",
	ReasonImmutableLoad:  "immutable-load",
	ReasonInvariantLoad:  "invariant-load",
	ReasonUnmodifiedLoad: "unmodified-load",
	ReasonMayBeModified:  "may-be-modified",
	ReasonOrderedAccess:  "ordered-access",
	ReasonSideEffect:     "side-effect",
	ReasonCall:           "call",
	ReasonMayTrap:        "may-trap",
	ReasonPinned:         "pinned",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Verdict 指令能否跨越链接移动
type Verdict struct {
	Movable bool
	Reason  Reason
}

func movable(r Reason) Verdict { return Verdict{Movable: true, Reason: r} }
func pinned(r Reason) Verdict  { return Verdict{Reason: r} }

// Classify 判定指令本身能否移动，不检查操作数
func Classify(f *ir.Func, in *ir.Instr, scope Scope) Verdict {
	if in.Checked {
		return pinned(ReasonMayTrap)
	}

	switch op := in.Op; {
	case op == ir.OpLoad:
		if !in.IsUnordered() {
			return pinned(ReasonOrderedAccess)
		}
		addr := in.Operands[0]
		if scope.PointsToImmutable(addr) {
			return movable(ReasonImmutableLoad)
		}
		if in.Meta.Invariant {
			return movable(ReasonInvariantLoad)
		}
		if scope.MayBeModified(addr, loadSize(in), in.Meta) {
			return pinned(ReasonMayBeModified)
		}
		return movable(ReasonUnmodifiedLoad)

	case op == ir.OpStore:
		if !in.IsUnordered() {
			return pinned(ReasonOrderedAccess)
		}
		return pinned(ReasonSideEffect)

	case op == ir.OpAtomicRMW, op == ir.OpCmpXchg, op == ir.OpFence:
		return pinned(ReasonOrderedAccess)

	case op == ir.OpCall:
		return pinned(ReasonCall)

	case op.IsPure():
		return movable(ReasonPure)
	}
	return pinned(ReasonPinned)
}

// loadSize 被读类型的存储大小，无法确定时为 0
func loadSize(in *ir.Instr) uint64 {
	size, ok := in.Type.StoreSize()
	if !ok {
		return 0
	}
	return size
}
