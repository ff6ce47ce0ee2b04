package ir

import "fmt"

// ============================================================================
// 操作码
// ============================================================================

// Op IR 操作码
type Op uint8

const (
	OpInvalid Op = iota

	// 终止指令
	OpRet
	OpBr
	OpCondBr
	OpSwitch
	OpUnreachable

	// 二元运算
	OpAdd
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem
	OpFNeg

	// 类型转换
	OpTrunc
	OpZExt
	OpSExt
	OpFPTrunc
	OpFPExt
	OpFPToSI
	OpFPToUI
	OpSIToFP
	OpUIToFP
	OpPtrToInt
	OpIntToPtr
	OpBitcast

	// 比较与其他纯运算
	OpICmp
	OpFCmp
	OpSelect
	OpGEP
	OpExtractElement
	OpInsertElement
	OpShuffleVector
	OpExtractValue
	OpInsertValue

	// 内存
	OpAlloca
	OpLoad
	OpStore
	OpAtomicRMW
	OpCmpXchg
	OpFence

	// 其他
	OpCall
	OpPhi

	opCount
)

var opNames = [...]string{
	OpInvalid:        "invalid",
	OpRet:            "ret",
	OpBr:             "br",
	OpCondBr:         "condbr",
	OpSwitch:         "switch",
	OpUnreachable:    "unreachable",
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpUDiv:           "udiv",
	OpSDiv:           "sdiv",
	OpURem:           "urem",
	OpSRem:           "srem",
	OpShl:            "shl",
	OpLShr:           "lshr",
	OpAShr:           "ashr",
	OpAnd:            "and",
	OpOr:             "or",
	OpXor:            "xor",
	OpFAdd:           "fadd",
	OpFSub:           "fsub",
	OpFMul:           "fmul",
	OpFDiv:           "fdiv",
	OpFRem:           "frem",
	OpFNeg:           "fneg",
	OpTrunc:          "trunc",
	OpZExt:           "zext",
	OpSExt:           "sext",
	OpFPTrunc:        "fptrunc",
	OpFPExt:          "fpext",
	OpFPToSI:         "fptosi",
	OpFPToUI:         "fptoui",
	OpSIToFP:         "sitofp",
	OpUIToFP:         "uitofp",
	OpPtrToInt:       "ptrtoint",
	OpIntToPtr:       "inttoptr",
	OpBitcast:        "bitcast",
	OpICmp:           "icmp",
	OpFCmp:           "fcmp",
	OpSelect:         "select",
	OpGEP:            "gep",
	OpExtractElement: "extractelement",
	OpInsertElement:  "insertelement",
	OpShuffleVector:  "shufflevector",
	OpExtractValue:   "extractvalue",
	OpInsertValue:    "insertvalue",
	OpAlloca:         "alloca",
	OpLoad:           "load",
	OpStore:          "store",
	OpAtomicRMW:      "atomicrmw",
	OpCmpXchg:        "cmpxchg",
	OpFence:          "fence",
	OpCall:           "call",
	OpPhi:            "phi",
}

// String 返回操作码助记符
func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// LookupOp 按助记符查找操作码
func LookupOp(name string) (Op, bool) {
	for op := OpInvalid + 1; op < opCount; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// IsTerminator 是否为终止指令
func (op Op) IsTerminator() bool {
	return op >= OpRet && op <= OpUnreachable
}

// IsBinary 是否为二元（或一元）算术运算
func (op Op) IsBinary() bool {
	return op >= OpAdd && op <= OpFNeg
}

// IsCast 是否为类型转换
func (op Op) IsCast() bool {
	return op >= OpTrunc && op <= OpBitcast
}

// IsCompare 是否为比较运算
func (op Op) IsCompare() bool {
	return op == OpICmp || op == OpFCmp
}

// IsVectorLane 是否为向量通道操作
func (op Op) IsVectorLane() bool {
	return op == OpExtractElement || op == OpInsertElement || op == OpShuffleVector
}

// IsAggregate 是否为聚合值字段操作
func (op Op) IsAggregate() bool {
	return op == OpExtractValue || op == OpInsertValue
}

// IsPure 是否为无副作用的纯计算
func (op Op) IsPure() bool {
	return op.IsBinary() || op.IsCast() || op.IsCompare() ||
		op == OpSelect || op == OpGEP || op.IsVectorLane() || op.IsAggregate()
}

// WritesMemory 指令本身是否可能写内存（调用另行判断）
func (op Op) WritesMemory() bool {
	switch op {
	case OpStore, OpAtomicRMW, OpCmpXchg, OpFence:
		return true
	}
	return false
}

// ============================================================================
// 比较谓词与原子序
// ============================================================================

// Pred 比较谓词
type Pred string

const (
	PredEQ  Pred = "eq"
	PredNE  Pred = "ne"
	PredSLT Pred = "slt"
	PredSLE Pred = "sle"
	PredSGT Pred = "sgt"
	PredSGE Pred = "sge"
	PredULT Pred = "ult"
	PredULE Pred = "ule"
	PredUGT Pred = "ugt"
	PredUGE Pred = "uge"
)

// ValidICmpPred 是否为合法的整数比较谓词
func ValidICmpPred(p Pred) bool {
	switch p {
	case PredEQ, PredNE, PredSLT, PredSLE, PredSGT, PredSGE,
		PredULT, PredULE, PredUGT, PredUGE:
		return true
	}
	return false
}

// Ordering 原子访问序
type Ordering uint8

const (
	NotAtomic Ordering = iota
	Unordered
	Monotonic
	Acquire
	Release
	AcqRel
	SeqCst
)

var orderingNames = [...]string{
	NotAtomic: "",
	Unordered: "unordered",
	Monotonic: "monotonic",
	Acquire:   "acquire",
	Release:   "release",
	AcqRel:    "acq_rel",
	SeqCst:    "seq_cst",
}

func (o Ordering) String() string {
	if int(o) < len(orderingNames) {
		return orderingNames[o]
	}
	return fmt.Sprintf("ordering(%d)", o)
}

// LookupOrdering 按名称查找原子序
func LookupOrdering(name string) (Ordering, bool) {
	for i := Unordered; i <= SeqCst; i++ {
		if orderingNames[i] == name {
			return i, true
		}
	}
	return NotAtomic, false
}
