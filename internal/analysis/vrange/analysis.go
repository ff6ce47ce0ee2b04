package vrange

import (
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// AssumeCallee 假设内建函数名
const AssumeCallee = "llvm.assume"

// fact 一条由 llvm.assume 给出的事实：在 at 之后 v 位于 r 内
type fact struct {
	at ir.InstrID
	v  ir.Value
	r  Range
}

// Analysis 单个函数的值区间分析
//
// 指令的区间按需计算并缓存；计算某条指令时，其操作数以该指令为上下文求值。
// 经过回边的 phi 不做迭代，直接退化为完整区间。
type Analysis struct {
	fn    *ir.Func
	info  *dom.Info
	facts []fact
	cache map[ir.InstrID]Range
	busy  map[ir.InstrID]bool
	log   *zap.Logger
}

// New 为函数构造区间分析；info 为空时不使用 assume 事实
func New(f *ir.Func, info *dom.Info, log *zap.Logger) *Analysis {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analysis{
		fn:    f,
		info:  info,
		cache: make(map[ir.InstrID]Range),
		busy:  make(map[ir.InstrID]bool),
		log:   log,
	}
	if info != nil {
		a.collectFacts()
	}
	return a
}

// Invalidate 清空缓存，函数被修改后调用
func (a *Analysis) Invalidate() {
	a.cache = make(map[ir.InstrID]Range)
	a.busy = make(map[ir.InstrID]bool)
	a.facts = a.facts[:0]
	if a.info != nil {
		a.collectFacts()
	}
}

// RangeAt 整数值 v 在指令 ctx 处的区间
func (a *Analysis) RangeAt(v ir.Value, ctx ir.InstrID) Range {
	t := a.fn.TypeOf(v)
	if !t.IsInt() {
		return Full(64)
	}
	r := a.base(v, t.Bits)
	if ctx == ir.NoInstr {
		return r
	}
	for _, fc := range a.facts {
		if !fc.v.SameAs(v) || fc.r.Bits != r.Bits {
			continue
		}
		if !a.info.InstrDominates(fc.at, ctx) {
			continue
		}
		if nr, ok := r.Intersect(fc.r); ok {
			r = nr
		}
	}
	return r
}

// Range 指令结果在其自身位置的区间
func (a *Analysis) Range(id ir.InstrID) Range {
	return a.RangeAt(ir.InstrValue(id), id)
}

func (a *Analysis) base(v ir.Value, bits int) Range {
	switch v.Kind {
	case ir.ValueConst:
		if c, ok := v.IntConst(); ok {
			if bits == 1 && c != 0 {
				return Const(1, -1)
			}
			return Const(bits, c)
		}
		return Full(bits)
	case ir.ValueInstr:
		return a.instrRange(v.InstrID(), bits)
	}
	return Full(bits)
}

func (a *Analysis) instrRange(id ir.InstrID, bits int) Range {
	if r, ok := a.cache[id]; ok {
		return r
	}
	if a.busy[id] {
		return Full(bits)
	}
	a.busy[id] = true
	r := a.compute(a.fn.Instr(id), bits)
	delete(a.busy, id)
	a.cache[id] = r
	return r
}

func (a *Analysis) compute(in *ir.Instr, bits int) Range {
	if bits > maxBits || in.Type.Kind != ir.TypeInt {
		return Full(bits)
	}
	op := func(i int) Range { return a.RangeAt(in.Operands[i], in.ID) }

	switch in.Op {
	case ir.OpAdd:
		return op(0).Add(op(1))
	case ir.OpSub:
		return op(0).Sub(op(1))
	case ir.OpMul:
		return op(0).Mul(op(1))
	case ir.OpSDiv:
		return op(0).SDiv(op(1))
	case ir.OpUDiv:
		return op(0).UDiv(op(1))
	case ir.OpSRem:
		return op(0).SRem(op(1))
	case ir.OpURem:
		return op(0).URem(op(1))
	case ir.OpAnd:
		return op(0).And(op(1))
	case ir.OpOr, ir.OpXor:
		return op(0).Or(op(1))
	case ir.OpShl:
		return op(0).Shl(op(1))
	case ir.OpAShr:
		return op(0).AShr(op(1))
	case ir.OpLShr:
		return op(0).LShr(op(1))
	case ir.OpTrunc:
		return op(0).Trunc(bits)
	case ir.OpSExt:
		return op(0).SExt(bits)
	case ir.OpZExt:
		return op(0).ZExt(bits)
	case ir.OpSelect:
		return op(1).Union(op(2))
	case ir.OpPhi:
		return a.phiRange(in, bits)
	}
	return Full(bits)
}

// phiRange 各来源值在来源块末尾的区间之并
func (a *Analysis) phiRange(in *ir.Instr, bits int) Range {
	var r Range
	for i, v := range in.Operands {
		ctx := ir.NoInstr
		if term := a.fn.Terminator(in.Targets[i]); term != nil {
			ctx = term.ID
		}
		vr := a.RangeAt(v, ctx)
		if vr.IsFull() {
			return Full(bits)
		}
		if i == 0 {
			r = vr
		} else {
			r = r.Union(vr)
		}
	}
	if len(in.Operands) == 0 {
		return Full(bits)
	}
	return r
}

// ============================================================================
// assume 事实
// ============================================================================

// collectFacts 收集 `call @llvm.assume(icmp pred x, C)` 给出的区间
func (a *Analysis) collectFacts() {
	f := a.fn
	f.ForEachInstr(func(in *ir.Instr) {
		if in.Op != ir.OpCall || in.Callee != AssumeCallee || len(in.Operands) != 1 {
			return
		}
		cond := in.Operands[0]
		if !cond.IsInstr() {
			return
		}
		cmp := f.Instr(cond.InstrID())
		if cmp.Op != ir.OpICmp {
			return
		}
		x, c, pred, ok := normalizeCompare(cmp)
		if !ok {
			return
		}
		t := f.TypeOf(x)
		if !t.IsInt() || t.Bits > maxBits {
			return
		}
		r, ok := factRange(pred, c, t.Bits)
		if !ok {
			return
		}
		a.facts = append(a.facts, fact{at: in.ID, v: x, r: r})
		a.log.Debug("assume fact",
			zap.String("func", f.Name),
			zap.String("value", f.ValueName(x)),
			zap.Stringer("range", r),
		)
	})
}

// normalizeCompare 把比较整理成 `x pred C` 的形式
func normalizeCompare(cmp *ir.Instr) (ir.Value, int64, ir.Pred, bool) {
	l, r := cmp.Operands[0], cmp.Operands[1]
	if c, ok := r.IntConst(); ok && !l.IsConst() {
		return l, c, cmp.Pred, true
	}
	if c, ok := l.IntConst(); ok && !r.IsConst() {
		return r, c, swapPred(cmp.Pred), true
	}
	return ir.Value{}, 0, "", false
}

func swapPred(p ir.Pred) ir.Pred {
	switch p {
	case ir.PredSLT:
		return ir.PredSGT
	case ir.PredSLE:
		return ir.PredSGE
	case ir.PredSGT:
		return ir.PredSLT
	case ir.PredSGE:
		return ir.PredSLE
	case ir.PredULT:
		return ir.PredUGT
	case ir.PredULE:
		return ir.PredUGE
	case ir.PredUGT:
		return ir.PredULT
	case ir.PredUGE:
		return ir.PredULE
	}
	return p
}

// factRange `x pred c` 成立时 x 的区间
func factRange(pred ir.Pred, c int64, bits int) (Range, bool) {
	full := Full(bits)
	lo, hi := full.Lo, full.Hi
	switch pred {
	case ir.PredEQ:
		lo, hi = fromInt64(c), fromInt64(c)
	case ir.PredSGE:
		lo = fromInt64(c)
	case ir.PredSGT:
		if c == 1<<63-1 {
			return full, false
		}
		lo = fromInt64(c + 1)
	case ir.PredSLE:
		hi = fromInt64(c)
	case ir.PredSLT:
		if c == -1<<63 {
			return full, false
		}
		hi = fromInt64(c - 1)
	case ir.PredULE:
		if c < 0 {
			return full, false
		}
		lo, hi = fromInt64(0), fromInt64(c)
	case ir.PredULT:
		if c <= 0 {
			return full, false
		}
		lo, hi = fromInt64(0), fromInt64(c-1)
	default:
		return full, false
	}
	r := clamp(bits, lo, hi)
	return r, !r.IsFull()
}
