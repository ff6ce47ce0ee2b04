// Package narrow 依据值区间收窄整数运算的位宽
//
// 结果区间能放进更窄有符号整数的二元运算、select、phi（以及操作数都能收窄的
// icmp）被改写成窄位宽版本，再符号扩展回原类型供原有使用者使用。
// 改写完成后删除不再被使用的类型转换。
package narrow

import (
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/analysis/vrange"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// DefaultWidths 依次尝试的目标位宽
var DefaultWidths = []int{16, 32}

// Narrower 位宽收窄改写器
type Narrower struct {
	widths []int
	log    *zap.Logger

	fn *ir.Func
	vr *vrange.Analysis
}

// New 创建改写器；widths 为空时使用 DefaultWidths
func New(widths []int, log *zap.Logger) *Narrower {
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Narrower{widths: widths, log: log}
}

// Run 改写函数，返回是否有修改
func (n *Narrower) Run(f *ir.Func) bool {
	n.fn = f
	n.vr = vrange.New(f, dom.Compute(f), n.log)
	defer func() { n.fn, n.vr = nil, nil }()

	changed := false
	for n.step() {
		changed = true
		n.vr.Invalidate()
	}
	if changed {
		n.removeDeadCasts()
	}
	return changed
}

// step 找到第一条可以收窄的指令并改写它
func (n *Narrower) step() bool {
	f := n.fn
	for _, b := range f.Blocks {
		for _, id := range b.Instrs {
			in := f.Instr(id)
			for _, w := range n.widths {
				if n.canConvert(w, ir.InstrValue(id), id) {
					n.convert(in, w)
					return true
				}
			}
		}
	}
	return false
}

// ============================================================================
// 判定
// ============================================================================

// canConvert 值 v 能否在 ctx 处改写为 w 位
func (n *Narrower) canConvert(w int, v ir.Value, ctx ir.InstrID) bool {
	f := n.fn
	if !v.IsInstr() {
		return false
	}
	in := f.Instr(v.InstrID())

	if in.Op == ir.OpICmp {
		// 比较本身不产生整数，但操作数可以换成窄版本
		for _, op := range in.Operands {
			if !n.canConvert(w, op, in.ID) {
				return false
			}
		}
		return true
	}

	if !in.Type.IsInt() || in.Type.Bits <= w {
		return false
	}
	if !n.vr.RangeAt(v, ctx).FitsIn(w) {
		return false
	}

	switch op := in.Op; {
	case op == ir.OpSelect, op == ir.OpPhi:
		return true
	case op == ir.OpAdd, op == ir.OpSub, op == ir.OpMul,
		op == ir.OpAnd, op == ir.OpOr, op == ir.OpXor:
		// 结果的低 w 位只依赖操作数的低 w 位
		return true
	case op == ir.OpShl:
		c, ok := in.Operands[1].IntConst()
		return ok && c >= 0 && c < int64(w)
	case op == ir.OpSDiv, op == ir.OpSRem, op == ir.OpAShr:
		return n.operandsFit(in, w, false)
	case op == ir.OpUDiv, op == ir.OpURem, op == ir.OpLShr:
		return n.operandsFit(in, w, true)
	}
	return false
}

// operandsFit 所有操作数都能放进 w 位（nonneg 时还要求非负）
func (n *Narrower) operandsFit(in *ir.Instr, w int, nonneg bool) bool {
	for _, op := range in.Operands {
		r := n.vr.RangeAt(op, in.ID)
		if !r.FitsIn(w) || nonneg && !r.NonNegative() {
			return false
		}
	}
	return true
}

// ============================================================================
// 改写
// ============================================================================

// convert 生成 in 的 w 位版本，并让原有使用者改用其符号扩展
func (n *Narrower) convert(in *ir.Instr, w int) {
	f := n.fn
	target := ir.IntType(w)
	name := in.Name
	before := f.InstrName(in.ID)

	repl := &ir.Instr{
		Op:      in.Op,
		Type:    target,
		Pred:    in.Pred,
		Targets: append([]ir.BlockID(nil), in.Targets...),
		Pos:     in.Pos,
	}
	switch {
	case in.Op == ir.OpICmp:
		repl.Type = ir.I1
		repl.Operands = []ir.Value{n.convertSize(in.Operands[0], target), n.convertSize(in.Operands[1], target)}
	case in.Op == ir.OpSelect:
		repl.Operands = []ir.Value{in.Operands[0], n.convertSize(in.Operands[1], target), n.convertSize(in.Operands[2], target)}
	default:
		for _, op := range in.Operands {
			repl.Operands = append(repl.Operands, n.convertSize(op, target))
		}
	}

	id := f.InsertBefore(in.ID, repl)
	likeOld := n.convertSize(ir.InstrValue(id), in.Type)
	f.ReplaceAllUses(in.ID, likeOld)
	f.Erase(in.ID)
	repl.Name = name

	n.log.Debug("narrowed instruction",
		zap.String("func", f.Name),
		zap.String("instr", before),
		zap.Int("width", w),
	)
}

// convertSize 返回与 v 相等、类型为 target 的值，必要时插入转换
func (n *Narrower) convertSize(v ir.Value, target *ir.Type) ir.Value {
	f := n.fn
	t := f.TypeOf(v)
	if !t.IsInt() {
		f.Fatalf("cannot resize non-integer value %s", f.ValueName(v))
	}
	if t.Bits == target.Bits {
		return v
	}

	if v.IsInstr() {
		if cast := f.Instr(v.InstrID()); cast.Op.IsCast() {
			src := cast.Operands[0]
			st := f.TypeOf(src)
			if st.IsInt() && st.Bits == target.Bits {
				return src
			}
			// 截断与符号扩展的来源可以直接代替它
			if st.IsInt() && (cast.Op == ir.OpSExt || cast.Op == ir.OpTrunc) {
				v, t = src, st
			}
		}
	}

	if c, ok := v.IntConst(); ok {
		return ir.ConstIntValue(target, signExtend(c, target.Bits))
	}

	op := ir.OpSExt
	if t.Bits > target.Bits {
		op = ir.OpTrunc
	}
	cast := &ir.Instr{Op: op, Type: target, Operands: []ir.Value{v}}

	switch v.Kind {
	case ir.ValueInstr:
		def := f.Instr(v.InstrID())
		cast.Pos = def.Pos
		if def.Op == ir.OpPhi {
			// phi 之前不能出现非 phi 指令
			return ir.InstrValue(f.InsertAt(def.Block, f.FirstNonPhi(def.Block), cast))
		}
		return ir.InstrValue(f.InsertAfter(def.ID, cast))
	case ir.ValueArg:
		return ir.InstrValue(f.InsertAt(f.Entry, f.FirstNonPhi(f.Entry), cast))
	}
	f.Fatalf("cannot resize value %s", f.ValueName(v))
	return ir.Value{}
}

// signExtend 取 c 的低 bits 位并符号扩展
func signExtend(c int64, bits int) int64 {
	if bits >= 64 {
		return c
	}
	shift := uint(64 - bits)
	return c << shift >> shift
}

// removeDeadCasts 删除没有使用者的整数转换，直到不再有可删的
func (n *Narrower) removeDeadCasts() {
	f := n.fn
	for {
		users := f.UserMap()
		removed := false
		for _, in := range f.Instrs {
			if in.Erased() || len(users[in.ID]) > 0 {
				continue
			}
			switch in.Op {
			case ir.OpTrunc, ir.OpSExt, ir.OpZExt:
				n.log.Debug("removing dead cast", zap.String("instr", f.InstrName(in.ID)))
				f.Erase(in.ID)
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}
