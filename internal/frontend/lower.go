package frontend

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ssa"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// 只计算结果、不读写内存的运行时操作
var pureOps = map[string]bool{
	"go.len":             true,
	"go.cap":             true,
	"go.min":             true,
	"go.max":             true,
	"go.real":            true,
	"go.imag":            true,
	"go.complex":         true,
	"go.makeinterface":   true,
	"go.changeinterface": true,
	"go.binop":           true,
}

// fixup 操作数在定义出现之前就被使用，降低结束后回填
type fixup struct {
	instr   ir.InstrID
	operand int
	value   ssa.Value
}

// lowerer 单个函数的降低状态
type lowerer struct {
	mb     *moduleBuilder
	fn     *ssa.Function
	f      *ir.Func
	blocks []ir.BlockID
	values map[ssa.Value]ir.Value
	fixups []fixup
}

func newLowerer(mb *moduleBuilder, fn *ssa.Function) *lowerer {
	return &lowerer{mb: mb, fn: fn, values: make(map[ssa.Value]ir.Value)}
}

// lower 降低整个函数
func (l *lowerer) lower() (*ir.Func, error) {
	fn := l.fn
	var params []*ir.Param
	for _, p := range fn.Params {
		l.values[p] = ir.ArgValue(len(params))
		params = append(params, &ir.Param{Name: sanitize(p.Name()), Type: irType(p.Type())})
	}
	for _, fv := range fn.FreeVars {
		l.values[fv] = ir.ArgValue(len(params))
		params = append(params, &ir.Param{Name: sanitize(fv.Name()), Type: irType(fv.Type())})
	}

	l.f = ir.NewFunc(symbolName(fn, l.mb.pkg), params, irType(fn.Signature.Results()))
	l.f.File = l.mb.fset.Position(fn.Pos()).Filename

	l.blocks = make([]ir.BlockID, len(fn.Blocks))
	for _, b := range fn.Blocks {
		l.blocks[b.Index] = l.f.AddBlock(fmt.Sprintf("b%d", b.Index))
	}
	for _, b := range fn.Blocks {
		for _, ins := range b.Instrs {
			l.instr(b, ins)
		}
	}
	for _, fx := range l.fixups {
		v, ok := l.operand(fx.value)
		if !ok {
			return nil, l.mb.unsupported(fn.Pos(), "%s: value %s is never defined", fn, fx.value.Name())
		}
		l.f.Instr(fx.instr).Operands[fx.operand] = v
	}

	l.f.RebuildEdges()
	if err := l.f.Verify(); err != nil {
		return nil, l.mb.unsupported(fn.Pos(), "%s does not lower to a well-formed function: %v", fn, err)
	}
	l.mb.log.Debug("lowered function",
		zap.String("func", l.f.Name),
		zap.Int("blocks", len(l.f.Blocks)),
		zap.Int("instrs", len(l.f.Instrs)),
	)
	return l.f, nil
}

// ============================================================================
// 操作数
// ============================================================================

// operand 返回 v 对应的 IR 值；v 尚未降低时返回 false
func (l *lowerer) operand(v ssa.Value) (ir.Value, bool) {
	switch v := v.(type) {
	case *ssa.Const:
		return l.constant(v), true
	case *ssa.Global:
		return l.mb.global(sanitize(v.RelString(l.mb.pkg)), irType(elemOf(v.Type())), false), true
	case *ssa.Function:
		return l.mb.global(symbolName(v, l.mb.pkg), ir.Ptr, true), true
	case *ssa.Builtin:
		return l.mb.global("go.builtin."+v.Name(), ir.Ptr, true), true
	}
	x, ok := l.values[v]
	return x, ok
}

func (l *lowerer) constant(c *ssa.Const) ir.Value {
	t := irType(c.Type())
	if c.Value == nil {
		if t.IsInt() {
			return ir.ConstIntValue(t, 0)
		}
		if t == ir.Ptr {
			return ir.NullValue()
		}
		return ir.UndefValue(t)
	}
	switch c.Value.Kind() {
	case constant.Bool:
		if constant.BoolVal(c.Value) {
			return ir.ConstIntValue(ir.I1, 1)
		}
		return ir.ConstIntValue(ir.I1, 0)
	case constant.Int:
		if t.IsInt() {
			if v, ok := constant.Int64Val(c.Value); ok {
				return ir.ConstIntValue(t, v)
			}
			// 超出 int64 的无符号常量按补码保存
			v, _ := constant.Uint64Val(c.Value)
			return ir.ConstIntValue(t, int64(v))
		}
		if t.Kind == ir.TypeFloat {
			v, _ := constant.Float64Val(c.Value)
			return ir.ConstFloatValue(t, v)
		}
	case constant.Float:
		if t.Kind == ir.TypeFloat {
			v, _ := constant.Float64Val(c.Value)
			return ir.ConstFloatValue(t, v)
		}
	case constant.String:
		return ir.ConstStringValue(constant.StringVal(c.Value))
	}
	return ir.UndefValue(t)
}

// ============================================================================
// 指令生成
// ============================================================================

// add 把 in 追加到 b 对应的 IR 块，srcs 依次作为操作数接在已有操作数之后
func (l *lowerer) add(b *ssa.BasicBlock, in *ir.Instr, pos token.Pos, srcs ...ssa.Value) ir.InstrID {
	var late []fixup
	for _, v := range srcs {
		x, ok := l.operand(v)
		if !ok {
			late = append(late, fixup{operand: len(in.Operands), value: v})
			x = ir.UndefValue(irType(v.Type()))
		}
		in.Operands = append(in.Operands, x)
	}
	if pos.IsValid() {
		p := l.mb.fset.Position(pos)
		in.Pos = ir.Pos{Line: p.Line, Column: p.Column}
	}
	id := l.f.Append(l.blocks[b.Index], in)
	for _, fx := range late {
		fx.instr = id
		l.fixups = append(l.fixups, fx)
	}
	return id
}

// define 记录 SSA 值 v 由指令 id 定义
func (l *lowerer) define(v ssa.Value, id ir.InstrID) {
	if name := v.Name(); name != "" {
		l.f.Instr(id).Name = sanitize(name)
	}
	l.values[v] = ir.InstrValue(id)
}

// opaque 把 Go 操作降低为对 go.<name> 的调用
func (l *lowerer) opaque(b *ssa.BasicBlock, name string, ret *ir.Type, pos token.Pos, srcs ...ssa.Value) ir.InstrID {
	callee := "go." + name
	params := make([]*ir.Type, len(srcs))
	for i, v := range srcs {
		params[i] = irType(v.Type())
	}
	l.mb.callee(callee, params, ret, pureOps[callee])
	return l.add(b, &ir.Instr{Op: ir.OpCall, Type: ret, Callee: callee}, pos, srcs...)
}

func (l *lowerer) instr(b *ssa.BasicBlock, ins ssa.Instruction) {
	switch ins := ins.(type) {
	case *ssa.DebugRef:
		return
	case *ssa.Jump:
		l.add(b, &ir.Instr{Op: ir.OpBr, Targets: []ir.BlockID{l.blocks[b.Succs[0].Index]}}, token.NoPos)
	case *ssa.If:
		l.add(b, &ir.Instr{
			Op:      ir.OpCondBr,
			Targets: []ir.BlockID{l.blocks[b.Succs[0].Index], l.blocks[b.Succs[1].Index]},
		}, ins.Pos(), ins.Cond)
	case *ssa.Return:
		l.ret(b, ins)
	case *ssa.Panic:
		l.opaque(b, "panic", ir.Void, ins.Pos(), ins.X)
		l.add(b, &ir.Instr{Op: ir.OpUnreachable}, token.NoPos)
	case *ssa.Phi:
		in := &ir.Instr{Op: ir.OpPhi, Type: irType(ins.Type())}
		for _, p := range b.Preds {
			in.Targets = append(in.Targets, l.blocks[p.Index])
		}
		l.define(ins, l.add(b, in, ins.Pos(), ins.Edges...))
	case *ssa.BinOp:
		l.binOp(b, ins)
	case *ssa.UnOp:
		l.unOp(b, ins)
	case *ssa.Store:
		t := ins.Val.Type()
		l.add(b, &ir.Instr{
			Op:       ir.OpStore,
			ElemType: irType(t),
			Checked:  true,
			Meta:     ir.AccessMeta{TBAA: tbaaTag(t)},
		}, ins.Pos(), ins.Val, ins.Addr)
	case *ssa.Alloc:
		if ins.Heap {
			l.define(ins, l.opaque(b, "new", ir.Ptr, ins.Pos()))
			return
		}
		l.define(ins, l.add(b, &ir.Instr{Op: ir.OpAlloca, Type: ir.Ptr, ElemType: irType(elemOf(ins.Type()))}, ins.Pos()))
	case *ssa.FieldAddr:
		in := &ir.Instr{
			Op:       ir.OpGEP,
			Type:     ir.Ptr,
			ElemType: irType(elemOf(ins.X.Type())),
			Checked:  true,
		}
		id := l.add(b, in, ins.Pos(), ins.X)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I32, 0), ir.ConstIntValue(ir.I32, int64(ins.Field)))
		l.define(ins, id)
	case *ssa.IndexAddr:
		l.indexAddr(b, ins)
	case *ssa.Call:
		l.call(b, ins)
	case *ssa.Convert:
		l.convert(b, ins)
	case *ssa.ChangeType:
		t := irType(ins.Type())
		l.define(ins, l.add(b, &ir.Instr{Op: ir.OpBitcast, Type: t}, ins.Pos(), ins.X))
	case *ssa.Field:
		in := &ir.Instr{Op: ir.OpExtractValue, Type: irType(ins.Type())}
		id := l.add(b, in, ins.Pos(), ins.X)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I32, int64(ins.Field)))
		l.define(ins, id)
	case *ssa.Extract:
		in := &ir.Instr{Op: ir.OpExtractValue, Type: irType(ins.Type())}
		id := l.add(b, in, ins.Pos(), ins.Tuple)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I32, int64(ins.Index)))
		l.define(ins, id)
	case *ssa.RunDefers:
		l.opaque(b, "rundefers", ir.Void, ins.Pos())
	default:
		l.generic(b, ins)
	}
}

// generic 其余 Go 操作按种类降低为不透明调用
func (l *lowerer) generic(b *ssa.BasicBlock, ins ssa.Instruction) {
	kind := strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", ins), "*ssa."))
	var srcs []ssa.Value
	for _, op := range ins.Operands(nil) {
		if op != nil && *op != nil {
			srcs = append(srcs, *op)
		}
	}
	v, isValue := ins.(ssa.Value)
	if !isValue {
		l.opaque(b, kind, ir.Void, ins.Pos(), srcs...)
		return
	}
	l.define(v, l.opaque(b, kind, irType(v.Type()), ins.Pos(), srcs...))
}

// ret 多个返回值打包成结构体
func (l *lowerer) ret(b *ssa.BasicBlock, ins *ssa.Return) {
	switch len(ins.Results) {
	case 0:
		l.add(b, &ir.Instr{Op: ir.OpRet}, ins.Pos())
		return
	case 1:
		l.add(b, &ir.Instr{Op: ir.OpRet}, ins.Pos(), ins.Results[0])
		return
	}
	agg := ir.UndefValue(l.f.Ret)
	for i, r := range ins.Results {
		in := &ir.Instr{Op: ir.OpInsertValue, Type: l.f.Ret, Operands: []ir.Value{agg}}
		id := l.add(b, in, ins.Pos(), r)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I32, int64(i)))
		agg = ir.InstrValue(id)
	}
	l.add(b, &ir.Instr{Op: ir.OpRet, Operands: []ir.Value{agg}}, ins.Pos())
}

func (l *lowerer) indexAddr(b *ssa.BasicBlock, ins *ssa.IndexAddr) {
	in := &ir.Instr{Op: ir.OpGEP, Type: ir.Ptr, Checked: true}
	xt := ins.X.Type().Underlying()
	if p, ok := xt.(*types.Pointer); ok {
		// *[N]T：先越过指针再取元素
		in.ElemType = irType(p.Elem())
		id := l.add(b, in, ins.Pos(), ins.X)
		in.Operands = append(in.Operands, ir.ConstIntValue(ir.I64, 0))
		l.addIndex(in, id, ins.Index)
		l.define(ins, id)
		return
	}
	in.ElemType = irType(elemOf(ins.Type()))
	id := l.add(b, in, ins.Pos(), ins.X)
	l.addIndex(in, id, ins.Index)
	l.define(ins, id)
}

// addIndex 给已生成的指令追加一个下标操作数
func (l *lowerer) addIndex(in *ir.Instr, id ir.InstrID, idx ssa.Value) {
	x, ok := l.operand(idx)
	if !ok {
		l.fixups = append(l.fixups, fixup{instr: id, operand: len(in.Operands), value: idx})
		x = ir.UndefValue(irType(idx.Type()))
	}
	in.Operands = append(in.Operands, x)
}

// ============================================================================
// 运算
// ============================================================================

var intBinOps = map[token.Token][2]ir.Op{
	// {有符号, 无符号}
	token.ADD: {ir.OpAdd, ir.OpAdd},
	token.SUB: {ir.OpSub, ir.OpSub},
	token.MUL: {ir.OpMul, ir.OpMul},
	token.QUO: {ir.OpSDiv, ir.OpUDiv},
	token.REM: {ir.OpSRem, ir.OpURem},
	token.AND: {ir.OpAnd, ir.OpAnd},
	token.OR:  {ir.OpOr, ir.OpOr},
	token.XOR: {ir.OpXor, ir.OpXor},
	token.SHL: {ir.OpShl, ir.OpShl},
	token.SHR: {ir.OpAShr, ir.OpLShr},
}

var floatBinOps = map[token.Token]ir.Op{
	token.ADD: ir.OpFAdd,
	token.SUB: ir.OpFSub,
	token.MUL: ir.OpFMul,
	token.QUO: ir.OpFDiv,
}

var intPreds = map[token.Token][2]ir.Pred{
	token.EQL: {ir.PredEQ, ir.PredEQ},
	token.NEQ: {ir.PredNE, ir.PredNE},
	token.LSS: {ir.PredSLT, ir.PredULT},
	token.LEQ: {ir.PredSLE, ir.PredULE},
	token.GTR: {ir.PredSGT, ir.PredUGT},
	token.GEQ: {ir.PredSGE, ir.PredUGE},
}

var floatPreds = map[token.Token]ir.Pred{
	token.EQL: "oeq",
	token.NEQ: "une",
	token.LSS: "olt",
	token.LEQ: "ole",
	token.GTR: "ogt",
	token.GEQ: "oge",
}

func (l *lowerer) binOp(b *ssa.BasicBlock, ins *ssa.BinOp) {
	xt := ins.X.Type()
	sign := 0
	if isUnsigned(xt) {
		sign = 1
	}

	if pred, ok := intPreds[ins.Op]; ok && isScalar(xt) {
		if isFloat(xt) {
			l.define(ins, l.add(b, &ir.Instr{Op: ir.OpFCmp, Type: ir.I1, Pred: floatPreds[ins.Op]}, ins.Pos(), ins.X, ins.Y))
			return
		}
		if !isInteger(xt) && ins.Op != token.EQL && ins.Op != token.NEQ {
			l.define(ins, l.opaque(b, "binop", ir.I1, ins.Pos(), ins.X, ins.Y))
			return
		}
		l.define(ins, l.add(b, &ir.Instr{Op: ir.OpICmp, Type: ir.I1, Pred: pred[sign]}, ins.Pos(), ins.X, ins.Y))
		return
	}

	t := irType(ins.Type())
	switch {
	case isInteger(xt) && ins.Op == token.AND_NOT:
		not := l.add(b, &ir.Instr{Op: ir.OpXor, Type: t}, ins.Pos(), ins.Y)
		l.f.Instr(not).Operands = append(l.f.Instr(not).Operands, ir.ConstIntValue(t, -1))
		in := &ir.Instr{Op: ir.OpAnd, Type: t}
		id := l.add(b, in, ins.Pos(), ins.X)
		in.Operands = append(in.Operands, ir.InstrValue(not))
		l.define(ins, id)
		return
	case isInteger(xt) || isBoolean(xt) && (ins.Op == token.AND || ins.Op == token.OR || ins.Op == token.XOR):
		ops, ok := intBinOps[ins.Op]
		if !ok {
			break
		}
		in := &ir.Instr{Op: ops[sign], Type: t}
		in.Checked = ins.Op == token.QUO || ins.Op == token.REM
		if ins.Op == token.SHL || ins.Op == token.SHR {
			l.define(ins, l.shift(b, in, ins))
			return
		}
		l.define(ins, l.add(b, in, ins.Pos(), ins.X, ins.Y))
		return
	case isFloat(xt):
		if op, ok := floatBinOps[ins.Op]; ok {
			l.define(ins, l.add(b, &ir.Instr{Op: op, Type: t}, ins.Pos(), ins.X, ins.Y))
			return
		}
	}
	l.define(ins, l.opaque(b, "binop", t, ins.Pos(), ins.X, ins.Y))
}

// shift 移位量的类型可能与被移位数不同，先调整到相同位宽
func (l *lowerer) shift(b *ssa.BasicBlock, in *ir.Instr, ins *ssa.BinOp) ir.InstrID {
	t := in.Type
	if c, ok := ins.Y.(*ssa.Const); ok {
		n, _ := constant.Uint64Val(constant.ToInt(c.Value))
		id := l.add(b, in, ins.Pos(), ins.X)
		in.Operands = append(in.Operands, ir.ConstIntValue(t, int64(n)))
		return id
	}
	yt := irType(ins.Y.Type())
	if yt.Bits == t.Bits {
		return l.add(b, in, ins.Pos(), ins.X, ins.Y)
	}
	op := ir.OpZExt
	if yt.Bits > t.Bits {
		op = ir.OpTrunc
	}
	amt := l.add(b, &ir.Instr{Op: op, Type: t}, ins.Pos(), ins.Y)
	id := l.add(b, in, ins.Pos(), ins.X)
	in.Operands = append(in.Operands, ir.InstrValue(amt))
	return id
}

func (l *lowerer) unOp(b *ssa.BasicBlock, ins *ssa.UnOp) {
	t := irType(ins.Type())
	switch ins.Op {
	case token.MUL:
		l.define(ins, l.add(b, &ir.Instr{
			Op:       ir.OpLoad,
			Type:     t,
			ElemType: t,
			Checked:  true,
			Meta:     ir.AccessMeta{TBAA: tbaaTag(ins.Type())},
		}, ins.Pos(), ins.X))
		return
	case token.SUB:
		if isFloat(ins.X.Type()) {
			l.define(ins, l.add(b, &ir.Instr{Op: ir.OpFNeg, Type: t}, ins.Pos(), ins.X))
			return
		}
		if isInteger(ins.X.Type()) {
			in := &ir.Instr{Op: ir.OpSub, Type: t, Operands: []ir.Value{ir.ConstIntValue(t, 0)}}
			l.define(ins, l.add(b, in, ins.Pos(), ins.X))
			return
		}
	case token.XOR, token.NOT:
		if t.IsInt() {
			mask := int64(-1)
			if ins.Op == token.NOT {
				mask = 1
			}
			in := &ir.Instr{Op: ir.OpXor, Type: t}
			id := l.add(b, in, ins.Pos(), ins.X)
			in.Operands = append(in.Operands, ir.ConstIntValue(t, mask))
			l.define(ins, id)
			return
		}
	case token.ARROW:
		l.define(ins, l.opaque(b, "recv", t, ins.Pos(), ins.X))
		return
	}
	l.define(ins, l.opaque(b, "unop", t, ins.Pos(), ins.X))
}

// ============================================================================
// 调用与转换
// ============================================================================

func (l *lowerer) call(b *ssa.BasicBlock, ins *ssa.Call) {
	c := ins.Common()
	ret := irType(ins.Type())
	var id ir.InstrID

	switch callee := c.Value.(type) {
	case *ssa.Builtin:
		id = l.opaque(b, callee.Name(), ret, ins.Pos(), c.Args...)
	default:
		if c.IsInvoke() {
			srcs := append([]ssa.Value{c.Value}, c.Args...)
			id = l.opaque(b, "invoke."+sanitize(c.Method.Name()), ret, ins.Pos(), srcs...)
			break
		}
		if fn, ok := c.Value.(*ssa.Function); ok {
			name := symbolName(fn, l.mb.pkg)
			params := make([]*ir.Type, len(c.Args))
			for i, a := range c.Args {
				params[i] = irType(a.Type())
			}
			l.mb.callee(name, params, ret, false)
			id = l.add(b, &ir.Instr{Op: ir.OpCall, Type: ret, Callee: name}, ins.Pos(), c.Args...)
			break
		}
		// 闭包或函数值：间接调用
		srcs := append([]ssa.Value{c.Value}, c.Args...)
		id = l.add(b, &ir.Instr{Op: ir.OpCall, Type: ret}, ins.Pos(), srcs...)
	}
	if !ret.IsVoid() {
		l.define(ins, id)
	}
}

func (l *lowerer) convert(b *ssa.BasicBlock, ins *ssa.Convert) {
	from, to := ins.X.Type(), ins.Type()
	ft, tt := irType(from), irType(to)
	var op ir.Op
	switch {
	case isInteger(from) && isInteger(to):
		switch {
		case ft.Bits == tt.Bits:
			op = ir.OpBitcast
		case ft.Bits > tt.Bits:
			op = ir.OpTrunc
		case isUnsigned(from):
			op = ir.OpZExt
		default:
			op = ir.OpSExt
		}
	case isInteger(from) && isFloat(to):
		op = ir.OpSIToFP
		if isUnsigned(from) {
			op = ir.OpUIToFP
		}
	case isFloat(from) && isInteger(to):
		op = ir.OpFPToSI
		if isUnsigned(to) {
			op = ir.OpFPToUI
		}
	case isFloat(from) && isFloat(to):
		switch {
		case ft.Bits == tt.Bits:
			op = ir.OpBitcast
		case ft.Bits > tt.Bits:
			op = ir.OpFPTrunc
		default:
			op = ir.OpFPExt
		}
	case isPointer(from) && isPointer(to):
		op = ir.OpBitcast
	case isPointer(from) && isInteger(to):
		op = ir.OpPtrToInt
	case isInteger(from) && isPointer(to):
		op = ir.OpIntToPtr
	default:
		l.define(ins, l.opaque(b, "convert", tt, ins.Pos(), ins.X))
		return
	}
	l.define(ins, l.add(b, &ir.Instr{Op: op, Type: tt}, ins.Pos(), ins.X))
}
