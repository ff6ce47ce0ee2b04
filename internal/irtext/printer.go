package irtext

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Fprint 以可被 Parse 读回的格式输出模块
func Fprint(w io.Writer, m *ir.Module) error {
	pr := &printer{w: w}
	for _, g := range m.Globals {
		pr.printf("global @%s : %s", g.Name, g.Type)
		if g.Const {
			pr.printf(" const")
		}
		pr.printf("\n")
	}
	for _, d := range m.Decls {
		parts := make([]string, len(d.Params))
		for i, t := range d.Params {
			parts[i] = t.String()
		}
		pr.printf("declare @%s(%s)", d.Name, strings.Join(parts, ", "))
		if !d.Ret.IsVoid() {
			pr.printf(" -> %s", d.Ret)
		}
		if d.ReadNone {
			pr.printf(" readnone")
		}
		if d.ReadOnly {
			pr.printf(" readonly")
		}
		pr.printf("\n")
	}
	for i, f := range m.Funcs {
		if i > 0 || len(m.Globals)+len(m.Decls) > 0 {
			pr.printf("\n")
		}
		pr.fn = f
		pr.printFunc()
	}
	return pr.err
}

// String 返回模块文本
func String(m *ir.Module) string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

// FuncString 返回单个函数的文本
func FuncString(f *ir.Func) string {
	var sb strings.Builder
	pr := &printer{w: &sb, fn: f}
	pr.printFunc()
	return sb.String()
}

// InstrString 返回单条指令的文本（不含缩进与换行）
func InstrString(f *ir.Func, id ir.InstrID) string {
	var sb strings.Builder
	pr := &printer{w: &sb, fn: f}
	pr.printInstr(f.Instr(id))
	return sb.String()
}

type printer struct {
	w   io.Writer
	fn  *ir.Func
	err error
}

func (pr *printer) printf(format string, args ...interface{}) {
	if pr.err != nil {
		return
	}
	_, pr.err = fmt.Fprintf(pr.w, format, args...)
}

func (pr *printer) printFunc() {
	f := pr.fn
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", f.ValueName(ir.ArgValue(i)), p.Type)
	}
	pr.printf("func @%s(%s)", f.Name, strings.Join(params, ", "))
	if !f.Ret.IsVoid() {
		pr.printf(" -> %s", f.Ret)
	}
	pr.printf(" {\n")
	for _, b := range f.Blocks {
		pr.printf("%s:\n", f.BlockName(b.ID))
		for _, id := range b.Instrs {
			pr.printf("  ")
			pr.printInstr(f.Instr(id))
			pr.printf("\n")
		}
	}
	pr.printf("}\n")
}

func (pr *printer) printInstr(in *ir.Instr) {
	f := pr.fn
	if in.HasResult() {
		pr.printf("%s = ", f.InstrName(in.ID))
	}
	pr.printf("%s", in.Op)
	if in.Volatile {
		pr.printf(" volatile")
	}
	if in.Checked {
		pr.printf(" checked")
	}
	if in.Ordering != ir.NotAtomic && (in.Op == ir.OpLoad || in.Op == ir.OpStore) {
		pr.printf(" atomic %s", in.Ordering)
	}

	ops := in.Operands
	switch op := in.Op; {
	case op == ir.OpFNeg:
		pr.printf(" %s %s", in.Type, pr.val(ops[0]))
	case op.IsBinary():
		pr.printf(" %s %s, %s", in.Type, pr.val(ops[0]), pr.val(ops[1]))
	case op.IsCast():
		pr.printf(" %s %s to %s", f.TypeOf(ops[0]), pr.val(ops[0]), in.Type)
	case op.IsCompare():
		pr.printf(" %s %s %s, %s", in.Pred, f.TypeOf(ops[0]), pr.val(ops[0]), pr.val(ops[1]))
	case op == ir.OpSelect:
		pr.printf(" %s %s, %s, %s", in.Type, pr.val(ops[0]), pr.val(ops[1]), pr.val(ops[2]))
	case op == ir.OpGEP:
		pr.printf(" %s, %s", in.ElemType, pr.val(ops[0]))
		for _, v := range ops[1:] {
			pr.printf(", %s", pr.typed(v))
		}
	case op == ir.OpExtractElement, op == ir.OpInsertElement:
		pr.printf(" %s %s", f.TypeOf(ops[0]), pr.vals(ops))
	case op == ir.OpShuffleVector:
		pr.printf(" %s %s, %s, %s", in.Type, pr.val(ops[0]), pr.val(ops[1]), pr.typed(ops[2]))
	case op == ir.OpExtractValue:
		pr.printf(" %s %s", f.TypeOf(ops[0]), pr.vals(ops))
	case op == ir.OpInsertValue:
		pr.printf(" %s %s, %s", in.Type, pr.val(ops[0]), pr.typed(ops[1]))
		for _, v := range ops[2:] {
			pr.printf(", %s", pr.val(v))
		}
	case op == ir.OpAlloca:
		pr.printf(" %s", in.ElemType)
		if len(ops) > 0 {
			pr.printf(", %s", pr.val(ops[0]))
		}
	case op == ir.OpLoad:
		pr.printf(" %s, %s", in.ElemType, pr.val(ops[0]))
	case op == ir.OpStore:
		pr.printf(" %s %s, %s", in.ElemType, pr.val(ops[0]), pr.val(ops[1]))
	case op == ir.OpAtomicRMW:
		pr.printf(" %s %s %s %s", in.RMW, in.Ordering, in.ElemType, pr.vals(ops))
	case op == ir.OpCmpXchg:
		pr.printf(" %s %s %s", in.Ordering, in.ElemType, pr.vals(ops))
	case op == ir.OpFence:
		pr.printf(" %s", in.Ordering)
	case op == ir.OpCall:
		pr.printf(" %s ", in.Type)
		if in.Callee != "" {
			pr.printf("@%s", in.Callee)
		} else {
			pr.printf("%s", pr.val(ops[0]))
		}
		args := make([]string, 0, len(in.CallArgs()))
		for _, a := range in.CallArgs() {
			args = append(args, pr.typed(a))
		}
		pr.printf("(%s)", strings.Join(args, ", "))
	case op == ir.OpPhi:
		pr.printf(" %s ", in.Type)
		for i, v := range ops {
			if i > 0 {
				pr.printf(", ")
			}
			pr.printf("[%s, %s]", pr.val(v), f.BlockName(in.Targets[i]))
		}
	case op == ir.OpBr:
		pr.printf(" %s", f.BlockName(in.Targets[0]))
	case op == ir.OpCondBr:
		pr.printf(" %s, %s, %s", pr.val(ops[0]), f.BlockName(in.Targets[0]), f.BlockName(in.Targets[1]))
	case op == ir.OpSwitch:
		pr.printf(" %s %s, %s [", f.TypeOf(ops[0]), pr.val(ops[0]), f.BlockName(in.Targets[0]))
		for i, c := range ops[1:] {
			if i > 0 {
				pr.printf(", ")
			}
			pr.printf("%s: %s", pr.val(c), f.BlockName(in.Targets[i+1]))
		}
		pr.printf("]")
	case op == ir.OpRet:
		if len(ops) > 0 {
			pr.printf(" %s %s", f.TypeOf(ops[0]), pr.val(ops[0]))
		}
	}

	pr.printMeta(in.Meta)
}

func (pr *printer) printMeta(m ir.AccessMeta) {
	if m.TBAA != "" {
		pr.printf(" !tbaa %s", strconv.Quote(m.TBAA))
	}
	if m.Scope != "" {
		pr.printf(" !scope %s", strconv.Quote(m.Scope))
	}
	if len(m.NoAlias) > 0 {
		pr.printf(" !noalias %s", strconv.Quote(strings.Join(m.NoAlias, ",")))
	}
	if m.Invariant {
		pr.printf(" !invariant")
	}
}

func (pr *printer) val(v ir.Value) string { return pr.fn.ValueName(v) }

func (pr *printer) vals(vs []ir.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = pr.val(v)
	}
	return strings.Join(parts, ", ")
}

// typed 输出带类型前缀的操作数
func (pr *printer) typed(v ir.Value) string {
	t := pr.fn.TypeOf(v)
	if t == nil {
		return pr.val(v)
	}
	return t.String() + " " + pr.val(v)
}
