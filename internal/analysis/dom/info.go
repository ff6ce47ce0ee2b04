package dom

import "github.com/taylorlloyd/llvmMRIS/internal/ir"

// Info 函数的支配与后支配信息，一次计算后只读
type Info struct {
	fn   *ir.Func
	Dom  *Tree
	PDom *Tree
}

// Compute 为函数计算支配与后支配树
func Compute(f *ir.Func) *Info {
	return &Info{
		fn:   f,
		Dom:  Dominators(f, f.Entry),
		PDom: PostDominators(f),
	}
}

// Dominates a 是否支配 b
func (i *Info) Dominates(a, b ir.BlockID) bool { return i.Dom.Dominates(a, b) }

// PostDominates a 是否后支配 b
func (i *Info) PostDominates(a, b ir.BlockID) bool { return i.PDom.Dominates(a, b) }

// InstrDominates 指令 a 是否支配指令 b：同块时按位置比较
func (i *Info) InstrDominates(a, b ir.InstrID) bool {
	ia, ib := i.fn.Instr(a), i.fn.Instr(b)
	if ia.Erased() || ib.Erased() {
		return false
	}
	if ia.Block != ib.Block {
		return i.Dom.StrictlyDominates(ia.Block, ib.Block)
	}
	return i.fn.IndexOf(a) < i.fn.IndexOf(b)
}
