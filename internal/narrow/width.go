package narrow

import (
	"fmt"
	"io"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/analysis/vrange"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

// Width 一条整数指令的区间与最小位宽
type Width struct {
	Instr ir.InstrID
	Range vrange.Range
	Min   int
}

// Widths 按程序顺序返回函数中每条整数指令的最小位宽
func Widths(f *ir.Func) []Width {
	va := vrange.New(f, dom.Compute(f), nil)
	var out []Width
	f.ForEachInstr(func(in *ir.Instr) {
		if !in.Type.IsInt() {
			return
		}
		r := va.Range(in.ID)
		out = append(out, Width{Instr: in.ID, Range: r, Min: r.MinWidth()})
	})
	return out
}

// PrintWidths 逐块输出 `iN  [lo, hi]  = 指令`
func PrintWidths(w io.Writer, f *ir.Func) error {
	byBlock := make(map[ir.BlockID][]Width)
	for _, wd := range Widths(f) {
		b := f.Instr(wd.Instr).Block
		byBlock[b] = append(byBlock[b], wd)
	}
	for _, b := range f.Blocks {
		if _, err := fmt.Fprintf(w, "In %s\n", f.BlockName(b.ID)); err != nil {
			return err
		}
		for _, wd := range byBlock[b.ID] {
			if _, err := fmt.Fprintf(w, "i%d\t%s\t= %s\n", wd.Min, wd.Range, irtext.InstrString(f, wd.Instr)); err != nil {
				return err
			}
		}
	}
	return nil
}
