package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/irtext"
)

// chainColors 非平凡链的填充色，按链下标循环使用
var chainColors = []string{
	"lightblue", "palegreen", "lightsalmon", "khaki", "plum", "lightcyan", "wheat",
}

// maxInstrShown 每个块最多显示的指令数
const maxInstrShown = 20

// WriteDot 以 Graphviz DOT 输出函数的控制流图
//
// 同一条链上的块使用相同的填充色，链内相邻块之间的边加粗，
// 候选指令以 * 标出。r 为 nil 时只输出控制流图。
func WriteDot(w io.Writer, f *ir.Func, r *codemotion.Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", f.Name)
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, fontname=\"Courier\"];\n")

	candidate := make(map[ir.InstrID]bool)
	linked := make(map[[2]ir.BlockID]bool)
	if r != nil {
		for _, rec := range r.Records {
			for _, c := range rec.Candidates {
				candidate[c.Instr] = true
			}
		}
		for _, c := range r.Chains {
			for i := 1; i < c.Len(); i++ {
				linked[[2]ir.BlockID{c.Blocks[i-1], c.Blocks[i]}] = true
			}
		}
	}

	for _, b := range f.Blocks {
		label := f.BlockName(b.ID) + ":\\l"
		for i, id := range b.Instrs {
			if i >= maxInstrShown {
				label += "...\\l"
				break
			}
			mark := "  "
			if candidate[id] {
				mark = "* "
			}
			label += mark + dotEscape(irtext.InstrString(f, id)) + "\\l"
		}

		attrs := fmt.Sprintf("label=\"%s\"", label)
		if r != nil {
			if ci := r.ChainOf(b.ID); ci >= 0 {
				attrs += fmt.Sprintf(", style=filled, fillcolor=%s", chainColors[ci%len(chainColors)])
			}
		}
		fmt.Fprintf(&sb, "  b%d [%s];\n", b.ID, attrs)

		for _, s := range b.Succs {
			if linked[[2]ir.BlockID{b.ID, s}] {
				fmt.Fprintf(&sb, "  b%d -> b%d [penwidth=3];\n", b.ID, s)
			} else {
				fmt.Fprintf(&sb, "  b%d -> b%d;\n", b.ID, s)
			}
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// dotEscape 转义 DOT 字符串中的特殊字符
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
