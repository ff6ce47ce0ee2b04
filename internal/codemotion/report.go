package codemotion

import (
	"strings"

	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Record 一个链接上的移动建议
type Record struct {
	Src        ir.BlockID // 指令当前所在的块
	Dst        ir.BlockID // 可以移入的块
	Between    []ir.BlockID
	Candidates []Candidate
}

// Report 一次分析的结果
type Report struct {
	Func    *ir.Func
	Chains  []Chain // 非平凡链
	Records []Record
}

// Advised 是否给出了至少一条建议
func (r *Report) Advised() bool { return len(r.Records) > 0 }

// NumCandidates 所有记录中的候选总数
func (r *Report) NumCandidates() int {
	n := 0
	for _, rec := range r.Records {
		n += len(rec.Candidates)
	}
	return n
}

// ChainOf 返回包含块 b 的链下标，不属于任何非平凡链时返回 -1
func (r *Report) ChainOf(b ir.BlockID) int {
	for i := range r.Chains {
		if r.Chains[i].Contains(b) {
			return i
		}
	}
	return -1
}

// BlockList 块名列表，以空格分隔
func BlockList(f *ir.Func, blocks []ir.BlockID) string {
	names := make([]string, len(blocks))
	for i, b := range blocks {
		names[i] = f.BlockName(b)
	}
	return strings.Join(names, " ")
}
