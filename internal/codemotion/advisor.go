package codemotion

import (
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/alias"
	"github.com/taylorlloyd/llvmMRIS/internal/analysis/dom"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Advisor 代码移动建议器
type Advisor struct {
	log *zap.Logger

	// CheckMutation 运行前后比较函数摘要，发现修改时 panic
	CheckMutation bool
}

// NewAdvisor 创建建议器
func NewAdvisor(log *zap.Logger) *Advisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Advisor{log: log, CheckMutation: true}
}

// Run 分析函数，返回报告以及是否给出了建议
func (a *Advisor) Run(f *ir.Func) (*Report, bool) {
	var before ir.Snapshot
	if a.CheckMutation {
		before = ir.Digest(f)
	}

	info := dom.Compute(f)
	oracle := alias.New(f, a.log)
	r := Analyze(f, f, info, oracle, a.log)

	if a.CheckMutation {
		if after := ir.Digest(f); after != before {
			f.Fatalf("code motion analysis modified the function (%s -> %s)", before, after)
		}
	}
	return r, r.Advised()
}

// Analyze 用给定的图、支配与别名查询生成报告
//
// 对每条非平凡链从尾到头处理各链接：src 为后一块，dst 为前一块，
// 作用域只覆盖该链接的中间块。没有候选的链接不产生记录。
func Analyze(f *ir.Func, g Graph, d DomOracle, oracle AliasOracle, log *zap.Logger) *Report {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("func", f.Name))

	r := &Report{Func: f}
	if g.NumBlocks() == 0 {
		return r
	}
	r.Chains = NonTrivial(BuildChains(g, d, f.Entry, log))

	for ci := range r.Chains {
		c := &r.Chains[ci]
		for i := c.Len() - 1; i > 0; i-- {
			src, dst := c.Blocks[i], c.Blocks[i-1]
			between := c.Between[i-1]
			scope := NewScope(oracle, between)

			cands := Collect(f, d, src, dst, scope, log)
			if cands.Len() == 0 {
				continue
			}
			log.Debug("link has candidates",
				zap.String("src", f.BlockName(src)),
				zap.String("dst", f.BlockName(dst)),
				zap.Int("count", cands.Len()),
			)
			r.Records = append(r.Records, Record{
				Src:        src,
				Dst:        dst,
				Between:    between,
				Candidates: cands.Items,
			})
		}
	}
	return r
}
