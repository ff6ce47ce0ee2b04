package pass

import (
	"strings"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/assume"
	"github.com/taylorlloyd/llvmMRIS/internal/cleanup"
	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
	"github.com/taylorlloyd/llvmMRIS/internal/liveness"
	"github.com/taylorlloyd/llvmMRIS/internal/narrow"
)

// 内置 pass 名称
const (
	MinReg    = "minreg"
	PLive     = "plive"
	XLCleanup = "xlcleanup"
	NVAssume  = "nvassume"
	RedWidth  = "redwidth"
	PWidth    = "pwidth"
)

func init() {
	Register(MinReg, func(opts Options) (Pass, error) {
		return &minRegPass{log: opts.Log}, nil
	})
	Register(PLive, func(opts Options) (Pass, error) {
		return &pLivePass{log: opts.Log}, nil
	})
	Register(XLCleanup, func(opts Options) (Pass, error) {
		return &cleanupPass{log: opts.Log}, nil
	})
	Register(NVAssume, func(opts Options) (Pass, error) {
		extra := make(assume.Table)
		for _, r := range opts.Config.Assume.Ranges {
			extra[r.Name] = assume.Range{Min: r.Min, Max: r.Max}
		}
		return &assumePass{table: assume.DefaultTable().Extend(extra), log: opts.Log}, nil
	})
	Register(RedWidth, func(opts Options) (Pass, error) {
		return &redWidthPass{widths: opts.Config.Narrow.Widths, log: opts.Log}, nil
	})
	Register(PWidth, func(opts Options) (Pass, error) {
		return pWidthPass{}, nil
	})
}

// ============================================================================
// minreg：代码移动建议
// ============================================================================

type minRegPass struct{ log *zap.Logger }

func (p *minRegPass) Name() string { return MinReg }

func (p *minRegPass) RunOnFunction(f *ir.Func) (Output, error) {
	// 每个函数独立创建，不在协程间共享
	rep, _ := codemotion.NewAdvisor(p.log).Run(f)
	return Output{Report: rep}, nil
}

// ============================================================================
// plive：跨块活跃值
// ============================================================================

type pLivePass struct{ log *zap.Logger }

func (p *pLivePass) Name() string { return PLive }

func (p *pLivePass) RunOnFunction(f *ir.Func) (Output, error) {
	var sb strings.Builder
	if err := liveness.Analyze(f, p.log).Fprint(&sb); err != nil {
		return Output{}, err
	}
	return Output{Text: sb.String()}, nil
}

// ============================================================================
// xlcleanup：符号名清理
// ============================================================================

type cleanupPass struct{ log *zap.Logger }

func (p *cleanupPass) Name() string { return XLCleanup }

func (p *cleanupPass) RunOnModule(m *ir.Module) (Output, error) {
	changed, renames := cleanup.Run(m, p.log)
	var sb strings.Builder
	for _, r := range renames {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return Output{Changed: changed, Text: sb.String()}, nil
}

// ============================================================================
// nvassume：特殊寄存器值域假设
// ============================================================================

type assumePass struct {
	table assume.Table
	log   *zap.Logger
}

func (p *assumePass) Name() string { return NVAssume }

func (p *assumePass) RunOnModule(m *ir.Module) (Output, error) {
	return Output{Changed: assume.New(p.table, p.log).RunModule(m)}, nil
}

// ============================================================================
// redwidth / pwidth：位宽收窄与打印
// ============================================================================

type redWidthPass struct {
	widths []int
	log    *zap.Logger
}

func (p *redWidthPass) Name() string { return RedWidth }

func (p *redWidthPass) RunOnFunction(f *ir.Func) (Output, error) {
	return Output{Changed: narrow.New(p.widths, p.log).Run(f)}, nil
}

type pWidthPass struct{}

func (pWidthPass) Name() string { return PWidth }

func (pWidthPass) RunOnFunction(f *ir.Func) (Output, error) {
	var sb strings.Builder
	if err := narrow.PrintWidths(&sb, f); err != nil {
		return Output{}, err
	}
	return Output{Text: sb.String()}, nil
}
