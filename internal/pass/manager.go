package pass

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/i18n"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// ============================================================================
// Pass 管理器
// ============================================================================

// Manager 按顺序运行 pass
type Manager struct {
	passes []Pass
	pool   *Pool
	log    *zap.Logger
	stats  Stats

	// VerifyEach 每个 pass 之后校验模块结构
	VerifyEach bool
}

// Stats 运行统计
type Stats struct {
	PassesRun      int
	TotalChanges   int
	PerPassChanges map[string]int
	FuncsProcessed int64
}

// String 统计摘要
func (s Stats) String() string {
	return i18n.T(i18n.MsgPassStats, s.PassesRun, s.TotalChanges)
}

// Result 一次流水线运行的结果
type Result struct {
	Outputs []Output // 按 pass 顺序，同一 pass 内按函数顺序
	Changed bool     // 是否有 pass 修改了模块
	Advised bool     // 是否有代码移动建议
}

// NewManager 创建 Pass 管理器；workers <= 0 时使用 CPU 核心数
func NewManager(workers int, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		pool:       NewPool(workers),
		log:        log,
		stats:      Stats{PerPassChanges: make(map[string]int)},
		VerifyEach: true,
	}
}

// FromConfig 按配置文件的 analysis 段创建管理器
func FromConfig(cfg *config.Config, log *zap.Logger) (*Manager, error) {
	pm := NewManager(cfg.Analysis.Workers, log)
	if err := pm.AddByName(Options{Log: log, Config: cfg}, cfg.Analysis.Passes...); err != nil {
		return nil, err
	}
	return pm, nil
}

// AddPass 添加 Pass
func (pm *Manager) AddPass(p Pass) {
	pm.passes = append(pm.passes, p)
}

// AddByName 按注册名添加 pass，所有未知名称一并报告
func (pm *Manager) AddByName(opts Options, names ...string) error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Log == nil {
		opts.Log = pm.log
	}
	var errs error
	for _, name := range names {
		factory, ok := Lookup(name)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s", i18n.T(i18n.MsgUnknownPass, name)))
			continue
		}
		p, err := factory(opts)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pass %s: %w", name, err))
			continue
		}
		pm.AddPass(p)
	}
	return errs
}

// Passes 当前流水线中的 pass 名称
func (pm *Manager) Passes() []string {
	names := make([]string, len(pm.passes))
	for i, p := range pm.passes {
		names[i] = p.Name()
	}
	return names
}

// Stats 获取统计信息
func (pm *Manager) Stats() Stats {
	s := pm.stats
	s.FuncsProcessed = pm.pool.Executed()
	return s
}

// Run 对模块运行所有 Pass
//
// 某个 pass 出错时停止，已产生的输出仍然返回。
func (pm *Manager) Run(ctx context.Context, m *ir.Module) (*Result, error) {
	res := &Result{}
	var advised atomic.Bool
	defer func() { res.Advised = advised.Load() }()

	for _, p := range pm.passes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pm.stats.PassesRun++
		log := pm.log.With(zap.String("pass", p.Name()))
		log.Debug("running pass", zap.String("module", m.Name))

		var changes atomic.Int64
		var outs []Output
		var err error
		switch p := p.(type) {
		case ModulePass:
			var out Output
			out, err = runModule(p, m)
			outs = []Output{out}
			record(out, &changes, &advised)
		case FunctionPass:
			outs, err = pm.runFunctions(ctx, p, m, &changes, &advised)
		default:
			err = fmt.Errorf("pass %s implements neither FunctionPass nor ModulePass", p.Name())
		}

		res.Outputs = append(res.Outputs, outs...)
		n := int(changes.Load())
		if n > 0 {
			res.Changed = true
			pm.stats.TotalChanges += n
			pm.stats.PerPassChanges[p.Name()] += n
		}
		log.Debug("pass finished", zap.Int("changes", n), zap.Error(err))

		if err != nil {
			return res, err
		}
		if pm.VerifyEach && n > 0 {
			if err := m.Verify(); err != nil {
				return res, fmt.Errorf("module invalid after pass %s: %w", p.Name(), err)
			}
		}
	}
	return res, nil
}

// record 累计修改数并记录是否给出建议
func record(out Output, changes *atomic.Int64, advised *atomic.Bool) {
	if out.Changed {
		changes.Inc()
	}
	if out.Report != nil && out.Report.Advised() {
		advised.Store(true)
	}
}

// runFunctions 在协程池上对每个函数运行 pass
func (pm *Manager) runFunctions(ctx context.Context, p FunctionPass, m *ir.Module, changes *atomic.Int64, advised *atomic.Bool) ([]Output, error) {
	outs := make([]Output, len(m.Funcs))
	err := pm.pool.Run(ctx, len(m.Funcs), func(i int) error {
		out, err := runFunction(p, m.Funcs[i])
		outs[i] = out
		record(out, changes, advised)
		return err
	})
	return outs, err
}

// runFunction 运行单个函数，把 IR 断言失败转换为错误
func runFunction(p FunctionPass, f *ir.Func) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s", i18n.T(i18n.MsgPassFailed, p.Name(), f.Name, r))
		}
		out.Pass, out.Func = p.Name(), f.Name
	}()
	out, err = p.RunOnFunction(f)
	if err != nil {
		err = fmt.Errorf("%s: %w", f.Name, err)
	}
	return out, err
}

func runModule(p ModulePass, m *ir.Module) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s", i18n.T(i18n.MsgPassFailed, p.Name(), m.Name, r))
		}
		out.Pass = p.Name()
	}()
	return p.RunOnModule(m)
}
