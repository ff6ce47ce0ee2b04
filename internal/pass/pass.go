// Package pass 注册并按流水线运行分析与改写 pass
package pass

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/codemotion"
	"github.com/taylorlloyd/llvmMRIS/internal/config"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// ============================================================================
// Pass 接口
// ============================================================================

// Pass 流水线中的一个步骤
type Pass interface {
	Name() string
}

// FunctionPass 逐函数运行的 pass，不同函数之间可以并行
type FunctionPass interface {
	Pass
	RunOnFunction(f *ir.Func) (Output, error)
}

// ModulePass 作用于整个模块的 pass，串行运行
type ModulePass interface {
	Pass
	RunOnModule(m *ir.Module) (Output, error)
}

// Output 一个 pass 在一个函数（或模块）上的结果
type Output struct {
	Pass    string
	Func    string // 模块 pass 为空
	Changed bool

	// Report 代码移动建议（仅 minreg）
	Report *codemotion.Report

	// Text 文本输出（plive、pwidth、xlcleanup）
	Text string
}

// ============================================================================
// 注册表
// ============================================================================

// Options 创建 pass 时可用的共享设置
type Options struct {
	Log    *zap.Logger
	Config *config.Config
}

// Factory 按设置创建 pass
type Factory func(opts Options) (Pass, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 登记 pass；重复名称会 panic
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("pass: Register called twice for %s", name))
	}
	registry[name] = factory
}

// Lookup 按名称查找 pass 工厂
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names 已登记的 pass 名称（排序）
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
