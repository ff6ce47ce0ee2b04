// Package assume 为 PTX 特殊寄存器读取注入取值范围假设
//
// 每个对表中函数的调用之后插入
//
//	%assume_tmp  = icmp sge T %c, MIN
//	%assume_tmp1 = icmp sle T %c, MAX
//	call void @llvm.assume(i1 %assume_tmp)
//	call void @llvm.assume(i1 %assume_tmp1)
//
// 区间分析随后可以据此收窄这些值的范围。
package assume

import (
	"sort"

	"go.uber.org/zap"

	"github.com/taylorlloyd/llvmMRIS/internal/analysis/vrange"
	"github.com/taylorlloyd/llvmMRIS/internal/ir"
)

// Range 有符号闭区间
type Range struct {
	Min int64 `toml:"min"`
	Max int64 `toml:"max"`
}

// Table 被调函数名到取值范围的映射
type Table map[string]Range

// DefaultTable 内置的 PTX 特殊寄存器表
func DefaultTable() Table {
	return Table{
		"llvm.nvvm.read.ptx.sreg.tid.x":    {0, 1023},
		"llvm.nvvm.read.ptx.sreg.tid.y":    {0, 1023},
		"llvm.nvvm.read.ptx.sreg.tid.z":    {0, 63},
		"llvm.nvvm.read.ptx.sreg.ntid.x":   {1, 1023},
		"llvm.nvvm.read.ptx.sreg.ntid.y":   {1, 1023},
		"llvm.nvvm.read.ptx.sreg.ntid.z":   {1, 63},
		"llvm.nvvm.read.ptx.sreg.ctaid.x":  {0, 2147483645},
		"llvm.nvvm.read.ptx.sreg.ctaid.y":  {0, 65534},
		"llvm.nvvm.read.ptx.sreg.ctaid.z":  {0, 65534},
		"llvm.nvvm.read.ptx.sreg.nctaid.x": {1, 2147483646},
		"llvm.nvvm.read.ptx.sreg.nctaid.y": {1, 65535},
		"llvm.nvvm.read.ptx.sreg.nctaid.z": {1, 65535},
		"llvm.nvvm.read.ptx.sreg.warpsize": {16, 64},
	}
}

// Extend 返回合并了 extra 的新表，extra 中的项覆盖同名内置项
func (t Table) Extend(extra Table) Table {
	out := make(Table, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Names 按字典序返回表中的函数名
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Injector 假设注入器
type Injector struct {
	table Table
	log   *zap.Logger
}

// New 创建注入器；table 为空时使用内置表
func New(table Table, log *zap.Logger) *Injector {
	if table == nil {
		table = DefaultTable()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Injector{table: table, log: log}
}

// RunModule 处理模块中的所有函数，必要时补上 llvm.assume 的声明
func (j *Injector) RunModule(m *ir.Module) bool {
	injected := false
	for _, f := range m.Funcs {
		if j.Run(f) {
			injected = true
		}
	}
	if injected {
		EnsureDecl(m)
	}
	return injected
}

// EnsureDecl 确保模块声明了 llvm.assume
func EnsureDecl(m *ir.Module) {
	if _, ok := m.Decl(vrange.AssumeCallee); !ok {
		m.AddDecl(&ir.Decl{Name: vrange.AssumeCallee, Params: []*ir.Type{ir.I1}, Ret: ir.Void})
	}
}

// Run 在函数中注入假设，返回是否注入了任何内容
func (j *Injector) Run(f *ir.Func) bool {
	injected := false
	for _, b := range f.Blocks {
		// 插入会改变块内下标，先取快照
		ids := append([]ir.InstrID(nil), b.Instrs...)
		for _, id := range ids {
			in := f.Instr(id)
			if in.Op != ir.OpCall || in.Callee == "" || !in.Type.IsInt() {
				continue
			}
			r, ok := j.table[in.Callee]
			if !ok {
				continue
			}
			j.inject(f, in, r)
			injected = true
		}
	}
	return injected
}

func (j *Injector) inject(f *ir.Func, call *ir.Instr, r Range) {
	j.log.Debug("injecting range",
		zap.String("func", f.Name),
		zap.String("callee", call.Callee),
		zap.Int64("min", r.Min),
		zap.Int64("max", r.Max),
	)
	t := call.Type
	v := ir.InstrValue(call.ID)
	pos := call.Pos

	minCmp := f.InsertAfter(call.ID, &ir.Instr{
		Name:     f.UniqueName("assume_tmp"),
		Op:       ir.OpICmp,
		Type:     ir.I1,
		Pred:     ir.PredSGE,
		Operands: []ir.Value{v, ir.ConstIntValue(t, r.Min)},
		Pos:      pos,
	})
	maxCmp := f.InsertAfter(minCmp, &ir.Instr{
		Name:     f.UniqueName("assume_tmp"),
		Op:       ir.OpICmp,
		Type:     ir.I1,
		Pred:     ir.PredSLE,
		Operands: []ir.Value{v, ir.ConstIntValue(t, r.Max)},
		Pos:      pos,
	})
	minCall := f.InsertAfter(maxCmp, assumeCall(minCmp, pos))
	f.InsertAfter(minCall, assumeCall(maxCmp, pos))
}

func assumeCall(cond ir.InstrID, pos ir.Pos) *ir.Instr {
	return &ir.Instr{
		Op:       ir.OpCall,
		Type:     ir.Void,
		Callee:   vrange.AssumeCallee,
		Operands: []ir.Value{ir.InstrValue(cond)},
		Pos:      pos,
	}
}
